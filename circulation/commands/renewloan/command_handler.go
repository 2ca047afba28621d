package renewloan

import (
	"context"

	"github.com/lendwise/circulation-go/circulation"
)

// CommandHandler executes loan renewals.
//
// The overdue transition is evaluated lazily against the command time before
// the renewal is attempted, so a loan whose due date has already passed fails
// with circulation.ErrInvalidTransition: renewal must extend, not rescue, a
// timely loan.
type CommandHandler struct {
	store        circulation.Store
	retryOptions []circulation.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...circulation.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store circulation.Store, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store: store,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the renew command and returns the renewed Loan.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Loan, error) {
	var loan circulation.Loan

	err := circulation.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		renewed, execErr := h.executeCommand(retryCtx, command)
		loan = renewed

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return circulation.Loan{}, err
	}

	return loan, nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.Loan, error) {
	var loan circulation.Loan

	txErr := h.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Tx) error {
		var err error

		loan, err = tx.Loan(txCtx, command.LoanID)
		if err != nil {
			return err
		}

		loan.EvaluateOverdue(command.OccurredAt)

		if err = loan.Renew(command.NewDueDate); err != nil {
			return err
		}

		if err = tx.UpdateLoan(txCtx, loan); err != nil {
			return err
		}

		auditEvent, err := circulation.BuildAuditEvent(
			circulation.LoanRenewedEventType,
			command.OccurredAt,
			circulation.BuildLoanAuditPayload(loan),
		)
		if err != nil {
			return err
		}

		return tx.AppendAuditEvent(txCtx, auditEvent)
	})

	if txErr != nil {
		return circulation.Loan{}, txErr
	}

	return loan, nil
}
