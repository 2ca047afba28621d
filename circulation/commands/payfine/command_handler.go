package payfine

import (
	"context"

	"github.com/lendwise/circulation-go/circulation"
)

// CommandHandler executes fine payments against a loan.
// Fails with circulation.ErrOverpaymentNotAllowed if the payment exceeds the
// outstanding fine and with circulation.ErrInvalidPayment for non-positive
// amounts.
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

// Handle executes the payment and returns the Loan with its reduced fine.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Loan, error) {
	var loan circulation.Loan

	err := circulation.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		paid, execErr := h.executeCommand(retryCtx, command)
		loan = paid

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

		if err = loan.PayFine(command.Amount); err != nil {
			return err
		}

		if err = tx.UpdateLoan(txCtx, loan); err != nil {
			return err
		}

		auditEvent, err := circulation.BuildAuditEvent(
			circulation.FinePaidEventType,
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
