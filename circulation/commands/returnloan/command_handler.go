package returnloan

import (
	"context"
	"errors"

	"github.com/lendwise/circulation-go/circulation"
)

const (
	logMsgInventoryInvariantViolated = "inventory invariant violated on return, copy count would exceed total"
	logAttrLoanID                    = "loan_id"
	logAttrResourceID                = "resource_id"
)

// CommandHandler orchestrates the return workflow as one atomic operation:
// the loan moves to returned with its fine computed, the copy goes back into
// the inventory pool, and the head of the reservation queue - if any - is
// fulfilled with the freed copy, all in a single store transaction.
type CommandHandler struct {
	store        circulation.Store
	policy       circulation.Policy
	logger       circulation.Logger
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

// WithLogger sets the logger used to surface invariant violations.
func WithLogger(logger circulation.Logger) Option {
	return func(h *CommandHandler) {
		h.logger = logger
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store circulation.Store, policy circulation.Policy, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store:  store,
		policy: policy,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the return command and returns the closed Loan.
// Fails with circulation.ErrAlreadyReturned on a double return; the first
// return's fine and return date are left untouched.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Loan, error) {
	var loan circulation.Loan

	err := circulation.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		returned, execErr := h.executeCommand(retryCtx, command)
		loan = returned

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

		resource, err := tx.ResourceForUpdate(txCtx, loan.ResourceID)
		if err != nil {
			return err
		}

		loan.EvaluateOverdue(command.OccurredAt)

		if err = loan.MarkReturned(command.OccurredAt, h.policy); err != nil {
			return err
		}

		if err = resource.IncrementAvailable(); err != nil {
			if errors.Is(err, circulation.ErrInvariantViolation) && h.logger != nil {
				h.logger.Error(logMsgInventoryInvariantViolated,
					logAttrLoanID, loan.ID.String(),
					logAttrResourceID, resource.ID.String())
			}

			return err
		}

		if err = tx.UpdateLoan(txCtx, loan); err != nil {
			return err
		}

		auditEvent, err := circulation.BuildAuditEvent(
			circulation.LoanReturnedEventType,
			command.OccurredAt,
			circulation.BuildLoanAuditPayload(loan),
		)
		if err != nil {
			return err
		}

		if err = tx.AppendAuditEvent(txCtx, auditEvent); err != nil {
			return err
		}

		// The freed copy goes to the oldest pending reservation, if any.
		if _, _, err = circulation.FulfillNextPending(txCtx, tx, &resource, command.OccurredAt, h.policy); err != nil {
			return err
		}

		return tx.SaveResource(txCtx, resource)
	})

	if txErr != nil {
		return circulation.Loan{}, txErr
	}

	return loan, nil
}
