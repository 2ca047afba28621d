package borrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/lendwise/circulation-go/circulation"
)

// CommandHandler orchestrates the complete borrow workflow: load current
// state, apply the pure business decision, and persist the loan and the
// inventory decrement within a single store transaction.
// Transaction conflicts are retried with exponential backoff.
type CommandHandler struct {
	store        circulation.Store
	policy       circulation.Policy
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

// Handle executes the borrow command and returns the created Loan.
// A borrower picking up their fulfilled reservation gets the held copy and
// the hold is closed out; otherwise a copy is taken from the available pool.
// When no copies are available it fails with circulation.ErrOutOfStock and
// produces no loan - the caller decides whether to enqueue a reservation.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Loan, error) {
	var loan circulation.Loan

	err := circulation.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		created, execErr := h.executeCommand(retryCtx, command)
		loan = created

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
		resource, err := tx.ResourceForUpdate(txCtx, command.ResourceID)
		if err != nil {
			return err
		}

		hold, holdFound, err := tx.FulfilledReservation(txCtx, command.ResourceID, command.BorrowerID)
		if err != nil {
			return err
		}

		convertibleHold := holdFound && hold.PickupWindowOpen(command.OccurredAt)

		openLoanCount, err := tx.CountOpenLoans(txCtx, command.BorrowerID)
		if err != nil {
			return err
		}

		loan, err = Decide(resource, openLoanCount, convertibleHold, h.policy, uuid.New(), command)
		if err != nil {
			return err
		}

		if convertibleHold {
			// The copy is already held for this borrower; the hold closes out
			// and the loan takes it over without touching the pool.
			if err = hold.ConvertToLoan(command.OccurredAt); err != nil {
				return err
			}

			if err = tx.UpdateReservation(txCtx, hold); err != nil {
				return err
			}
		} else {
			if err = resource.DecrementAvailable(); err != nil {
				return err
			}

			if err = tx.SaveResource(txCtx, resource); err != nil {
				return err
			}
		}

		if err = tx.InsertLoan(txCtx, loan); err != nil {
			return err
		}

		auditEvent, err := circulation.BuildAuditEvent(
			circulation.LoanCreatedEventType,
			command.OccurredAt,
			circulation.BuildLoanAuditPayload(loan),
		)
		if err != nil {
			return err
		}

		if err = tx.AppendAuditEvent(txCtx, auditEvent); err != nil {
			return err
		}

		if convertibleHold {
			convertedEvent, buildErr := circulation.BuildAuditEvent(
				circulation.ReservationConvertedEventType,
				command.OccurredAt,
				circulation.BuildReservationAuditPayload(hold),
			)
			if buildErr != nil {
				return buildErr
			}

			return tx.AppendAuditEvent(txCtx, convertedEvent)
		}

		return nil
	})

	if txErr != nil {
		return circulation.Loan{}, txErr
	}

	return loan, nil
}
