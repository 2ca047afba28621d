package cancelreservation

import (
	"context"

	"github.com/lendwise/circulation-go/circulation"
)

// CommandHandler cancels pending reservations on borrower or admin action.
// Only pending reservations can be cancelled; fulfilled, expired, and already
// cancelled reservations fail with circulation.ErrInvalidTransition.
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

// Handle executes the cancellation and returns the cancelled Reservation.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Reservation, error) {
	var reservation circulation.Reservation

	err := circulation.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		cancelled, execErr := h.executeCommand(retryCtx, command)
		reservation = cancelled

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return circulation.Reservation{}, err
	}

	return reservation, nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.Reservation, error) {
	var reservation circulation.Reservation

	txErr := h.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Tx) error {
		var err error

		reservation, err = tx.Reservation(txCtx, command.ReservationID)
		if err != nil {
			return err
		}

		if err = reservation.Cancel(command.OccurredAt, command.Reason); err != nil {
			return err
		}

		if err = tx.UpdateReservation(txCtx, reservation); err != nil {
			return err
		}

		auditEvent, err := circulation.BuildAuditEvent(
			circulation.ReservationCancelledEventType,
			command.OccurredAt,
			circulation.BuildReservationAuditPayload(reservation),
		)
		if err != nil {
			return err
		}

		return tx.AppendAuditEvent(txCtx, auditEvent)
	})

	if txErr != nil {
		return circulation.Reservation{}, txErr
	}

	return reservation, nil
}
