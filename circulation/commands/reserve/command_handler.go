package reserve

import (
	"context"

	"github.com/google/uuid"

	"github.com/lendwise/circulation-go/circulation"
)

// CommandHandler enqueues reservations on fully-checked-out resources.
//
// Reservation IDs are UUIDv7 so that identifiers of reservations created in
// the same instant still sort in creation order, which keeps the FIFO
// tie-break (ascending ID) deterministic.
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

// Handle executes the reserve command and returns the pending Reservation.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Reservation, error) {
	var reservation circulation.Reservation

	err := circulation.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		created, execErr := h.executeCommand(retryCtx, command)
		reservation = created

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

	reservationID, err := uuid.NewV7()
	if err != nil {
		return circulation.Reservation{}, err
	}

	txErr := h.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Tx) error {
		resource, err := tx.ResourceForUpdate(txCtx, command.ResourceID)
		if err != nil {
			return err
		}

		hasPending, err := tx.HasPendingReservation(txCtx, command.ResourceID, command.BorrowerID)
		if err != nil {
			return err
		}

		reservation, err = Decide(resource, hasPending, reservationID, command)
		if err != nil {
			return err
		}

		if err = tx.InsertReservation(txCtx, reservation); err != nil {
			return err
		}

		auditEvent, err := circulation.BuildAuditEvent(
			circulation.ReservationCreatedEventType,
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
