package sweep

import (
	"context"

	"github.com/lendwise/circulation-go/circulation"
)

const (
	commandType = "Sweep"

	logMsgSweepCompleted         = "sweep completed"
	logMsgExpireReservationSkip  = "skipping reservation that is no longer expirable"
	logAttrOverdueTransitions    = "overdue_transitions"
	logAttrExpiredReservations   = "expired_reservations"
	logAttrFulfilledReservations = "fulfilled_reservations"
	logAttrReservationID         = "reservation_id"
)

// CommandHandler runs the periodic sweep that advances time-dependent state:
// active loans past their due date move to overdue, and fulfilled
// reservations whose pickup window lapsed expire, release their held copy,
// and hand it to the next queued reservation.
//
// The sweep is idempotent and safely re-entrant: each pass re-reads current
// state, so an interrupted run leaves nothing to repair and a repeated run
// finds nothing left to do.
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

// WithLogger sets the logger for sweep reporting.
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

// Handle runs one sweep evaluated at the given instant and reports what changed.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.SweepReport, error) {
	var report circulation.SweepReport

	overdue, err := h.sweepOverdueLoans(ctx, command)
	if err != nil {
		return report, err
	}

	report.OverdueTransitions = overdue

	expired, fulfilled, err := h.sweepExpiredReservations(ctx, command)
	if err != nil {
		return report, err
	}

	report.ExpiredReservations = expired
	report.FulfilledReservations = fulfilled

	if h.logger != nil {
		h.logger.Info(logMsgSweepCompleted,
			logAttrOverdueTransitions, report.OverdueTransitions,
			logAttrExpiredReservations, report.ExpiredReservations,
			logAttrFulfilledReservations, report.FulfilledReservations)
	}

	return report, nil
}

// sweepOverdueLoans applies the lazy active -> overdue transition to every
// active loan whose due date lies before the sweep instant.
func (h CommandHandler) sweepOverdueLoans(ctx context.Context, command Command) (int, error) {
	transitions := 0

	err := circulation.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		transitions = 0

		return h.store.WithinTx(retryCtx, func(txCtx context.Context, tx circulation.Tx) error {
			loans, err := tx.OpenLoansDueBefore(txCtx, command.OccurredAt)
			if err != nil {
				return err
			}

			for i := range loans {
				loan := loans[i]

				if !loan.EvaluateOverdue(command.OccurredAt) {
					continue
				}

				if err = tx.UpdateLoan(txCtx, loan); err != nil {
					return err
				}

				auditEvent, buildErr := circulation.BuildAuditEvent(
					circulation.LoanOverdueEventType,
					command.OccurredAt,
					circulation.BuildLoanAuditPayload(loan),
				)
				if buildErr != nil {
					return buildErr
				}

				if err = tx.AppendAuditEvent(txCtx, auditEvent); err != nil {
					return err
				}

				transitions++
			}

			return nil
		})
	}, h.retryOptions...)

	if err != nil {
		return 0, err
	}

	return transitions, nil
}

// sweepExpiredReservations expires every fulfilled reservation whose pickup
// window lapsed, releases its held copy back to the pool, and attempts
// fulfillment for the next queued reservation on that resource.
func (h CommandHandler) sweepExpiredReservations(ctx context.Context, command Command) (int, int, error) {
	expired := 0
	fulfilled := 0

	err := circulation.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		expired = 0
		fulfilled = 0

		return h.store.WithinTx(retryCtx, func(txCtx context.Context, tx circulation.Tx) error {
			reservations, err := tx.FulfilledReservationsExpiredBefore(txCtx, command.OccurredAt)
			if err != nil {
				return err
			}

			for i := range reservations {
				reservation := reservations[i]

				expiredNow, fulfilledNow, expireErr := h.expireAndCascade(txCtx, tx, reservation, command)
				if expireErr != nil {
					return expireErr
				}

				expired += expiredNow
				fulfilled += fulfilledNow
			}

			return nil
		})
	}, h.retryOptions...)

	if err != nil {
		return 0, 0, err
	}

	return expired, fulfilled, nil
}

// expireAndCascade expires one reservation and hands the released copy down
// the queue for its resource.
func (h CommandHandler) expireAndCascade(
	ctx context.Context,
	tx circulation.Tx,
	reservation circulation.Reservation,
	command Command,
) (int, int, error) {

	resource, err := tx.ResourceForUpdate(ctx, reservation.ResourceID)
	if err != nil {
		return 0, 0, err
	}

	if err = reservation.Expire(command.OccurredAt); err != nil {
		// A concurrent conversion or a prior interrupted run already moved
		// this reservation on; re-entrancy means we skip, not fail.
		if h.logger != nil {
			h.logger.Warn(logMsgExpireReservationSkip, logAttrReservationID, reservation.ID.String())
		}

		return 0, 0, nil
	}

	if err = resource.IncrementAvailable(); err != nil {
		return 0, 0, err
	}

	if err = tx.UpdateReservation(ctx, reservation); err != nil {
		return 0, 0, err
	}

	auditEvent, err := circulation.BuildAuditEvent(
		circulation.ReservationExpiredEventType,
		command.OccurredAt,
		circulation.BuildReservationAuditPayload(reservation),
	)
	if err != nil {
		return 0, 0, err
	}

	if err = tx.AppendAuditEvent(ctx, auditEvent); err != nil {
		return 0, 0, err
	}

	fulfilled := 0

	for resource.HasAvailableCopies() {
		_, found, fulfillErr := circulation.FulfillNextPending(ctx, tx, &resource, command.OccurredAt, h.policy)
		if fulfillErr != nil {
			return 0, 0, fulfillErr
		}

		if !found {
			break
		}

		fulfilled++
	}

	if err = tx.SaveResource(ctx, resource); err != nil {
		return 0, 0, err
	}

	return 1, fulfilled, nil
}
