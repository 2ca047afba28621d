// Package memoryengine provides an in-memory transactional implementation of
// the circulation Store. It keeps the domain dependency one-way (domain ->
// nothing) and gives tests and embedded use a deterministic store without a
// database.
//
// Transactions are serialized by a single mutex and run against a cloned
// state, so a failed transaction leaves the committed state untouched. The
// serialization is stronger than the row-scoped locking the Postgres engine
// uses, which makes concurrency properties easy to assert in tests.
package memoryengine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lendwise/circulation-go/circulation"
)

// Store is an in-memory circulation.Store.
type Store struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	resources     map[uuid.UUID]circulation.Resource
	loans         map[uuid.UUID]circulation.Loan
	reservations  map[uuid.UUID]circulation.Reservation
	auditLog      []circulation.AuditEvent
}

func newState() *state {
	return &state{
		resources:    make(map[uuid.UUID]circulation.Resource),
		loans:        make(map[uuid.UUID]circulation.Loan),
		reservations: make(map[uuid.UUID]circulation.Reservation),
	}
}

func (s *state) clone() *state {
	cloned := &state{
		resources:    make(map[uuid.UUID]circulation.Resource, len(s.resources)),
		loans:        make(map[uuid.UUID]circulation.Loan, len(s.loans)),
		reservations: make(map[uuid.UUID]circulation.Reservation, len(s.reservations)),
		auditLog:     make([]circulation.AuditEvent, len(s.auditLog)),
	}

	for id, resource := range s.resources {
		cloned.resources[id] = resource
	}

	for id, loan := range s.loans {
		cloned.loans[id] = loan
	}

	for id, reservation := range s.reservations {
		cloned.reservations[id] = reservation
	}

	copy(cloned.auditLog, s.auditLog)

	return cloned
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{state: newState()}
}

// WithinTx implements circulation.Store. The callback runs against a clone of
// the committed state; the clone replaces the committed state only when the
// callback returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx circulation.Tx) error) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.Join(circulation.ErrStoreUnavailable, err)
		}

		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()

	if err := fn(ctx, &memoryTx{state: working}); err != nil {
		return err
	}

	s.state = working

	return nil
}

// SeedResource inserts or replaces a resource outside of any transaction.
// Intended for test arrangement.
func (s *Store) SeedResource(resource circulation.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.resources[resource.ID] = resource
}

// GetResource reads a resource from the committed state.
func (s *Store) GetResource(resourceID uuid.UUID) (circulation.Resource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resource, ok := s.state.resources[resourceID]

	return resource, ok
}

// GetLoan reads a loan from the committed state.
func (s *Store) GetLoan(loanID uuid.UUID) (circulation.Loan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.state.loans[loanID]

	return loan, ok
}

// GetReservation reads a reservation from the committed state.
func (s *Store) GetReservation(reservationID uuid.UUID) (circulation.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.state.reservations[reservationID]

	return reservation, ok
}

// AuditEvents returns a copy of the committed audit log in append order.
func (s *Store) AuditEvents() []circulation.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]circulation.AuditEvent, len(s.state.auditLog))
	copy(events, s.state.auditLog)

	return events
}

// memoryTx implements circulation.Tx against a working copy of the state.
type memoryTx struct {
	state *state
}

func (t *memoryTx) ResourceForUpdate(_ context.Context, resourceID uuid.UUID) (circulation.Resource, error) {
	resource, ok := t.state.resources[resourceID]
	if !ok {
		return circulation.Resource{}, circulation.ErrResourceNotFound
	}

	return resource, nil
}

func (t *memoryTx) SaveResource(_ context.Context, resource circulation.Resource) error {
	if _, ok := t.state.resources[resource.ID]; !ok {
		return circulation.ErrResourceNotFound
	}

	t.state.resources[resource.ID] = resource

	return nil
}

func (t *memoryTx) Loan(_ context.Context, loanID uuid.UUID) (circulation.Loan, error) {
	loan, ok := t.state.loans[loanID]
	if !ok {
		return circulation.Loan{}, circulation.ErrLoanNotFound
	}

	return loan, nil
}

func (t *memoryTx) InsertLoan(_ context.Context, loan circulation.Loan) error {
	t.state.loans[loan.ID] = loan

	return nil
}

func (t *memoryTx) UpdateLoan(_ context.Context, loan circulation.Loan) error {
	if _, ok := t.state.loans[loan.ID]; !ok {
		return circulation.ErrLoanNotFound
	}

	t.state.loans[loan.ID] = loan

	return nil
}

func (t *memoryTx) CountOpenLoans(_ context.Context, borrowerID uuid.UUID) (int, error) {
	count := 0

	for _, loan := range t.state.loans {
		if loan.BorrowerID == borrowerID && loan.IsOpen() {
			count++
		}
	}

	return count, nil
}

func (t *memoryTx) OpenLoansDueBefore(_ context.Context, cutoff time.Time) ([]circulation.Loan, error) {
	var loans []circulation.Loan

	for _, loan := range t.state.loans {
		if loan.Status == circulation.LoanStatusActive && loan.DueDate.Before(cutoff) {
			loans = append(loans, loan)
		}
	}

	sort.Slice(loans, func(i, j int) bool {
		if !loans[i].DueDate.Equal(loans[j].DueDate) {
			return loans[i].DueDate.Before(loans[j].DueDate)
		}

		return loans[i].ID.String() < loans[j].ID.String()
	})

	return loans, nil
}

func (t *memoryTx) Reservation(_ context.Context, reservationID uuid.UUID) (circulation.Reservation, error) {
	reservation, ok := t.state.reservations[reservationID]
	if !ok {
		return circulation.Reservation{}, circulation.ErrReservationNotFound
	}

	return reservation, nil
}

func (t *memoryTx) InsertReservation(_ context.Context, reservation circulation.Reservation) error {
	t.state.reservations[reservation.ID] = reservation

	return nil
}

func (t *memoryTx) UpdateReservation(_ context.Context, reservation circulation.Reservation) error {
	if _, ok := t.state.reservations[reservation.ID]; !ok {
		return circulation.ErrReservationNotFound
	}

	t.state.reservations[reservation.ID] = reservation

	return nil
}

func (t *memoryTx) HasPendingReservation(_ context.Context, resourceID uuid.UUID, borrowerID uuid.UUID) (bool, error) {
	for _, reservation := range t.state.reservations {
		if reservation.ResourceID == resourceID &&
			reservation.BorrowerID == borrowerID &&
			reservation.Status == circulation.ReservationStatusPending {
			return true, nil
		}
	}

	return false, nil
}

func (t *memoryTx) FulfilledReservation(_ context.Context, resourceID uuid.UUID, borrowerID uuid.UUID) (circulation.Reservation, bool, error) {
	for _, reservation := range t.state.reservations {
		if reservation.ResourceID == resourceID &&
			reservation.BorrowerID == borrowerID &&
			reservation.Status == circulation.ReservationStatusFulfilled {
			return reservation, true, nil
		}
	}

	return circulation.Reservation{}, false, nil
}

func (t *memoryTx) NextPendingReservation(_ context.Context, resourceID uuid.UUID) (circulation.Reservation, bool, error) {
	var pending []circulation.Reservation

	for _, reservation := range t.state.reservations {
		if reservation.ResourceID == resourceID && reservation.Status == circulation.ReservationStatusPending {
			pending = append(pending, reservation)
		}
	}

	if len(pending) == 0 {
		return circulation.Reservation{}, false, nil
	}

	// FIFO by reservation date, ties broken by ascending ID for determinism.
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].ReservationDate.Equal(pending[j].ReservationDate) {
			return pending[i].ReservationDate.Before(pending[j].ReservationDate)
		}

		return pending[i].ID.String() < pending[j].ID.String()
	})

	return pending[0], true, nil
}

func (t *memoryTx) FulfilledReservationsExpiredBefore(_ context.Context, cutoff time.Time) ([]circulation.Reservation, error) {
	var expired []circulation.Reservation

	for _, reservation := range t.state.reservations {
		if reservation.Status == circulation.ReservationStatusFulfilled &&
			reservation.ExpiryDate != nil &&
			reservation.ExpiryDate.Before(cutoff) {
			expired = append(expired, reservation)
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		if !expired[i].ExpiryDate.Equal(*expired[j].ExpiryDate) {
			return expired[i].ExpiryDate.Before(*expired[j].ExpiryDate)
		}

		return expired[i].ID.String() < expired[j].ID.String()
	})

	return expired, nil
}

func (t *memoryTx) AppendAuditEvent(_ context.Context, event circulation.AuditEvent) error {
	t.state.auditLog = append(t.state.auditLog, event)

	return nil
}

// Ensure the interfaces are implemented.
var (
	_ circulation.Store = (*Store)(nil)
	_ circulation.Tx    = (*memoryTx)(nil)
)
