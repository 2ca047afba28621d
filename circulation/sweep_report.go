package circulation

// SweepReport summarizes one run of the periodic sweep that advances
// time-dependent state.
type SweepReport struct {
	// OverdueTransitions counts active loans moved to overdue.
	OverdueTransitions int

	// ExpiredReservations counts fulfilled reservations whose pickup window
	// lapsed and whose held copy was released back to the pool.
	ExpiredReservations int

	// FulfilledReservations counts pending reservations that were fulfilled
	// with copies released by expired holds.
	FulfilledReservations int
}
