package circulation

import (
	"encoding/json"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Audit event type identifiers, one per lifecycle transition.
const (
	LoanCreatedEventType          = "LoanCreated"
	LoanReturnedEventType         = "LoanReturned"
	LoanRenewedEventType          = "LoanRenewed"
	LoanOverdueEventType          = "LoanOverdue"
	FinePaidEventType             = "FinePaid"
	ReservationCreatedEventType   = "ReservationCreated"
	ReservationCancelledEventType = "ReservationCancelled"
	ReservationFulfilledEventType = "ReservationFulfilled"
	ReservationExpiredEventType   = "ReservationExpired"
	ReservationConvertedEventType = "ReservationConverted"
)

var (
	// ErrMarshalingAuditPayloadFailed is returned when an audit payload cannot be serialized.
	ErrMarshalingAuditPayloadFailed = errors.New("marshaling audit payload failed")

	// ErrInvalidAuditPayloadJSON is returned when a raw audit payload is not valid JSON.
	ErrInvalidAuditPayloadJSON = errors.New("audit payload json is not valid")
)

// AuditEvent is one immutable record in the circulation audit log.
// Every committed lifecycle transition appends exactly one, in the same
// transaction as the state change it describes.
//
// While its properties are exported, it should only be constructed with
// BuildAuditEvent so the payload is guaranteed to be valid JSON.
type AuditEvent struct {
	EventType   string
	OccurredAt  time.Time
	PayloadJSON []byte
}

// BuildAuditEvent creates an AuditEvent by serializing the payload with jsoniter.
func BuildAuditEvent(eventType string, occurredAt time.Time, payload any) (AuditEvent, error) {
	payloadJSON, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(payload)
	if err != nil {
		return AuditEvent{}, errors.Join(ErrMarshalingAuditPayloadFailed, err)
	}

	return AuditEvent{
		EventType:   eventType,
		OccurredAt:  ToOccurredAt(occurredAt),
		PayloadJSON: payloadJSON,
	}, nil
}

// BuildAuditEventFromJSON creates an AuditEvent from an already serialized payload.
// Returns an error if the payload is not valid JSON.
func BuildAuditEventFromJSON(eventType string, occurredAt time.Time, payloadJSON []byte) (AuditEvent, error) {
	if !json.Valid(payloadJSON) {
		return AuditEvent{}, ErrInvalidAuditPayloadJSON
	}

	return AuditEvent{
		EventType:   eventType,
		OccurredAt:  ToOccurredAt(occurredAt),
		PayloadJSON: payloadJSON,
	}, nil
}

// LoanAuditPayload is the audit payload shape shared by all loan transitions.
type LoanAuditPayload struct {
	LoanID     string     `json:"loan_id"`
	ResourceID string     `json:"resource_id"`
	BorrowerID string     `json:"borrower_id"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	FineAmount string     `json:"fine_amount"`
	Status     LoanStatus `json:"status"`
}

// BuildLoanAuditPayload creates the audit payload for a loan's current state.
func BuildLoanAuditPayload(loan Loan) LoanAuditPayload {
	return LoanAuditPayload{
		LoanID:     loan.ID.String(),
		ResourceID: loan.ResourceID.String(),
		BorrowerID: loan.BorrowerID.String(),
		DueDate:    loan.DueDate,
		ReturnDate: loan.ReturnDate,
		FineAmount: loan.FineAmount.String(),
		Status:     loan.Status,
	}
}

// ReservationAuditPayload is the audit payload shape shared by all reservation transitions.
type ReservationAuditPayload struct {
	ReservationID      string            `json:"reservation_id"`
	ResourceID         string            `json:"resource_id"`
	BorrowerID         string            `json:"borrower_id"`
	Status             ReservationStatus `json:"status"`
	ExpiryDate         *time.Time        `json:"expiry_date,omitempty"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
}

// BuildReservationAuditPayload creates the audit payload for a reservation's current state.
func BuildReservationAuditPayload(reservation Reservation) ReservationAuditPayload {
	return ReservationAuditPayload{
		ReservationID:      reservation.ID.String(),
		ResourceID:         reservation.ResourceID.String(),
		BorrowerID:         reservation.BorrowerID.String(),
		Status:             reservation.Status,
		ExpiryDate:         reservation.ExpiryDate,
		CancellationReason: reservation.CancellationReason,
	}
}
