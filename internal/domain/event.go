package domain

import "time"

const (
	EventRentPaymentRecorded = "rent.payment_recorded"
	EventRentLate            = "rent.late"
	EventRentCancelled       = "rent.cancelled"
	EventRentsGenerated      = "rent.generated"
	EventRevisionApplied     = "lease.revision_applied"
	EventLeaseStatusChanged  = "lease.status_changed"
)

// LedgerEvent is published whenever the ledger of an owner changes.
type LedgerEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OwnerID    int64     `json:"owner_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}
