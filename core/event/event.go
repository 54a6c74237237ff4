package event

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("event record not found")

// Record is the single generic row shape supplied by the event store.
// The table is shared with unrelated subsystems (attendance, maintenance, ...)
// that reuse it for their own kinds; consumers must always filter by Kind
// and never assume exclusivity over the store.
type Record struct {
	ID          string    `db:"id" json:"id"`
	Kind        string    `db:"kind" json:"kind"`
	Title       string    `db:"title" json:"title"`
	Body        string    `db:"body" json:"body"`
	SenderRef   string    `db:"sender_ref" json:"sender_ref"`
	ReceiverRef string    `db:"receiver_ref" json:"receiver_ref"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"` // UTC, store-assigned, immutable
}

// Filter applies AND operation on available fields.
// Participant matches either SenderRef or ReceiverRef.
type Filter struct {
	IDs         []string
	Kinds       []string
	Participant string
	Sender      string
	Receiver    string
	CreatedFrom time.Time
	CreatedTo   time.Time
	Descending  bool // ordering is always by CreatedAt
}

func (f Filter) Matches(rec Record) bool {
	if len(f.IDs) > 0 && !contains(f.IDs, rec.ID) {
		return false
	}
	if len(f.Kinds) > 0 && !contains(f.Kinds, rec.Kind) {
		return false
	}
	if f.Participant != "" && rec.SenderRef != f.Participant && rec.ReceiverRef != f.Participant {
		return false
	}
	if f.Sender != "" && rec.SenderRef != f.Sender {
		return false
	}
	if f.Receiver != "" && rec.ReceiverRef != f.Receiver {
		return false
	}
	if !f.CreatedFrom.IsZero() && rec.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && !rec.CreatedAt.Before(f.CreatedTo) {
		return false
	}
	return true
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// Store is the injected event-record capability.
// Exactly these three operation shapes are available: no transactions,
// no conditional writes, no joins beyond the Filter equality fields.
type Store interface {
	// Insert persists a new record; ID and CreatedAt are store-assigned.
	Insert(ctx context.Context, rec Record) (Record, error)
	// UpdateStatus updates a record's status tag in place.
	UpdateStatus(ctx context.Context, id, status string) (Record, error)
	// Query returns the records matching the filter, ordered by CreatedAt.
	Query(ctx context.Context, f Filter) ([]Record, error)
}

// UnavailableError indicates the underlying store call failed
// (network/availability). Read paths should degrade to last known state;
// the next poll cycle is the implicit retry.
type UnavailableError struct {
	Err error
}

func NewUnavailableError(err error) error {
	return &UnavailableError{Err: err}
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return "event store unavailable"
	}
	return "event store unavailable: " + e.Err.Error()
}

func IsUnavailable(err error) bool {
	_, ok := errors.Cause(err).(*UnavailableError)
	return ok
}
