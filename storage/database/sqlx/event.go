package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mazungumzo/core/event"
)

type eventStore struct {
	db *sqlx.DB
}

var _ event.Store = (*eventStore)(nil)

func NewEventStore(db *sql.DB, driverName string) *eventStore {
	return &eventStore{db: sqlx.NewDb(db, driverName)}
}

func (s *eventStore) Insert(ctx context.Context, rec event.Record) (event.Record, error) {
	rec.ID = uuid.New().String()

	query := `INSERT INTO event_record (id, kind, title, body, sender_ref, receiver_ref, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id, kind, title, body, sender_ref, receiver_ref, status, created_at`
	var out event.Record
	err := s.db.GetContext(
		ctx, &out, query,
		rec.ID, rec.Kind, rec.Title, rec.Body, rec.SenderRef, rec.ReceiverRef, rec.Status,
	)
	if err != nil {
		return event.Record{}, event.NewUnavailableError(err)
	}
	return out, nil
}

func (s *eventStore) UpdateStatus(ctx context.Context, id, status string) (event.Record, error) {
	query := `UPDATE event_record SET status = $2 WHERE id = $1
			  RETURNING id, kind, title, body, sender_ref, receiver_ref, status, created_at`
	var out event.Record
	if err := s.db.GetContext(ctx, &out, query, id, status); err != nil {
		if err == sql.ErrNoRows {
			return event.Record{}, event.ErrNotFound
		}
		return event.Record{}, event.NewUnavailableError(err)
	}
	return out, nil
}

func (s *eventStore) Query(ctx context.Context, f event.Filter) ([]event.Record, error) {
	query := `SELECT id, kind, title, body, sender_ref, receiver_ref, status, created_at FROM event_record`

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if len(f.IDs) > 0 {
		ph := make([]string, 0, len(f.IDs))
		for _, id := range f.IDs {
			ph = append(ph, arg(id))
		}
		conds = append(conds, "id IN ("+strings.Join(ph, ",")+")")
	}
	if len(f.Kinds) > 0 {
		ph := make([]string, 0, len(f.Kinds))
		for _, k := range f.Kinds {
			ph = append(ph, arg(k))
		}
		conds = append(conds, "kind IN ("+strings.Join(ph, ",")+")")
	}
	if f.Participant != "" {
		p := arg(f.Participant)
		conds = append(conds, "(sender_ref = "+p+" OR receiver_ref = "+p+")")
	}
	if f.Sender != "" {
		conds = append(conds, "sender_ref = "+arg(f.Sender))
	}
	if f.Receiver != "" {
		conds = append(conds, "receiver_ref = "+arg(f.Receiver))
	}
	if !f.CreatedFrom.IsZero() {
		conds = append(conds, "created_at >= "+arg(f.CreatedFrom))
	}
	if !f.CreatedTo.IsZero() {
		conds = append(conds, "created_at < "+arg(f.CreatedTo))
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at"
	if f.Descending {
		query += " DESC"
	}

	recs := make([]event.Record, 0)
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, event.NewUnavailableError(err)
	}
	return recs, nil
}
