package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/mazungumzo/core/event"
)

type row struct {
	rec event.Record
	seq int
}

type eventStore struct {
	db *DB

	// NowFunc assigns record timestamps; mockable
	NowFunc func() time.Time
}

var _ event.Store = (*eventStore)(nil)

func NewEventStore(db *DB) *eventStore {
	return &eventStore{db: db, NowFunc: time.Now}
}

func (s *eventStore) Insert(_ context.Context, rec event.Record) (event.Record, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	rec.ID = uuid.New().String()
	rec.CreatedAt = s.NowFunc().UTC()
	s.db.seq++
	s.db.table[rec.ID] = &row{rec: rec, seq: s.db.seq}
	return rec, nil
}

func (s *eventStore) UpdateStatus(_ context.Context, id, status string) (event.Record, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	r, ok := s.db.table[id]
	if !ok {
		return event.Record{}, event.ErrNotFound
	}
	r.rec.Status = status
	return r.rec, nil
}

func (s *eventStore) Query(_ context.Context, f event.Filter) ([]event.Record, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	rows := make([]*row, 0, len(s.db.table))
	for _, r := range s.db.table {
		if f.Matches(r.rec) {
			rows = append(rows, r)
		}
	}
	// seq breaks ties between records sharing a timestamp
	sort.Slice(rows, func(i, j int) bool {
		ri, rj := rows[i], rows[j]
		if ri.rec.CreatedAt.Equal(rj.rec.CreatedAt) {
			if f.Descending {
				return ri.seq > rj.seq
			}
			return ri.seq < rj.seq
		}
		if f.Descending {
			return ri.rec.CreatedAt.After(rj.rec.CreatedAt)
		}
		return ri.rec.CreatedAt.Before(rj.rec.CreatedAt)
	})

	recs := make([]event.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.rec)
	}
	return recs, nil
}
