package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mazungumzo/core/event"
)

func seed(t *testing.T, store *eventStore, recs ...event.Record) []event.Record {
	t.Helper()
	out := make([]event.Record, 0, len(recs))
	for _, rec := range recs {
		saved, err := store.Insert(context.Background(), rec)
		if err != nil {
			t.Fatalf("seed() failed: %v", err)
		}
		out = append(out, saved)
	}
	return out
}

func TestEventStore_insertAssignsIDAndTimestamp(t *testing.T) {
	db, _ := Open()
	store := NewEventStore(db)

	rec, err := store.Insert(context.Background(), event.Record{Kind: "chat_request", Body: "hi"})
	assert.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestEventStore_updateStatus(t *testing.T) {
	db, _ := Open()
	store := NewEventStore(db)
	ctx := context.Background()

	recs := seed(t, store, event.Record{Kind: "chat_request", Status: "pending"})

	updated, err := store.UpdateStatus(ctx, recs[0].ID, "approved")
	assert.NoError(t, err)
	assert.Equal(t, "approved", updated.Status)
	assert.Equal(t, recs[0].CreatedAt, updated.CreatedAt)

	_, err = store.UpdateStatus(ctx, "missing", "approved")
	assert.Equal(t, event.ErrNotFound, err)
}

func TestEventStore_queryFilters(t *testing.T) {
	db, _ := Open()
	store := NewEventStore(db)
	ctx := context.Background()

	now := time.Date(2021, 3, 15, 10, 0, 0, 0, time.UTC)
	tick := 0
	store.NowFunc = func() time.Time {
		tick++
		return now.Add(time.Duration(tick) * time.Second)
	}

	recs := seed(t, store,
		event.Record{Kind: "chat_request", SenderRef: "S1", ReceiverRef: "T1"},
		event.Record{Kind: "chat_message", SenderRef: "S1", ReceiverRef: "T1"},
		event.Record{Kind: "chat_message", SenderRef: "T1", ReceiverRef: "S1"},
		event.Record{Kind: "attendance", SenderRef: "S2"},
	)

	ids := func(rr []event.Record) []string {
		out := make([]string, 0, len(rr))
		for _, r := range rr {
			out = append(out, r.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter event.Filter
		want   []string
	}{
		{name: "all ascending", filter: event.Filter{}, want: ids(recs)},
		{name: "by kind", filter: event.Filter{Kinds: []string{"chat_request"}}, want: []string{recs[0].ID}},
		{
			name:   "by kinds",
			filter: event.Filter{Kinds: []string{"chat_message", "live_chat"}},
			want:   []string{recs[1].ID, recs[2].ID},
		},
		{
			name:   "participant matches either side",
			filter: event.Filter{Participant: "S1", Kinds: []string{"chat_message"}},
			want:   []string{recs[1].ID, recs[2].ID},
		},
		{name: "by sender", filter: event.Filter{Sender: "T1"}, want: []string{recs[2].ID}},
		{name: "by receiver", filter: event.Filter{Receiver: "S1"}, want: []string{recs[2].ID}},
		{name: "by ids", filter: event.Filter{IDs: []string{recs[3].ID}}, want: []string{recs[3].ID}},
		{
			name:   "created window",
			filter: event.Filter{CreatedFrom: now.Add(2 * time.Second), CreatedTo: now.Add(4 * time.Second)},
			want:   []string{recs[1].ID, recs[2].ID},
		},
		{
			name:   "descending",
			filter: event.Filter{Descending: true},
			want:   []string{recs[3].ID, recs[2].ID, recs[1].ID, recs[0].ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestEventStore_queryBreaksTimestampTiesByInsertionOrder(t *testing.T) {
	db, _ := Open()
	store := NewEventStore(db)

	now := time.Date(2021, 3, 15, 10, 0, 0, 0, time.UTC)
	store.NowFunc = func() time.Time { return now }

	recs := seed(t, store,
		event.Record{Kind: "chat_message", Body: "one"},
		event.Record{Kind: "chat_message", Body: "two"},
		event.Record{Kind: "chat_message", Body: "three"},
	)

	got, err := store.Query(context.Background(), event.Filter{})
	assert.NoError(t, err)
	if assert.Len(t, got, 3) {
		for i, rec := range recs {
			assert.Equal(t, rec.ID, got[i].ID)
		}
	}
}
