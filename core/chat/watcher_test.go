package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	dummynotif "github.com/trezcool/mazungumzo/services/notification/dummy"
	inmemdb "github.com/trezcool/mazungumzo/storage/database/inmem"
)

func TestRequestWatcher_notifiesTrainersOfNewRequests(t *testing.T) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	store := inmemdb.NewEventStore(db)
	conf := testConfig()
	notifSvc := dummynotif.NewService(conf)
	svc := NewService(store, nil, testLogger(), conf)
	ctx := context.Background()

	w := NewRequestWatcher(store, notifSvc, testLogger())
	w.since = time.Now().UTC().Add(-time.Minute)

	// nothing yet
	assert.NoError(t, w.Check(ctx))
	assert.Len(t, notifSvc.Sent(), 0)

	submitRequest(t, svc, "S1", "T1", "hello")

	assert.NoError(t, w.Check(ctx))
	sent := notifSvc.Sent()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, "T1", sent[0].To[0].Address)
		assert.Equal(t, "New chat request", sent[0].Subject)
	}

	// the same request is not re-notified on the next cycle
	assert.NoError(t, w.Check(ctx))
	assert.Len(t, notifSvc.Sent(), 1)
}
