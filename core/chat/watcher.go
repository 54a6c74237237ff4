package chat

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mazungumzo/core"
	"github.com/trezcool/mazungumzo/core/event"
)

// RequestWatcher is the poll-driven consumer behind the notifier daemon:
// each cycle it picks up chat requests created since the previous one and
// pushes a trainer-facing notification for those still pending.
type RequestWatcher struct {
	store    event.Store
	notifSvc core.NotificationService
	logger   core.Logger

	since   time.Time
	nowFunc func() time.Time // mockable
}

func NewRequestWatcher(store event.Store, notifSvc core.NotificationService, logger core.Logger) *RequestWatcher {
	w := &RequestWatcher{
		store:    store,
		notifSvc: notifSvc,
		logger:   logger,
		nowFunc:  time.Now,
	}
	w.since = w.nowFunc().UTC()
	return w
}

// Check is the Poller fetch callback.
func (w *RequestWatcher) Check(ctx context.Context) error {
	now := w.nowFunc().UTC()
	recs, err := w.store.Query(ctx, event.Filter{
		Kinds:       []string{KindRequest},
		CreatedFrom: w.since,
		CreatedTo:   now,
	})
	if err != nil {
		return errors.Wrap(err, "querying new chat requests")
	}
	w.since = now

	notifs := make([]*core.Notification, 0, len(recs))
	for _, rec := range recs {
		d := Decode(rec)
		if d.Kind != DecodedRequest || d.Request.State != StatePending {
			continue
		}
		notifs = append(notifs, &core.Notification{
			To:           []mail.Address{{Address: d.Request.ToUserID}},
			Subject:      "New chat request",
			TemplateName: "request_submitted",
			TemplateData: d.Request,
		})
	}
	if len(notifs) > 0 {
		w.notifSvc.SendNotifications(notifs...)
	}
	return nil
}
