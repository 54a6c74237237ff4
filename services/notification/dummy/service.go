package dummynotif

import (
	"sync"

	"github.com/trezcool/mazungumzo/core"
)

// service records notifications instead of delivering them; tests only.
// Delivery is synchronous so tests can assert on Sent right away.
type service struct {
	conf *core.Config

	mu   sync.Mutex
	sent []core.Notification
}

var _ core.NotificationService = (*service)(nil)

func NewService(conf *core.Config) *service {
	return &service{conf: conf}
}

func (svc *service) SendNotifications(notifs ...*core.Notification) {
	for _, notif := range notifs {
		_ = notif.Render(svc.conf.FrontendBaseURL)
		if notif.HasRecipients() {
			svc.mu.Lock()
			svc.sent = append(svc.sent, *notif)
			svc.mu.Unlock()
		}
	}
}

func (svc *service) Sent() []core.Notification {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]core.Notification, len(svc.sent))
	copy(out, svc.sent)
	return out
}

func (svc *service) Reset() {
	svc.mu.Lock()
	svc.sent = nil
	svc.mu.Unlock()
}
