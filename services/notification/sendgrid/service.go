package sendgridnotif

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/mazungumzo/core"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type service struct {
	conf       *core.Config
	logger     core.Logger
	from       *sgmail.Email
	subjPrefix string
}

var _ core.NotificationService = (*service)(nil)

// NewService delivers notifications over sendgrid email.
func NewService(conf *core.Config, logger core.Logger) core.NotificationService {
	return &service{
		conf:       conf,
		logger:     logger,
		from:       sgmail.NewEmail(conf.DefaultFromEmail.Name, conf.DefaultFromEmail.Address),
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

func (svc *service) SendNotifications(notifs ...*core.Notification) {
	for _, notif := range notifs {
		notif := notif
		go func() {
			if err := notif.Render(svc.conf.FrontendBaseURL); err != nil {
				svc.logger.Error(fmt.Sprintf("notification: rendering: %v", err), err)
				return
			}
			if notif.HasRecipients() && notif.HasContent() {
				svc.send(*notif)
			}
		}()
	}
}

func (svc *service) prepare(notif core.Notification) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + notif.Subject
	for _, to := range notif.To {
		p.AddTos(svc.getSGEmail(to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", notif.TextContent))
	return m
}

func (svc *service) getSGEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

// send is best-effort: failures are logged and swallowed, never propagated
// to the operation that produced the notification.
func (svc *service) send(notif core.Notification) {
	req := sendgrid.GetRequest(svc.conf.SendgridAPIKey, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(notif))

	res, err := sendgrid.API(req)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("notification: sending: %v", err), err)
		return
	}
	if res.StatusCode >= http.StatusBadRequest {
		svc.logger.Error(fmt.Sprintf("notification: sending: status %d: %s", res.StatusCode, res.Body))
	}
}
