package notifsvc

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mazungumzo/core"
)

type consoleService struct {
	conf       *core.Config
	subjPrefix string
}

var _ core.NotificationService = (*consoleService)(nil)

// NewConsoleService delivers notifications to stdout; DEV only.
func NewConsoleService(conf *core.Config) core.NotificationService {
	return &consoleService{
		conf:       conf,
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

func (svc consoleService) SendNotifications(notifs ...*core.Notification) {
	for _, notif := range notifs {
		go svc.sendNotification(notif)
	}
}

func (svc consoleService) sendNotification(notif *core.Notification) {
	if err := notif.Render(svc.conf.FrontendBaseURL); err != nil {
		log.Printf("%+v", errors.Wrap(err, "rendering notification"))
		return
	}
	if notif.HasRecipients() && notif.HasContent() {
		svc.send(*notif)
	}
}

func (svc consoleService) send(notif core.Notification) {
	body := new(strings.Builder)
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.conf.DefaultFromEmail.String())
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+notif.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", svc.joinAddresses(notif.To))
	_, _ = fmt.Fprint(body, "\r\n")
	_, _ = fmt.Fprintf(body, "%s\r\n", notif.TextContent)
	log.Println(body.String())
}

func (svc consoleService) joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
