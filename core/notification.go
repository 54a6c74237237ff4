package core

import (
	"bytes"
	"fmt"
	"net/mail"
	"path/filepath"
	"strings"
	"sync"
	texttmpl "text/template"
)

var (
	notifTemplates tmplCache
	notifTmplMu    sync.RWMutex
)

type (
	tmplCache map[string]*texttmpl.Template // {name: *Template}

	// Notification is a short human-readable summary of a chat event,
	// pushed to an external channel (email, console, ...) on a best-effort basis.
	Notification struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// NotificationService is any service that can deliver notifications.
	// Delivery is concurrent and fire-and-forget: failures are logged by
	// the implementation, never surfaced to the caller.
	NotificationService interface {
		SendNotifications(notifs ...*Notification)
	}
)

func (n *Notification) getContextData(frontendBaseURL string) ContextData {
	return ContextData{
		FrontendBaseURL: frontendBaseURL,
		Data:            n.TemplateData,
	}
}

// Render resolves the notification's final text content.
func (n *Notification) Render(frontendBaseURL string) error {
	if n.BodyStr != "" {
		n.TextContent = n.BodyStr
		return nil
	} else if n.TemplateName == "" {
		return nil
	}

	notifTmplMu.RLock()
	tmpl, ok := notifTemplates[n.TemplateName]
	notifTmplMu.RUnlock()
	if !ok {
		return fmt.Errorf("core: notification template %q not found", n.TemplateName)
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, n.getContextData(frontendBaseURL)); err != nil {
		return err
	}
	n.TextContent = buff.String()
	return nil
}

func (n *Notification) HasRecipients() bool { return len(n.To) > 0 }
func (n *Notification) HasContent() bool    { return n.TextContent != "" }

// ParseNotificationTemplates loads the notification templates from
// `assets/templates/notification`. Call it once at app startup.
func ParseNotificationTemplates(conf *Config, logger Logger) {
	cache := make(tmplCache)

	rp := filepath.Join(conf.WorkDir, "assets", "templates", "notification")
	fps, err := filepath.Glob(filepath.Join(rp, "*.txt"))
	if err != nil {
		logger.Error(fmt.Sprintf("core.ParseNotificationTemplates: %v", err), err)
	}

	for _, fp := range fps {
		fname := filepath.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		name := strings.TrimSuffix(fname, filepath.Ext(fname))
		tmpl, err := texttmpl.ParseFiles(filepath.Join(rp, "_base.txt"), fp)
		if err != nil {
			logger.Error(fmt.Sprintf("core.ParseNotificationTemplates: %v", err), err)
			continue
		}
		if conf.Debug || conf.TestMode {
			tmpl = tmpl.Option("missingkey=error")
		}
		cache[name] = tmpl
	}

	notifTmplMu.Lock()
	notifTemplates = cache
	notifTmplMu.Unlock()
}
