package core

import (
	"io"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotification_Render(t *testing.T) {
	n := &Notification{
		To:      []mail.Address{{Address: "t1@test.cd"}},
		Subject: "New chat request",
		BodyStr: "Awa sent you a chat request.",
	}
	assert.NoError(t, n.Render("http://localhost:3000"))
	assert.Equal(t, "Awa sent you a chat request.", n.TextContent)
	assert.True(t, n.HasRecipients())
	assert.True(t, n.HasContent())

	// no body and no template is a no-op, not an error
	empty := &Notification{Subject: "x"}
	assert.NoError(t, empty.Render("http://localhost:3000"))
	assert.False(t, empty.HasContent())

	// unknown template must error so callers can log it
	missing := &Notification{TemplateName: "nope"}
	assert.Error(t, missing.Render("http://localhost:3000"))
}

func TestParseNotificationTemplates(t *testing.T) {
	dir := t.TempDir()
	tmplDir := filepath.Join(dir, "assets", "templates", "notification")
	if err := os.MkdirAll(tmplDir, 0o755); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(tmplDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}
	write("_base.txt", `{{template "content" .}} -- {{.FrontendBaseURL}}`)
	write("request_approved.txt", `{{define "content"}}Approved: {{.Data}}{{end}}`)

	conf := &Config{WorkDir: dir, TestMode: true}
	logger := NewStdLogger(log.New(io.Discard, "", 0))
	ParseNotificationTemplates(conf, logger)

	n := &Notification{
		To:           []mail.Address{{Address: "s1@test.cd"}},
		Subject:      "Chat request approved",
		TemplateName: "request_approved",
		TemplateData: "req-1",
	}
	assert.NoError(t, n.Render("http://localhost:3000"))
	assert.Equal(t, "Approved: req-1 -- http://localhost:3000", n.TextContent)
}
