package notify

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"sentinel/internal/models"
)

func TestEmailNotifierBuildsMessage(t *testing.T) {
	n, err := NewEmailNotifier(EmailConfig{
		Host: "mail.example.com",
		From: "alerts@example.com",
		To:   []string{"ops@example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	n.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	alert := models.Alert{
		Type:      "cpu",
		Severity:  models.SeverityCritical,
		Message:   "cpu is 95 (threshold 80)",
		Value:     95,
		Threshold: 80,
		Timestamp: time.Now().UTC(),
	}
	if err := n.Send(context.Background(), alert); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if gotAddr != "mail.example.com:587" {
		t.Errorf("addr = %q, want default port 587", gotAddr)
	}
	if gotFrom != "alerts@example.com" || len(gotTo) != 1 {
		t.Errorf("from/to = %q/%v", gotFrom, gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: [CRITICAL] cpu alert") {
		t.Errorf("subject missing from message:\n%s", gotMsg)
	}
	if !strings.Contains(gotMsg, "cpu is 95") {
		t.Errorf("body missing alert message:\n%s", gotMsg)
	}
}

func TestEmailNotifierHonorsCancelledContext(t *testing.T) {
	n, err := NewEmailNotifier(EmailConfig{
		Host: "mail.example.com",
		From: "alerts@example.com",
		To:   []string{"ops@example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send called despite cancelled context")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := n.Send(ctx, models.Alert{Type: "cpu", Severity: models.SeverityInfo, Message: "m"}); err == nil {
		t.Fatal("expected context error")
	}
}
