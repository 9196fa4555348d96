package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"sentinel/internal/models"
)

// EmailConfig holds SMTP settings for the email notifier
type EmailConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// EmailNotifier delivers alerts over SMTP
type EmailNotifier struct {
	cfg  EmailConfig
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier creates an email notifier from SMTP settings
func NewEmailNotifier(cfg EmailConfig) (*EmailNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("email notifier: host is required")
	}
	if cfg.From == "" || len(cfg.To) == 0 {
		return nil, errors.New("email notifier: from and to are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &EmailNotifier{cfg: cfg, send: smtp.SendMail}, nil
}

// Name returns the channel name
func (e *EmailNotifier) Name() string { return ChannelEmail }

// Send delivers the alert as a plain-text message to all recipients
func (e *EmailNotifier) Send(ctx context.Context, alert models.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	subject := fmt.Sprintf("[%s] %s alert", strings.ToUpper(string(alert.Severity)), alert.Type)
	body := fmt.Sprintf(
		"Alert: %s\r\nSeverity: %s\r\nMessage: %s\r\nValue: %v\r\nThreshold: %v\r\nAt: %s\r\n",
		alert.Type, alert.Severity, alert.Message, alert.Value, alert.Threshold,
		alert.Timestamp.Format("2006-01-02 15:04:05 MST"),
	)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		e.cfg.From, strings.Join(e.cfg.To, ", "), subject, body)

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	return e.send(addr, auth, e.cfg.From, e.cfg.To, []byte(msg))
}
