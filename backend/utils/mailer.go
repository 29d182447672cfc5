package utils

import (
	"go.uber.org/zap"
)

// Message is an outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers account emails such as password resets.
type Mailer interface {
	Send(msg Message) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	Logger *zap.SugaredLogger
}

func (m *LogMailer) Send(msg Message) error {
	m.Logger.Infow("email queued", "to", msg.To, "subject", msg.Subject)
	m.Logger.Debugw("email body", "subject", msg.Subject, "html", msg.HTML)
	return nil
}
