// Package mailer delivers service mail.
// Only the log transport exists: letters are written to the logger.
package mailer

import (
	"context"
	"sync"

	"github.com/nkiryanov/smallsquare/internal/logger"
)

type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// LogMailer writes letters to logger and remembers the last ones
type LogMailer struct {
	from   string
	logger logger.Logger

	mu   sync.Mutex
	sent []Message
}

const keepSent = 100

func NewLogMailer(from string, l logger.Logger) *LogMailer {
	return &LogMailer{from: from, logger: l.With("component", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, to string, subject string, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := Message{From: m.from, To: to, Subject: subject, Body: body}
	m.logger.Info("mail sent", "from", msg.From, "to", msg.To, "subject", msg.Subject, "body", msg.Body)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	if len(m.sent) > keepSent {
		m.sent = m.sent[len(m.sent)-keepSent:]
	}

	return nil
}

// Sent returns copy of recently sent messages, oldest first
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// Last returns the most recent message sent to the address
func (m *LogMailer) Last(to string) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == to {
			return m.sent[i], true
		}
	}
	return Message{}, false
}
