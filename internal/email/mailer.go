// Package email hands outbound transactional email to the message queue; a
// separate worker owns the actual provider call.
package email

import (
	"context"
	"log"
	"time"

	"github.com/phani-manda/chatX/internal/rabbitmq"
)

const routingKey = "notifications.email"

// WelcomeEmail is the queue payload for a signup welcome message.
type WelcomeEmail struct {
	Template   string `json:"template"`
	To         string `json:"to"`
	Username   string `json:"username"`
	ClientURL  string `json:"client_url"`
	From       string `json:"from"`
	FromName   string `json:"from_name"`
	OccurredAt string `json:"occurred_at"`
}

// Mailer emits email events over the publisher.
type Mailer struct {
	publisher rabbitmq.Publisher
	from      string
	fromName  string
}

// NewMailer constructs a Mailer.
func NewMailer(publisher rabbitmq.Publisher, from, fromName string) *Mailer {
	return &Mailer{publisher: publisher, from: from, fromName: fromName}
}

// SendWelcome queues the welcome email for a new account. Failures are
// logged, never fatal; signup must not depend on the mail path.
func (m *Mailer) SendWelcome(ctx context.Context, to, username, clientURL string) {
	if m == nil || m.publisher == nil {
		return
	}
	event := WelcomeEmail{
		Template:   "welcome",
		To:         to,
		Username:   username,
		ClientURL:  clientURL,
		From:       m.from,
		FromName:   m.fromName,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := m.publisher.Publish(ctx, routingKey, event); err != nil {
		log.Printf("welcome email publish failed for %s: %v", to, err)
	}
}
