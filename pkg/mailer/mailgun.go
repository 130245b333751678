package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// ErrRejected marks a send the provider refused outright; retrying cannot succeed.
var ErrRejected = errors.New("mailer: message rejected")

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Mailgun sends through the Mailgun HTTP API.
type Mailgun struct {
	client *mg.MailgunImpl
	Sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{client: mg.NewMailgun(domain, apiKey), Sender: sender}
}

func (m *Mailgun) Send(ctx context.Context, n Notification) error {
	msg := m.client.NewMessage(m.Sender, n.Subject, n.Text, n.To)
	if n.HTML != "" {
		msg.SetHtml(n.HTML)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return classify(err)
}

// classify wraps 4xx answers in ErrRejected. 408 and 429 stay retryable.
func classify(err error) error {
	var ure *mg.UnexpectedResponseError
	if !errors.As(err, &ure) {
		return err
	}
	switch {
	case ure.Actual == http.StatusRequestTimeout, ure.Actual == http.StatusTooManyRequests:
		return err
	case ure.Actual >= 400 && ure.Actual < 500:
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return err
}
