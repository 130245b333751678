// Package notify turns engagement events into emails for the counter-party.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/gigboard/internal/application"
	"github.com/oksasatya/gigboard/pkg/mailer"
)

type Outcome int

const (
	Ack Outcome = iota
	// Drop rejects a message that will never succeed.
	Drop
	// Retry requeues after a transient send failure.
	Retry
)

type Worker struct {
	Sender      mailer.Sender
	AppName     string
	Logger      *logrus.Logger
	SendTimeout time.Duration
}

func NewWorker(sender mailer.Sender, appName string, logger *logrus.Logger) *Worker {
	return &Worker{Sender: sender, AppName: appName, Logger: logger, SendTimeout: 15 * time.Second}
}

// Handle processes one event body.
func (w *Worker) Handle(ctx context.Context, body []byte) Outcome {
	var ev application.EngagementEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		w.Logger.WithError(err).Warn("notify: undecodable event dropped")
		return Drop
	}
	fields := logrus.Fields{"engagement_id": ev.EngagementID, "type": ev.Type}

	n, err := mailer.RenderEngagement(mailer.EngagementNotice{
		Kind:          strings.TrimPrefix(ev.Type, "engagement."),
		AppName:       w.AppName,
		RecipientName: ev.RecipientName,
		RecipientTo:   ev.RecipientEmail,
		ActorName:     ev.ActorName,
		Project:       ev.Project,
		Rating:        ev.Rating,
	})
	if err != nil {
		w.Logger.WithError(err).WithFields(fields).Warn("notify: event not renderable, dropped")
		return Drop
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.SendTimeout)
	defer cancel()
	if err := w.Sender.Send(sendCtx, n); err != nil {
		if errors.Is(err, mailer.ErrRejected) {
			w.Logger.WithError(err).WithFields(fields).Warn("notify: recipient rejected, dropped")
			return Drop
		}
		w.Logger.WithError(err).WithFields(fields).Error("notify: send failed, requeueing")
		return Retry
	}
	w.Logger.WithFields(fields).Info("notify: email sent")
	return Ack
}

// Run acknowledges each delivery per Handle's outcome until deliveries closes or ctx ends.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			var err error
			switch w.Handle(ctx, d.Body) {
			case Ack:
				err = d.Ack(false)
			case Drop:
				err = d.Nack(false, false)
			case Retry:
				err = d.Nack(false, true)
			}
			if err != nil {
				w.Logger.WithError(err).Warn("notify: ack failed")
			}
		}
	}
}
