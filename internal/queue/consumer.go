package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/repository"
)

// Mailer delivers one email event. Implemented by service.Mailer.
type Mailer interface {
	Send(ctx context.Context, ev EmailEvent) error
}

// Consumer drains both event queues in the background.  A failed delivery
// is logged and acked anyway; side effects never block or retry forever.
type Consumer struct {
	Notifications *repository.NotificationRepo
	Mail          Mailer
}

// Run connects, consumes, and reconnects with backoff until ctx is done.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.consumeOnce(ctx); err != nil {
			log.Printf("rabbitmq: consumer stopped: %v (retrying in %s)", err, backoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (c *Consumer) consumeOnce(ctx context.Context) error {
	conn, err := amqp.Dial(brokerURL())
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	for _, q := range []string{NotifyQueueName, EmailQueueName} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return err
		}
	}
	if err := ch.Qos(8, 0, false); err != nil {
		return err
	}

	notify, err := ch.Consume(NotifyQueueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	email, err := ch.Consume(EmailQueueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	log.Printf("rabbitmq: consuming %s and %s", NotifyQueueName, EmailQueueName)

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-closed:
			return err
		case d, ok := <-notify:
			if !ok {
				return amqp.ErrClosed
			}
			c.handleNotification(ctx, d)
		case d, ok := <-email:
			if !ok {
				return amqp.ErrClosed
			}
			c.handleEmail(ctx, d)
		}
	}
}

func (c *Consumer) handleNotification(ctx context.Context, d amqp.Delivery) {
	defer func() { _ = d.Ack(false) }()

	var ev NotificationEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		log.Printf("notify: bad payload: %v", err)
		return
	}
	n := model.Notification{
		UserID:      ev.UserID,
		Title:       ev.Title,
		Message:     ev.Message,
		Type:        ev.Type,
		ReferenceID: ev.ReferenceID,
	}
	if err := c.Notifications.Create(ctx, &n); err != nil {
		log.Printf("notify: store for user %d failed: %v", ev.UserID, err)
	}
}

func (c *Consumer) handleEmail(ctx context.Context, d amqp.Delivery) {
	defer func() { _ = d.Ack(false) }()

	var ev EmailEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		log.Printf("email: bad payload: %v", err)
		return
	}
	if c.Mail == nil {
		return
	}
	if err := c.Mail.Send(ctx, ev); err != nil {
		log.Printf("email: send to %s failed: %v", ev.To, err)
	}
}
