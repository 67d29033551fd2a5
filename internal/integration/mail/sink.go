// Package mail e-mails notifications to club members over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"

	"booknook-go/internal/domain/notification"
	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sender interface {
	DialAndSend(messages ...*gomail.Message) error
}

type Sink struct {
	from   string
	sender sender
}

func NewSink(cfg Config) *Sink {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &Sink{from: cfg.From, sender: dialer}
}

func (s *Sink) Name() string {
	return "smtp"
}

// Deliver skips recipients without an e-mail address on their profile.
func (s *Sink) Deliver(ctx context.Context, delivery notification.Delivery) error {
	return s.DeliverBatch(ctx, []notification.Delivery{delivery})
}

// DeliverBatch sends one job's mail over a single SMTP session.
func (s *Sink) DeliverBatch(ctx context.Context, deliveries []notification.Delivery) error {
	messages := make([]*gomail.Message, 0, len(deliveries))
	for _, delivery := range deliveries {
		if delivery.Email == "" {
			continue
		}
		messages = append(messages, s.compose(delivery))
	}
	if len(messages) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.sender.DialAndSend(messages...)
}

func (s *Sink) compose(delivery notification.Delivery) *gomail.Message {
	message := gomail.NewMessage()
	message.SetHeader("From", s.from)
	message.SetHeader("To", delivery.Email)
	message.SetHeader("Subject", "BookNook: "+delivery.Notification.Title)
	message.SetBody("text/plain", delivery.Notification.Description)
	message.AddAlternative("text/html", renderHTML(delivery.Notification))
	return message
}

func renderHTML(item notification.Notification) string {
	return fmt.Sprintf(`<p><b>%s</b></p><p>%s</p>`, html.EscapeString(item.Title), html.EscapeString(item.Description))
}
