package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"booknook-go/internal/domain/notification"
	"booknook-go/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
)

const channelPrefix = "booknook:notifications:"

type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects and pings the server once.
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NotificationBroker relays notifications through Redis pub/sub so every
// instance can serve a user's stream.
type NotificationBroker struct {
	client goredis.UniversalClient
	log    logger.Logger
}

func NewNotificationBroker(client goredis.UniversalClient, log logger.Logger) *NotificationBroker {
	return &NotificationBroker{client: client, log: log}
}

func Channel(userID string) string {
	return channelPrefix + userID
}

func (b *NotificationBroker) Name() string {
	return "redis"
}

func (b *NotificationBroker) Deliver(ctx context.Context, delivery notification.Delivery) error {
	payload, err := json.Marshal(delivery.Notification)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, Channel(delivery.Notification.UserID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *NotificationBroker) Subscribe(ctx context.Context, userID string) (<-chan notification.Notification, error) {
	pubsub := b.client.Subscribe(ctx, Channel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan notification.Notification, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				item, err := decode(msg.Payload)
				if err != nil {
					b.log.Warn("notifications.stream: bad redis payload", "err", err, "user_id", userID)
					continue
				}
				select {
				case out <- item:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func decode(payload string) (notification.Notification, error) {
	var item notification.Notification
	err := json.Unmarshal([]byte(payload), &item)
	return item, err
}
