package inmemory

import (
	"context"
	"sync"

	"booknook-go/internal/domain/notification"
)

const subscriberBuffer = 16

// NotificationBroker fans deliveries out to subscribers of this process.
type NotificationBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan notification.Notification]struct{}
}

func NewNotificationBroker() *NotificationBroker {
	return &NotificationBroker{
		subscribers: make(map[string]map[chan notification.Notification]struct{}),
	}
}

func (b *NotificationBroker) Name() string {
	return "inmemory"
}

// Deliver never blocks. A subscriber whose buffer is full misses the item.
func (b *NotificationBroker) Deliver(ctx context.Context, delivery notification.Delivery) error {
	b.Publish(delivery.Notification)
	return nil
}

func (b *NotificationBroker) Publish(item notification.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[item.UserID] {
		select {
		case ch <- item:
		default:
		}
	}
}

func (b *NotificationBroker) Subscribe(ctx context.Context, userID string) (<-chan notification.Notification, error) {
	ch := make(chan notification.Notification, subscriberBuffer)

	b.mu.Lock()
	if b.subscribers[userID] == nil {
		b.subscribers[userID] = make(map[chan notification.Notification]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subscribers[userID], ch)
		if len(b.subscribers[userID]) == 0 {
			delete(b.subscribers, userID)
		}
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// SubscriberCount reports live subscriptions for userID.
func (b *NotificationBroker) SubscriberCount(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[userID])
}
