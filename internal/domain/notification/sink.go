package notification

import "context"

type Delivery struct {
	Notification Notification
	Email        string
}

// Sink pushes a stored notification somewhere outside the database.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, delivery Delivery) error
}

// Broker is a Sink that also streams deliveries to live subscribers.
// The returned channel is closed once ctx is done.
type Broker interface {
	Sink
	Subscribe(ctx context.Context, userID string) (<-chan Notification, error)
}

// BatchSink is a Sink that pushes all deliveries of one job in a single call.
type BatchSink interface {
	Sink
	DeliverBatch(ctx context.Context, deliveries []Delivery) error
}

// Announcer fans an announcement out to club members. It is best effort:
// failures are logged and left to the Worker, never returned to the caller.
type Announcer interface {
	Announce(ctx context.Context, announcement Announcement)
}

type Recorder interface {
	NotificationsCreated(kind string, count int)
	FanoutJob(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) NotificationsCreated(string, int) {}

func (nopRecorder) FanoutJob(string) {}

type nopAnnouncer struct{}

func (nopAnnouncer) Announce(context.Context, Announcement) {}

// NopAnnouncer drops every announcement.
func NopAnnouncer() Announcer {
	return nopAnnouncer{}
}
