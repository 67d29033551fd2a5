package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"booknook-go/internal/domain/notification"
	"booknook-go/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel(t *testing.T) {
	assert.Equal(t, "booknook:notifications:user-1", Channel("user-1"))
}

func TestDecodeRoundTrip(t *testing.T) {
	clubID := "club-1"
	item := notification.Notification{ID: "n-1", UserID: "bob", ClubID: &clubID, Title: "New Book Added", Type: notification.TypeBookAdded}
	payload, err := json.Marshal(item)
	require.NoError(t, err)

	decoded, err := decode(string(payload))
	require.NoError(t, err)
	assert.Equal(t, "n-1", decoded.ID)
	require.NotNil(t, decoded.ClubID)
	assert.Equal(t, "club-1", *decoded.ClubID)

	_, err = decode("{")
	assert.Error(t, err)
}

func TestDeliverFailsWithoutServer(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	broker := NewNotificationBroker(client, logger.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := broker.Deliver(ctx, notification.Delivery{Notification: notification.Notification{ID: "n-1", UserID: "bob"}})
	assert.Error(t, err)

	_, err = broker.Subscribe(ctx, "bob")
	assert.Error(t, err)
}
