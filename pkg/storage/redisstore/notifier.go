// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-arena-backend/pkg/common"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

const (
	defaultInboxSize  = 64
	defaultInboxTTL   = time.Hour
	defaultQueueDepth = 1024
	deliveryTimeout   = 2 * time.Second
)

type delivery struct {
	userID string
	event  models.InboxEvent
}

// Notifier publishes every event on the player channel for connected gateways and keeps a bounded
// inbox list that clients drain by polling. Emit only enqueues, a background worker does the I/O.
type Notifier struct {
	client    redis.UniversalClient
	inboxSize int64
	inboxTTL  time.Duration
	queue     chan delivery
	now       func() time.Time
}

func NewNotifier(client redis.UniversalClient) *Notifier {
	return &Notifier{
		client:    client,
		inboxSize: defaultInboxSize,
		inboxTTL:  defaultInboxTTL,
		queue:     make(chan delivery, defaultQueueDepth),
		now:       common.Now,
	}
}

func channelKey(userID string) string {
	return keyPrefix + "notify:" + userID
}

func inboxKey(userID string) string {
	return keyPrefix + "inbox:" + userID
}

// Emit drops the event when the delivery queue is full.
func (n *Notifier) Emit(_ context.Context, userID string, event string, payload interface{}) error {
	select {
	case n.queue <- delivery{userID: userID, event: models.InboxEvent{Event: event, Payload: payload, SentAt: n.now()}}:
		return nil
	default:
		return fmt.Errorf("notification queue full, dropped %s for %s", event, userID)
	}
}

// Run delivers queued events until ctx is done.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-n.queue:
			if err := n.deliver(ctx, d); err != nil {
				logrus.WithFields(logrus.Fields{
					"userID": d.userID,
					"event":  d.event.Event,
				}).Warnf("unable to deliver notification: %s", err.Error())
			}
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, d delivery) error {
	data, err := json.Marshal(d.event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	key := inboxKey(d.userID)
	_, err = n.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, -n.inboxSize, -1)
		pipe.Expire(ctx, key, n.inboxTTL)
		pipe.Publish(ctx, channelKey(d.userID), data)
		return nil
	})
	return err
}

// Drain returns and clears the inbox of userID, oldest first.
func (n *Notifier) Drain(ctx context.Context, userID string) ([]models.InboxEvent, error) {
	key := inboxKey(userID)

	var values *redis.StringSliceCmd
	_, err := n.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		values = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to drain inbox: %w", err)
	}

	events := make([]models.InboxEvent, 0, len(values.Val()))
	for _, raw := range values.Val() {
		var event models.InboxEvent
		if err = json.Unmarshal([]byte(raw), &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
		}
		events = append(events, event)
	}

	return events, nil
}

// subscribe follows the channel of userID. The caller closes the returned subscription.
func (n *Notifier) subscribe(ctx context.Context, userID string) *redis.PubSub {
	return n.client.Subscribe(ctx, channelKey(userID))
}
