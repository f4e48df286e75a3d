// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

const defaultInboxSize = 64

// Notifier keeps a bounded inbox per player that clients drain by polling.
type Notifier struct {
	mu        sync.Mutex
	inboxes   map[string][]models.InboxEvent
	inboxSize int
}

func NewNotifier() *Notifier {
	return &Notifier{
		inboxes:   make(map[string][]models.InboxEvent),
		inboxSize: defaultInboxSize,
	}
}

// Emit never blocks, the oldest event is dropped when the inbox is full.
func (n *Notifier) Emit(_ context.Context, userID string, event string, payload interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	inbox := append(n.inboxes[userID], models.InboxEvent{Event: event, Payload: payload, SentAt: time.Now()})
	if len(inbox) > n.inboxSize {
		inbox = inbox[len(inbox)-n.inboxSize:]
	}
	n.inboxes[userID] = inbox

	return nil
}

// Drain returns and clears the inbox of userID.
func (n *Notifier) Drain(_ context.Context, userID string) ([]models.InboxEvent, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	events := n.inboxes[userID]
	delete(n.inboxes, userID)
	return events, nil
}
