// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"context"
	"sync"
)

type Notification struct {
	UserID  string
	Event   string
	Payload interface{}
}

// RecordingNotifier keeps every emitted event in memory.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []Notification
}

func (n *RecordingNotifier) Emit(_ context.Context, userID string, event string, payload interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, Notification{UserID: userID, Event: event, Payload: payload})
	return nil
}

func (n *RecordingNotifier) All() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]Notification(nil), n.events...)
}

// Events returns the event names sent to userID in order.
func (n *RecordingNotifier) Events(userID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	var names []string
	for _, e := range n.events {
		if e.UserID == userID {
			names = append(names, e.Event)
		}
	}
	return names
}

// Count returns how many times event was sent to anyone.
func (n *RecordingNotifier) Count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	count := 0
	for _, e := range n.events {
		if e.Event == event {
			count++
		}
	}
	return count
}

// Last returns the last notification of event for userID.
func (n *RecordingNotifier) Last(userID string, event string) (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].UserID == userID && n.events[i].Event == event {
			return n.events[i], true
		}
	}
	return Notification{}, false
}
