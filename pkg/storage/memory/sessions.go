// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package memory

import (
	"context"
	"sync"
	"time"
)

// SessionRevoker remembers which players had their sessions revoked.
type SessionRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewSessionRevoker() *SessionRevoker {
	return &SessionRevoker{revoked: make(map[string]time.Time)}
}

func (r *SessionRevoker) RevokeSessions(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.revoked[userID] = time.Now()
	return nil
}

// Revoked reports whether the sessions of userID were revoked.
func (r *SessionRevoker) Revoked(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.revoked[userID]
	return ok
}
