// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AccelByte/extend-arena-backend/pkg/common"
)

// SessionRevoker deletes the session set of a player and leaves a revocation marker that gateways check
// before accepting a token issued earlier.
type SessionRevoker struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewSessionRevoker(client redis.UniversalClient) *SessionRevoker {
	return &SessionRevoker{client: client, now: common.Now}
}

func sessionsKey(userID string) string {
	return keyPrefix + "sessions:" + userID
}

func revokedKey(userID string) string {
	return keyPrefix + "revoked:" + userID
}

func (r *SessionRevoker) RevokeSessions(ctx context.Context, userID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionsKey(userID))
		pipe.Set(ctx, revokedKey(userID), r.now().Unix(), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to revoke sessions of %s: %w", userID, err)
	}
	return nil
}

// revokedAt returns when the sessions of userID were last revoked.
func (r *SessionRevoker) revokedAt(ctx context.Context, userID string) (time.Time, bool, error) {
	unix, err := r.client.Get(ctx, revokedKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read revocation of %s: %w", userID, err)
	}
	return time.Unix(unix, 0), true, nil
}
