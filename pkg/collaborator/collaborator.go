// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package collaborator holds the interfaces of the external systems the arena core talks to.
// Storage engines and transports live behind them, see pkg/storage.
package collaborator

import (
	"context"
	"time"

	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

// QueueStore keeps queue membership durable across restarts.
type QueueStore interface {
	// Put stores the entry under its bucket, the entry expires after ttl.
	Put(ctx context.Context, entry models.QueueEntry, ttl time.Duration) error

	// Remove deletes the entry of userID from bucket. Removing a missing entry is not an error.
	Remove(ctx context.Context, bucket models.BucketKey, userID string) error

	// Members returns the live entries of a bucket.
	Members(ctx context.Context, bucket models.BucketKey) ([]models.QueueEntry, error)

	// All returns every live entry, used to restore the queue on start.
	All(ctx context.Context) ([]models.QueueEntry, error)
}

// RecordStore persists matches, bans, violations and trust factors for audit.
type RecordStore interface {
	SaveMatch(ctx context.Context, record models.MatchRecord) error
	GetMatch(ctx context.Context, matchID string) (*models.MatchRecord, error)

	SaveViolation(ctx context.Context, violation models.Violation) error
	ListViolations(ctx context.Context, playerID string, limit int) ([]models.Violation, error)

	SaveBan(ctx context.Context, ban models.Ban) error
	// GetBan returns nil when the player was never banned.
	GetBan(ctx context.Context, playerID string) (*models.Ban, error)

	SaveTrustFactor(ctx context.Context, playerID string, trustFactor float64) error
	// GetTrustFactor returns false when nothing is stored for the player.
	GetTrustFactor(ctx context.Context, playerID string) (float64, bool, error)
}

// Notifier delivers events to players. Emit must not block on the transport.
type Notifier interface {
	Emit(ctx context.Context, userID string, event string, payload interface{}) error
}

// Inbox lets clients poll the events emitted to them.
type Inbox interface {
	Drain(ctx context.Context, userID string) ([]models.InboxEvent, error)
}

// SessionAuthority knows whether a player may play and can log them out.
type SessionAuthority interface {
	PlayerStanding(ctx context.Context, userID string) (models.Standing, error)
	InvalidateSessions(ctx context.Context, userID string) error
}
