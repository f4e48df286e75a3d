// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package lifecycle

import (
	"github.com/AccelByte/extend-arena-backend/pkg/envelope"
	"github.com/AccelByte/extend-arena-backend/pkg/fleet"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

// ServerAllocator reserves and frees seats on game servers.
type ServerAllocator interface {
	Allocate(scope *envelope.Scope, matchID string, req fleet.SelectRequest) (models.ServerEndpoint, error)
	Release(scope *envelope.Scope, serverID string, matchID string, seats int)
	Vacate(scope *envelope.Scope, serverID string, matchID string, seats int)
}

// Requeuer puts players back in the queue after a cancelled match.
type Requeuer interface {
	Join(scope *envelope.Scope, userID string, req models.JoinRequest) (*models.JoinResult, error)
}

// PlayerTracker starts and stops anti-cheat tracking of match participants.
type PlayerTracker interface {
	InitializePlayer(scope *envelope.Scope, playerID string, matchID string)
	RemovePlayer(scope *envelope.Scope, playerID string) bool
}
