// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package matchmaker provides the queue, the party system and the match builder of the arena backend.
package matchmaker

import (
	"time"

	"github.com/AccelByte/extend-arena-backend/pkg/envelope"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

/*
MatchRequester receives the groups formed by the queue tick. It is implemented by the match lifecycle
coordinator which finds a server and opens the acceptance window.

RequestMatch returning an error means the group could not be placed, the queue then puts the players
back with their original join time so their tolerance keeps growing from where it was.
*/
type MatchRequester interface {
	RequestMatch(scope *envelope.Scope, group models.MatchGroup) error
}

// MatchLookup tells whether a player is booked in a pending or live match.
type MatchLookup interface {
	InMatch(userID string) bool
}

// WaitEstimator predicts how long a player will wait for a match.
type WaitEstimator interface {
	Estimate(input EstimateInput) time.Duration
}

// EstimateInput describes the bucket a player waits in.
type EstimateInput struct {
	// Position is 1 based.
	Position   int
	BucketSize int
	PartySize  int
	TickRate   time.Duration
}
