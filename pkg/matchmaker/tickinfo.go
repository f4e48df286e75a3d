// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"time"
)

// TickInfo stores what one queue tick did
type TickInfo struct {
	Timestamp        time.Time `json:"timestamp"`
	TickID           int64     `json:"tickID"`
	Skipped          bool      `json:"skipped"`
	BucketsProcessed int       `json:"bucketsProcessed"`
	MatchCreated     int       `json:"matchCreated"`
	PlayersMatched   int       `json:"playersMatched"`
	PlayersTimedOut  int       `json:"playersTimedOut"`
	PlayersRequeued  int       `json:"playersRequeued"`
	TotalInQueue     int       `json:"totalInQueue"`
	InvitesExpired   int       `json:"invitesExpired"`

	Elapsed time.Duration `json:"elapsed"`
}
