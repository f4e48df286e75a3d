// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package anticheat

import (
	"time"

	"github.com/AccelByte/extend-arena-backend/pkg/constants"
	"github.com/AccelByte/extend-arena-backend/pkg/mathutil"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

type movementRecord struct {
	position  mathutil.Vector
	velocity  mathutil.Vector
	speed     float64
	timestamp time.Time
}

type shotRecord struct {
	weaponID  string
	hit       bool
	headshot  bool
	timestamp time.Time
}

type aimRecord struct {
	viewAngle  float64
	angleDelta float64
	timestamp  time.Time
}

type networkRecord struct {
	ping       int
	tickRate   int
	packetLoss float64
	timestamp  time.Time
}

// playerState is the telemetry state of one player in one match. Only the monitor touches it, under its lock.
type playerState struct {
	playerID string
	matchID  string
	joinedAt time.Time
	alive    bool

	position     mathutil.Vector
	velocity     mathutil.Vector
	lastMoveTime time.Time
	movements    []movementRecord

	lastShotTime time.Time
	shots        []shotRecord
	shotsFired   int
	hits         int
	headshots    int

	viewAngle   float64
	lastAimTime time.Time
	aims        []aimRecord

	lastPacketTime time.Time
	packets        int
	network        []networkRecord

	trustScore     float64
	violationScore float64
	violations     []models.Violation
}

func newPlayerState(playerID string, matchID string, now time.Time, trustScore float64) *playerState {
	return &playerState{
		playerID:       playerID,
		matchID:        matchID,
		joinedAt:       now,
		alive:          true,
		lastMoveTime:   now,
		lastAimTime:    now,
		lastPacketTime: now,
		trustScore:     mathutil.Unit(trustScore),
	}
}

// recentViolations returns the violations not older than window at now.
func (s *playerState) recentViolations(now time.Time, window time.Duration) []models.Violation {
	var recent []models.Violation
	for _, v := range s.violations {
		if now.Sub(v.Timestamp) < window {
			recent = append(recent, v)
		}
	}
	return recent
}

// trim keeps the records of the last window before latest, and never more than MaxHistorySamples.
func trim[T any](records []T, stamp func(T) time.Time, latest time.Time, window time.Duration) []T {
	cut := 0
	for cut < len(records) && latest.Sub(stamp(records[cut])) >= window {
		cut++
	}
	if over := len(records) - cut - constants.MaxHistorySamples; over > 0 {
		cut += over
	}
	if cut == 0 {
		return records
	}
	return append(records[:0], records[cut:]...)
}
