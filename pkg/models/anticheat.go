// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"time"

	"github.com/AccelByte/extend-arena-backend/pkg/mathutil"
)

// Sample is one telemetry sample. It is implemented by MovementSample, ShotSample, AimSample and NetworkSample only.
type Sample interface {
	SampleKind() SampleKind
	sample()
}

type SampleKind string

const (
	SampleMovement SampleKind = "movement"
	SampleShot     SampleKind = "shot"
	SampleAim      SampleKind = "aim"
	SampleNetwork  SampleKind = "network"
)

type MovementSample struct {
	Position  mathutil.Vector `json:"position"`
	Velocity  mathutil.Vector `json:"velocity"`
	Timestamp time.Time       `json:"timestamp"`
}

type ShotSample struct {
	WeaponID       string          `json:"weaponId"`
	Timestamp      time.Time       `json:"timestamp"`
	TargetPosition mathutil.Vector `json:"targetPosition"`
	Hit            bool            `json:"hit"`
	Headshot       bool            `json:"headshot"`
	Damage         float64         `json:"damage"`
}

type AimSample struct {
	// ViewAngle is the yaw in degrees.
	ViewAngle  float64         `json:"viewAngle"`
	Timestamp  time.Time       `json:"timestamp"`
	MouseDelta mathutil.Vector `json:"mouseDelta"`
}

type NetworkSample struct {
	Ping       int       `json:"ping"`
	TickRate   int       `json:"tickRate"`
	Timestamp  time.Time `json:"timestamp"`
	PacketLoss float64   `json:"packetLoss"`
}

func (MovementSample) SampleKind() SampleKind { return SampleMovement }
func (ShotSample) SampleKind() SampleKind     { return SampleShot }
func (AimSample) SampleKind() SampleKind      { return SampleAim }
func (NetworkSample) SampleKind() SampleKind  { return SampleNetwork }

func (MovementSample) sample() {}
func (ShotSample) sample()     {}
func (AimSample) sample()      {}
func (NetworkSample) sample()  {}

type ViolationType string

const (
	ViolationInvalidMovementTiming     ViolationType = "invalid_movement_timing"
	ViolationTeleportation             ViolationType = "teleportation"
	ViolationSpeedHack                 ViolationType = "speed_hack"
	ViolationAccelerationHack          ViolationType = "acceleration_hack"
	ViolationRapidFire                 ViolationType = "rapid_fire"
	ViolationShootingWhileDead         ViolationType = "shooting_while_dead"
	ViolationImpossibleShotDistance    ViolationType = "impossible_shot_distance"
	ViolationImpossibleHeadshotRate    ViolationType = "impossible_headshot_rate"
	ViolationImpossibleAimSpeed        ViolationType = "impossible_aim_speed"
	ViolationAimSnap                   ViolationType = "aim_snap"
	ViolationInconsistentMouseMovement ViolationType = "inconsistent_mouse_movement"
	ViolationHighPing                  ViolationType = "high_ping"
	ViolationLowTickRate               ViolationType = "low_tickrate"
	ViolationPacketFlooding            ViolationType = "packet_flooding"
)

type EnforcementAction string

const (
	ActionNone         EnforcementAction = "none"
	ActionFlag         EnforcementAction = "flag"
	ActionKick         EnforcementAction = "kick"
	ActionTemporaryBan EnforcementAction = "temporary_ban"
	ActionPermanentBan EnforcementAction = "permanent_ban"
)

// ReasonNotTracked is returned for samples of players without telemetry state.
const ReasonNotTracked = "player_not_tracked"

// Severity orders actions, a higher action includes the lower ones.
func (a EnforcementAction) Severity() int {
	switch a {
	case ActionFlag:
		return 1
	case ActionKick:
		return 2
	case ActionTemporaryBan:
		return 3
	case ActionPermanentBan:
		return 4
	default:
		return 0
	}
}

// ValidationResult is the outcome of validating one sample. Validators never return errors.
type ValidationResult struct {
	Valid      bool              `json:"valid"`
	Reason     string            `json:"reason,omitempty"`
	Confidence float64           `json:"confidence,omitempty"`
	Action     EnforcementAction `json:"action,omitempty"`
}

// Valid is the accepted outcome.
func Valid() ValidationResult {
	return ValidationResult{Valid: true, Action: ActionNone}
}

// Violation is an immutable record of one rule trigger.
type Violation struct {
	ID         string                 `json:"id"`
	PlayerID   string                 `json:"playerId"`
	MatchID    string                 `json:"matchId"`
	Type       ViolationType          `json:"type"`
	Confidence float64                `json:"confidence"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Ban is a persisted ban. A zero ExpiresAt means permanent.
type Ban struct {
	PlayerID  string            `json:"playerId"`
	Action    EnforcementAction `json:"action"`
	Reason    string            `json:"reason"`
	IssuedAt  time.Time         `json:"issuedAt"`
	ExpiresAt time.Time         `json:"expiresAt,omitempty"`
}

// Active reports whether the ban still applies at now.
func (b Ban) Active(now time.Time) bool {
	return b.ExpiresAt.IsZero() || now.Before(b.ExpiresAt)
}

// Standing is what the session authority knows about a player at queue time.
type Standing struct {
	Banned      bool    `json:"banned"`
	TrustFactor float64 `json:"trustFactor"`
}

// PlayerStats is the anti-cheat view of one tracked player.
type PlayerStats struct {
	PlayerID         string                `json:"playerId"`
	MatchID          string                `json:"matchId"`
	TrustScore       float64               `json:"trustScore"`
	ViolationScore   float64               `json:"violationScore"`
	RecentViolations int                   `json:"recentViolations"`
	ViolationTypes   map[ViolationType]int `json:"violationTypes"`
	ShotsFired       int                   `json:"shotsFired"`
	Accuracy         float64               `json:"accuracy"`
	HeadshotRate     float64               `json:"headshotRate"`
	MatchDuration    time.Duration         `json:"matchDuration"`
}

// AntiCheatStats summarizes every tracked player.
type AntiCheatStats struct {
	TrackedPlayers        int     `json:"trackedPlayers"`
	FlaggedPlayers        int     `json:"flaggedPlayers"`
	RecentViolations      int     `json:"recentViolations"`
	AverageTrustScore     float64 `json:"averageTrustScore"`
	AverageViolationScore float64 `json:"averageViolationScore"`
}
