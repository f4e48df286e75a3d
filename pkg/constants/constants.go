// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package constants

import "time"

const (
	// DefaultPersistTimeout bounds fire-and-forget writes when the caller gives no timeout.
	DefaultPersistTimeout = 3 * time.Second

	// HeadshotWindow is the window of shots inspected by the headshot rate rule.
	HeadshotWindow = 10 * time.Second

	// MaxHistorySamples caps every rolling telemetry window regardless of the tracking window.
	MaxHistorySamples = 256

	TeamFreeForAll = "ALL"
	TeamA          = "CT"
	TeamB          = "T"
)

// Notification event names emitted to players.
const (
	EventQueueJoined        = "matchmaking:queue_joined"
	EventQueueLeft          = "matchmaking:queue_left"
	EventQueueTimeout       = "matchmaking:queue_timeout"
	EventMatchFound         = "matchmaking:match_found"
	EventMatchAccepted      = "matchmaking:match_accepted"
	EventMatchDeclined      = "matchmaking:match_declined"
	EventMatchCancelled     = "matchmaking:match_cancelled"
	EventMatchStarting      = "matchmaking:match_starting"
	EventNoServerAvailable  = "matchmaking:no_server_available"
	EventMatchEnded         = "match:ended"
	EventServerMigrated     = "match:server_migrated"
	EventEndedServerFailure = "match:ended_server_failure"
	EventPartyInvite        = "party:invite_received"
	EventPartyJoined        = "party:member_joined"
	EventPartyLeft          = "party:member_left"
	EventPartyDisbanded     = "party:disbanded"
	EventPartyKicked        = "party:kicked"
	EventAntiCheatKicked    = "anticheat:kicked"
	EventAccountBanned      = "anticheat:banned"
)

// Reasons shown to players. Confidence values and thresholds never appear in them.
const (
	ReasonPlayersFailedToAccept = "Player(s) failed to accept"
	ReasonPlayerDeclined        = "A player declined the match"
	ReasonNoServerAvailable     = "No game server available, please try again"
	ReasonServerUnavailable     = "Server unavailable"
	ReasonQueueTimeout          = "Queue timeout, please try again"
	ReasonKickedByAntiCheat     = "Removed from match by anti-cheat"
	ReasonBannedByAntiCheat     = "Account suspended by anti-cheat"
	ReasonSuspiciousActivity    = "Suspicious activity detected"
	ReasonAlreadyInMatch        = "Already in a match"
)

// Not matched reasons reported to metrics.
const (
	UnmatchedNotEnoughPlayers  = "not_enough_players"
	UnmatchedOutsideTolerance  = "outside_tolerance"
	UnmatchedIncompleteParty   = "incomplete_party"
	UnmatchedUnbalanceable     = "unbalanceable"
	UnmatchedCapacityExhausted = "capacity_exhausted"
	UnmatchedAlreadyInMatch    = "already_in_match"
)
