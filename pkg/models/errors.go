// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"errors"
)

// ErrorKind groups errors into the classes callers react to.
type ErrorKind string

const (
	KindInvalidQueueRequest ErrorKind = "InvalidQueueRequest"
	KindCapacityExhausted   ErrorKind = "CapacityExhausted"
	KindAcceptanceTimeout   ErrorKind = "AcceptanceTimeout"
	KindStaleHeartbeat      ErrorKind = "StaleHeartbeat"
	KindValidationRejected  ErrorKind = "ValidationRejected"
	KindNotFound            ErrorKind = "NotFound"
	KindInternal            ErrorKind = "Internal"
)

var (
	ErrInvalidGameMode     = errors.New("invalid game mode")
	ErrInvalidRegion       = errors.New("invalid region")
	ErrInvalidSkill        = errors.New("invalid skill")
	ErrInvalidJoinRequest  = errors.New("invalid join request")
	ErrMalformedRequest    = errors.New("malformed request body")
	ErrAlreadyQueued       = errors.New("already in queue")
	ErrBanned              = errors.New("cannot queue while banned")
	ErrTrustTooLow         = errors.New("trust factor too low for matchmaking")
	ErrNotInParty          = errors.New("not a member of the party")
	ErrPartyNotFound       = errors.New("party not found")
	ErrPartyFull           = errors.New("party is full")
	ErrPartyTooLarge       = errors.New("party is too large for the game mode")
	ErrNotPartyLeader      = errors.New("not party leader")
	ErrAlreadyInParty      = errors.New("player already in a party")
	ErrInviteNotFound      = errors.New("party invite not found or expired")
	ErrPartyBucketMismatch = errors.New("party members must queue for the same game mode and region")

	ErrCapacityExhausted = errors.New("no server available")

	ErrMatchNotFound       = errors.New("match not found or expired")
	ErrAcceptanceClosed    = errors.New("acceptance window closed")
	ErrNotMatchParticipant = errors.New("player is not part of the match")
	ErrAlreadyInMatch      = errors.New("player is already in a match")

	ErrServerNotFound   = errors.New("server not found")
	ErrServerOffline    = errors.New("server is offline")
	ErrInvalidServer    = errors.New("invalid server descriptor")
	ErrServerRegistered = errors.New("server already registered")
)

var errorKindMap = map[error]ErrorKind{
	ErrInvalidGameMode:     KindInvalidQueueRequest,
	ErrInvalidRegion:       KindInvalidQueueRequest,
	ErrInvalidSkill:        KindInvalidQueueRequest,
	ErrInvalidJoinRequest:  KindInvalidQueueRequest,
	ErrMalformedRequest:    KindInvalidQueueRequest,
	ErrAlreadyQueued:       KindInvalidQueueRequest,
	ErrBanned:              KindInvalidQueueRequest,
	ErrTrustTooLow:         KindInvalidQueueRequest,
	ErrNotInParty:          KindInvalidQueueRequest,
	ErrPartyFull:           KindInvalidQueueRequest,
	ErrPartyTooLarge:       KindInvalidQueueRequest,
	ErrNotPartyLeader:      KindInvalidQueueRequest,
	ErrAlreadyInParty:      KindInvalidQueueRequest,
	ErrPartyNotFound:       KindNotFound,
	ErrInviteNotFound:      KindNotFound,
	ErrPartyBucketMismatch: KindInvalidQueueRequest,

	ErrCapacityExhausted: KindCapacityExhausted,

	ErrMatchNotFound:       KindNotFound,
	ErrAcceptanceClosed:    KindAcceptanceTimeout,
	ErrNotMatchParticipant: KindInvalidQueueRequest,
	ErrAlreadyInMatch:      KindInvalidQueueRequest,

	ErrServerNotFound:   KindNotFound,
	ErrServerOffline:    KindStaleHeartbeat,
	ErrInvalidServer:    KindInvalidQueueRequest,
	ErrServerRegistered: KindInvalidQueueRequest,
}

var errorCodeMap = map[error]int{
	ErrInvalidGameMode:     520101,
	ErrInvalidRegion:       520102,
	ErrInvalidSkill:        520103,
	ErrInvalidJoinRequest:  520107,
	ErrMalformedRequest:    520108,
	ErrAlreadyQueued:       520104,
	ErrBanned:              520105,
	ErrTrustTooLow:         520106,
	ErrNotInParty:          520111,
	ErrPartyNotFound:       520112,
	ErrPartyFull:           520113,
	ErrPartyTooLarge:       520114,
	ErrNotPartyLeader:      520115,
	ErrAlreadyInParty:      520116,
	ErrInviteNotFound:      520117,
	ErrPartyBucketMismatch: 520118,

	ErrCapacityExhausted: 520201,

	ErrMatchNotFound:       520301,
	ErrAcceptanceClosed:    520302,
	ErrNotMatchParticipant: 520303,
	ErrAlreadyInMatch:      520304,

	ErrServerNotFound:   520401,
	ErrServerOffline:    520402,
	ErrInvalidServer:    520403,
	ErrServerRegistered: 520404,
}

// Kind returns the class of err, looking through wrapped errors.
// Unregistered errors are KindInternal.
func Kind(err error) ErrorKind {
	for known, kind := range errorKindMap {
		if errors.Is(err, known) {
			return kind
		}
	}
	return KindInternal
}

// ErrorCode returns a code for the error.
// It returns 20002 (generic validation error) if the error is not registered in the map.
func ErrorCode(err error) int {
	for known, code := range errorCodeMap {
		if errors.Is(err, known) {
			return code
		}
	}
	return 20002
}
