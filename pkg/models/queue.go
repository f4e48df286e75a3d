// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"fmt"
	"math"
	"time"

	validator "github.com/AccelByte/justice-input-validation-go"
)

// JoinRequest is the payload of a queue join.
type JoinRequest struct {
	GameMode string  `json:"gameMode"          valid:"required,stringlength(1|64)"`
	Region   string  `json:"region"            valid:"required,stringlength(1|64)"`
	Skill    float64 `json:"skill"             valid:"range(0|100000)"`
	PartyID  string  `json:"partyId,omitempty" optional:"true"`
}

func (r JoinRequest) Validate() error {
	if _, err := validator.ValidateStruct(r); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidJoinRequest, err.Error())
	}
	if r.Skill < 0 || math.IsNaN(r.Skill) {
		return ErrInvalidSkill
	}
	return nil
}

// QueueEntry is one player waiting in a (gameMode, region) bucket.
type QueueEntry struct {
	UserID           string    `json:"userId"`
	GameMode         string    `json:"gameMode"`
	Region           string    `json:"region"`
	Skill            float64   `json:"skill"`
	PartyID          string    `json:"partyId,omitempty"`
	JoinedAt         time.Time `json:"joinedAt"`
	CurrentTolerance float64   `json:"currentTolerance"`

	// Seq orders entries that joined at the same instant.
	Seq uint64 `json:"seq"`
}

// Bucket returns the bucket key the entry belongs to.
func (e QueueEntry) Bucket() BucketKey {
	return BucketKey{GameMode: e.GameMode, Region: e.Region}
}

// BucketKey identifies the entries that can be matched together.
type BucketKey struct {
	GameMode string `json:"gameMode"`
	Region   string `json:"region"`
}

func (b BucketKey) String() string {
	return b.GameMode + ":" + b.Region
}

// JoinResult is returned to the player after a successful join.
type JoinResult struct {
	Entry         QueueEntry    `json:"entry"`
	EstimatedWait time.Duration `json:"estimatedWait"`
	Position      int           `json:"position"`
}

// QueueInfo describes where a queued player stands.
type QueueInfo struct {
	GameMode           string        `json:"gameMode"`
	Region             string        `json:"region"`
	WaitTime           time.Duration `json:"waitTime"`
	EstimatedRemaining time.Duration `json:"estimatedRemaining"`
	Position           int           `json:"position"`
	CurrentTolerance   float64       `json:"currentTolerance"`
	PartyID            string        `json:"partyId,omitempty"`
}

// QueueStats counts queued players per region and per game mode.
type QueueStats struct {
	Total      int            `json:"total"`
	ByRegion   map[string]int `json:"byRegion"`
	ByGameMode map[string]int `json:"byGameMode"`
}

// Party is a group of players that must be matched together.
type Party struct {
	PartyID   string    `json:"partyId"`
	LeaderID  string    `json:"leaderId"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasMember reports whether userID belongs to the party.
func (p Party) HasMember(userID string) bool {
	for _, member := range p.Members {
		if member == userID {
			return true
		}
	}
	return false
}

// PartyInvite is a pending invitation, it expires at ExpiresAt.
type PartyInvite struct {
	InviteID  string    `json:"inviteId"`
	PartyID   string    `json:"partyId"`
	InviterID string    `json:"inviterId"`
	InviteeID string    `json:"inviteeId"`
	ExpiresAt time.Time `json:"expiresAt"`
}
