// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"time"

	"github.com/mitchellh/copystructure"
	"github.com/sirupsen/logrus"
)

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusActive    MatchStatus = "active"
	MatchStatusMigrated  MatchStatus = "migrated"
	MatchStatusEnded     MatchStatus = "ended"
	MatchStatusCancelled MatchStatus = "cancelled"
)

// Team is one side of a match.
type Team struct {
	Name       string   `json:"name"`
	UserIDs    []string `json:"userIds"`
	TotalSkill float64  `json:"totalSkill"`
}

// MatchPlayer is a participant together with the data needed to requeue them.
type MatchPlayer struct {
	UserID  string  `json:"userId"`
	Skill   float64 `json:"skill"`
	PartyID string  `json:"partyId,omitempty"`
}

// MatchGroup is the output of one queue tick for one match: players, teams and where they queued.
type MatchGroup struct {
	GameMode string        `json:"gameMode"`
	Region   string        `json:"region"`
	Players  []MatchPlayer `json:"players"`
	Teams    []Team        `json:"teams"`
}

// UserIDs returns the ids of all players in the group.
func (g MatchGroup) UserIDs() []string {
	ids := make([]string, 0, len(g.Players))
	for _, p := range g.Players {
		ids = append(ids, p.UserID)
	}
	return ids
}

// ServerEndpoint is what a client needs to connect to its match.
type ServerEndpoint struct {
	ServerID string `json:"serverId"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Port     int    `json:"port"`
}

// PendingMatch waits for every player to accept before AcceptDeadline.
type PendingMatch struct {
	MatchID         string              `json:"matchId"`
	Group           MatchGroup          `json:"group"`
	ServerID        string              `json:"serverId"`
	AcceptedPlayers map[string]struct{} `json:"acceptedPlayers"`
	AcceptDeadline  time.Time           `json:"acceptDeadline"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// AllAccepted reports whether every player accepted.
func (p *PendingMatch) AllAccepted() bool {
	return len(p.AcceptedPlayers) == len(p.Group.Players)
}

// Match is a live (or recently ended) match.
type Match struct {
	MatchID   string         `json:"matchId"`
	ServerID  string         `json:"serverId"`
	Endpoint  ServerEndpoint `json:"endpoint"`
	GameMode  string         `json:"gameMode"`
	Region    string         `json:"region"`
	Players   []MatchPlayer  `json:"players"`
	Teams     []Team         `json:"teams"`
	Status    MatchStatus    `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	StartedAt time.Time      `json:"startedAt,omitempty"`
	EndedAt   time.Time      `json:"endedAt,omitempty"`
	Result    *MatchResult   `json:"result,omitempty"`
}

// HasPlayer reports whether userID plays in the match.
func (m *Match) HasPlayer(userID string) bool {
	for _, p := range m.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (m Match) Copy() Match {
	copied, err := copystructure.Copy(m)
	if err != nil {
		logrus.Warn("failed copy match:", err)
	}
	match, _ := copied.(Match)
	return match
}

// Record returns the persisted shape of the match.
func (m *Match) Record(reason string, now time.Time) MatchRecord {
	players := make([]string, 0, len(m.Players))
	for _, p := range m.Players {
		players = append(players, p.UserID)
	}
	return MatchRecord{
		MatchID:   m.MatchID,
		ServerID:  m.ServerID,
		GameMode:  m.GameMode,
		Region:    m.Region,
		Players:   players,
		Status:    m.Status,
		Reason:    reason,
		Result:    m.Result,
		UpdatedAt: now,
	}
}

// MatchResult is reported by the game server when a match ends.
type MatchResult struct {
	WinningTeam string         `json:"winningTeam,omitempty"`
	Draw        bool           `json:"draw"`
	Reason      string         `json:"reason,omitempty"`
	Scores      map[string]int `json:"scores,omitempty"`
}

// DrawResult is used when a match cannot continue.
func DrawResult(reason string) MatchResult {
	return MatchResult{Draw: true, Reason: reason}
}

// MatchRecord is the persisted shape of a match, written on every transition.
type MatchRecord struct {
	MatchID   string       `json:"matchId"`
	ServerID  string       `json:"serverId"`
	GameMode  string       `json:"gameMode"`
	Region    string       `json:"region"`
	Players   []string     `json:"players"`
	Status    MatchStatus  `json:"status"`
	Reason    string       `json:"reason,omitempty"`
	Result    *MatchResult `json:"result,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// InboxEvent is one notification waiting to be polled by a player.
type InboxEvent struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sentAt"`
}
