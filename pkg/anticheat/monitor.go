// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package anticheat validates the telemetry of players in active matches and escalates violations.
package anticheat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/AccelByte/extend-arena-backend/pkg/collaborator"
	"github.com/AccelByte/extend-arena-backend/pkg/common"
	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/constants"
	"github.com/AccelByte/extend-arena-backend/pkg/envelope"
	"github.com/AccelByte/extend-arena-backend/pkg/mathutil"
	"github.com/AccelByte/extend-arena-backend/pkg/metrics"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
	"github.com/AccelByte/extend-arena-backend/pkg/utils"
)

const (
	violationScoreFactor = 0.1
	trustPenaltyFactor   = 0.05

	flagTrustPenalty = 0.1
	kickTrustPenalty = 0.2

	decayViolationRelief = 0.1
	decayTrustRestore    = 0.05

	defaultTrustScore = 1.0
)

// Enforcer removes a player from the match they are playing.
type Enforcer interface {
	Kick(scope *envelope.Scope, userID string, reason string) bool
}

// enforcement is applied after the monitor lock is released.
type enforcement struct {
	action     models.EnforcementAction
	playerID   string
	matchID    string
	violation  models.Violation
	trustScore float64
}

// Monitor owns the telemetry state of every tracked player.
type Monitor struct {
	cfg       *config.Config
	escalator *Escalator
	enforcer  Enforcer
	sessions  collaborator.SessionAuthority
	notifier  collaborator.Notifier
	records   collaborator.RecordStore
	metrics   metrics.ArenaMetrics
	now       func() time.Time

	mu      sync.Mutex
	players map[string]*playerState
}

func NewMonitor(
	cfg *config.Config,
	sessions collaborator.SessionAuthority,
	notifier collaborator.Notifier,
	records collaborator.RecordStore,
	arenaMetrics metrics.ArenaMetrics,
) *Monitor {
	return &Monitor{
		cfg:       cfg,
		escalator: NewEscalator(cfg),
		sessions:  sessions,
		notifier:  notifier,
		records:   records,
		metrics:   arenaMetrics,
		now:       common.Now,
		players:   make(map[string]*playerState),
	}
}

// SetEnforcer wires the component that removes kicked and banned players from their match.
func (m *Monitor) SetEnforcer(enforcer Enforcer) {
	m.enforcer = enforcer
}

func (m *Monitor) SetClock(now func() time.Time) {
	m.now = now
}

// InitializePlayer starts tracking playerID for matchID. The trust score is seeded from the record store.
// A player already tracked is reset to the new match.
func (m *Monitor) InitializePlayer(rootScope *envelope.Scope, playerID string, matchID string) {
	scope := rootScope.NewChildScope("Monitor.InitializePlayer")
	defer scope.Finish()

	scope.SetAttributes(envelope.UserIDTag, playerID)
	scope.SetAttributes(envelope.MatchIDTag, matchID)

	trust := m.storedTrust(scope, playerID)

	m.mu.Lock()
	m.players[playerID] = newPlayerState(playerID, matchID, m.now(), trust)
	m.mu.Unlock()

	scope.Log.WithFields(logrus.Fields{
		"userID":     playerID,
		"matchID":    matchID,
		"trustScore": trust,
	}).Debug("player tracking started")
}

func (m *Monitor) storedTrust(scope *envelope.Scope, playerID string) float64 {
	if m.records == nil {
		return defaultTrustScore
	}

	ctx, cancel := context.WithTimeout(scope.Ctx, m.cfg.PersistTimeout)
	defer cancel()

	trust, found, err := m.records.GetTrustFactor(ctx, playerID)
	if err != nil {
		scope.Log.WithField("userID", playerID).Warnf("unable to read trust factor: %s", err.Error())
		return defaultTrustScore
	}
	if !found {
		return defaultTrustScore
	}
	return trust
}

// RemovePlayer stops tracking playerID. It returns false if the player was not tracked.
func (m *Monitor) RemovePlayer(rootScope *envelope.Scope, playerID string) bool {
	scope := rootScope.NewChildScope("Monitor.RemovePlayer")
	defer scope.Finish()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[playerID]; !ok {
		return false
	}
	delete(m.players, playerID)

	return true
}

// SetAlive records a death or respawn of a tracked player.
func (m *Monitor) SetAlive(playerID string, alive bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.players[playerID]
	if !ok {
		return false
	}
	state.alive = alive

	return true
}

// IsTracked reports whether the player has telemetry state.
func (m *Monitor) IsTracked(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.players[playerID]
	return ok
}

// Validate checks one telemetry sample of playerID. A rejected sample leaves the rolling history untouched
// and records a violation, which may escalate into an enforcement action.
func (m *Monitor) Validate(rootScope *envelope.Scope, playerID string, sample models.Sample) models.ValidationResult {
	scope := rootScope.NewChildScope("Monitor.Validate")
	defer scope.Finish()

	scope.SetAttributes(envelope.UserIDTag, playerID)

	m.mu.Lock()
	state, ok := m.players[playerID]
	if !ok {
		m.mu.Unlock()
		return models.ValidationResult{Valid: false, Reason: models.ReasonNotTracked, Action: models.ActionNone}
	}

	var found *finding
	switch s := sample.(type) {
	case models.MovementSample:
		found = m.validateMovement(state, s)
	case models.ShotSample:
		found = m.validateShot(state, s)
	case models.AimSample:
		found = m.validateAim(state, s)
	case models.NetworkSample:
		found = m.validateNetwork(state, s)
	}

	if found == nil {
		m.mu.Unlock()
		return models.Valid()
	}

	applied := m.flagViolation(scope, state, found)
	m.mu.Unlock()

	if applied.action != models.ActionNone {
		m.enforce(scope, applied)
	}

	return models.ValidationResult{
		Valid:      false,
		Reason:     string(found.violation),
		Confidence: found.confidence,
		Action:     applied.action,
	}
}

// flagViolation records the violation and decides the action. Must be called with the lock held.
func (m *Monitor) flagViolation(scope *envelope.Scope, state *playerState, found *finding) enforcement {
	now := m.now()
	violation := models.Violation{
		ID:         utils.GenerateULID(),
		PlayerID:   state.playerID,
		MatchID:    state.matchID,
		Type:       found.violation,
		Confidence: found.confidence,
		Details:    found.details,
		Timestamp:  now,
	}

	state.violations = append(state.violations, violation)
	state.violationScore = mathutil.Min(1, state.violationScore+found.confidence*violationScoreFactor)
	state.trustScore = mathutil.Max(0, state.trustScore-found.confidence*trustPenaltyFactor)

	m.metrics.AddViolation(string(found.violation))
	if m.records != nil {
		collaborator.Persist(scope, "save_violation", m.cfg.PersistTimeout, func(ctx context.Context) error {
			return m.records.SaveViolation(ctx, violation)
		})
	}

	action := m.escalator.DetermineAction(found.confidence, state.recentViolations(now, m.cfg.TrackingWindow))

	scope.Log.WithFields(logrus.Fields{
		"userID":         state.playerID,
		"matchID":        state.matchID,
		"violation":      found.violation,
		"confidence":     found.confidence,
		"violationScore": state.violationScore,
		"trustScore":     state.trustScore,
		"action":         action,
	}).Warn("anti-cheat violation")

	if action == models.ActionFlag {
		state.trustScore = mathutil.Max(0, state.trustScore-flagTrustPenalty)
	}
	if action == models.ActionKick {
		state.trustScore = mathutil.Max(0, state.trustScore-kickTrustPenalty)
	}
	if action.Severity() >= models.ActionKick.Severity() {
		delete(m.players, state.playerID)
	}

	return enforcement{
		action:     action,
		playerID:   state.playerID,
		matchID:    state.matchID,
		violation:  violation,
		trustScore: state.trustScore,
	}
}

func (m *Monitor) enforce(rootScope *envelope.Scope, applied enforcement) {
	scope := rootScope.NewChildScope("Monitor.Enforce")
	defer scope.Finish()

	scope.SetAttributes(envelope.MatchIDTag, applied.matchID)
	m.metrics.AddEnforcement(string(applied.action))

	switch applied.action {
	case models.ActionFlag:
		m.saveTrust(scope, applied.playerID, applied.trustScore)

	case models.ActionKick:
		m.kick(scope, applied.playerID)
		m.saveTrust(scope, applied.playerID, applied.trustScore)
		collaborator.Notify(scope, m.notifier, applied.playerID, constants.EventAntiCheatKicked, map[string]string{
			"matchId": applied.matchID,
			"reason":  constants.ReasonSuspiciousActivity,
		})

	case models.ActionTemporaryBan, models.ActionPermanentBan:
		ban := models.Ban{
			PlayerID: applied.playerID,
			Action:   applied.action,
			Reason:   string(applied.violation.Type),
			IssuedAt: applied.violation.Timestamp,
		}
		if applied.action == models.ActionTemporaryBan {
			ban.ExpiresAt = ban.IssuedAt.Add(m.cfg.TempBanDuration)
		}
		if m.records != nil {
			collaborator.Persist(scope, "save_ban", m.cfg.PersistTimeout, func(ctx context.Context) error {
				return m.records.SaveBan(ctx, ban)
			})
		}

		m.kick(scope, applied.playerID)

		if m.sessions != nil {
			collaborator.Persist(scope, "invalidate_sessions", m.cfg.PersistTimeout, func(ctx context.Context) error {
				return m.sessions.InvalidateSessions(ctx, applied.playerID)
			})
		}

		payload := map[string]interface{}{
			"reason":    constants.ReasonBannedByAntiCheat,
			"permanent": applied.action == models.ActionPermanentBan,
		}
		if !ban.ExpiresAt.IsZero() {
			payload["expiresAt"] = ban.ExpiresAt
		}
		collaborator.Notify(scope, m.notifier, applied.playerID, constants.EventAccountBanned, payload)
	}

	scope.Log.WithFields(logrus.Fields{
		"userID":  applied.playerID,
		"matchID": applied.matchID,
		"action":  applied.action,
	}).Info("anti-cheat enforcement applied")
}

func (m *Monitor) kick(scope *envelope.Scope, playerID string) {
	if m.enforcer == nil {
		return
	}
	if !m.enforcer.Kick(scope, playerID, constants.ReasonKickedByAntiCheat) {
		scope.Log.WithField("userID", playerID).Debug("player was not in an active match")
	}
}

func (m *Monitor) saveTrust(scope *envelope.Scope, playerID string, trust float64) {
	if m.records == nil {
		return
	}
	collaborator.Persist(scope, "save_trust_factor", m.cfg.PersistTimeout, func(ctx context.Context) error {
		return m.records.SaveTrustFactor(ctx, playerID, trust)
	})
}

// DecayInfo reports one decay sweep.
type DecayInfo struct {
	Timestamp         time.Time
	ViolationsDropped int
	PlayersRestored   int
}

// Decay drops violations older than the decay window. Players left without violations get part of their
// trust back and part of their violation score forgiven.
func (m *Monitor) Decay(rootScope *envelope.Scope, now time.Time) DecayInfo {
	scope := rootScope.NewChildScope("Monitor.Decay")
	defer scope.Finish()

	info := DecayInfo{Timestamp: now}

	m.mu.Lock()
	for _, state := range m.players {
		before := len(state.violations)
		state.violations = state.recentViolations(now, m.cfg.ViolationDecay)
		info.ViolationsDropped += before - len(state.violations)

		if len(state.violations) == 0 {
			state.violationScore = mathutil.Clamp(state.violationScore-decayViolationRelief, 0, 1)
			state.trustScore = mathutil.Clamp(state.trustScore+decayTrustRestore, 0, 1)
			info.PlayersRestored++
		}
	}
	m.mu.Unlock()

	scope.Log.WithFields(logrus.Fields{
		"violationsDropped": info.ViolationsDropped,
		"playersRestored":   info.PlayersRestored,
	}).Debug("violation decay")

	return info
}

// PlayerStats returns the anti-cheat view of a tracked player.
func (m *Monitor) PlayerStats(playerID string, now time.Time) (*models.PlayerStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.players[playerID]
	if !ok {
		return nil, false
	}

	recent := state.recentViolations(now, m.cfg.TrackingWindow)
	types := make(map[models.ViolationType]int)
	for _, v := range recent {
		types[v.Type]++
	}

	stats := &models.PlayerStats{
		PlayerID:         state.playerID,
		MatchID:          state.matchID,
		TrustScore:       state.trustScore,
		ViolationScore:   state.violationScore,
		RecentViolations: len(recent),
		ViolationTypes:   types,
		ShotsFired:       state.shotsFired,
		MatchDuration:    now.Sub(state.joinedAt),
	}
	if state.shotsFired > 0 {
		stats.Accuracy = float64(state.hits) / float64(state.shotsFired)
		stats.HeadshotRate = float64(state.headshots) / float64(state.shotsFired)
	}

	return stats, true
}

// OverallStats summarizes every tracked player.
func (m *Monitor) OverallStats(now time.Time) models.AntiCheatStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := models.AntiCheatStats{TrackedPlayers: len(m.players)}
	if len(m.players) == 0 {
		return stats
	}

	trust := make([]float64, 0, len(m.players))
	violation := make([]float64, 0, len(m.players))
	for _, state := range m.players {
		trust = append(trust, state.trustScore)
		violation = append(violation, state.violationScore)

		recent := len(state.recentViolations(now, m.cfg.TrackingWindow))
		stats.RecentViolations += recent
		if recent > 0 {
			stats.FlaggedPlayers++
		}
	}
	stats.AverageTrustScore = stat.Mean(trust, nil)
	stats.AverageViolationScore = stat.Mean(violation, nil)

	return stats
}

// Tracked returns the ids of the tracked players, sorted.
func (m *Monitor) Tracked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.players))
	for id := range m.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}
