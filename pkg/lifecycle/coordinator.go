// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package lifecycle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-arena-backend/pkg/collaborator"
	"github.com/AccelByte/extend-arena-backend/pkg/common"
	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/constants"
	"github.com/AccelByte/extend-arena-backend/pkg/envelope"
	"github.com/AccelByte/extend-arena-backend/pkg/fleet"
	"github.com/AccelByte/extend-arena-backend/pkg/metrics"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
	"github.com/AccelByte/extend-arena-backend/pkg/rebalance"
	"github.com/AccelByte/extend-arena-backend/pkg/utils"
)

const (
	migrationMigrated = "migrated"
	migrationFailed   = "failed"
)

type pendingState struct {
	match    models.PendingMatch
	endpoint models.ServerEndpoint
	timer    common.Timer
}

// AcceptResult tells the caller how far the acceptance of a pending match got.
type AcceptResult struct {
	MatchID  string `json:"matchId"`
	Accepted int    `json:"accepted"`
	Total    int    `json:"total"`
	Started  bool   `json:"started"`
}

// Coordinator owns pending and live matches and every transition between their states.
type Coordinator struct {
	cfg       *config.Config
	allocator ServerAllocator
	requeuer  Requeuer
	tracker   PlayerTracker
	notifier  collaborator.Notifier
	records   collaborator.RecordStore
	metrics   metrics.ArenaMetrics
	afterFunc common.AfterFunc
	now       func() time.Time

	mu          sync.Mutex
	pending     map[string]*pendingState
	closed      map[string]time.Time
	matches     map[string]*models.Match
	playerMatch map[string]string
}

func NewCoordinator(
	cfg *config.Config,
	allocator ServerAllocator,
	notifier collaborator.Notifier,
	records collaborator.RecordStore,
	arenaMetrics metrics.ArenaMetrics,
) *Coordinator {
	return &Coordinator{
		cfg:         cfg,
		allocator:   allocator,
		notifier:    notifier,
		records:     records,
		metrics:     arenaMetrics,
		afterFunc:   common.RealAfterFunc,
		now:         common.Now,
		pending:     make(map[string]*pendingState),
		closed:      make(map[string]time.Time),
		matches:     make(map[string]*models.Match),
		playerMatch: make(map[string]string),
	}
}

// SetRequeuer wires the queue players return to when a pending match is cancelled.
func (c *Coordinator) SetRequeuer(requeuer Requeuer) {
	c.requeuer = requeuer
}

// SetPlayerTracker wires anti-cheat tracking of started matches.
func (c *Coordinator) SetPlayerTracker(tracker PlayerTracker) {
	c.tracker = tracker
}

func (c *Coordinator) SetClock(now func() time.Time, afterFunc common.AfterFunc) {
	c.now = now
	c.afterFunc = afterFunc
}

// RequestMatch finds a server for a formed group and opens its acceptance window.
// It returns models.ErrCapacityExhausted when no server can take the group, the caller keeps the players.
// A group holding a player who is already in a pending or live match is refused with models.ErrAlreadyInMatch.
func (c *Coordinator) RequestMatch(rootScope *envelope.Scope, group models.MatchGroup) error {
	scope := rootScope.NewChildScope("Coordinator.RequestMatch")
	defer scope.Finish()

	matchID := utils.GenerateUUID()
	scope.SetAttributes(envelope.MatchIDTag, matchID)
	scope.SetAttributes(envelope.GameModeTag, group.GameMode)
	scope.SetAttributes(envelope.RegionTag, group.Region)

	c.mu.Lock()
	busy := c.busyLocked(group)
	c.mu.Unlock()
	if len(busy) > 0 {
		scope.Log.WithField("players", busy).Warn("group refused, players already in a match")
		return models.ErrAlreadyInMatch
	}

	endpoint, err := c.allocator.Allocate(scope, matchID, fleet.SelectRequest{
		Region:       group.Region,
		GameMode:     group.GameMode,
		Seats:        len(group.Players),
		RequireEmpty: true,
	})
	if err != nil {
		for _, userID := range group.UserIDs() {
			collaborator.Notify(scope, c.notifier, userID, constants.EventNoServerAvailable, map[string]string{
				"gameMode": group.GameMode,
				"region":   group.Region,
				"reason":   constants.ReasonNoServerAvailable,
			})
		}
		c.metrics.AddPendingMatchCancelled(group.GameMode, constants.UnmatchedCapacityExhausted)
		if errors.Is(err, models.ErrCapacityExhausted) {
			return err
		}
		return errors.Join(models.ErrCapacityExhausted, err)
	}

	now := c.now()
	state := &pendingState{
		match: models.PendingMatch{
			MatchID:         matchID,
			Group:           group,
			ServerID:        endpoint.ServerID,
			AcceptedPlayers: make(map[string]struct{}),
			AcceptDeadline:  now.Add(c.cfg.AcceptTimeout),
			CreatedAt:       now,
		},
		endpoint: endpoint,
	}

	c.mu.Lock()
	if busy := c.busyLocked(group); len(busy) > 0 {
		// booked by a concurrent request while the server was being picked
		c.mu.Unlock()
		c.allocator.Release(scope, endpoint.ServerID, matchID, len(group.Players))
		scope.Log.WithField("players", busy).Warn("group refused, players already in a match")
		return models.ErrAlreadyInMatch
	}
	c.pending[matchID] = state
	state.timer = c.afterFunc(c.cfg.AcceptTimeout, func() {
		c.acceptDeadlineReached(scope, matchID)
	})
	c.mu.Unlock()

	scope.Log.WithFields(logrus.Fields{
		"matchID":  matchID,
		"serverID": endpoint.ServerID,
		"gameMode": group.GameMode,
		"region":   group.Region,
		"players":  group.UserIDs(),
		"skillGap": rebalance.CountDistance(group.Teams),
	}).Info("pending match created")

	for _, userID := range group.UserIDs() {
		collaborator.Notify(scope, c.notifier, userID, constants.EventMatchFound, map[string]interface{}{
			"matchId":        matchID,
			"gameMode":       group.GameMode,
			"region":         group.Region,
			"teams":          group.Teams,
			"acceptDeadline": state.match.AcceptDeadline,
			"acceptTimeout":  c.cfg.AcceptTimeout.Seconds(),
		})
	}

	c.persist(scope, models.MatchRecord{
		MatchID:   matchID,
		ServerID:  endpoint.ServerID,
		GameMode:  group.GameMode,
		Region:    group.Region,
		Players:   group.UserIDs(),
		Status:    models.MatchStatusPending,
		UpdatedAt: now,
	})

	return nil
}

// Accept records the acceptance of userID. The match starts as soon as every player accepted.
// An acceptance at or after the deadline cancels the match and returns models.ErrAcceptanceClosed.
func (c *Coordinator) Accept(rootScope *envelope.Scope, matchID string, userID string) (AcceptResult, error) {
	scope := rootScope.NewChildScope("Coordinator.Accept")
	defer scope.Finish()

	scope.SetAttributes(envelope.MatchIDTag, matchID)
	scope.SetAttributes(envelope.UserIDTag, userID)

	now := c.now()

	c.mu.Lock()
	state, ok := c.pending[matchID]
	if !ok {
		_, closed := c.closed[matchID]
		c.mu.Unlock()
		if closed {
			return AcceptResult{}, models.ErrAcceptanceClosed
		}
		return AcceptResult{}, models.ErrMatchNotFound
	}
	if !participates(state.match.Group, userID) {
		c.mu.Unlock()
		return AcceptResult{}, models.ErrNotMatchParticipant
	}
	if !now.Before(state.match.AcceptDeadline) {
		c.mu.Unlock()
		c.cancel(scope, matchID, constants.ReasonPlayersFailedToAccept, "")
		return AcceptResult{}, models.ErrAcceptanceClosed
	}

	state.match.AcceptedPlayers[userID] = struct{}{}
	result := AcceptResult{
		MatchID:  matchID,
		Accepted: len(state.match.AcceptedPlayers),
		Total:    len(state.match.Group.Players),
	}

	var match *models.Match
	if state.match.AllAccepted() {
		delete(c.pending, matchID)
		state.timer.Stop()
		match = c.activateLocked(state, now)
		result.Started = true
	}
	players := state.match.Group.UserIDs()
	c.mu.Unlock()

	for _, player := range players {
		collaborator.Notify(scope, c.notifier, player, constants.EventMatchAccepted, map[string]interface{}{
			"matchId":  matchID,
			"userId":   userID,
			"accepted": result.Accepted,
			"total":    result.Total,
		})
	}

	if match != nil {
		c.start(scope, match)
	}

	return result, nil
}

// Decline cancels the pending match. Players who already accepted go back to the queue.
func (c *Coordinator) Decline(rootScope *envelope.Scope, matchID string, userID string) error {
	scope := rootScope.NewChildScope("Coordinator.Decline")
	defer scope.Finish()

	scope.SetAttributes(envelope.MatchIDTag, matchID)
	scope.SetAttributes(envelope.UserIDTag, userID)

	c.mu.Lock()
	state, ok := c.pending[matchID]
	if !ok {
		_, closed := c.closed[matchID]
		c.mu.Unlock()
		if closed {
			return models.ErrAcceptanceClosed
		}
		return models.ErrMatchNotFound
	}
	if !participates(state.match.Group, userID) {
		c.mu.Unlock()
		return models.ErrNotMatchParticipant
	}
	c.mu.Unlock()

	collaborator.Notify(scope, c.notifier, userID, constants.EventMatchDeclined, map[string]string{"matchId": matchID})
	c.cancel(scope, matchID, constants.ReasonPlayerDeclined, userID)
	return nil
}

func (c *Coordinator) acceptDeadlineReached(rootScope *envelope.Scope, matchID string) {
	scope := rootScope.Detached("Coordinator.AcceptDeadline")
	defer scope.Finish()

	c.cancel(scope, matchID, constants.ReasonPlayersFailedToAccept, "")
}

// cancel discards a pending match once. Accepted players other than skip are queued again after the requeue delay.
func (c *Coordinator) cancel(scope *envelope.Scope, matchID string, reason string, skip string) bool {
	c.mu.Lock()
	state, ok := c.pending[matchID]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.pending, matchID)
	c.closed[matchID] = c.now()
	if state.timer != nil {
		state.timer.Stop()
	}
	c.mu.Unlock()

	pending := state.match
	c.allocator.Release(scope, pending.ServerID, matchID, len(pending.Group.Players))

	var requeue []models.MatchPlayer
	for _, player := range pending.Group.Players {
		if _, accepted := pending.AcceptedPlayers[player.UserID]; accepted && player.UserID != skip {
			requeue = append(requeue, player)
		}
	}

	scope.Log.WithFields(logrus.Fields{
		"matchID":  matchID,
		"reason":   reason,
		"accepted": len(pending.AcceptedPlayers),
		"total":    len(pending.Group.Players),
		"requeue":  len(requeue),
	}).Info("pending match cancelled")

	for _, userID := range pending.Group.UserIDs() {
		collaborator.Notify(scope, c.notifier, userID, constants.EventMatchCancelled, map[string]string{
			"matchId": matchID,
			"reason":  reason,
		})
	}
	c.metrics.AddPendingMatchCancelled(pending.Group.GameMode, reason)

	if len(requeue) > 0 {
		c.scheduleRequeue(scope, pending.Group, requeue)
	}

	c.persist(scope, models.MatchRecord{
		MatchID:   matchID,
		ServerID:  pending.ServerID,
		GameMode:  pending.Group.GameMode,
		Region:    pending.Group.Region,
		Players:   pending.Group.UserIDs(),
		Status:    models.MatchStatusCancelled,
		Reason:    reason,
		UpdatedAt: c.now(),
	})
	return true
}

func (c *Coordinator) scheduleRequeue(scope *envelope.Scope, group models.MatchGroup, players []models.MatchPlayer) {
	requeue := func() {
		detached := scope.Detached("Coordinator.Requeue")
		defer detached.Finish()

		for _, player := range players {
			c.requeuePlayer(detached, group, player)
		}
	}

	if c.cfg.RequeueDelay <= 0 {
		requeue()
		return
	}
	c.afterFunc(c.cfg.RequeueDelay, requeue)
}

func (c *Coordinator) requeuePlayer(scope *envelope.Scope, group models.MatchGroup, player models.MatchPlayer) {
	if c.requeuer == nil {
		return
	}
	req := models.JoinRequest{
		GameMode: group.GameMode,
		Region:   group.Region,
		Skill:    player.Skill,
		PartyID:  player.PartyID,
	}

	_, err := c.requeuer.Join(scope, player.UserID, req)
	if err != nil && req.PartyID != "" && (errors.Is(err, models.ErrPartyNotFound) || errors.Is(err, models.ErrNotInParty)) {
		// the party changed while the match was pending
		req.PartyID = ""
		_, err = c.requeuer.Join(scope, player.UserID, req)
	}
	if err != nil {
		scope.Log.WithField("userID", player.UserID).Warnf("unable to requeue player after cancelled match: %s", err.Error())
	}
}

// activateLocked turns a fully accepted pending match into a live one, the caller holds the lock.
func (c *Coordinator) activateLocked(state *pendingState, now time.Time) *models.Match {
	match := &models.Match{
		MatchID:   state.match.MatchID,
		ServerID:  state.endpoint.ServerID,
		Endpoint:  state.endpoint,
		GameMode:  state.match.Group.GameMode,
		Region:    state.match.Group.Region,
		Players:   state.match.Group.Players,
		Teams:     state.match.Group.Teams,
		Status:    models.MatchStatusActive,
		CreatedAt: state.match.CreatedAt,
		StartedAt: now,
	}
	c.matches[match.MatchID] = match
	for _, player := range match.Players {
		c.playerMatch[player.UserID] = match.MatchID
	}
	return match
}

func (c *Coordinator) start(scope *envelope.Scope, match *models.Match) {
	c.mu.Lock()
	snapshot := match.Copy()
	c.mu.Unlock()

	if c.tracker != nil {
		for _, player := range snapshot.Players {
			c.tracker.InitializePlayer(scope, player.UserID, snapshot.MatchID)
		}
	}

	scope.Log.WithFields(logrus.Fields{
		"matchID":  snapshot.MatchID,
		"serverID": snapshot.ServerID,
		"gameMode": snapshot.GameMode,
	}).Info("match started")

	for _, player := range snapshot.Players {
		collaborator.Notify(scope, c.notifier, player.UserID, constants.EventMatchStarting, map[string]interface{}{
			"matchId":  snapshot.MatchID,
			"server":   snapshot.Endpoint,
			"teams":    snapshot.Teams,
			"gameMode": snapshot.GameMode,
		})
	}

	c.persist(scope, snapshot.Record("", snapshot.StartedAt))
}

// EndMatch closes a live match with result, frees its seats and stops anti-cheat tracking.
// The match stays readable until the purge sweep removes it. Ending an ended match is a no-op.
func (c *Coordinator) EndMatch(rootScope *envelope.Scope, matchID string, result models.MatchResult) error {
	scope := rootScope.NewChildScope("Coordinator.EndMatch")
	defer scope.Finish()

	scope.SetAttributes(envelope.MatchIDTag, matchID)

	c.mu.Lock()
	match, ok := c.matches[matchID]
	if !ok {
		c.mu.Unlock()
		return models.ErrMatchNotFound
	}
	if match.Status == models.MatchStatusEnded {
		c.mu.Unlock()
		return nil
	}
	match.Status = models.MatchStatusEnded
	match.EndedAt = c.now()
	match.Result = &result
	owned := make([]string, 0, len(match.Players))
	for _, player := range match.Players {
		if c.playerMatch[player.UserID] == matchID {
			delete(c.playerMatch, player.UserID)
			owned = append(owned, player.UserID)
		}
	}
	snapshot := match.Copy()
	c.mu.Unlock()

	c.allocator.Release(scope, snapshot.ServerID, matchID, len(snapshot.Players))
	if c.tracker != nil {
		// players that moved on to another match keep their tracking
		for _, userID := range owned {
			c.tracker.RemovePlayer(scope, userID)
		}
	}

	scope.Log.WithFields(logrus.Fields{
		"matchID":     matchID,
		"serverID":    snapshot.ServerID,
		"winningTeam": result.WinningTeam,
		"draw":        result.Draw,
		"duration":    snapshot.EndedAt.Sub(snapshot.StartedAt).String(),
	}).Info("match ended")

	for _, player := range snapshot.Players {
		collaborator.Notify(scope, c.notifier, player.UserID, constants.EventMatchEnded, map[string]interface{}{
			"matchId": matchID,
			"result":  result,
		})
	}

	c.persist(scope, snapshot.Record(result.Reason, snapshot.EndedAt))
	return nil
}

// ServerFailed handles the matches of a server that timed out or unregistered. Pending matches are
// cancelled, live matches are migrated or ended.
func (c *Coordinator) ServerFailed(rootScope *envelope.Scope, serverID string, matchIDs []string) {
	scope := rootScope.NewChildScope("Coordinator.ServerFailed")
	defer scope.Finish()

	scope.SetAttributes(envelope.ServerIDTag, serverID)

	for _, matchID := range matchIDs {
		c.mu.Lock()
		_, isPending := c.pending[matchID]
		c.mu.Unlock()

		if isPending {
			c.cancel(scope, matchID, constants.ReasonServerUnavailable, "")
			continue
		}
		if err := c.MigrateMatch(scope, matchID, serverID); err != nil && !errors.Is(err, models.ErrMatchNotFound) {
			scope.Log.WithField("matchID", matchID).Warnf("unable to migrate match: %s", err.Error())
		}
	}
}

// MigrateMatch moves a live match off failedServerID to another server of the same region, preferring
// an empty one. When none can take it the match ends in a draw.
func (c *Coordinator) MigrateMatch(rootScope *envelope.Scope, matchID string, failedServerID string) error {
	scope := rootScope.NewChildScope("Coordinator.MigrateMatch")
	defer scope.Finish()

	scope.SetAttributes(envelope.MatchIDTag, matchID)

	c.mu.Lock()
	match, ok := c.matches[matchID]
	if !ok || match.Status == models.MatchStatusEnded {
		c.mu.Unlock()
		return models.ErrMatchNotFound
	}
	if match.ServerID != failedServerID {
		c.mu.Unlock()
		return nil
	}
	req := fleet.SelectRequest{
		Region:         match.Region,
		GameMode:       match.GameMode,
		Seats:          len(match.Players),
		RequireEmpty:   true,
		SameRegionOnly: true,
		Exclude:        failedServerID,
	}
	players := make([]string, 0, len(match.Players))
	for _, player := range match.Players {
		players = append(players, player.UserID)
	}
	c.mu.Unlock()

	endpoint, err := c.allocator.Allocate(scope, matchID, req)
	if errors.Is(err, models.ErrCapacityExhausted) {
		req.RequireEmpty = false
		endpoint, err = c.allocator.Allocate(scope, matchID, req)
	}
	if err != nil {
		c.metrics.AddMigration(migrationFailed)
		scope.Log.WithFields(logrus.Fields{
			"matchID":  matchID,
			"serverID": failedServerID,
			"region":   req.Region,
		}).Warn("no server to migrate match to, ending it")

		for _, userID := range players {
			collaborator.Notify(scope, c.notifier, userID, constants.EventEndedServerFailure, map[string]string{
				"matchId": matchID,
				"reason":  constants.ReasonServerUnavailable,
			})
		}
		return c.EndMatch(scope, matchID, models.DrawResult(constants.ReasonServerUnavailable))
	}

	c.mu.Lock()
	if match.Status == models.MatchStatusEnded {
		// ended while the new server was being picked
		c.mu.Unlock()
		c.allocator.Release(scope, endpoint.ServerID, matchID, req.Seats)
		return nil
	}
	match.ServerID = endpoint.ServerID
	match.Endpoint = endpoint
	match.Status = models.MatchStatusMigrated
	snapshot := match.Copy()
	c.mu.Unlock()

	c.metrics.AddMigration(migrationMigrated)
	scope.Log.WithFields(logrus.Fields{
		"matchID":    matchID,
		"fromServer": failedServerID,
		"toServer":   endpoint.ServerID,
	}).Info("match migrated")

	for _, userID := range players {
		collaborator.Notify(scope, c.notifier, userID, constants.EventServerMigrated, map[string]interface{}{
			"matchId": matchID,
			"server":  endpoint,
		})
	}

	c.persist(scope, snapshot.Record(constants.ReasonServerUnavailable, c.now()))
	return nil
}

// Kick removes userID from their live match. It reports whether the player was in one.
func (c *Coordinator) Kick(rootScope *envelope.Scope, userID string, reason string) bool {
	scope := rootScope.NewChildScope("Coordinator.Kick")
	defer scope.Finish()

	scope.SetAttributes(envelope.UserIDTag, userID)

	c.mu.Lock()
	matchID, ok := c.playerMatch[userID]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.playerMatch, userID)
	match := c.matches[matchID]
	match.Players = removePlayer(match.Players, userID)
	for i := range match.Teams {
		match.Teams[i].UserIDs = removeID(match.Teams[i].UserIDs, userID)
	}
	serverID := match.ServerID
	snapshot := match.Copy()
	c.mu.Unlock()

	c.allocator.Vacate(scope, serverID, matchID, 1)

	scope.Log.WithFields(logrus.Fields{
		"matchID": matchID,
		"userID":  userID,
		"reason":  reason,
	}).Info("player removed from match")

	c.persist(scope, snapshot.Record(reason, c.now()))
	return true
}

// Purge drops ended matches older than the retention period and returns how many were dropped.
func (c *Coordinator) Purge(rootScope *envelope.Scope, now time.Time) int {
	scope := rootScope.NewChildScope("Coordinator.Purge")
	defer scope.Finish()

	c.mu.Lock()
	defer c.mu.Unlock()

	purged := 0
	for id, match := range c.matches {
		if match.Status == models.MatchStatusEnded && now.Sub(match.EndedAt) > c.cfg.MatchRetention {
			delete(c.matches, id)
			purged++
		}
	}
	for id, closedAt := range c.closed {
		if now.Sub(closedAt) > c.cfg.MatchRetention {
			delete(c.closed, id)
		}
	}
	if purged > 0 {
		scope.Log.WithField("purged", purged).Debug("ended matches purged")
	}
	return purged
}

// Pending returns a copy of a pending match.
func (c *Coordinator) Pending(matchID string) (models.PendingMatch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.pending[matchID]
	if !ok {
		return models.PendingMatch{}, false
	}
	cp := state.match
	cp.AcceptedPlayers = make(map[string]struct{}, len(state.match.AcceptedPlayers))
	for id := range state.match.AcceptedPlayers {
		cp.AcceptedPlayers[id] = struct{}{}
	}
	return cp, true
}

// Get returns a copy of a live or recently ended match.
func (c *Coordinator) Get(matchID string) (models.Match, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	match, ok := c.matches[matchID]
	if !ok {
		return models.Match{}, false
	}
	return match.Copy(), true
}

// MatchOf returns the live match userID plays in.
func (c *Coordinator) MatchOf(userID string) (models.Match, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	matchID, ok := c.playerMatch[userID]
	if !ok {
		return models.Match{}, false
	}
	return c.matches[matchID].Copy(), true
}

// InMatch reports whether userID waits in a pending match or plays in a live one.
func (c *Coordinator) InMatch(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.inMatchLocked(userID)
}

func (c *Coordinator) inMatchLocked(userID string) bool {
	if _, ok := c.playerMatch[userID]; ok {
		return true
	}
	for _, state := range c.pending {
		if participates(state.match.Group, userID) {
			return true
		}
	}
	return false
}

// busyLocked returns the players of group that are already booked, the caller holds the lock.
func (c *Coordinator) busyLocked(group models.MatchGroup) []string {
	var busy []string
	for _, userID := range group.UserIDs() {
		if c.inMatchLocked(userID) {
			busy = append(busy, userID)
		}
	}
	return busy
}

// Active returns copies of the matches that have not ended, ordered by start time.
func (c *Coordinator) Active() []models.Match {
	c.mu.Lock()
	matches := make([]models.Match, 0, len(c.matches))
	for _, match := range c.matches {
		if match.Status != models.MatchStatusEnded {
			matches = append(matches, match.Copy())
		}
	}
	c.mu.Unlock()

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].StartedAt.Equal(matches[j].StartedAt) {
			return matches[i].StartedAt.Before(matches[j].StartedAt)
		}
		return matches[i].MatchID < matches[j].MatchID
	})
	return matches
}

func (c *Coordinator) persist(scope *envelope.Scope, record models.MatchRecord) {
	if c.records == nil {
		return
	}
	collaborator.Persist(scope, "match.save", c.cfg.PersistTimeout, func(ctx context.Context) error {
		return c.records.SaveMatch(ctx, record)
	})
}

func participates(group models.MatchGroup, userID string) bool {
	for _, player := range group.Players {
		if player.UserID == userID {
			return true
		}
	}
	return false
}

func removePlayer(players []models.MatchPlayer, userID string) []models.MatchPlayer {
	kept := make([]models.MatchPlayer, 0, len(players))
	for _, player := range players {
		if player.UserID != userID {
			kept = append(kept, player)
		}
	}
	return kept
}

func removeID(ids []string, userID string) []string {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != userID {
			kept = append(kept, id)
		}
	}
	return kept
}
