// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-arena-backend/pkg/collaborator"
	"github.com/AccelByte/extend-arena-backend/pkg/common"
	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/constants"
	"github.com/AccelByte/extend-arena-backend/pkg/envelope"
	"github.com/AccelByte/extend-arena-backend/pkg/metrics"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

const storeTimeout = 2 * time.Second

// QueueManager owns the queue table. Every mutation goes through its methods.
type QueueManager struct {
	cfg       *config.Config
	store     collaborator.QueueStore
	notifier  collaborator.Notifier
	sessions  collaborator.SessionAuthority
	metrics   metrics.ArenaMetrics
	estimator WaitEstimator
	parties   *PartyManager
	requester MatchRequester
	matches   MatchLookup
	pool      *models.Pool
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*models.QueueEntry
	seq     uint64

	// inFlight holds entries of formed groups while the match requester places them.
	inFlight map[string]*models.QueueEntry

	tickMu sync.Mutex
	tickID atomic.Int64
}

func NewQueueManager(
	cfg *config.Config,
	store collaborator.QueueStore,
	notifier collaborator.Notifier,
	sessions collaborator.SessionAuthority,
	arenaMetrics metrics.ArenaMetrics,
) *QueueManager {
	q := &QueueManager{
		cfg:       cfg,
		store:     store,
		notifier:  notifier,
		sessions:  sessions,
		metrics:   arenaMetrics,
		estimator: NewBucketWaitEstimator(),
		parties:   NewPartyManager(cfg, notifier),
		pool:      models.NewPool(),
		now:       common.Now,
		entries:   make(map[string]*models.QueueEntry),
		inFlight:  make(map[string]*models.QueueEntry),
	}
	q.parties.setChangeHook(q.dropParty)
	return q
}

// SetMatchRequester wires the component that turns formed groups into pending matches.
func (q *QueueManager) SetMatchRequester(requester MatchRequester) {
	q.requester = requester
}

// SetMatchLookup wires the component that knows which players are already in a match.
func (q *QueueManager) SetMatchLookup(matches MatchLookup) {
	q.matches = matches
}

func (q *QueueManager) SetWaitEstimator(estimator WaitEstimator) {
	q.estimator = estimator
}

// SetClock replaces the clock used by Join and the party manager.
func (q *QueueManager) SetClock(now func() time.Time) {
	q.now = now
	q.parties.now = now
}

func (q *QueueManager) Parties() *PartyManager {
	return q.parties
}

// Join puts userID in the queue of the requested game mode and region.
func (q *QueueManager) Join(rootScope *envelope.Scope, userID string, req models.JoinRequest) (*models.JoinResult, error) {
	scope := rootScope.NewChildScope("QueueManager.Join")
	defer scope.Finish()

	scope.SetAttributes(envelope.UserIDTag, userID)
	scope.SetAttributes(envelope.GameModeTag, req.GameMode)
	scope.SetAttributes(envelope.RegionTag, req.Region)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	mode, ok := q.cfg.Tables.GameModes[req.GameMode]
	if !ok {
		return nil, models.ErrInvalidGameMode
	}
	if !q.cfg.Tables.HasRegion(req.Region) {
		return nil, models.ErrInvalidRegion
	}

	if q.sessions != nil {
		standing, err := q.sessions.PlayerStanding(scope.Ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("unable to check player standing: %w", err)
		}
		if standing.Banned {
			return nil, models.ErrBanned
		}
		if standing.TrustFactor < q.cfg.MinTrustFactor {
			return nil, models.ErrTrustTooLow
		}
	}

	if q.matches != nil && q.matches.InMatch(userID) {
		return nil, models.ErrAlreadyInMatch
	}

	if req.PartyID != "" {
		party, found := q.parties.Get(req.PartyID)
		if !found {
			return nil, models.ErrPartyNotFound
		}
		if !party.HasMember(userID) {
			return nil, models.ErrNotInParty
		}
		if len(party.Members) > mode.TeamSize() {
			return nil, models.ErrPartyTooLarge
		}
	}

	now := q.now()

	q.mu.Lock()
	_, queued := q.entries[userID]
	_, placing := q.inFlight[userID]
	if queued || placing {
		q.mu.Unlock()
		return nil, models.ErrAlreadyQueued
	}
	if req.PartyID != "" {
		for _, e := range q.entries {
			if e.PartyID == req.PartyID && (e.GameMode != req.GameMode || e.Region != req.Region) {
				q.mu.Unlock()
				return nil, models.ErrPartyBucketMismatch
			}
		}
	}

	q.seq++
	entry := &models.QueueEntry{
		UserID:           userID,
		GameMode:         req.GameMode,
		Region:           req.Region,
		Skill:            req.Skill,
		PartyID:          req.PartyID,
		JoinedAt:         now,
		CurrentTolerance: Tolerance(q.cfg, 0),
		Seq:              q.seq,
	}
	q.entries[userID] = entry
	position, bucketSize := q.positionLocked(entry)
	q.mu.Unlock()

	q.storePut(scope, *entry)

	result := &models.JoinResult{
		Entry:    *entry,
		Position: position,
		EstimatedWait: q.estimator.Estimate(EstimateInput{
			Position:   position,
			BucketSize: bucketSize,
			PartySize:  mode.PartySize,
			TickRate:   q.cfg.QueueTickRate,
		}),
	}

	scope.Log.WithFields(logrus.Fields{
		"userID":   userID,
		"gameMode": req.GameMode,
		"region":   req.Region,
		"partyID":  req.PartyID,
		"position": position,
	}).Info("player joined queue")

	collaborator.Notify(scope, q.notifier, userID, constants.EventQueueJoined, map[string]interface{}{
		"gameMode":      req.GameMode,
		"region":        req.Region,
		"position":      position,
		"estimatedWait": result.EstimatedWait.Seconds(),
	})
	q.metrics.QueueSize(req.GameMode, req.Region, bucketSize)

	return result, nil
}

// Leave removes userID from the queue. It reports whether the player was queued.
func (q *QueueManager) Leave(rootScope *envelope.Scope, userID string) bool {
	scope := rootScope.NewChildScope("QueueManager.Leave")
	defer scope.Finish()

	q.mu.Lock()
	entry, ok := q.entries[userID]
	if ok {
		delete(q.entries, userID)
	} else if entry, ok = q.inFlight[userID]; ok {
		delete(q.inFlight, userID)
	}
	q.mu.Unlock()

	if !ok {
		return false
	}

	q.storeRemove(scope, entry.Bucket(), userID)
	collaborator.Notify(scope, q.notifier, userID, constants.EventQueueLeft, map[string]string{
		"gameMode": entry.GameMode,
		"region":   entry.Region,
	})

	return true
}

// Disconnect takes the player out of the queue and out of their party.
func (q *QueueManager) Disconnect(rootScope *envelope.Scope, userID string) {
	scope := rootScope.NewChildScope("QueueManager.Disconnect")
	defer scope.Finish()

	q.Leave(scope, userID)
	if err := q.parties.LeaveParty(scope, userID); err != nil && !errors.Is(err, models.ErrNotInParty) {
		scope.Log.WithField("userID", userID).Warnf("unable to leave party on disconnect: %s", err.Error())
	}
}

// IsQueued reports whether userID has a queue entry.
func (q *QueueManager) IsQueued(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, ok := q.entries[userID]
	return ok
}

// PlayerInfo describes where userID stands in the queue.
func (q *QueueManager) PlayerInfo(userID string, now time.Time) (models.QueueInfo, bool) {
	q.mu.Lock()
	entry, ok := q.entries[userID]
	if !ok {
		q.mu.Unlock()
		return models.QueueInfo{}, false
	}
	snapshot := *entry
	position, bucketSize := q.positionLocked(entry)
	q.mu.Unlock()

	mode := q.cfg.Tables.GameModes[snapshot.GameMode]

	return models.QueueInfo{
		GameMode: snapshot.GameMode,
		Region:   snapshot.Region,
		WaitTime: now.Sub(snapshot.JoinedAt),
		EstimatedRemaining: q.estimator.Estimate(EstimateInput{
			Position:   position,
			BucketSize: bucketSize,
			PartySize:  mode.PartySize,
			TickRate:   q.cfg.QueueTickRate,
		}),
		Position:         position,
		CurrentTolerance: widenTolerance(q.cfg, snapshot.CurrentTolerance, snapshot.JoinedAt, now),
		PartyID:          snapshot.PartyID,
	}, true
}

// Stats counts queued players per region and game mode.
func (q *QueueManager) Stats() models.QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := models.QueueStats{
		Total:      len(q.entries),
		ByRegion:   make(map[string]int),
		ByGameMode: make(map[string]int),
	}
	for _, e := range q.entries {
		stats.ByRegion[e.Region]++
		stats.ByGameMode[e.GameMode]++
	}
	return stats
}

// Entries returns a copy of every queue entry in insertion order.
func (q *QueueManager) Entries() []models.QueueEntry {
	q.mu.Lock()
	entries := make([]models.QueueEntry, 0, len(q.entries))
	for _, e := range q.entries {
		entries = append(entries, *e)
	}
	q.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Seq < entries[j].Seq
	})
	return entries
}

// Restore loads the entries kept by the queue store, typically after a restart.
func (q *QueueManager) Restore(rootScope *envelope.Scope) (int, error) {
	scope := rootScope.NewChildScope("QueueManager.Restore")
	defer scope.Finish()

	stored, err := q.store.All(scope.Ctx)
	if err != nil {
		return 0, fmt.Errorf("unable to load queue entries: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	restored := 0
	for i := range stored {
		entry := stored[i]
		if _, ok := q.cfg.Tables.GameModes[entry.GameMode]; !ok {
			continue
		}
		if _, exists := q.entries[entry.UserID]; exists {
			continue
		}
		q.entries[entry.UserID] = &entry
		q.seq = max(q.seq, entry.Seq)
		restored++
	}

	scope.Log.WithField("restored", restored).Info("queue restored from store")
	return restored, nil
}

// Tick runs one matchmaking pass at now. A tick that starts while another one is running is skipped.
func (q *QueueManager) Tick(rootScope *envelope.Scope, now time.Time) TickInfo {
	if !q.tickMu.TryLock() {
		rootScope.Log.Warn("previous queue tick still running, skipping")
		return TickInfo{Timestamp: now, Skipped: true}
	}
	defer q.tickMu.Unlock()

	scope := rootScope.NewChildScope("QueueManager.Tick")
	defer scope.Finish()

	start := time.Now()
	info := TickInfo{
		Timestamp: now,
		TickID:    q.tickID.Add(1),
	}
	info.InvitesExpired = q.parties.ExpireInvites(now)

	timedOut, groups, buckets := q.planTick(scope, now)
	info.BucketsProcessed = buckets

	for _, entry := range timedOut {
		q.storeRemove(scope, entry.Bucket(), entry.UserID)
		collaborator.Notify(scope, q.notifier, entry.UserID, constants.EventQueueTimeout, map[string]string{
			"gameMode": entry.GameMode,
			"region":   entry.Region,
			"reason":   constants.ReasonQueueTimeout,
		})
	}
	info.PlayersTimedOut = len(timedOut)

	for _, formed := range groups {
		if err := q.requestMatch(scope, formed.group); err != nil {
			entries := formed.entries
			reason := constants.UnmatchedCapacityExhausted
			if errors.Is(err, models.ErrAlreadyInMatch) {
				entries = q.dropBooked(scope, entries)
				reason = constants.UnmatchedAlreadyInMatch
			}
			requeued := q.requeue(entries)
			info.PlayersRequeued += requeued
			q.metrics.AddUnmatchedReason(formed.group.GameMode, formed.group.Region, reason)
			scope.Log.WithFields(logrus.Fields{
				"gameMode": formed.group.GameMode,
				"region":   formed.group.Region,
				"players":  formed.group.UserIDs(),
			}).Warnf("formed group could not be placed, players requeued: %s", err.Error())
			continue
		}

		q.settle(formed.entries)
		info.MatchCreated++
		info.PlayersMatched += len(formed.entries)
		q.metrics.AddMatchFormed(formed.group.GameMode, formed.group.Region)
		q.removeFromStore(scope, formed.entries)
	}

	info.TotalInQueue = q.reportQueueSizes()
	info.Elapsed = time.Since(start)

	if info.MatchCreated > 0 || info.PlayersTimedOut > 0 {
		scope.Log.WithFields(logrus.Fields{
			"tickID":          info.TickID,
			"matchCreated":    info.MatchCreated,
			"playersMatched":  info.PlayersMatched,
			"playersTimedOut": info.PlayersTimedOut,
			"playersRequeued": info.PlayersRequeued,
			"totalInQueue":    info.TotalInQueue,
		}).Info("queue tick finished")
	}

	return info
}

// planTick expires and widens entries then forms groups, all under the queue lock.
// Matched and expired entries leave the table before the lock is released.
func (q *QueueManager) planTick(scope *envelope.Scope, now time.Time) (timedOut []models.QueueEntry, groups []formedGroup, processed int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	buckets := make(map[models.BucketKey][]*models.QueueEntry)
	for userID, e := range q.entries {
		if now.Sub(e.JoinedAt) > q.cfg.MaxWaitTime {
			timedOut = append(timedOut, *e)
			delete(q.entries, userID)
			continue
		}
		e.CurrentTolerance = widenTolerance(q.cfg, e.CurrentTolerance, e.JoinedAt, now)

		key := e.Bucket()
		if _, ok := buckets[key]; !ok {
			buckets[key] = q.pool.GetQueueEntries()
		}
		buckets[key] = append(buckets[key], e)
	}
	defer func() {
		for _, entries := range buckets {
			q.pool.PutQueueEntries(entries)
		}
	}()

	keys := make([]models.BucketKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	for _, key := range keys {
		entries := buckets[key]
		mode, ok := q.cfg.Tables.GameModes[key.GameMode]
		if !ok {
			continue
		}
		if len(entries) < mode.PartySize {
			q.metrics.AddUnmatchedReason(key.GameMode, key.Region, constants.UnmatchedNotEnoughPlayers)
			continue
		}

		processed++
		bucketStart := time.Now()

		units, incomplete := buildUnits(entries, q.partyMembers)
		formed, unmatched := formGroups(key, units, mode)
		if len(incomplete) > 0 {
			unmatched[constants.UnmatchedIncompleteParty] += len(incomplete)
		}

		for _, g := range formed {
			for _, e := range g.entries {
				delete(q.entries, e.UserID)
				q.inFlight[e.UserID] = e
			}
		}
		groups = append(groups, formed...)

		for reason := range unmatched {
			q.metrics.AddUnmatchedReason(key.GameMode, key.Region, reason)
		}
		q.metrics.AddTickElapsedTimeMs(key.GameMode, key.Region, time.Since(bucketStart))

		scope.Log.WithFields(logrus.Fields{
			"gameMode":  key.GameMode,
			"region":    key.Region,
			"queued":    len(entries),
			"formed":    len(formed),
			"unmatched": unmatched,
		}).Debug("bucket processed")
	}

	sort.Slice(timedOut, func(i, j int) bool {
		return timedOut[i].Seq < timedOut[j].Seq
	})

	return timedOut, groups, processed
}

func (q *QueueManager) partyMembers(partyID string) ([]string, bool) {
	party, ok := q.parties.Get(partyID)
	if !ok {
		return nil, false
	}
	return party.Members, true
}

func (q *QueueManager) requestMatch(scope *envelope.Scope, group models.MatchGroup) error {
	if q.requester == nil {
		return errors.New("no match requester configured")
	}
	return q.requester.RequestMatch(scope, group)
}

// requeue puts entries back with their original join time. Players who left while the group was being
// placed stay out.
func (q *QueueManager) requeue(entries []*models.QueueEntry) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	requeued := 0
	for _, e := range entries {
		if _, pending := q.inFlight[e.UserID]; !pending {
			continue
		}
		delete(q.inFlight, e.UserID)
		q.entries[e.UserID] = e
		requeued++
	}
	return requeued
}

// dropBooked takes the players already booked in a match out of a refused group and returns the others.
func (q *QueueManager) dropBooked(scope *envelope.Scope, entries []*models.QueueEntry) []*models.QueueEntry {
	if q.matches == nil {
		return entries
	}
	free := make([]*models.QueueEntry, 0, len(entries))
	var booked []*models.QueueEntry
	for _, e := range entries {
		if q.matches.InMatch(e.UserID) {
			booked = append(booked, e)
			continue
		}
		free = append(free, e)
	}
	if len(booked) == 0 {
		return entries
	}

	q.settle(booked)
	q.removeFromStore(scope, booked)
	for _, e := range booked {
		collaborator.Notify(scope, q.notifier, e.UserID, constants.EventQueueLeft, map[string]string{
			"gameMode": e.GameMode,
			"region":   e.Region,
			"reason":   constants.ReasonAlreadyInMatch,
		})
	}
	return free
}

// settle forgets the entries of a group that was placed.
func (q *QueueManager) settle(entries []*models.QueueEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range entries {
		delete(q.inFlight, e.UserID)
	}
}

// dropParty removes every queued member of a party that changed, the remaining members must queue again.
func (q *QueueManager) dropParty(scope *envelope.Scope, partyID string) {
	q.mu.Lock()
	var dropped []models.QueueEntry
	for userID, e := range q.entries {
		if e.PartyID == partyID {
			dropped = append(dropped, *e)
			delete(q.entries, userID)
		}
	}
	q.mu.Unlock()

	for _, e := range dropped {
		q.storeRemove(scope, e.Bucket(), e.UserID)
		collaborator.Notify(scope, q.notifier, e.UserID, constants.EventQueueLeft, map[string]string{
			"gameMode": e.GameMode,
			"region":   e.Region,
			"reason":   "party_changed",
		})
	}
}

// positionLocked counts the earlier entries of the same bucket.
func (q *QueueManager) positionLocked(entry *models.QueueEntry) (position int, bucketSize int) {
	position = 1
	for _, e := range q.entries {
		if e.GameMode != entry.GameMode || e.Region != entry.Region {
			continue
		}
		bucketSize++
		if e.Seq < entry.Seq {
			position++
		}
	}
	return position, bucketSize
}

func (q *QueueManager) reportQueueSizes() int {
	stats := make(map[models.BucketKey]int)

	q.mu.Lock()
	total := len(q.entries)
	for _, e := range q.entries {
		stats[e.Bucket()]++
	}
	q.mu.Unlock()

	for key, count := range stats {
		q.metrics.QueueSize(key.GameMode, key.Region, count)
	}
	return total
}

func (q *QueueManager) storePut(scope *envelope.Scope, entry models.QueueEntry) {
	if q.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(scope.Ctx, storeTimeout)
	defer cancel()

	if err := q.store.Put(ctx, entry, q.cfg.QueueEntryTTL); err != nil {
		scope.Log.WithField("userID", entry.UserID).Warnf("unable to store queue entry: %s", err.Error())
	}
}

func (q *QueueManager) storeRemove(scope *envelope.Scope, bucket models.BucketKey, userID string) {
	if q.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(scope.Ctx, storeTimeout)
	defer cancel()

	if err := q.store.Remove(ctx, bucket, userID); err != nil {
		scope.Log.WithField("userID", userID).Warnf("unable to remove queue entry from store: %s", err.Error())
	}
}

func (q *QueueManager) removeFromStore(scope *envelope.Scope, entries []*models.QueueEntry) {
	if q.store == nil {
		return
	}
	removals := make([]models.QueueEntry, 0, len(entries))
	for _, e := range entries {
		removals = append(removals, *e)
	}

	collaborator.Persist(scope, "queue.remove_matched", q.cfg.PersistTimeout, func(ctx context.Context) error {
		var errs []error
		for _, e := range removals {
			if err := q.store.Remove(ctx, e.Bucket(), e.UserID); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
