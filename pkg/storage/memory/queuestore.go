// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package memory keeps collaborator state in process, used in development mode and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AccelByte/extend-arena-backend/pkg/common"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

type storedEntry struct {
	entry     models.QueueEntry
	expiresAt time.Time
}

// QueueStore is an in-process collaborator.QueueStore with TTL.
type QueueStore struct {
	mu      sync.Mutex
	buckets map[models.BucketKey]map[string]storedEntry
	now     func() time.Time
}

func NewQueueStore() *QueueStore {
	return &QueueStore{
		buckets: make(map[models.BucketKey]map[string]storedEntry),
		now:     common.Now,
	}
}

// SetClock replaces the clock used for TTL expiry.
func (s *QueueStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *QueueStore) Put(_ context.Context, entry models.QueueEntry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.buckets[entry.Bucket()]
	if !ok {
		bucket = make(map[string]storedEntry)
		s.buckets[entry.Bucket()] = bucket
	}

	stored := storedEntry{entry: entry}
	if ttl > 0 {
		stored.expiresAt = s.now().Add(ttl)
	}
	bucket[entry.UserID] = stored

	return nil
}

func (s *QueueStore) Remove(_ context.Context, bucket models.BucketKey, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if members, ok := s.buckets[bucket]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(s.buckets, bucket)
		}
	}

	return nil
}

func (s *QueueStore) Members(_ context.Context, bucket models.BucketKey) ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.liveLocked(bucket), nil
}

func (s *QueueStore) All(_ context.Context) ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []models.QueueEntry
	for bucket := range s.buckets {
		entries = append(entries, s.liveLocked(bucket)...)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Seq < entries[j].Seq
	})

	return entries, nil
}

func (s *QueueStore) liveLocked(bucket models.BucketKey) []models.QueueEntry {
	now := s.now()
	members := s.buckets[bucket]
	entries := make([]models.QueueEntry, 0, len(members))
	for userID, stored := range members {
		if !stored.expiresAt.IsZero() && !now.Before(stored.expiresAt) {
			delete(members, userID)
			continue
		}
		entries = append(entries, stored.entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Seq < entries[j].Seq
	})
	return entries
}
