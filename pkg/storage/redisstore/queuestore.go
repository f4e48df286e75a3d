// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

// QueueStore keeps one set of user ids per bucket and one JSON entry per queued player.
// Entries expire on their own, stale set members are dropped when the bucket is read.
type QueueStore struct {
	client redis.UniversalClient
}

func NewQueueStore(client redis.UniversalClient) *QueueStore {
	return &QueueStore{client: client}
}

func bucketsKey() string {
	return keyPrefix + "queue:buckets"
}

func bucketKey(bucket models.BucketKey) string {
	return keyPrefix + "queue:bucket:" + bucket.String()
}

func entryKey(bucket models.BucketKey, userID string) string {
	return keyPrefix + "queue:entry:" + bucket.String() + ":" + userID
}

func (s *QueueStore) Put(ctx context.Context, entry models.QueueEntry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal queue entry: %w", err)
	}

	bucket := entry.Bucket()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, entryKey(bucket, entry.UserID), data, ttl)
		pipe.SAdd(ctx, bucketKey(bucket), entry.UserID)
		pipe.SAdd(ctx, bucketsKey(), bucket.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store queue entry: %w", err)
	}

	return nil
}

func (s *QueueStore) Remove(ctx context.Context, bucket models.BucketKey, userID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, entryKey(bucket, userID))
		pipe.SRem(ctx, bucketKey(bucket), userID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove queue entry: %w", err)
	}

	return nil
}

func (s *QueueStore) Members(ctx context.Context, bucket models.BucketKey) ([]models.QueueEntry, error) {
	userIDs, err := s.client.SMembers(ctx, bucketKey(bucket)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket %s: %w", bucket, err)
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, entryKey(bucket, userID))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read bucket %s: %w", bucket, err)
	}

	entries := make([]models.QueueEntry, 0, len(values))
	var expired []interface{}
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			expired = append(expired, userIDs[i])
			continue
		}

		var entry models.QueueEntry
		if err = json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal queue entry %s: %w", keys[i], err)
		}
		entries = append(entries, entry)
	}

	if len(expired) > 0 {
		if err = s.client.SRem(ctx, bucketKey(bucket), expired...).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("failed to drop expired members of %s: %w", bucket, err)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Seq < entries[j].Seq
	})

	return entries, nil
}

func (s *QueueStore) All(ctx context.Context) ([]models.QueueEntry, error) {
	buckets, err := s.client.SMembers(ctx, bucketsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	var entries []models.QueueEntry
	for _, name := range buckets {
		gameMode, region, ok := strings.Cut(name, ":")
		if !ok {
			continue
		}
		members, err := s.Members(ctx, models.BucketKey{GameMode: gameMode, Region: region})
		if err != nil {
			return nil, err
		}
		entries = append(entries, members...)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Seq < entries[j].Seq
	})

	return entries, nil
}
