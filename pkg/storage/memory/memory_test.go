// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

func TestQueueStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	store := NewQueueStore()
	store.SetClock(func() time.Time { return now })

	bucket := models.BucketKey{GameMode: "classic", Region: "na-east"}
	require.NoError(t, store.Put(ctx, models.QueueEntry{UserID: "a", GameMode: "classic", Region: "na-east", Seq: 1}, time.Minute))
	require.NoError(t, store.Put(ctx, models.QueueEntry{UserID: "b", GameMode: "classic", Region: "na-east", Seq: 2}, 10*time.Minute))

	members, err := store.Members(ctx, bucket)
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.Equal(t, "a", members[0].UserID)

	now = now.Add(2 * time.Minute)
	members, err = store.Members(ctx, bucket)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "b", members[0].UserID)

	require.NoError(t, store.Remove(ctx, bucket, "b"))
	require.NoError(t, store.Remove(ctx, bucket, "b"))
	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRecordStore(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()

	_, err := store.GetMatch(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrMatchNotFound)

	ban, err := store.GetBan(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, ban)

	for i, id := range []string{"v1", "v2", "v3"} {
		require.NoError(t, store.SaveViolation(ctx, models.Violation{ID: id, PlayerID: "p1", Confidence: float64(i) / 10}))
	}
	violations, err := store.ListViolations(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, violations, 2)
	assert.Equal(t, "v3", violations[0].ID)
	assert.Equal(t, "v2", violations[1].ID)

	_, ok, err := store.GetTrustFactor(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNotifier_DrainAndBound(t *testing.T) {
	notifier := NewNotifier()
	notifier.inboxSize = 2

	ctx := context.Background()
	require.NoError(t, notifier.Emit(ctx, "u1", "one", nil))
	require.NoError(t, notifier.Emit(ctx, "u1", "two", nil))
	require.NoError(t, notifier.Emit(ctx, "u1", "three", nil))

	events, err := notifier.Drain(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "two", events[0].Event)
	assert.Equal(t, "three", events[1].Event)
	events, err = notifier.Drain(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, events)
}
