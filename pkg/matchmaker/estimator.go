// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"math/rand"
	"sync"
	"time"
)

const (
	defaultPerMissingPlayer = 15 * time.Second
	randomWaitMin           = 30 * time.Second
	randomWaitSpread        = 120 * time.Second
)

// BucketWaitEstimator estimates from the bucket depth: one tick per group ahead of the player,
// plus a fixed arrival time for every player still missing to complete the player's group.
type BucketWaitEstimator struct {
	PerMissingPlayer time.Duration
}

func NewBucketWaitEstimator() *BucketWaitEstimator {
	return &BucketWaitEstimator{PerMissingPlayer: defaultPerMissingPlayer}
}

func (e *BucketWaitEstimator) Estimate(input EstimateInput) time.Duration {
	if input.PartySize <= 0 {
		return 0
	}
	position := max(input.Position, 1)
	groupsAhead := (position - 1) / input.PartySize
	needed := (groupsAhead + 1) * input.PartySize

	wait := time.Duration(groupsAhead+1) * input.TickRate
	if missing := needed - input.BucketSize; missing > 0 {
		wait += time.Duration(missing) * e.PerMissingPlayer
	}
	return wait
}

// RandomWaitEstimator returns a uniform value between 30s and 150s whatever the bucket looks like.
type RandomWaitEstimator struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func NewRandomWaitEstimator(seed int64) *RandomWaitEstimator {
	return &RandomWaitEstimator{rand: rand.New(rand.NewSource(seed))}
}

func (e *RandomWaitEstimator) Estimate(_ EstimateInput) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	return randomWaitMin + time.Duration(e.rand.Int63n(int64(randomWaitSpread/time.Second)))*time.Second
}
