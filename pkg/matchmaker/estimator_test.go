// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBucketWaitEstimator(t *testing.T) {
	estimator := NewBucketWaitEstimator()

	tests := []struct {
		name  string
		input EstimateInput
		want  time.Duration
	}{
		{name: "alone", input: EstimateInput{Position: 1, BucketSize: 1, PartySize: 4, TickRate: 2 * time.Second}, want: 2*time.Second + 45*time.Second},
		{name: "bucket_full", input: EstimateInput{Position: 2, BucketSize: 4, PartySize: 4, TickRate: 2 * time.Second}, want: 2 * time.Second},
		{name: "second_group", input: EstimateInput{Position: 6, BucketSize: 8, PartySize: 4, TickRate: 2 * time.Second}, want: 4 * time.Second},
		{name: "second_group_missing", input: EstimateInput{Position: 5, BucketSize: 5, PartySize: 4, TickRate: 2 * time.Second}, want: 4*time.Second + 45*time.Second},
		{name: "unknown_mode", input: EstimateInput{Position: 1, BucketSize: 1}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, estimator.Estimate(tt.input))
		})
	}
}

func TestRandomWaitEstimator(t *testing.T) {
	estimator := NewRandomWaitEstimator(42)
	for i := 0; i < 100; i++ {
		wait := estimator.Estimate(EstimateInput{})
		assert.GreaterOrEqual(t, wait, 30*time.Second)
		assert.Less(t, wait, 150*time.Second)
	}
}
