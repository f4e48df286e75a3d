// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnit(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: -0.5, want: 0},
		{in: 0.25, want: 0.25},
		{in: 1.75, want: 1},
		{in: math.NaN(), want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Unit(tt.in))
	}
}

func TestAngleDelta(t *testing.T) {
	tests := []struct {
		name     string
		from, to float64
		want     float64
	}{
		{name: "forward", from: 10, to: 40, want: 30},
		{name: "backward", from: 40, to: 10, want: 30},
		{name: "wraps_around", from: 350, to: 10, want: 20},
		{name: "opposite", from: 0, to: 180, want: 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AngleDelta(tt.from, tt.to), 1e-9)
		})
	}
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(Vector{X: 0, Y: 0}, Vector{X: 3, Y: 4}), 1e-9)
	assert.Equal(t, 3, Clamp(5, 1, 3))
}
