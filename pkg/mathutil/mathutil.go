// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mathutil

import (
	"cmp"
	"math"
)

// Max returns the larger of x and y.
func Max[T cmp.Ordered](x T, y T) T {
	return max(x, y)
}

// Min returns the smaller of x and y.
func Min[T cmp.Ordered](x T, y T) T {
	return min(x, y)
}

// Clamp bounds v to [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// Unit clamps a score to [0,1]. NaN collapses to 0.
func Unit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return Clamp(v, 0, 1)
}

// Vector is a 2D position or velocity.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Vector) float64 {
	return b.Sub(a).Length()
}

// AngleDelta returns the shortest absolute difference between two angles in degrees.
func AngleDelta(from, to float64) float64 {
	d := math.Mod(math.Abs(to-from), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
