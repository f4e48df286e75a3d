// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"time"
)

// Now is the wall clock, components take a copy so tests can replace it.
var Now = time.Now

// Timer is the part of *time.Timer the components use.
type Timer interface {
	Stop() bool
}

// AfterFunc arms a one shot timer. Components hold an AfterFunc so tests can fire timers by hand.
type AfterFunc func(d time.Duration, f func()) Timer

// RealAfterFunc is backed by time.AfterFunc.
func RealAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
