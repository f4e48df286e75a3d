// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"sync"
	"time"

	"github.com/AccelByte/extend-arena-backend/pkg/common"
)

// FakeTimers records armed timers and fires them only when the test asks to.
type FakeTimers struct {
	mu     sync.Mutex
	timers []*FakeTimer
}

type FakeTimer struct {
	Delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *FakeTimer) Stop() bool {
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// AfterFunc matches common.AfterFunc.
func (f *FakeTimers) AfterFunc(d time.Duration, fn func()) common.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	timer := &FakeTimer{Delay: d, fn: fn}
	f.timers = append(f.timers, timer)
	return timer
}

// Pending returns the timers that are neither stopped nor fired.
func (f *FakeTimers) Pending() []*FakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pending []*FakeTimer
	for _, t := range f.timers {
		if !t.stopped && !t.fired {
			pending = append(pending, t)
		}
	}
	return pending
}

// FireAll runs every pending timer in arming order, including timers armed by the callbacks.
func (f *FakeTimers) FireAll() int {
	fired := 0
	for {
		pending := f.Pending()
		if len(pending) == 0 {
			return fired
		}
		for _, t := range pending {
			f.Fire(t)
			fired++
		}
	}
}

// Fire runs the timer callback even if the timer was stopped, which simulates a callback racing Stop.
func (f *FakeTimers) Fire(t *FakeTimer) {
	f.mu.Lock()
	t.fired = true
	f.mu.Unlock()
	t.fn()
}
