// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package scheduler runs the periodic tasks of the arena backend: queue tick, heartbeat sweep,
// violation decay and match purge.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-arena-backend/pkg/common"
	"github.com/AccelByte/extend-arena-backend/pkg/envelope"
)

// Task is one periodic job. Run receives the tick time and must not block on I/O for long.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(scope *envelope.Scope, now time.Time)
}

type task struct {
	Task
	running atomic.Bool
	skipped atomic.Int64
	runs    atomic.Int64
}

// Scheduler starts one ticker per task. A tick that fires while the previous run of the same task
// is still going is skipped.
type Scheduler struct {
	now   func() time.Time
	tasks []*task

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func New(tasks ...Task) (*Scheduler, error) {
	s := &Scheduler{now: common.Now}
	for _, t := range tasks {
		if t.Interval <= 0 {
			return nil, errors.New("scheduler: task " + t.Name + " has no interval")
		}
		if t.Run == nil {
			return nil, errors.New("scheduler: task " + t.Name + " has nothing to run")
		}
		s.tasks = append(s.tasks, &task{Task: t})
	}
	return s, nil
}

func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Start launches the tickers. They stop when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}

	logrus.WithField("tasks", len(s.tasks)).Info("scheduler started")
}

// Stop cancels the tickers and waits for running tasks to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	logrus.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, t *task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.running.CompareAndSwap(false, true) {
				t.skipped.Add(1)
				logrus.WithField("task", t.Name).Warn("previous run still in progress, skipping tick")
				continue
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer t.running.Store(false)
				s.run(ctx, t)
			}()
		}
	}
}

// RunNow runs the named task synchronously, honoring the overlap guard. It returns false when the task
// is unknown or already running.
func (s *Scheduler) RunNow(ctx context.Context, name string) bool {
	for _, t := range s.tasks {
		if t.Name != name {
			continue
		}
		if !t.running.CompareAndSwap(false, true) {
			t.skipped.Add(1)
			return false
		}
		defer t.running.Store(false)
		s.run(ctx, t)
		return true
	}
	return false
}

func (s *Scheduler) run(ctx context.Context, t *task) {
	scope := envelope.NewRootScope(ctx, "Scheduler."+t.Name, "")
	defer scope.Finish()

	defer func() {
		if r := recover(); r != nil {
			scope.Log.WithFields(logrus.Fields{
				"task":  t.Name,
				"panic": r,
			}).Error("periodic task panicked")
		}
	}()

	t.runs.Add(1)
	t.Run(scope, s.now())
}

// Stats reports how many times each task ran and how many ticks were skipped.
type Stats struct {
	Runs    int64 `json:"runs"`
	Skipped int64 `json:"skipped"`
}

func (s *Scheduler) Stats() map[string]Stats {
	stats := make(map[string]Stats, len(s.tasks))
	for _, t := range s.tasks {
		stats[t.Name] = Stats{Runs: t.runs.Load(), Skipped: t.skipped.Load()}
	}
	return stats
}
