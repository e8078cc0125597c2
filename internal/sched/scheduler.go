// Package sched is the central registry for timer-driven work: one-shot
// tasks (deferred sends, standup flushes) and cron-driven recurring tasks
// (periodic snapshots). Every one-shot is cancellable, individually or
// all at once, so a workspace reset leaves no dangling timer that could
// mutate post-reset state.
package sched

import (
	"context"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"
)

type Scheduler struct {
	mu     sync.Mutex
	log    *zap.Logger
	tasks  map[int64]*time.Timer
	nextID int64
}

func New(log *zap.Logger) *Scheduler {
	return &Scheduler{
		log:   log,
		tasks: make(map[int64]*time.Timer),
	}
}

// After schedules fn to run once after d and returns a cancel function.
// Cancel reports whether it prevented the run: false means fn already
// fired (or is about to fire and observed its registration intact).
// fn runs on the timer goroutine; it must not block for long.
func (s *Scheduler) After(d time.Duration, fn func()) (cancel func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID

	timer := time.AfterFunc(d, func() {
		// A task deregistered by Cancel or CancelAll between the timer
		// firing and this callback acquiring the lock must not run.
		s.mu.Lock()
		_, live := s.tasks[id]
		delete(s.tasks, id)
		s.mu.Unlock()
		if !live {
			return
		}
		fn()
	})
	s.tasks[id] = timer

	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.tasks[id]; !ok {
			return false
		}
		delete(s.tasks, id)
		timer.Stop()
		return true
	}
}

// CancelAll stops every pending one-shot task. Recurring cron loops are
// owned by their context and are unaffected.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.tasks {
		timer.Stop()
		delete(s.tasks, id)
	}
}

// Pending returns the number of registered one-shot tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Cron runs fn on the given cron schedule until ctx is cancelled. The
// expression is validated up front; the loop computes each next tick
// with gronx and sleeps until it, so long gaps cost nothing.
func (s *Scheduler) Cron(ctx context.Context, expr string, fn func()) error {
	if !gronx.IsValid(expr) {
		return &InvalidCronError{Expr: expr}
	}

	go func() {
		for {
			next, err := gronx.NextTickAfter(expr, time.Now(), false)
			if err != nil {
				s.log.Error("cron next tick failed", zap.String("expr", expr), zap.Error(err))
				select {
				case <-time.After(30 * time.Second):
					continue
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-time.After(time.Until(next)):
				fn()
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

type InvalidCronError struct {
	Expr string
}

func (e *InvalidCronError) Error() string {
	return "invalid cron expression: " + e.Expr
}
