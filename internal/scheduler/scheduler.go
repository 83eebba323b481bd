// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scheduler drives pipeline cycles at configured wall-clock times
// (spec.md §4.F). It has exactly two modes: RunOnce executes a single cycle
// and returns; RunDaemon loops, sleeping until the next configured HH:MM and
// then running a cycle, until its context is cancelled.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
)

// Cycle is the pipeline entry point the scheduler drives. It takes only a
// context and returns no value: all other inputs are closed over by the caller,
// and the scheduler has no interest in per-cycle results beyond logging
// that one happened.
type Cycle func(ctx context.Context)

// Scheduler computes the next run instant from a set of daily HH:MM times
// and drives Cycle at each one.
type Scheduler struct {
	log       *slog.Logger
	schedules []cron.Schedule
}

// New parses times (each "HH:MM", local time zone) into daily cron
// schedules. A malformed entry is a fatal configuration error, per spec.md
// §4.F and §7 — it is returned, not swallowed, so cmd/gradewatch can exit 1
// at startup rather than fail quietly mid-run.
func New(log *slog.Logger, times []string) (*Scheduler, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("scheduler: at least one scrape time is required for daemon mode")
	}

	schedules := make([]cron.Schedule, 0, len(times))
	for _, t := range times {
		var hour, minute int
		if _, err := fmt.Sscanf(t, "%d:%d", &hour, &minute); err != nil {
			return nil, fmt.Errorf("scheduler: malformed scrape time %q: %w", t, err)
		}
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("scheduler: scrape time %q out of range", t)
		}

		sched, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
		if err != nil {
			return nil, fmt.Errorf("scheduler: parsing scrape time %q: %w", t, err)
		}
		schedules = append(schedules, sched)
	}

	log.Info("scheduler: configured", "times", sortedTimes(times))

	return &Scheduler{log: log, schedules: schedules}, nil
}

// Next returns the smallest instant >= now produced by any configured
// schedule.
func (s *Scheduler) Next(now time.Time) time.Time {
	// cron's Next is strictly after its argument; stepping back one
	// nanosecond makes an instant exactly equal to now eligible.
	from := now.Add(-time.Nanosecond)

	next := s.schedules[0].Next(from)
	for _, sched := range s.schedules[1:] {
		if candidate := sched.Next(from); candidate.Before(next) {
			next = candidate
		}
	}

	return next
}

// RunOnce executes a single cycle and returns.
func RunOnce(ctx context.Context, cycle Cycle) {
	cycle(ctx)
}

// RunDaemon loops: compute the next scheduled instant, sleep until it (or
// until ctx is cancelled), run one cycle, repeat. Cycles run strictly
// sequentially; an overrunning cycle causes the scheduler to simply compute
// the next instant after it finishes, silently skipping any instant that
// has already passed.
func (s *Scheduler) RunDaemon(ctx context.Context, cycle Cycle) {
	for {
		now := time.Now()
		next := s.Next(now)
		wait := next.Sub(now)

		s.log.Info("scheduler: sleeping until next cycle", "next", next, "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("scheduler: shutdown signal received during sleep, exiting")

			return
		case <-timer.C:
		}

		s.log.Info("scheduler: running cycle")
		cycle(ctx)
	}
}

// sortedTimes is a small helper kept for callers that want a stable,
// human-readable rendering of the configured schedule (e.g. startup logs).
func sortedTimes(times []string) []string {
	out := append([]string(nil), times...)
	sort.Strings(out)

	return out
}
