// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
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

// Package scheduler periodically refreshes the prices of every stored
// portfolio.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/penny-vault/pv-folio/observability/opentelemetry"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrInvalidSchedule = errors.New("invalid refresh schedule")
	ErrEmptySchedule   = errors.New("refresh schedule cannot be empty")
)

// Refresher refreshes every portfolio known to the application
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

type Scheduler struct {
	spec      string
	schedule  cron.Schedule
	tz        *time.Location
	refresher Refresher
	runner    *gocron.Scheduler

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// ParseSchedule validates a standard 5 field cron expression. Descriptors
// such as @hourly and @every 15m are accepted as well.
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, ErrEmptySchedule
	}

	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %s", ErrInvalidSchedule, spec, err.Error())
	}
	return schedule, nil
}

// New creates a scheduler that calls refresher.RefreshAll on spec,
// evaluated in timezone tz. The scheduler is idle until Start is called.
func New(spec string, tz *time.Location, refresher Refresher) (*Scheduler, error) {
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}

	if tz == nil {
		tz = time.UTC
	}

	s := &Scheduler{
		spec:      strings.TrimSpace(spec),
		schedule:  schedule,
		tz:        tz,
		refresher: refresher,
		runner:    gocron.NewScheduler(tz),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := s.runner.Cron(s.spec).SingletonMode().Do(s.run); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSchedule, err.Error())
	}

	return s, nil
}

// Next returns the first scheduled run strictly after t
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.tz))
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.runner.StartAsync()
	log.Info().Str("Schedule", s.spec).Str("Timezone", s.tz.String()).
		Time("NextRun", s.Next(time.Now())).Msg("started price refresh scheduler")
}

// Stop cancels any refresh in flight and stops the scheduler
func (s *Scheduler) Stop() {
	s.cancel()
	s.runner.Stop()
}

func (s *Scheduler) IsRunning() bool {
	return s.runner.IsRunning()
}

// LastRun returns the time the last refresh finished and its error
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

func (s *Scheduler) run() {
	if err := s.RunOnce(s.ctx); err != nil {
		log.Error().Err(err).Str("Schedule", s.spec).Msg("scheduled price refresh failed")
	}
	log.Info().Time("NextRun", s.Next(time.Now())).Msg("next price refresh")
}

// RunOnce refreshes every portfolio immediately
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "scheduler.RunOnce")
	defer span.End()

	span.SetAttributes(attribute.String("Schedule", s.spec))

	start := time.Now()
	err := s.refresher.RefreshAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()

	log.Info().Dur("Elapsed", time.Since(start)).Bool("Success", err == nil).Msg("price refresh finished")
	return err
}
