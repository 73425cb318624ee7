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

package portfolio

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/pv-folio/cache"
	"github.com/penny-vault/pv-folio/data"
	"github.com/penny-vault/pv-folio/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Repository stores portfolios. Get returns a snapshot the caller owns.
// Update runs fn against a snapshot while holding the portfolio exclusively
// and persists the result only when fn succeeds; the returned portfolio is
// a snapshot of the stored state.
type Repository interface {
	List(ctx context.Context) ([]Summary, error)
	Get(ctx context.Context, id uuid.UUID) (*Portfolio, error)
	Create(ctx context.Context, p *Portfolio) error
	Delete(ctx context.Context, id uuid.UUID) error
	Update(ctx context.Context, id uuid.UUID, fn func(*Portfolio) error) (*Portfolio, error)
}

// ResultCache memoizes computed reports
type ResultCache interface {
	Get(ctx context.Context, key cache.Key, dest interface{}) bool
	Generation(ctx context.Context, portfolioID string) uint64
	Put(ctx context.Context, key cache.Key, gen uint64, payload interface{}) error
	Invalidate(ctx context.Context, portfolioID string)
}

// Service implements the portfolio operations on top of a repository,
// market data provider and result cache
type Service struct {
	repo      Repository
	provider  data.Provider
	cache     ResultCache
	scenarios map[string]*Scenario
	now       func() time.Time
}

func NewService(repo Repository, provider data.Provider, resultCache ResultCache) *Service {
	return &Service{
		repo:      repo,
		provider:  provider,
		cache:     resultCache,
		scenarios: BuiltinScenarios(),
		now:       time.Now,
	}
}

// SetScenarios replaces the named stress scenarios
func (s *Service) SetScenarios(scenarios map[string]*Scenario) {
	s.scenarios = scenarios
}

// Scenarios returns the named stress scenarios
func (s *Service) Scenarios() map[string]*Scenario {
	return s.scenarios
}

func (s *Service) today() time.Time {
	return NormalizeDate(s.now())
}

func (s *Service) ListPortfolios(ctx context.Context) ([]Summary, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetPortfolio(ctx context.Context, id uuid.UUID) (*Portfolio, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) CreatePortfolio(ctx context.Context, name, description string) (*Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	p := New(name, strings.TrimSpace(description))
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	log.Info().Object("Portfolio", p).Msg("created portfolio")
	return p, nil
}

func (s *Service) DeletePortfolio(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id.String())
	return nil
}

// mutate applies fn through the repository and invalidates cached results
// for the portfolio when it succeeds
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*Portfolio) error) (*Portfolio, error) {
	p, err := s.repo.Update(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id.String())
	return p, nil
}

func (s *Service) AddHolding(ctx context.Context, id uuid.UUID, in *HoldingInput) (*Holding, error) {
	h, err := in.Holding()
	if err != nil {
		return nil, err
	}

	if _, err := s.mutate(ctx, id, func(p *Portfolio) error {
		return p.AddHolding(h.Clone())
	}); err != nil {
		return nil, err
	}

	return h, nil
}

func (s *Service) RemoveHolding(ctx context.Context, id uuid.UUID, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	_, err := s.mutate(ctx, id, func(p *Portfolio) error {
		return p.RemoveHolding(symbol)
	})
	return err
}

func (s *Service) AddTransaction(ctx context.Context, id uuid.UUID, symbol string, in *TransactionInput) (*Transaction, error) {
	t, err := in.Transaction()
	if err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if _, err := s.mutate(ctx, id, func(p *Portfolio) error {
		h := p.Holding(symbol)
		if h == nil {
			return ErrHoldingNotFound
		}
		trx := *t
		return h.AddTransaction(&trx)
	}); err != nil {
		return nil, err
	}

	log.Debug().Str("PortfolioID", id.String()).Str("Symbol", symbol).Object("Transaction", t).Msg("added transaction")
	return t, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, id uuid.UUID, symbol string, match *TransactionInput) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	_, err := s.mutate(ctx, id, func(p *Portfolio) error {
		h := p.Holding(symbol)
		if h == nil {
			return ErrHoldingNotFound
		}
		_, err := h.DeleteTransaction(match)
		return err
	})
	return err
}

// SearchInstruments looks up instruments by name or symbol
func (s *Service) SearchInstruments(ctx context.Context, query string) ([]*data.SearchResult, error) {
	return s.provider.Search(ctx, query)
}

// GetAnalysis computes every analytic report for the period, serving a
// cached result when one is available
func (s *Service) GetAnalysis(ctx context.Context, id uuid.UUID, periodStr string) (*Analysis, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "portfolio.GetAnalysis")
	defer span.End()

	period, err := ParsePeriod(periodStr)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("PortfolioID", id.String()),
		attribute.String("Period", string(period)),
	)

	key := cache.Key{PortfolioID: id.String(), Period: string(period), Kind: cache.KindAnalysis}
	analysis := &Analysis{}
	if s.cache.Get(ctx, key, analysis) {
		span.SetAttributes(attribute.Bool("CacheHit", true))
		return analysis, nil
	}

	gen := s.cache.Generation(ctx, key.PortfolioID)
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	series := &ValuationSeries{}
	if start, end, ok := period.Window(p, s.today()); ok {
		series = BuildSeries(p, start, end)
	}

	analysis = Analyze(series)
	analysis.Period = period

	log.Debug().Str("PortfolioID", id.String()).Str("Period", string(period)).
		Object("Performance", &analysis.Performance.Metrics).
		Object("Drawdown", &analysis.Drawdown.Metrics).
		Msg("computed analysis")

	s.putResult(ctx, key, gen, analysis)

	return analysis, nil
}

// GetPerformance reports the simple start to end return over the period
func (s *Service) GetPerformance(ctx context.Context, id uuid.UUID, periodStr string) (*PerformanceSummary, error) {
	period, err := ParsePeriod(periodStr)
	if err != nil {
		return nil, err
	}

	key := cache.Key{PortfolioID: id.String(), Period: string(period), Kind: cache.KindPerformance}
	summary := &PerformanceSummary{}
	if s.cache.Get(ctx, key, summary) {
		return summary, nil
	}

	gen := s.cache.Generation(ctx, key.PortfolioID)
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	summary = &PerformanceSummary{Period: period}
	if start, end, ok := period.Window(p, s.today()); ok {
		summary = SimplePerformance(p, start, end)
		summary.Period = period
	}

	s.putResult(ctx, key, gen, summary)

	return summary, nil
}

// putResult caches payload unless the portfolio changed after gen was read
func (s *Service) putResult(ctx context.Context, key cache.Key, gen uint64, payload interface{}) {
	err := s.cache.Put(ctx, key, gen, payload)
	switch {
	case errors.Is(err, cache.ErrStaleResult):
		log.Debug().EmbedObject(key).Msg("portfolio changed while computing; result not cached")
	case err != nil:
		log.Warn().Err(err).EmbedObject(key).Msg("could not cache result")
	}
}
