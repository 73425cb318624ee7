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
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/pv-folio/data"
	"github.com/penny-vault/pv-folio/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HoldingQuote is the state of a holding after a price refresh. Changes
// are percentages; a change without reference data is 0.
type HoldingQuote struct {
	Symbol               string  `json:"symbol"`
	CurrentPrice         float64 `json:"current_price"`
	NetQuantity          float64 `json:"net_quantity"`
	AvgCost              float64 `json:"avg_cost"`
	CurrentValue         float64 `json:"current_value"`
	PLValue              float64 `json:"pl_value"`
	PLPercent            float64 `json:"pl_percent"`
	DailyChange          float64 `json:"daily_change"`
	WeeklyChange         float64 `json:"weekly_change"`
	MonthlyChange        float64 `json:"monthly_change"`
	YTDChange            float64 `json:"ytd_change"`
	ThreeYearChange      float64 `json:"three_year_change"`
	FiveYearChange       float64 `json:"five_year_change"`
	TenYearChange        float64 `json:"ten_year_change"`
	SinceInceptionChange float64 `json:"since_inception_change"`
	Error                string  `json:"error,omitempty"`
}

// ApplyHistory replaces the holding's price and return history with bars,
// which must be in ascending date order, and sets the current price to the
// latest close
func (h *Holding) ApplyHistory(bars []*data.Bar) {
	h.History = make(History, len(bars))
	h.Returns = make(History, len(bars))
	for idx, bar := range bars {
		day := NormalizeDate(bar.Date)
		h.History[day] = bar.Close
		if idx == 0 {
			continue
		}
		var ret float64
		if prev := bars[idx-1].Close; prev > 0 {
			ret = (bar.Close - prev) / prev
		}
		h.Returns[day] = ret
	}
	if len(bars) > 0 {
		h.CurrentPrice = bars[len(bars)-1].Close
	}
}

// Quote summarizes the holding's position and price changes. Reference
// prices for the periodic changes use the nearest recorded close to a date
// measured back from the latest close.
func (h *Holding) Quote() *HoldingQuote {
	prices := NewPriceIndex(h.History)

	q := &HoldingQuote{
		Symbol:       h.Symbol,
		CurrentPrice: h.CurrentPrice,
		NetQuantity:  NetQuantity(h.Transactions),
		AvgCost:      AverageCostBasis(h.Transactions),
	}

	last, ok := prices.Last()
	if ok {
		q.CurrentPrice = last.Price
	}

	q.CurrentValue = q.NetQuantity * q.CurrentPrice
	q.PLValue, q.PLPercent = ProfitLoss(q.NetQuantity, q.CurrentPrice, q.AvgCost)

	if !ok {
		return q
	}

	if len(prices) > 1 {
		q.DailyChange = percentChange(last.Price, prices[len(prices)-2].Price)
	}

	ref := last.Date
	nearest := func(t time.Time) float64 {
		pt, _ := prices.Nearest(t)
		return percentChange(last.Price, pt.Price)
	}

	q.WeeklyChange = nearest(ref.AddDate(0, 0, -7))
	q.MonthlyChange = nearest(ref.AddDate(0, -1, 0))
	q.YTDChange = nearest(time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, time.UTC))
	q.ThreeYearChange = nearest(ref.AddDate(-3, 0, 0))
	q.FiveYearChange = nearest(ref.AddDate(-5, 0, 0))
	q.TenYearChange = nearest(ref.AddDate(-10, 0, 0))

	first, _ := prices.First()
	q.SinceInceptionChange = percentChange(last.Price, first.Price)

	return q
}

func percentChange(current, reference float64) float64 {
	if reference <= 0 {
		return 0
	}
	return (current/reference - 1) * 100
}

// RefreshPrices fetches the full price history of every holding. A failed
// fetch is logged and the holding keeps its previous history; cached
// results are invalidated once after every holding has been attempted.
func (s *Service) RefreshPrices(ctx context.Context, id uuid.UUID) ([]*HoldingQuote, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "portfolio.RefreshPrices")
	defer span.End()

	subLog := log.With().Str("PortfolioID", id.String()).Logger()
	span.SetAttributes(attribute.String("PortfolioID", id.String()))

	snapshot, err := s.repo.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not load portfolio")
		return nil, err
	}

	histories := make(map[string][]*data.Bar, len(snapshot.Holdings))
	failures := make(map[string]error)
	for _, h := range snapshot.Holdings {
		bars, err := s.provider.History(ctx, h.Symbol, data.Max)
		if err == nil && len(bars) == 0 {
			err = data.ErrNoResult
		}
		if err != nil {
			subLog.Warn().Err(err).Object("Holding", h).Msg("could not refresh prices; skipping")
			failures[h.Symbol] = err
			continue
		}
		histories[h.Symbol] = bars
	}

	var quotes []*HoldingQuote
	_, err = s.repo.Update(ctx, id, func(p *Portfolio) error {
		quotes = make([]*HoldingQuote, 0, len(p.Holdings))
		for _, h := range p.Holdings {
			if bars, ok := histories[h.Symbol]; ok {
				h.ApplyHistory(bars)
			}
			q := h.Quote()
			if err, ok := failures[h.Symbol]; ok {
				q.Error = err.Error()
			}
			subLog.Debug().Object("Quote", q).Msg("refreshed holding")
			quotes = append(quotes, q)
		}
		return nil
	})

	s.cache.Invalidate(ctx, id.String())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not save refreshed prices")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("NumRefreshed", len(histories)),
		attribute.Int("NumFailed", len(failures)),
	)
	subLog.Info().Int("NumRefreshed", len(histories)).Int("NumFailed", len(failures)).Msg("refreshed prices")

	return quotes, nil
}

// RefreshAll refreshes every stored portfolio, continuing past failures
func (s *Service) RefreshAll(ctx context.Context) error {
	summaries, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	for _, summary := range summaries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.RefreshPrices(ctx, summary.ID); err != nil {
			log.Error().Err(err).Str("PortfolioID", summary.ID.String()).Msg("refresh failed")
		}
	}
	return nil
}
