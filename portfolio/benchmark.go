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
	"strings"

	"github.com/penny-vault/pv-folio/cache"
	"github.com/penny-vault/pv-folio/data"
)

// BenchmarkNotional is the value a benchmark is scaled to on its first day
const BenchmarkNotional = 10000.0

type BenchmarkReport struct {
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name"`
	Period           Period    `json:"period"`
	Dates            []string  `json:"dates"`
	NormalizedValues []float64 `json:"normalized_values"`
	ReturnPercentage float64   `json:"return_percentage"`
}

// NormalizeBenchmark scales closes so the first equals BenchmarkNotional.
// A non-positive first close yields zero values.
func NormalizeBenchmark(bars []*data.Bar) (dates []string, values []float64, returnPct float64) {
	dates = make([]string, len(bars))
	values = make([]float64, len(bars))
	if len(bars) == 0 {
		return
	}

	base := bars[0].Close
	for idx, bar := range bars {
		dates[idx] = bar.Date.Format(DateLayout)
		if base > 0 {
			values[idx] = bar.Close / base * BenchmarkNotional
		}
	}

	returnPct = percentChange(bars[len(bars)-1].Close, base)
	return
}

// GetBenchmark loads a benchmark instrument over the period independent of
// any portfolio. The all period loads the full history.
func (s *Service) GetBenchmark(ctx context.Context, symbol, periodStr string) (*BenchmarkReport, error) {
	period, err := ParsePeriod(periodStr)
	if err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	key := cache.Key{PortfolioID: "benchmark-" + symbol, Period: string(period), Kind: cache.KindBenchmark}
	report := &BenchmarkReport{}
	if s.cache.Get(ctx, key, report) {
		return report, nil
	}

	gen := s.cache.Generation(ctx, key.PortfolioID)
	interval := data.Max
	if period != AllTime {
		start, end, _ := period.Window(nil, s.today())
		interval = data.Interval{Begin: start, End: end}
	}

	bars, err := s.provider.History(ctx, symbol, interval)
	if err != nil {
		return nil, err
	}

	report = &BenchmarkReport{
		Symbol: symbol,
		Name:   symbol,
		Period: period,
	}
	report.Dates, report.NormalizedValues, report.ReturnPercentage = NormalizeBenchmark(bars)

	s.putResult(ctx, key, gen, report)

	return report, nil
}
