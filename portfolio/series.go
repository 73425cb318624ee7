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
	"sort"
	"time"
)

// InstrumentSeries holds the daily contribution of one holding to a
// valuation series. Values, Quantities and Prices are aligned with the
// parent series' Dates; Returns is aligned with ReturnDates.
type InstrumentSeries struct {
	Symbol      string
	Name        string
	Type        string
	HistoryLen  int
	Values      []float64
	Quantities  []float64
	Prices      []float64
	Returns     []float64
	ReturnDates []time.Time
}

// ValuationSeries is a daily portfolio value curve. Returns holds the
// simple daily return of Values and is one element shorter.
type ValuationSeries struct {
	Dates       []time.Time
	Values      []float64
	Returns     []float64
	Instruments []*InstrumentSeries
}

// Len returns the number of days in the series
func (s *ValuationSeries) Len() int {
	return len(s.Dates)
}

// BuildSeries values every holding of p for each calendar day from start to
// end inclusive. Non-trading days repeat the last known close.
//
// Instrument returns come from the holding's precomputed return history
// when it has one, so they follow the trading-day sequence; otherwise they
// are derived from the filled price series. Portfolio returns are always
// derived from the filled value series.
func BuildSeries(p *Portfolio, start, end time.Time) *ValuationSeries {
	start, end = NormalizeDate(start), NormalizeDate(end)
	series := &ValuationSeries{
		Dates:       []time.Time{},
		Values:      []float64{},
		Returns:     []float64{},
		Instruments: []*InstrumentSeries{},
	}

	if end.Before(start) {
		return series
	}

	days := daysBetween(start, end) + 1
	series.Dates = make([]time.Time, days)
	for ii := range series.Dates {
		series.Dates[ii] = start.AddDate(0, 0, ii)
	}
	series.Values = make([]float64, days)

	for _, h := range p.Holdings {
		inst := buildInstrumentSeries(h, series.Dates)
		for ii, v := range inst.Values {
			series.Values[ii] += v
		}
		series.Instruments = append(series.Instruments, inst)
	}

	series.Returns = simpleReturns(series.Values)
	return series
}

func buildInstrumentSeries(h *Holding, dates []time.Time) *InstrumentSeries {
	n := len(dates)
	inst := &InstrumentSeries{
		Symbol:     h.Symbol,
		Name:       h.Name,
		Type:       h.Type,
		HistoryLen: len(h.History),
		Values:     make([]float64, n),
		Quantities: make([]float64, n),
		Prices:     make([]float64, n),
	}

	prices := NewPriceIndex(h.History)
	trxs := sortedTransactions(h.Transactions)

	var price, quantity float64
	pi, ti := 0, 0
	for ii, day := range dates {
		for pi < len(prices) && !prices[pi].Date.After(day) {
			price = prices[pi].Price
			pi++
		}
		for ti < len(trxs) && !NormalizeDate(trxs[ti].Date).After(day) {
			quantity += trxs[ti].signedQuantity()
			ti++
		}
		inst.Prices[ii] = price
		inst.Quantities[ii] = quantity
		inst.Values[ii] = quantity * price
	}

	if len(h.Returns) > 0 && n > 0 {
		first, last := dates[0], dates[n-1]
		inst.Returns = []float64{}
		inst.ReturnDates = []time.Time{}
		for _, pt := range NewPriceIndex(h.Returns) {
			if pt.Date.Before(first) || pt.Date.After(last) {
				continue
			}
			inst.Returns = append(inst.Returns, pt.Price)
			inst.ReturnDates = append(inst.ReturnDates, pt.Date)
		}
		return inst
	}

	inst.Returns = simpleReturns(inst.Prices)
	inst.ReturnDates = []time.Time{}
	if n > 1 {
		inst.ReturnDates = append(inst.ReturnDates, dates[1:]...)
	}
	return inst
}

// simpleReturns computes (x[t] - x[t-1]) / x[t-1], reporting 0 whenever
// x[t-1] is not positive
func simpleReturns(x []float64) []float64 {
	if len(x) < 2 {
		return []float64{}
	}
	ret := make([]float64, len(x)-1)
	for ii := 1; ii < len(x); ii++ {
		if x[ii-1] > 0 {
			ret[ii-1] = (x[ii] - x[ii-1]) / x[ii-1]
		}
	}
	return ret
}

func sortedTransactions(trxs []*Transaction) []*Transaction {
	sorted := make([]*Transaction, len(trxs))
	copy(sorted, trxs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return NormalizeDate(sorted[i].Date).Before(NormalizeDate(sorted[j].Date))
	})
	return sorted
}
