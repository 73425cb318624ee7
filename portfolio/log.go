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
	"github.com/rs/zerolog"
)

func (t *Transaction) MarshalZerologObject(e *zerolog.Event) {
	e.Str("TransactionID", t.ID.String()).
		Str("SourceID", t.SourceID).
		Str("Date", t.Date.Format(DateLayout)).
		Str("Kind", string(t.Kind)).
		Float64("Quantity", t.Quantity).
		Float64("Price", t.Price).
		Float64("Fee", t.Fee).
		Str("Notes", t.Notes)
}

func (h *Holding) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Symbol", h.Symbol).
		Str("Name", h.Name).
		Str("Type", h.Type).
		Str("Currency", h.Currency).
		Float64("CurrentPrice", h.CurrentPrice).
		Int("NumTransactions", len(h.Transactions)).
		Int("HistoryLen", len(h.History))
}

func (p *Portfolio) MarshalZerologObject(e *zerolog.Event) {
	e.Str("PortfolioID", p.ID.String()).
		Str("Name", p.Name).
		Int("NumHoldings", len(p.Holdings))
}

func (q *HoldingQuote) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Symbol", q.Symbol).
		Float64("CurrentPrice", q.CurrentPrice).
		Float64("NetQuantity", q.NetQuantity).
		Float64("CurrentValue", q.CurrentValue).
		Float64("PLPercent", q.PLPercent).
		Float64("DailyChange", q.DailyChange)
	if q.Error != "" {
		e.Str("Error", q.Error)
	}
}

func (m *PerformanceMetrics) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("TotalReturn", m.TotalReturn)
	e.Float64("AnnualizedReturn", m.AnnualizedReturn)
	e.Float64("Volatility", m.Volatility)
	e.Float64("SharpeRatio", m.SharpeRatio)
	e.Float64("Alpha", m.Alpha)
	e.Float64("Beta", m.Beta)
	e.Float64("StartValue", m.StartValue)
	e.Float64("EndValue", m.EndValue)
}

func (m *DrawdownMetrics) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("MaxDrawdown", m.MaxDrawdown).
		Float64("CurrentDrawdown", m.CurrentDrawdown).
		Float64("AvgDrawdownDuration", m.AvgDrawdownDuration).
		Float64("AvgRecoveryTime", m.AvgRecoveryTime)
}
