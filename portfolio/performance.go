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
	"time"
)

// PerformanceSummary is the simple return between two valuations
type PerformanceSummary struct {
	Period        Period  `json:"period"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	StartValue    float64 `json:"start_value"`
	EndValue      float64 `json:"end_value"`
	PercentReturn float64 `json:"percent_return"`
}

// SimplePerformance values the portfolio held at the start of start (using
// transactions strictly before it) and as of end, pricing each holding with
// the last close on or before the respective day
func SimplePerformance(p *Portfolio, start, end time.Time) *PerformanceSummary {
	start, end = NormalizeDate(start), NormalizeDate(end)
	summary := &PerformanceSummary{
		StartDate: start.Format(DateLayout),
		EndDate:   end.Format(DateLayout),
	}

	for _, h := range p.Holdings {
		prices := NewPriceIndex(h.History)
		_, startQty := NetQuantityAsOf(h.Transactions, start)
		endQty, _ := NetQuantityAsOf(h.Transactions, end)
		summary.StartValue += startQty * prices.AtOrBefore(start)
		summary.EndValue += endQty * prices.AtOrBefore(end)
	}

	if summary.StartValue > 0 {
		summary.PercentReturn = (summary.EndValue/summary.StartValue - 1) * 100
	}

	return summary
}
