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

import "time"

// NetQuantityAsOf replays transactions up to cutoff. net counts every
// transaction dated on or before cutoff; netBefore only those strictly
// earlier and is the holding at the start of a period beginning on cutoff.
func NetQuantityAsOf(transactions []*Transaction, cutoff time.Time) (net, netBefore float64) {
	cutoff = NormalizeDate(cutoff)
	for _, t := range transactions {
		d := NormalizeDate(t.Date)
		if d.After(cutoff) {
			continue
		}
		net += t.signedQuantity()
		if d.Before(cutoff) {
			netBefore += t.signedQuantity()
		}
	}
	return
}

// NetQuantity is the sum of all buys less the sum of all sells
func NetQuantity(transactions []*Transaction) float64 {
	var net float64
	for _, t := range transactions {
		net += t.signedQuantity()
	}
	return net
}

// AverageCostBasis is the quantity weighted price of every buy. Sells do
// not reduce the basis. Returns 0 when there are no buys.
func AverageCostBasis(transactions []*Transaction) float64 {
	var cost, quantity float64
	for _, t := range transactions {
		if t.Kind != BuyTransaction {
			continue
		}
		cost += t.Quantity * t.Price
		quantity += t.Quantity
	}
	if quantity == 0 {
		return 0
	}
	return cost / quantity
}

// ProfitLoss returns the absolute and percent profit of holding quantity
// units at price against the average cost basis
func ProfitLoss(quantity, price, avgCost float64) (value, percent float64) {
	cost := quantity * avgCost
	value = quantity*price - cost
	if cost == 0 {
		return value, 0
	}
	return value, value / cost * 100
}
