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

// PricePoint is a single dated close
type PricePoint struct {
	Date  time.Time
	Price float64
}

// PriceIndex is a history sorted by ascending date
type PriceIndex []PricePoint

// NewPriceIndex sorts a sparse history into an index. Dates are normalized
// to calendar days; when two keys fall on the same day the later timestamp
// wins.
func NewPriceIndex(h History) PriceIndex {
	keys := make([]time.Time, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		di, dj := NormalizeDate(keys[i]), NormalizeDate(keys[j])
		if di.Equal(dj) {
			return keys[i].Before(keys[j])
		}
		return di.Before(dj)
	})

	idx := make(PriceIndex, 0, len(keys))
	for _, k := range keys {
		day := NormalizeDate(k)
		if n := len(idx); n > 0 && idx[n-1].Date.Equal(day) {
			idx[n-1].Price = h[k]
			continue
		}
		idx = append(idx, PricePoint{Date: day, Price: h[k]})
	}
	return idx
}

// search returns the index of the first point dated after target
func (idx PriceIndex) search(target time.Time) int {
	return sort.Search(len(idx), func(i int) bool { return idx[i].Date.After(target) })
}

// AtOrBefore returns the latest price dated on or before target, or 0 when
// there is no price yet
func (idx PriceIndex) AtOrBefore(target time.Time) float64 {
	n := idx.search(NormalizeDate(target))
	if n == 0 {
		return 0
	}
	return idx[n-1].Price
}

// Nearest returns the point closest to target in absolute days. When two
// points are equally distant the earlier one wins, which is the first one
// met walking the index in ascending order.
func (idx PriceIndex) Nearest(target time.Time) (PricePoint, bool) {
	if len(idx) == 0 {
		return PricePoint{}, false
	}

	target = NormalizeDate(target)
	n := sort.Search(len(idx), func(i int) bool { return !idx[i].Date.Before(target) })
	switch {
	case n == 0:
		return idx[0], true
	case n == len(idx):
		return idx[n-1], true
	}

	before, after := idx[n-1], idx[n]
	if daysBetween(before.Date, target) <= daysBetween(target, after.Date) {
		return before, true
	}
	return after, true
}

// First returns the earliest point
func (idx PriceIndex) First() (PricePoint, bool) {
	if len(idx) == 0 {
		return PricePoint{}, false
	}
	return idx[0], true
}

// Last returns the most recent point
func (idx PriceIndex) Last() (PricePoint, bool) {
	if len(idx) == 0 {
		return PricePoint{}, false
	}
	return idx[len(idx)-1], true
}

// PriceAtOrBefore applies the last-known-at-or-before policy to a history
func PriceAtOrBefore(h History, target time.Time) float64 {
	return NewPriceIndex(h).AtOrBefore(target)
}

// NearestPrice applies the nearest-by-absolute-distance policy to a
// history. Returns 0 for an empty history.
func NearestPrice(h History, target time.Time) float64 {
	pt, _ := NewPriceIndex(h).Nearest(target)
	return pt.Price
}
