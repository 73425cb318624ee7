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

package portfolio_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-folio/portfolio"
)

var _ = Describe("Price lookup", func() {
	var history portfolio.History

	BeforeEach(func() {
		history = portfolio.History{
			day("2022-01-03"): 100,
			day("2022-01-05"): 105,
			day("2022-01-10"): 110,
		}
	})

	Describe("last known at or before", func() {
		DescribeTable("lookups",
			func(date string, expected float64) {
				Expect(portfolio.PriceAtOrBefore(history, day(date))).To(Equal(expected))
			},
			Entry("before the first price", "2022-01-01", 0.0),
			Entry("on the first price", "2022-01-03", 100.0),
			Entry("between prices", "2022-01-07", 105.0),
			Entry("on a price", "2022-01-10", 110.0),
			Entry("after the last price", "2022-02-01", 110.0),
		)

		It("returns 0 for an empty history", func() {
			Expect(portfolio.PriceAtOrBefore(portfolio.History{}, day("2022-01-01"))).To(Equal(0.0))
		})
	})

	Describe("nearest", func() {
		It("picks the closer later date", func() {
			h := portfolio.History{day("2022-01-01"): 100, day("2022-01-10"): 110}
			Expect(portfolio.NearestPrice(h, day("2022-01-06"))).To(Equal(110.0))
		})

		It("picks the closer earlier date", func() {
			h := portfolio.History{day("2022-01-01"): 100, day("2022-01-10"): 110}
			Expect(portfolio.NearestPrice(h, day("2022-01-05"))).To(Equal(100.0))
		})

		It("picks the earlier date on a tie", func() {
			h := portfolio.History{day("2022-01-01"): 100, day("2022-01-11"): 110}
			Expect(portfolio.NearestPrice(h, day("2022-01-06"))).To(Equal(100.0))
		})

		It("returns the exact match", func() {
			Expect(portfolio.NearestPrice(history, day("2022-01-05"))).To(Equal(105.0))
		})

		It("clamps to the ends of the history", func() {
			Expect(portfolio.NearestPrice(history, day("2021-06-01"))).To(Equal(100.0))
			Expect(portfolio.NearestPrice(history, day("2023-06-01"))).To(Equal(110.0))
		})

		It("returns 0 for an empty history", func() {
			Expect(portfolio.NearestPrice(nil, day("2022-01-01"))).To(Equal(0.0))
		})
	})

	Describe("index", func() {
		It("sorts and normalizes dates", func() {
			h := portfolio.History{
				time.Date(2022, 1, 10, 16, 0, 0, 0, time.UTC): 110,
				time.Date(2022, 1, 3, 9, 30, 0, 0, time.UTC):  100,
			}
			idx := portfolio.NewPriceIndex(h)
			Expect(idx).To(HaveLen(2))
			Expect(idx[0].Date).To(Equal(day("2022-01-03")))
			Expect(idx[1].Date).To(Equal(day("2022-01-10")))
		})

		It("keeps the later timestamp when two keys fall on the same day", func() {
			h := portfolio.History{
				time.Date(2022, 1, 3, 16, 0, 0, 0, time.UTC): 101,
				time.Date(2022, 1, 3, 9, 30, 0, 0, time.UTC):  100,
			}
			idx := portfolio.NewPriceIndex(h)
			Expect(idx).To(HaveLen(1))
			Expect(idx[0].Price).To(Equal(101.0))
		})

		It("exposes the first and last points", func() {
			idx := portfolio.NewPriceIndex(history)
			first, ok := idx.First()
			Expect(ok).To(BeTrue())
			Expect(first.Price).To(Equal(100.0))
			last, ok := idx.Last()
			Expect(ok).To(BeTrue())
			Expect(last.Price).To(Equal(110.0))

			_, ok = portfolio.NewPriceIndex(nil).Last()
			Expect(ok).To(BeFalse())
		})
	})

	Describe("dates", func() {
		DescribeTable("parsing",
			func(s string) {
				Expect(portfolio.ParseDate(s)).To(Equal(day("2022-03-04")))
			},
			Entry("iso date", "2022-03-04"),
			Entry("rfc3339 with offset", "2022-03-04T23:00:00-05:00"),
			Entry("datetime", "2022-03-04 10:11:12"),
			Entry("us format", "03/04/2022"),
		)

		It("rejects garbage", func() {
			_, err := portfolio.ParseDate("yesterday")
			Expect(err).To(MatchError(portfolio.ErrInvalidDate))
		})
	})
})
