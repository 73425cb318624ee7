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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-folio/portfolio"
)

var _ = Describe("Period", func() {
	DescribeTable("parsing",
		func(s string, expected portfolio.Period) {
			Expect(portfolio.ParsePeriod(s)).To(Equal(expected))
		},
		Entry("default", "", portfolio.OneMonth),
		Entry("one month", "1m", portfolio.OneMonth),
		Entry("upper case", "YTD", portfolio.YearToDate),
		Entry("five years", "5y", portfolio.FiveYears),
		Entry("all", " all ", portfolio.AllTime),
	)

	It("rejects unknown tokens", func() {
		_, err := portfolio.ParsePeriod("2w")
		Expect(err).To(MatchError(portfolio.ErrInvalidPeriod))
	})

	DescribeTable("windows ending today",
		func(period portfolio.Period, expectedStart string) {
			start, end, ok := period.Window(nil, day("2022-05-15"))
			Expect(ok).To(BeTrue())
			Expect(start).To(Equal(day(expectedStart)))
			Expect(end).To(Equal(day("2022-05-15")))
		},
		Entry("1m", portfolio.OneMonth, "2022-04-15"),
		Entry("3m", portfolio.ThreeMonths, "2022-02-15"),
		Entry("6m", portfolio.SixMonths, "2021-11-15"),
		Entry("ytd", portfolio.YearToDate, "2022-01-01"),
		Entry("1y", portfolio.OneYear, "2021-05-15"),
		Entry("3y", portfolio.ThreeYears, "2019-05-15"),
		Entry("5y", portfolio.FiveYears, "2017-05-15"),
	)

	It("starts the all period at the earliest transaction", func() {
		p := portfolio.New("test", "")
		p.Holdings = append(p.Holdings,
			holding("AAA", nil, buy("2021-03-01", 1, 1)),
			holding("BBB", nil, buy("2020-07-04", 1, 1), sell("2021-01-01", 1, 1)),
		)
		start, _, ok := portfolio.AllTime.Window(p, day("2022-05-15"))
		Expect(ok).To(BeTrue())
		Expect(start).To(Equal(day("2020-07-04")))
	})

	It("has no all period without transactions", func() {
		p := portfolio.New("test", "")
		p.Holdings = append(p.Holdings, holding("AAA", nil))
		_, _, ok := portfolio.AllTime.Window(p, day("2022-05-15"))
		Expect(ok).To(BeFalse())
	})
})
