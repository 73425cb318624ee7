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

var _ = Describe("Valuation series", func() {
	var p *portfolio.Portfolio

	BeforeEach(func() {
		p = portfolio.New("test", "")
		p.Holdings = append(p.Holdings,
			holding("AAA", portfolio.History{
				day("2022-01-03"): 10,
				day("2022-01-05"): 12,
				day("2022-01-07"): 11,
			}, buy("2022-01-04", 10, 10), sell("2022-01-06", 5, 12)),
			holding("BBB", portfolio.History{
				day("2021-12-31"): 50,
			}, buy("2021-12-01", 2, 50)),
		)
	})

	DescribeTable("has one entry per calendar day",
		func(start, end string, expected int) {
			series := portfolio.BuildSeries(p, day(start), day(end))
			Expect(series.Len()).To(Equal(expected))
			Expect(series.Values).To(HaveLen(expected))
			for _, inst := range series.Instruments {
				Expect(inst.Values).To(HaveLen(expected))
				Expect(inst.Prices).To(HaveLen(expected))
				Expect(inst.Quantities).To(HaveLen(expected))
			}
		},
		Entry("single day", "2022-01-03", "2022-01-03", 1),
		Entry("one week", "2022-01-01", "2022-01-07", 7),
		Entry("across a month boundary", "2021-12-15", "2022-01-15", 32),
		Entry("a leap year", "2020-01-01", "2020-12-31", 366),
	)

	It("is empty when the range is inverted", func() {
		series := portfolio.BuildSeries(p, day("2022-01-07"), day("2022-01-01"))
		Expect(series.Len()).To(Equal(0))
		Expect(series.Values).NotTo(BeNil())
		Expect(series.Instruments).To(BeEmpty())
	})

	It("fills prices forward and applies transactions as of each day", func() {
		series := portfolio.BuildSeries(p, day("2022-01-02"), day("2022-01-08"))
		aaa := series.Instruments[0]
		Expect(aaa.Symbol).To(Equal("AAA"))
		Expect(aaa.Prices).To(Equal([]float64{0, 10, 10, 12, 12, 11, 11}))
		Expect(aaa.Quantities).To(Equal([]float64{0, 0, 10, 10, 5, 5, 5}))
		Expect(aaa.Values).To(Equal([]float64{0, 0, 100, 120, 60, 55, 55}))

		bbb := series.Instruments[1]
		Expect(bbb.Values).To(Equal([]float64{100, 100, 100, 100, 100, 100, 100}))

		Expect(series.Values).To(Equal([]float64{100, 100, 200, 220, 160, 155, 155}))
	})

	It("derives simple returns from the value curve", func() {
		series := portfolio.BuildSeries(p, day("2022-01-02"), day("2022-01-05"))
		Expect(series.Returns).To(HaveLen(3))
		Expect(series.Returns[0]).To(BeNumerically("~", 0.0))
		Expect(series.Returns[1]).To(BeNumerically("~", 1.0))
		Expect(series.Returns[2]).To(BeNumerically("~", 0.1))
	})

	It("reports a zero return after a zero value", func() {
		series := portfolio.BuildSeries(p, day("2022-01-02"), day("2022-01-04"))
		aaa := series.Instruments[0]
		Expect(aaa.Returns).To(HaveLen(2))
		Expect(aaa.Returns[0]).To(Equal(0.0))
		Expect(aaa.ReturnDates).To(Equal([]time.Time{day("2022-01-03"), day("2022-01-04")}))
	})

	It("prefers the stored return history of a holding", func() {
		p.Holdings[0].Returns = portfolio.History{
			day("2022-01-05"): 0.2,
			day("2022-01-07"): -1.0 / 12.0,
			day("2022-02-01"): 0.5,
		}

		series := portfolio.BuildSeries(p, day("2022-01-01"), day("2022-01-31"))
		aaa := series.Instruments[0]
		Expect(aaa.Returns).To(HaveLen(2))
		Expect(aaa.Returns[0]).To(BeNumerically("~", 0.2))
		Expect(aaa.ReturnDates).To(Equal([]time.Time{day("2022-01-05"), day("2022-01-07")}))
	})
})
