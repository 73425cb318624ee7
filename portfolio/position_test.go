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

var _ = Describe("Position", func() {
	var trxs []*portfolio.Transaction

	BeforeEach(func() {
		trxs = []*portfolio.Transaction{
			buy("2022-01-10", 10, 100),
			sell("2022-02-15", 4, 120),
			buy("2022-03-01", 6, 90),
			sell("2022-03-01", 2, 95),
		}
	})

	DescribeTable("net quantity as of a date",
		func(date string, expectedNet, expectedBefore float64) {
			net, before := portfolio.NetQuantityAsOf(trxs, day(date))
			Expect(net).To(BeNumerically("~", expectedNet))
			Expect(before).To(BeNumerically("~", expectedBefore))
		},
		Entry("before any transaction", "2021-12-31", 0.0, 0.0),
		Entry("on the first buy", "2022-01-10", 10.0, 0.0),
		Entry("between transactions", "2022-02-01", 10.0, 10.0),
		Entry("on the first sell", "2022-02-15", 6.0, 10.0),
		Entry("on a day with a buy and a sell", "2022-03-01", 10.0, 6.0),
		Entry("after every transaction", "2023-01-01", 10.0, 10.0),
	)

	It("equals total buys less total sells after every transaction", func() {
		net, _ := portfolio.NetQuantityAsOf(trxs, day("2030-01-01"))
		Expect(net).To(BeNumerically("~", portfolio.NetQuantity(trxs)))
		Expect(portfolio.NetQuantity(trxs)).To(BeNumerically("~", 16.0-6.0))
	})

	It("ignores the time of day of the cutoff", func() {
		cutoff := day("2022-01-10").Add(23 * 60 * 60 * 1e9)
		net, _ := portfolio.NetQuantityAsOf(trxs, cutoff)
		Expect(net).To(BeNumerically("~", 10.0))
	})

	It("averages the cost of buys only", func() {
		Expect(portfolio.AverageCostBasis(trxs)).To(BeNumerically("~", (1000.0+540.0)/16.0))
	})

	It("has no cost basis without buys", func() {
		Expect(portfolio.AverageCostBasis(nil)).To(Equal(0.0))
		Expect(portfolio.AverageCostBasis([]*portfolio.Transaction{sell("2022-01-01", 1, 10)})).To(Equal(0.0))
	})

	It("computes profit and loss", func() {
		value, pct := portfolio.ProfitLoss(10, 120, 100)
		Expect(value).To(BeNumerically("~", 200.0))
		Expect(pct).To(BeNumerically("~", 20.0))
	})

	It("reports no percent profit without a cost", func() {
		value, pct := portfolio.ProfitLoss(0, 120, 100)
		Expect(value).To(Equal(0.0))
		Expect(pct).To(Equal(0.0))
	})

	Context("with 10@100 and 5@150 bought and a flat price of 120", func() {
		It("values the holding against the blended buy cost of 116.67, not the first buy price of 100", func() {
			h := holding("VTI", flatHistory("2022-01-01", "2022-01-30", 120),
				buy("2022-01-01", 10, 100),
				buy("2022-01-30", 5, 150),
			)

			net, _ := portfolio.NetQuantityAsOf(h.Transactions, day("2022-01-30"))
			Expect(net).To(BeNumerically("~", 15.0))

			avg := portfolio.AverageCostBasis(h.Transactions)
			Expect(avg).To(BeNumerically("~", 1750.0/15.0))

			price := portfolio.PriceAtOrBefore(h.History, day("2022-01-30"))
			Expect(net * price).To(BeNumerically("~", 1800.0))

			pl, _ := portfolio.ProfitLoss(net, price, avg)
			Expect(pl).To(BeNumerically("~", 1800.0-1750.0))
		})
	})
})
