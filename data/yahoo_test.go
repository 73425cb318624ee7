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

package data_test

import (
	"context"
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-folio/data"
)

const chartJSON = `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"VTI","exchangeName":"PCX","instrumentType":"ETF","regularMarketPrice":102.25,"gmtoffset":-18000},
"timestamp":[1641220200,1641306600,1641393000],
"indicators":{"quote":[{"close":[100.5,null,102.25]}]}}],"error":null}}`

const boundedChartJSON = `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"VTI","gmtoffset":-18000},
"timestamp":[1641220200,1641306600,1641393000],
"indicators":{"quote":[{"close":[100.5,101.0,102.25]}]}}],"error":null}}`

const searchJSON = `{"quotes":[
{"symbol":"AAPL","shortname":"Apple Inc.","longname":"Apple Inc.","quoteType":"EQUITY","exchange":"NMS"},
{"symbol":"APLE","shortname":"Apple Hospitality REIT","quoteType":"EQUITY","exchange":"NYQ"},
{"shortname":"no symbol"}]}`

const quoteJSON = `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"AAPL","regularMarketPrice":189.5,"gmtoffset":-18000},
"timestamp":[],"indicators":{"quote":[{"close":[]}]}}],"error":null}}`

var _ = Describe("Yahoo", func() {
	var (
		provider data.Provider
		ctx      context.Context
	)

	BeforeEach(func() {
		httpmock.Activate()
		provider = data.NewYahoo(0)
		ctx = context.Background()
	})

	AfterEach(func() {
		httpmock.DeactivateAndReset()
	})

	Describe("when fetching history", func() {
		Context("for the full range", func() {
			It("returns ascending daily bars and skips missing closes", func() {
				httpmock.RegisterResponder("GET", "https://query2.finance.yahoo.com/v8/finance/chart/VTI?interval=1d&range=max",
					httpmock.NewStringResponder(200, chartJSON))

				bars, err := provider.History(ctx, "vti", data.Max)
				Expect(err).To(BeNil())
				Expect(bars).To(HaveLen(2))
				Expect(bars[0].Date).To(Equal(time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)))
				Expect(bars[0].Close).To(BeNumerically("~", 100.5))
				Expect(bars[1].Date).To(Equal(time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC)))
				Expect(bars[1].Close).To(BeNumerically("~", 102.25))
			})
		})

		Context("for a bounded range", func() {
			It("only returns bars inside the interval", func() {
				httpmock.RegisterResponder("GET", "https://query2.finance.yahoo.com/v8/finance/chart/VTI?interval=1d&period1=1641168000&period2=1641340800",
					httpmock.NewStringResponder(200, boundedChartJSON))

				bars, err := provider.History(ctx, "VTI", data.Interval{
					Begin: time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC),
					End:   time.Date(2022, 1, 4, 0, 0, 0, 0, time.UTC),
				})
				Expect(err).To(BeNil())
				Expect(bars).To(HaveLen(2))
				Expect(bars[1].Date).To(Equal(time.Date(2022, 1, 4, 0, 0, 0, 0, time.UTC)))
				Expect(bars[1].Close).To(BeNumerically("~", 101.0))
			})

			It("rejects an inverted interval", func() {
				_, err := provider.History(ctx, "VTI", data.Interval{
					Begin: time.Date(2022, 1, 4, 0, 0, 0, 0, time.UTC),
					End:   time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC),
				})
				Expect(err).To(MatchError(data.ErrBeginAfterEnd))
				Expect(httpmock.GetTotalCallCount()).To(Equal(0))
			})
		})

		Context("when the provider fails", func() {
			It("reports unknown symbols", func() {
				httpmock.RegisterResponder("GET", "https://query2.finance.yahoo.com/v8/finance/chart/NOPE?interval=1d&range=max",
					httpmock.NewStringResponder(404, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))

				_, err := provider.History(ctx, "NOPE", data.Max)
				Expect(err).To(MatchError(data.ErrSymbolNotFound))
			})

			It("reports server errors", func() {
				httpmock.RegisterResponder("GET", "https://query2.finance.yahoo.com/v8/finance/chart/VTI?interval=1d&range=max",
					httpmock.NewStringResponder(500, "oops"))

				_, err := provider.History(ctx, "VTI", data.Max)
				Expect(err).To(MatchError(data.ErrInvalidStatusCode))
			})

			It("reports an empty result", func() {
				httpmock.RegisterResponder("GET", "https://query2.finance.yahoo.com/v8/finance/chart/VTI?interval=1d&range=max",
					httpmock.NewStringResponder(200, `{"chart":{"result":[],"error":null}}`))

				_, err := provider.History(ctx, "VTI", data.Max)
				Expect(err).To(MatchError(data.ErrNoResult))
			})
		})
	})

	Describe("when searching", func() {
		It("returns matches with their latest price", func() {
			httpmock.RegisterResponder("GET", "https://query1.finance.yahoo.com/v1/finance/search?newsCount=0&q=apple&quotesCount=8",
				httpmock.NewStringResponder(200, searchJSON))
			httpmock.RegisterResponder("GET", "https://query2.finance.yahoo.com/v8/finance/chart/AAPL?interval=1d&range=1d",
				httpmock.NewStringResponder(200, quoteJSON))
			httpmock.RegisterResponder("GET", "https://query2.finance.yahoo.com/v8/finance/chart/APLE?interval=1d&range=1d",
				httpmock.NewStringResponder(500, "oops"))

			results, err := provider.Search(ctx, "apple")
			Expect(err).To(BeNil())
			Expect(results).To(HaveLen(2))

			Expect(results[0].Symbol).To(Equal("AAPL"))
			Expect(results[0].Name).To(Equal("Apple Inc."))
			Expect(results[0].Type).To(Equal("EQUITY"))
			Expect(results[0].Currency).To(Equal("USD"))
			Expect(results[0].Price).To(BeNumerically("~", 189.5))

			Expect(results[1].Symbol).To(Equal("APLE"))
			Expect(results[1].Name).To(Equal("Apple Hospitality REIT"))
			Expect(results[1].Price).To(BeZero())
		})

		It("rejects an empty query", func() {
			_, err := provider.Search(ctx, "  ")
			Expect(err).To(MatchError(data.ErrEmptyQuery))
		})
	})
})
