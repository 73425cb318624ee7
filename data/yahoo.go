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

package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-folio/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	yahooChartAPI  = "https://query2.finance.yahoo.com"
	yahooSearchAPI = "https://query1.finance.yahoo.com"
)

const (
	yahooUserAgent      = "Mozilla/5.0 (compatible; pvfolio)"
	yahooMaxSearchQuote = 8
)

type yahoo struct {
	client *http.Client
}

type yahooChartResponse struct {
	Chart struct {
		Result []*yahooChartResult `json:"result"`
		Error  *yahooError         `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooChartResult struct {
	Meta struct {
		Currency           string  `json:"currency"`
		Symbol             string  `json:"symbol"`
		ExchangeName       string  `json:"exchangeName"`
		InstrumentType     string  `json:"instrumentType"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		GMTOffset          int64   `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type yahooSearchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
		Exchange  string `json:"exchange"`
	} `json:"quotes"`
}

// NewYahoo creates a Yahoo Finance market data provider. A zero timeout
// means requests only end with their context.
func NewYahoo(timeout time.Duration) *yahoo {
	return &yahoo{
		client: &http.Client{Timeout: timeout},
	}
}

// History fetches daily closes for symbol. A max interval requests the
// full history. Days without a close are skipped.
func (y *yahoo) History(ctx context.Context, symbol string, interval Interval) ([]*Bar, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "yahoo.History")
	defer span.End()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	subLog := log.With().Str("Symbol", symbol).EmbedObject(interval).Logger()

	if err := interval.Valid(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("interval", "1d")
	if interval.IsMax() {
		query.Set("range", "max")
	} else {
		query.Set("period1", fmt.Sprintf("%d", interval.Begin.Unix()))
		query.Set("period2", fmt.Sprintf("%d", interval.End.AddDate(0, 0, 1).Unix()))
	}
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", yahooChartAPI, url.PathEscape(symbol), query.Encode())

	span.SetAttributes(
		attribute.String("Symbol", symbol),
		attribute.String("Url", reqURL),
	)

	result, err := y.chart(ctx, span, reqURL)
	if err != nil {
		subLog.Warn().Err(err).Msg("could not fetch yahoo history")
		return nil, err
	}

	bars := make([]*Bar, 0, len(result.Timestamp))
	if len(result.Indicators.Quote) == 0 {
		return bars, nil
	}

	closes := result.Indicators.Quote[0].Close
	for idx, ts := range result.Timestamp {
		if idx >= len(closes) || closes[idx] == nil {
			continue
		}
		// shift to exchange local time before truncating to the day
		local := time.Unix(ts+result.Meta.GMTOffset, 0).UTC()
		year, month, day := local.Date()
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if !interval.Contains(date) {
			continue
		}
		bars = append(bars, &Bar{Date: date, Close: *closes[idx]})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	bars = dedupeBars(bars)

	span.SetAttributes(attribute.Int("NumBars", len(bars)))
	subLog.Debug().Int("NumBars", len(bars)).Msg("loaded yahoo history")
	return bars, nil
}

// Search finds instruments matching query and fills in their latest price
// and currency. A failed quote lookup leaves the price at 0.
func (y *yahoo) Search(ctx context.Context, query string) ([]*SearchResult, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "yahoo.Search")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	subLog := log.With().Str("Query", query).Logger()

	params := url.Values{}
	params.Set("q", query)
	params.Set("quotesCount", fmt.Sprintf("%d", yahooMaxSearchQuote))
	params.Set("newsCount", "0")
	reqURL := fmt.Sprintf("%s/v1/finance/search?%s", yahooSearchAPI, params.Encode())
	span.SetAttributes(attribute.String("Url", reqURL))

	body, err := y.get(ctx, span, reqURL)
	if err != nil {
		subLog.Warn().Err(err).Msg("yahoo search failed")
		return nil, err
	}

	resp := yahooSearchResponse{}
	if err := json.Unmarshal(body, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not unmarshal json")
		subLog.Error().Err(err).Bytes("Body", body).Msg("could not unmarshal json")
		return nil, err
	}

	results := make([]*SearchResult, 0, len(resp.Quotes))
	for _, quote := range resp.Quotes {
		if quote.Symbol == "" {
			continue
		}
		name := quote.LongName
		if name == "" {
			name = quote.ShortName
		}
		res := &SearchResult{
			Symbol:   quote.Symbol,
			Name:     name,
			Type:     quote.QuoteType,
			Exchange: quote.Exchange,
		}

		quoteURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", yahooChartAPI, url.PathEscape(quote.Symbol))
		if chart, err := y.chart(ctx, span, quoteURL); err == nil {
			res.Price = chart.Meta.RegularMarketPrice
			res.Currency = chart.Meta.Currency
		} else {
			subLog.Debug().Err(err).Str("Symbol", quote.Symbol).Msg("could not load quote for search result")
		}

		results = append(results, res)
	}

	span.SetAttributes(attribute.Int("NumResults", len(results)))
	return results, nil
}

func (y *yahoo) chart(ctx context.Context, span trace.Span, reqURL string) (*yahooChartResult, error) {
	body, err := y.get(ctx, span, reqURL)
	if err != nil {
		return nil, err
	}

	resp := yahooChartResponse{}
	if err := json.Unmarshal(body, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not unmarshal json")
		return nil, err
	}

	if resp.Chart.Error != nil {
		if resp.Chart.Error.Code == "Not Found" {
			return nil, ErrSymbolNotFound
		}
		return nil, fmt.Errorf("%w: %s", ErrNoResult, resp.Chart.Error.Description)
	}

	if len(resp.Chart.Result) == 0 || resp.Chart.Result[0] == nil {
		return nil, ErrNoResult
	}

	return resp.Chart.Result[0], nil
}

func (y *yahoo) get(ctx context.Context, span trace.Span, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "yahoo http request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		span.SetStatus(codes.Error, "symbol not found")
		return nil, ErrSymbolNotFound
	}

	if resp.StatusCode >= 400 {
		span.SetAttributes(attribute.Int("StatusCode", resp.StatusCode))
		span.SetStatus(codes.Error, "yahoo returned invalid response code")
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatusCode, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not read yahoo body")
		return nil, err
	}

	return body, nil
}

// dedupeBars keeps the last bar of each day; bars must be sorted
func dedupeBars(bars []*Bar) []*Bar {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:1]
	for _, bar := range bars[1:] {
		if bar.Date.Equal(out[len(out)-1].Date) {
			out[len(out)-1] = bar
			continue
		}
		out = append(out, bar)
	}
	return out
}
