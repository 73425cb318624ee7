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
	"time"

	"github.com/rs/zerolog"
)

// SearchResult is an instrument matching a search query
type SearchResult struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Type     string  `json:"type"`
	Exchange string  `json:"exchange"`
}

// Bar is a daily close. Date is a calendar day at UTC midnight.
type Bar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Provider retrieves instrument metadata and closing prices from a market
// data source. History returns bars in ascending date order.
type Provider interface {
	Search(ctx context.Context, query string) ([]*SearchResult, error)
	History(ctx context.Context, symbol string, interval Interval) ([]*Bar, error)
}

// MarshalZerologObject implement the log marshaller interface for zerolog
func (r *SearchResult) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Symbol", r.Symbol).Str("Name", r.Name).Float64("Price", r.Price).Str("Currency", r.Currency).Str("Type", r.Type)
}
