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

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type TransactionKind string

const (
	BuyTransaction  TransactionKind = "buy"
	SellTransaction TransactionKind = "sell"
)

// Transaction is a single buy or sell of a holding's instrument. Dates are
// calendar days without a timezone.
type Transaction struct {
	ID       uuid.UUID       `json:"id"`
	SourceID string          `json:"source_id,omitempty"`
	Date     time.Time       `json:"date"`
	Kind     TransactionKind `json:"type"`
	Quantity float64         `json:"quantity"`
	Price    float64         `json:"price"`
	Fee      float64         `json:"fee"`
	Notes    string          `json:"notes,omitempty"`
}

// signedQuantity returns +quantity for buys and -quantity for sells
func (t *Transaction) signedQuantity() float64 {
	if t.Kind == SellTransaction {
		return -t.Quantity
	}
	return t.Quantity
}

// History maps a calendar day to a value (closing price or daily return).
// Keys are sparse and carry no ordering; use NewPriceIndex for ordered access.
type History map[time.Time]float64

// Holding is a single instrument tracked in a portfolio
type Holding struct {
	Symbol       string         `json:"symbol"`
	Name         string         `json:"name"`
	Currency     string         `json:"currency"`
	Type         string         `json:"type"`
	CurrentPrice float64        `json:"current_price"`
	Transactions []*Transaction `json:"transactions"`
	History      History        `json:"history"`
	Returns      History        `json:"returns"`
}

// Portfolio is a named, ordered collection of holdings
type Portfolio struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	Holdings    []*Holding `json:"holdings"`
}

// Summary is the listing view of a portfolio
type Summary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	NumHoldings int       `json:"num_holdings"`
}

// New creates an empty portfolio with a fresh id
func New(name, description string) *Portfolio {
	return &Portfolio{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		Holdings:    []*Holding{},
	}
}

// Holding returns the holding with the given symbol or nil
func (p *Portfolio) Holding(symbol string) *Holding {
	for _, h := range p.Holdings {
		if h.Symbol == symbol {
			return h
		}
	}
	return nil
}

// Summary returns the listing view of the portfolio
func (p *Portfolio) Summary() Summary {
	return Summary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		NumHoldings: len(p.Holdings),
	}
}

// EarliestTransaction returns the date of the first transaction across all
// holdings. The second return value is false when the portfolio has none.
func (p *Portfolio) EarliestTransaction() (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, h := range p.Holdings {
		for _, t := range h.Transactions {
			d := NormalizeDate(t.Date)
			if !found || d.Before(earliest) {
				earliest = d
				found = true
			}
		}
	}
	return earliest, found
}

// Clone returns a deep copy of the portfolio that shares no mutable state
// with the receiver
func (p *Portfolio) Clone() *Portfolio {
	if p == nil {
		return nil
	}

	clone := *p
	clone.Holdings = make([]*Holding, len(p.Holdings))
	for idx, h := range p.Holdings {
		clone.Holdings[idx] = h.Clone()
	}
	return &clone
}

// Clone returns a deep copy of the holding
func (h *Holding) Clone() *Holding {
	clone := *h
	clone.Transactions = make([]*Transaction, len(h.Transactions))
	for idx, t := range h.Transactions {
		trx := *t
		clone.Transactions[idx] = &trx
	}
	clone.History = h.History.Clone()
	clone.Returns = h.Returns.Clone()
	return &clone
}

// Clone returns a copy of the history map
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	clone := make(History, len(h))
	for k, v := range h {
		clone[k] = v
	}
	return clone
}

// MarshalJSON encodes the history as an object keyed by YYYY-MM-DD in
// ascending date order
func (h History) MarshalJSON() ([]byte, error) {
	keys := make([]time.Time, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	buf := []byte{'{'}
	for idx, k := range keys {
		if idx > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '"')
		buf = append(buf, k.Format(DateLayout)...)
		buf = append(buf, '"', ':')
		val, err := json.Marshal(h[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, val...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// UnmarshalJSON decodes an object keyed by date strings. Keys are
// normalized to calendar days.
func (h *History) UnmarshalJSON(b []byte) error {
	raw := make(map[string]float64)
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out := make(History, len(raw))
	for k, v := range raw {
		d, err := ParseDate(k)
		if err != nil {
			return err
		}
		out[d] = v
	}
	*h = out
	return nil
}
