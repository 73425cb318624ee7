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
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

const (
	// transactions match for deletion when quantity and price are within
	// this distance
	matchTolerance = 0.001

	// sells may exceed holdings by this much to absorb rounding
	oversellTolerance = 1e-9
)

// HoldingInput describes a holding to add to a portfolio
type HoldingInput struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Type     string  `json:"type"`
	Price    float64 `json:"price"`
}

// TransactionInput is a transaction as supplied by a caller. It is also
// used to describe the transaction to remove in DeleteTransaction.
type TransactionInput struct {
	Date     string          `json:"date"`
	Kind     TransactionKind `json:"type"`
	Quantity float64         `json:"quantity"`
	Price    float64         `json:"price"`
	Fee      float64         `json:"fee"`
	Notes    string          `json:"notes"`
}

// Holding validates the input and builds an empty holding
func (in *HoldingInput) Holding() (*Holding, error) {
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	h := &Holding{
		Symbol:       symbol,
		Name:         strings.TrimSpace(in.Name),
		Currency:     strings.ToUpper(strings.TrimSpace(in.Currency)),
		Type:         strings.TrimSpace(in.Type),
		CurrentPrice: in.Price,
		Transactions: []*Transaction{},
		History:      History{},
		Returns:      History{},
	}

	if h.Name == "" {
		h.Name = symbol
	}
	if h.Currency == "" {
		h.Currency = "USD"
	}
	if h.Type == "" {
		h.Type = "Unknown"
	}

	return h, nil
}

// Transaction validates the input and builds a transaction with a new id
func (in *TransactionInput) Transaction() (*Transaction, error) {
	date, err := ParseDate(in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}

	kind, err := parseKind(in.Kind)
	if err != nil {
		return nil, err
	}

	switch {
	case !(in.Quantity > 0) || math.IsInf(in.Quantity, 0):
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidTransaction)
	case !(in.Price >= 0) || math.IsInf(in.Price, 0):
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidTransaction)
	case !(in.Fee >= 0) || math.IsInf(in.Fee, 0):
		return nil, fmt.Errorf("%w: fee cannot be negative", ErrInvalidTransaction)
	}

	t := &Transaction{
		ID:       uuid.New(),
		Date:     date,
		Kind:     kind,
		Quantity: in.Quantity,
		Price:    in.Price,
		Fee:      in.Fee,
		Notes:    strings.TrimSpace(in.Notes),
	}

	if err := computeTransactionSourceID(t); err != nil {
		return nil, err
	}

	return t, nil
}

func parseKind(kind TransactionKind) (TransactionKind, error) {
	switch TransactionKind(strings.ToLower(strings.TrimSpace(string(kind)))) {
	case BuyTransaction:
		return BuyTransaction, nil
	case SellTransaction:
		return SellTransaction, nil
	default:
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, kind)
	}
}

// AddHolding appends h to the portfolio. Symbols are unique.
func (p *Portfolio) AddHolding(h *Holding) error {
	if p.Holding(h.Symbol) != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, h.Symbol)
	}
	p.Holdings = append(p.Holdings, h)
	return nil
}

// RemoveHolding deletes the holding and all of its transactions
func (p *Portfolio) RemoveHolding(symbol string) error {
	for idx, h := range p.Holdings {
		if h.Symbol == symbol {
			p.Holdings = append(p.Holdings[:idx], p.Holdings[idx+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrHoldingNotFound, symbol)
}

// AddTransaction records t against the holding. A sell that would take the
// held quantity below zero on any date is rejected.
func (h *Holding) AddTransaction(t *Transaction) error {
	candidate := append(append([]*Transaction{}, h.Transactions...), t)
	if err := checkOversell(candidate); err != nil {
		return err
	}
	h.Transactions = candidate
	return nil
}

// DeleteTransaction removes the first transaction on the same day and of
// the same kind whose quantity and price are within 0.001 of match
func (h *Holding) DeleteTransaction(match *TransactionInput) (*Transaction, error) {
	date, err := ParseDate(match.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	kind, err := parseKind(match.Kind)
	if err != nil {
		return nil, err
	}

	for idx, t := range h.Transactions {
		if !NormalizeDate(t.Date).Equal(date) || t.Kind != kind {
			continue
		}
		if math.Abs(t.Quantity-match.Quantity) >= matchTolerance || math.Abs(t.Price-match.Price) >= matchTolerance {
			continue
		}

		remaining := make([]*Transaction, 0, len(h.Transactions)-1)
		remaining = append(remaining, h.Transactions[:idx]...)
		remaining = append(remaining, h.Transactions[idx+1:]...)
		if err := checkOversell(remaining); err != nil {
			return nil, err
		}
		h.Transactions = remaining
		return t, nil
	}

	return nil, ErrTransactionNotFound
}

// checkOversell replays transactions in date order and fails if the held
// quantity ever drops below zero. Buys on a day are applied before sells.
func checkOversell(trxs []*Transaction) error {
	sorted := sortedTransactions(trxs)
	var net float64
	for ii := 0; ii < len(sorted); {
		day := NormalizeDate(sorted[ii].Date)
		jj := ii
		for ; jj < len(sorted) && NormalizeDate(sorted[jj].Date).Equal(day); jj++ {
			net += sorted[jj].signedQuantity()
		}
		if net < -oversellTolerance {
			return fmt.Errorf("%w on %s", ErrOversell, day.Format(DateLayout))
		}
		ii = jj
	}
	return nil
}
