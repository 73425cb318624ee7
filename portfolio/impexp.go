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
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	requiredColumns = []string{"symbol", "date", "type", "quantity", "price"}
	exportColumns   = []string{"symbol", "date", "type", "quantity", "price", "fee", "notes"}
)

// RowError describes a CSV row that could not be imported. Line is the
// 1-based line number in the input.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func newRowError(line int, err error) *RowError {
	return &RowError{Line: line, Message: err.Error(), Err: err}
}

// ImportRow is a parsed CSV row ready to be applied to a portfolio
type ImportRow struct {
	Line        int
	Symbol      string
	Transaction *Transaction
}

type ImportResult struct {
	Imported int         `json:"imported"`
	Created  []string    `json:"created"`
	Errors   []*RowError `json:"errors"`
}

// ParseCSV reads transactions with the header
// symbol,date,type,quantity,price[,fee][,notes]. Malformed rows are returned
// as row errors; only an unreadable header fails the whole parse.
func ParseCSV(r io.Reader) ([]*ImportRow, []*RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: missing header", ErrInvalidCSV)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = idx
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, nil, fmt.Errorf("%w: missing column %q", ErrInvalidCSV, name)
		}
	}

	rows := make([]*ImportRow, 0)
	rowErrors := make([]*RowError, 0)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rowErrors = append(rowErrors, newRowError(parseErr.Line, fmt.Errorf("%w: %v", ErrInvalidCSV, parseErr.Err)))
			continue
		} else if err != nil {
			return nil, nil, err
		}

		line, _ := reader.FieldPos(0)
		row, err := parseRecord(record, columns)
		if err != nil {
			rowErrors = append(rowErrors, newRowError(line, err))
			continue
		}
		row.Line = line
		rows = append(rows, row)
	}

	return rows, rowErrors, nil
}

func parseRecord(record []string, columns map[string]int) (*ImportRow, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	number := func(name string, optional bool) (float64, error) {
		s := field(name)
		if s == "" && optional {
			return 0, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidTransaction, name, s)
		}
		return v, nil
	}

	symbol := strings.ToUpper(field("symbol"))
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	quantity, err := number("quantity", false)
	if err != nil {
		return nil, err
	}
	price, err := number("price", false)
	if err != nil {
		return nil, err
	}
	fee, err := number("fee", true)
	if err != nil {
		return nil, err
	}

	in := TransactionInput{
		Date:     field("date"),
		Kind:     TransactionKind(field("type")),
		Quantity: quantity,
		Price:    price,
		Fee:      fee,
		Notes:    field("notes"),
	}

	t, err := in.Transaction()
	if err != nil {
		return nil, err
	}

	return &ImportRow{Symbol: symbol, Transaction: t}, nil
}

// ApplyImport adds the rows to p in date order. Holdings are created for
// unknown symbols. Rows that duplicate an existing transaction or would
// oversell a holding are reported as row errors.
func ApplyImport(p *Portfolio, rows []*ImportRow) *ImportResult {
	result := &ImportResult{
		Created: []string{},
		Errors:  []*RowError{},
	}

	sorted := make([]*ImportRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Transaction.Date.Before(sorted[j].Transaction.Date)
	})

	for _, row := range sorted {
		trx := *row.Transaction

		h := p.Holding(row.Symbol)
		if h == nil {
			in := HoldingInput{Symbol: row.Symbol}
			created, err := in.Holding()
			if err != nil {
				result.Errors = append(result.Errors, newRowError(row.Line, err))
				continue
			}
			if err := created.AddTransaction(&trx); err != nil {
				result.Errors = append(result.Errors, newRowError(row.Line, err))
				continue
			}
			p.Holdings = append(p.Holdings, created)
			result.Created = append(result.Created, created.Symbol)
			result.Imported++
			continue
		}

		if hasSourceID(h, trx.SourceID) {
			result.Errors = append(result.Errors, newRowError(row.Line, fmt.Errorf("%w: duplicate transaction", ErrAlreadyExists)))
			continue
		}

		if err := h.AddTransaction(&trx); err != nil {
			result.Errors = append(result.Errors, newRowError(row.Line, err))
			continue
		}
		result.Imported++
	}

	return result
}

func hasSourceID(h *Holding, sourceID string) bool {
	if sourceID == "" {
		return false
	}
	for _, t := range h.Transactions {
		if t.SourceID == sourceID {
			return true
		}
	}
	return false
}

// ImportCSV parses the CSV and applies every valid row to the portfolio in
// a single update
func (s *Service) ImportCSV(ctx context.Context, id uuid.UUID, r io.Reader) (*ImportResult, error) {
	rows, parseErrors, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}

	var result *ImportResult
	if _, err := s.mutate(ctx, id, func(p *Portfolio) error {
		result = ApplyImport(p, rows)
		return nil
	}); err != nil {
		return nil, err
	}

	result.Errors = append(result.Errors, parseErrors...)
	sort.SliceStable(result.Errors, func(i, j int) bool { return result.Errors[i].Line < result.Errors[j].Line })

	log.Info().
		Str("PortfolioID", id.String()).
		Int("Imported", result.Imported).
		Strs("Created", result.Created).
		Int("Errors", len(result.Errors)).
		Msg("imported transactions")

	return result, nil
}

// ExportCSV writes every transaction of the portfolio in the import format
func ExportCSV(p *Portfolio, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportColumns); err != nil {
		return err
	}

	formatFloat := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	for _, h := range p.Holdings {
		for _, t := range sortedTransactions(h.Transactions) {
			if err := writer.Write([]string{
				h.Symbol,
				t.Date.Format(DateLayout),
				string(t.Kind),
				formatFloat(t.Quantity),
				formatFloat(t.Price),
				formatFloat(t.Fee),
				t.Notes,
			}); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func (s *Service) ExportCSV(ctx context.Context, id uuid.UUID, w io.Writer) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return ExportCSV(p, w)
}
