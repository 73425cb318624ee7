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

	"github.com/google/uuid"
	"github.com/penny-vault/pv-folio/portfolio"
)

func day(s string) time.Time {
	d, err := portfolio.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func trx(kind portfolio.TransactionKind, date string, quantity, price float64) *portfolio.Transaction {
	return &portfolio.Transaction{
		ID:       uuid.New(),
		Date:     day(date),
		Kind:     kind,
		Quantity: quantity,
		Price:    price,
	}
}

func buy(date string, quantity, price float64) *portfolio.Transaction {
	return trx(portfolio.BuyTransaction, date, quantity, price)
}

func sell(date string, quantity, price float64) *portfolio.Transaction {
	return trx(portfolio.SellTransaction, date, quantity, price)
}

// flatHistory prices every calendar day from start to end inclusive
func flatHistory(start, end string, price float64) portfolio.History {
	h := portfolio.History{}
	for d := day(start); !d.After(day(end)); d = d.AddDate(0, 0, 1) {
		h[d] = price
	}
	return h
}

func holding(symbol string, history portfolio.History, trxs ...*portfolio.Transaction) *portfolio.Holding {
	return &portfolio.Holding{
		Symbol:       symbol,
		Name:         symbol,
		Currency:     "USD",
		Type:         "EQUITY",
		Transactions: trxs,
		History:      history,
		Returns:      portfolio.History{},
	}
}
