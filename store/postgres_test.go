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

package store_test

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"
	"github.com/penny-vault/pv-folio/portfolio"
	"github.com/penny-vault/pv-folio/store"
)

var _ = Describe("Postgres", func() {
	var (
		ctx    context.Context
		dbPool pgxmock.PgxConnIface
		pg     *store.Postgres
		p      *portfolio.Portfolio
		doc    []byte
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		pg = store.NewPostgres(dbPool)

		p = portfolio.New("retirement", "long term")
		p.Holdings = append(p.Holdings, &portfolio.Holding{
			Symbol:       "VTI",
			Name:         "Vanguard Total Stock Market",
			Currency:     "USD",
			Type:         "ETF",
			Transactions: []*portfolio.Transaction{},
			History: portfolio.History{
				time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC): 240.5,
			},
			Returns: portfolio.History{},
		})
		doc, err = json.Marshal(p)
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		Expect(dbPool.ExpectationsWereMet()).To(Succeed())
	})

	It("lists portfolio summaries", func() {
		created := time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC)
		dbPool.ExpectQuery("SELECT id, name, description, created_at").WillReturnRows(
			pgxmock.NewRows([]string{"id", "name", "description", "created_at", "num_holdings"}).
				AddRow(p.ID.String(), "retirement", "long term", created, int32(1)))

		summaries, err := pg.List(ctx)
		Expect(err).To(BeNil())
		Expect(summaries).To(HaveLen(1))
		Expect(summaries[0].ID).To(Equal(p.ID))
		Expect(summaries[0].Name).To(Equal("retirement"))
		Expect(summaries[0].CreatedAt).To(Equal(created))
		Expect(summaries[0].NumHoldings).To(Equal(1))
	})

	It("loads a portfolio document", func() {
		dbPool.ExpectQuery("SELECT document FROM portfolios").WithArgs(p.ID.String()).
			WillReturnRows(pgxmock.NewRows([]string{"document"}).AddRow(doc))

		loaded, err := pg.Get(ctx, p.ID)
		Expect(err).To(BeNil())
		Expect(loaded.ID).To(Equal(p.ID))
		Expect(loaded.Holdings).To(HaveLen(1))
		Expect(loaded.Holdings[0].History).To(HaveKeyWithValue(time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), 240.5))
	})

	It("maps a missing row to not found", func() {
		id := uuid.New()
		dbPool.ExpectQuery("SELECT document FROM portfolios").WithArgs(id.String()).WillReturnError(pgx.ErrNoRows)

		_, err := pg.Get(ctx, id)
		Expect(errors.Is(err, portfolio.ErrPortfolioNotFound)).To(BeTrue())
	})

	It("inserts new portfolios", func() {
		dbPool.ExpectExec("INSERT INTO portfolios").
			WithArgs(p.ID.String(), p.Name, p.Description, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		Expect(pg.Create(ctx, p)).To(Succeed())
	})

	It("reports a conflicting insert", func() {
		dbPool.ExpectExec("INSERT INTO portfolios").
			WithArgs(p.ID.String(), p.Name, p.Description, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		err := pg.Create(ctx, p)
		Expect(errors.Is(err, portfolio.ErrAlreadyExists)).To(BeTrue())
	})

	It("deletes portfolios", func() {
		dbPool.ExpectExec("DELETE FROM portfolios").WithArgs(p.ID.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		Expect(pg.Delete(ctx, p.ID)).To(Succeed())
	})

	It("reports deleting a missing portfolio", func() {
		dbPool.ExpectExec("DELETE FROM portfolios").WithArgs(p.ID.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		err := pg.Delete(ctx, p.ID)
		Expect(errors.Is(err, portfolio.ErrNotFound)).To(BeTrue())
	})

	It("updates under a row lock and commits", func() {
		dbPool.ExpectBegin()
		dbPool.ExpectQuery("SELECT document FROM portfolios").WithArgs(p.ID.String()).
			WillReturnRows(pgxmock.NewRows([]string{"document"}).AddRow(doc))
		dbPool.ExpectExec("UPDATE portfolios").
			WithArgs(p.ID.String(), "renamed", "long term", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		dbPool.ExpectCommit()

		updated, err := pg.Update(ctx, p.ID, func(p *portfolio.Portfolio) error {
			p.Name = "renamed"
			return nil
		})
		Expect(err).To(BeNil())
		Expect(updated.Name).To(Equal("renamed"))
	})

	It("rolls back when the update function fails", func() {
		failure := errors.New("boom")
		dbPool.ExpectBegin()
		dbPool.ExpectQuery("SELECT document FROM portfolios").WithArgs(p.ID.String()).
			WillReturnRows(pgxmock.NewRows([]string{"document"}).AddRow(doc))
		dbPool.ExpectRollback()

		_, err := pg.Update(ctx, p.ID, func(p *portfolio.Portfolio) error {
			return failure
		})
		Expect(err).To(MatchError(failure))
	})

	It("rolls back when the portfolio does not exist", func() {
		dbPool.ExpectBegin()
		dbPool.ExpectQuery("SELECT document FROM portfolios").WithArgs(p.ID.String()).
			WillReturnError(pgx.ErrNoRows)
		dbPool.ExpectRollback()

		_, err := pg.Update(ctx, p.ID, func(p *portfolio.Portfolio) error { return nil })
		Expect(errors.Is(err, portfolio.ErrPortfolioNotFound)).To(BeTrue())
	})
})
