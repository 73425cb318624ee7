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

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/penny-vault/pv-folio/database"
	"github.com/penny-vault/pv-folio/observability/opentelemetry"
	"github.com/penny-vault/pv-folio/portfolio"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	listSQL = `SELECT id, name, description, created_at, COALESCE(jsonb_array_length(document->'holdings'), 0)
FROM portfolios ORDER BY created_at, name`
	getSQL       = `SELECT document FROM portfolios WHERE id=$1`
	getLockedSQL = `SELECT document FROM portfolios WHERE id=$1 FOR UPDATE`
	insertSQL    = `INSERT INTO portfolios (id, name, description, created_at, document)
VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`
	updateSQL = `UPDATE portfolios SET name=$2, description=$3, document=$4, modified_at=now() WHERE id=$1`
	deleteSQL = `DELETE FROM portfolios WHERE id=$1`
)

// Postgres stores each portfolio as a JSONB document in the portfolios
// table. Updates lock the row for the duration of the caller's function.
type Postgres struct {
	db database.PgxIface
}

func NewPostgres(db database.PgxIface) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) List(ctx context.Context) ([]portfolio.Summary, error) {
	rows, err := s.db.Query(ctx, listSQL)
	if err != nil {
		log.Error().Err(err).Str("Query", listSQL).Msg("could not list portfolios")
		return nil, err
	}
	defer rows.Close()

	summaries := make([]portfolio.Summary, 0)
	for rows.Next() {
		var (
			id          string
			numHoldings int32
			summary     portfolio.Summary
		)
		if err := rows.Scan(&id, &summary.Name, &summary.Description, &summary.CreatedAt, &numHoldings); err != nil {
			log.Error().Err(err).Msg("could not scan portfolio summary")
			return nil, err
		}
		if summary.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		summary.NumHoldings = int(numHoldings)
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

func (s *Postgres) Get(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error) {
	var doc []byte
	if err := s.db.QueryRow(ctx, getSQL, id.String()).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", portfolio.ErrPortfolioNotFound, id)
		}
		log.Error().Err(err).Str("PortfolioID", id.String()).Msg("could not load portfolio")
		return nil, err
	}
	return decode(doc)
}

func (s *Postgres) Create(ctx context.Context, p *portfolio.Portfolio) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, insertSQL, p.ID.String(), p.Name, p.Description, p.CreatedAt, doc)
	if err != nil {
		log.Error().Err(err).Object("Portfolio", p).Msg("could not insert portfolio")
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: portfolio %s", portfolio.ErrAlreadyExists, p.ID)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, deleteSQL, id.String())
	if err != nil {
		log.Error().Err(err).Str("PortfolioID", id.String()).Msg("could not delete portfolio")
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", portfolio.ErrPortfolioNotFound, id)
	}
	return nil
}

// Update runs fn inside a transaction holding the portfolio's row lock
func (s *Postgres) Update(ctx context.Context, id uuid.UUID, fn func(*portfolio.Portfolio) error) (*portfolio.Portfolio, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "store.Update")
	defer span.End()
	span.SetAttributes(attribute.String("PortfolioID", id.String()))

	subLog := log.With().Str("PortfolioID", id.String()).Logger()

	trx, err := s.db.Begin(ctx)
	if err != nil {
		subLog.Error().Err(err).Msg("could not begin transaction")
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not begin transaction")
		return nil, err
	}

	rollback := func() {
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Err(err).Msg("could not rollback transaction")
		}
	}

	var doc []byte
	if err := trx.QueryRow(ctx, getLockedSQL, id.String()).Scan(&doc); err != nil {
		rollback()
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", portfolio.ErrPortfolioNotFound, id)
		}
		subLog.Error().Err(err).Msg("could not lock portfolio")
		return nil, err
	}

	p, err := decode(doc)
	if err != nil {
		rollback()
		return nil, err
	}

	if err := fn(p); err != nil {
		rollback()
		return nil, err
	}

	if doc, err = json.Marshal(p); err != nil {
		rollback()
		return nil, err
	}

	if _, err := trx.Exec(ctx, updateSQL, id.String(), p.Name, p.Description, doc); err != nil {
		rollback()
		subLog.Error().Err(err).Msg("could not save portfolio")
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not save portfolio")
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Error().Err(err).Msg("could not commit transaction")
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not commit transaction")
		return nil, err
	}

	return p, nil
}

func decode(doc []byte) (*portfolio.Portfolio, error) {
	p := &portfolio.Portfolio{}
	if err := json.Unmarshal(doc, p); err != nil {
		log.Error().Err(err).Msg("could not decode portfolio document")
		return nil, err
	}
	if p.Holdings == nil {
		p.Holdings = []*portfolio.Holding{}
	}
	return p, nil
}
