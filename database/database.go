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

package database

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// PgxIface is the subset of pgxpool.Pool used by the application. It is
// satisfied by pgxmock in tests.
type PgxIface interface {
	Begin(context.Context) (pgx.Tx, error)
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

var (
	ErrNotConnected = errors.New("database pool has not been configured")
)

var pool PgxIface

const schema = `CREATE TABLE IF NOT EXISTS portfolios (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	document    JSONB NOT NULL,
	modified_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func SetPool(myPool PgxIface) {
	pool = myPool
}

// Pool returns the configured pool or ErrNotConnected
func Pool() (PgxIface, error) {
	if pool == nil {
		return nil, ErrNotConnected
	}
	return pool, nil
}

// Connect opens a pool to database.url and makes it the active pool
func Connect(ctx context.Context) (*pgxpool.Pool, error) {
	myPool, err := pgxpool.Connect(ctx, viper.GetString("database.url"))
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not connect to pool")
		return nil, err
	}
	if err = myPool.Ping(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("could not ping database server")
		myPool.Close()
		return nil, err
	}
	SetPool(myPool)
	return myPool, nil
}

// Migrate creates the tables used by the postgres store
func Migrate(ctx context.Context) error {
	db, err := Pool()
	if err != nil {
		return err
	}

	if _, err := db.Exec(ctx, schema); err != nil {
		log.Error().Stack().Err(err).Msg("could not create portfolios table")
		return err
	}

	log.Debug().Msg("database schema is up to date")
	return nil
}
