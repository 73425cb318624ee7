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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/penny-vault/pv-folio/cache"
	"github.com/penny-vault/pv-folio/data"
	"github.com/penny-vault/pv-folio/database"
	"github.com/penny-vault/pv-folio/portfolio"
	"github.com/penny-vault/pv-folio/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrUnknownStore = errors.New("unknown store kind")
)

// openRepository returns the repository selected by store.kind and a
// function that releases it
func openRepository(ctx context.Context) (portfolio.Repository, func(), error) {
	kind := strings.ToLower(viper.GetString("store.kind"))
	switch kind {
	case "", "memory":
		log.Warn().Msg("using in-memory store; portfolios are lost on exit")
		return store.NewMemory(), func() {}, nil
	case "postgres":
		pool, err := database.Connect(ctx)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store.NewPostgres(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStore, kind)
	}
}

// newService wires the repository, market data provider, result cache and
// stress scenarios into a portfolio service
func newService(ctx context.Context) (*portfolio.Service, func(), error) {
	repo, closeRepo, err := openRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	resultCache, err := cache.NewFromConfig()
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	provider := data.NewYahoo(viper.GetDuration("provider.timeout"))
	svc := portfolio.NewService(repo, provider, resultCache)

	if scenarioFile := viper.GetString("stress.scenarios_file"); scenarioFile != "" {
		scenarios, err := portfolio.LoadScenarios(scenarioFile)
		if err != nil {
			resultCache.Close()
			closeRepo()
			return nil, nil, err
		}
		svc.SetScenarios(scenarios)
		log.Info().Str("File", scenarioFile).Int("NumScenarios", len(scenarios)).Msg("loaded stress scenarios")
	}

	cleanup := func() {
		if err := resultCache.Close(); err != nil {
			log.Warn().Err(err).Msg("could not close result cache")
		}
		closeRepo()
	}

	return svc, cleanup, nil
}
