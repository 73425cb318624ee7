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
	"os"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh [portfolio-id...]",
	Short: "Refresh current prices",
	Long:  `Fetch the latest closing price for every holding. Without arguments every stored portfolio is refreshed.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		svc, cleanup, err := newService(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize portfolio service")
		}
		defer cleanup()

		if len(args) == 0 {
			if err := svc.RefreshAll(ctx); err != nil {
				log.Error().Err(err).Msg("refresh failed")
			}
			return
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, arg := range args {
			id, err := uuid.Parse(arg)
			if err != nil {
				log.Error().Err(err).Str("PortfolioID", arg).Msg("invalid portfolio id")
				continue
			}
			quotes, err := svc.RefreshPrices(ctx, id)
			if err != nil {
				log.Error().Err(err).Str("PortfolioID", arg).Msg("refresh failed")
				continue
			}
			if err := enc.Encode(quotes); err != nil {
				log.Error().Err(err).Msg("could not write quotes")
			}
		}
	},
}
