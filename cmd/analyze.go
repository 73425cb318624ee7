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

var (
	analyzePeriod   string
	analyzeScenario string
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzePeriod, "period", "1m", "Analysis period: 1m, 3m, 6m, ytd, 1y, 3y, 5y or all")
	analyzeCmd.Flags().StringVar(&analyzeScenario, "stress", "", "Also run the named stress scenario")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <portfolio-id>",
	Short: "Print the analysis of a portfolio",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := uuid.Parse(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("PortfolioID", args[0]).Msg("invalid portfolio id")
		}

		ctx := context.Background()
		svc, cleanup, err := newService(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize portfolio service")
		}
		defer cleanup()

		report := map[string]interface{}{}

		analysis, err := svc.GetAnalysis(ctx, id, analyzePeriod)
		if err != nil {
			log.Error().Err(err).Str("PortfolioID", id.String()).Msg("analysis failed")
			return
		}
		report["analysis"] = analysis

		if analyzeScenario != "" {
			result, err := svc.StressTest(ctx, id, analyzeScenario, nil)
			if err != nil {
				log.Error().Err(err).Str("Scenario", analyzeScenario).Msg("stress test failed")
				return
			}
			report["stress_test"] = result
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Error().Err(err).Msg("could not write report")
		}
	},
}
