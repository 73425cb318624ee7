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
	importPortfolio string
	importName      string
)

func init() {
	importCmd.Flags().StringVar(&importPortfolio, "portfolio", "", "ID of the portfolio to import into")
	importCmd.Flags().StringVar(&importName, "name", "", "Create a new portfolio with this name and import into it")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import transactions from a CSV file",
	Long: `Import transactions from a CSV file with the columns
symbol,date,type,quantity,price[,fee][,notes]. Rows that fail validation are
reported and the remaining rows are imported.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if (importPortfolio == "") == (importName == "") {
			log.Fatal().Msg("exactly one of --portfolio or --name is required")
		}

		fh, err := os.Open(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("File", args[0]).Msg("could not open csv file")
		}
		defer fh.Close()

		ctx := context.Background()
		svc, cleanup, err := newService(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize portfolio service")
		}
		defer cleanup()

		var id uuid.UUID
		if importName != "" {
			p, err := svc.CreatePortfolio(ctx, importName, "")
			if err != nil {
				log.Error().Err(err).Msg("could not create portfolio")
				return
			}
			id = p.ID
		} else if id, err = uuid.Parse(importPortfolio); err != nil {
			log.Error().Err(err).Str("PortfolioID", importPortfolio).Msg("invalid portfolio id")
			return
		}

		result, err := svc.ImportCSV(ctx, id, fh)
		if err != nil {
			log.Error().Err(err).Str("PortfolioID", id.String()).Msg("import failed")
			return
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]interface{}{
			"portfolio": id,
			"result":    result,
		}); err != nil {
			log.Error().Err(err).Msg("could not write import result")
		}
	},
}
