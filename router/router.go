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

package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pv-folio/handler"
)

// SetupRoutes setup router api
func SetupRoutes(app *fiber.App, h *handler.Handler) {
	api := app.Group("/api/v1")
	api.Get("/ping", handler.Ping)

	// Instruments
	api.Get("/search", h.Search)
	api.Get("/benchmark/:symbol", h.GetBenchmark)
	api.Get("/scenarios", h.ListScenarios)

	// Portfolio
	portfolio := api.Group("/portfolios")
	portfolio.Get("/", h.ListPortfolios)
	portfolio.Post("/", h.CreatePortfolio)
	portfolio.Get("/:id", h.GetPortfolio)
	portfolio.Delete("/:id", h.DeletePortfolio)

	portfolio.Post("/:id/holdings", h.AddHolding)
	portfolio.Delete("/:id/holdings/:symbol", h.RemoveHolding)
	portfolio.Post("/:id/holdings/:symbol/transactions", h.AddTransaction)
	portfolio.Post("/:id/holdings/:symbol/transactions/delete", h.DeleteTransaction)

	portfolio.Post("/:id/import", h.ImportCSV)
	portfolio.Get("/:id/export", h.ExportCSV)
	portfolio.Post("/:id/refresh", h.RefreshPrices)

	// Analytics
	portfolio.Get("/:id/performance", h.GetPerformance)
	portfolio.Get("/:id/analysis", h.GetAnalysis)
	portfolio.Post("/:id/stress-test", h.StressTest)
}
