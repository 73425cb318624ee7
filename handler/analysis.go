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

package handler

import (
	"github.com/gofiber/fiber/v2"
)

type stressTestRequest struct {
	Scenario string             `json:"scenario"`
	Impacts  map[string]float64 `json:"custom_impacts"`
}

// RefreshPrices fetches current prices for every holding of a portfolio
func (h *Handler) RefreshPrices(c *fiber.Ctx) error {
	id, err := portfolioID(c)
	if err != nil {
		return err
	}

	quotes, err := h.svc.RefreshPrices(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(quotes)
}

func (h *Handler) GetPerformance(c *fiber.Ctx) error {
	id, err := portfolioID(c)
	if err != nil {
		return err
	}

	summary, err := h.svc.GetPerformance(c.UserContext(), id, c.Query("period"))
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// GetAnalysis returns every analytic report of a portfolio for a period
func (h *Handler) GetAnalysis(c *fiber.Ctx) error {
	id, err := portfolioID(c)
	if err != nil {
		return err
	}

	analysis, err := h.svc.GetAnalysis(c.UserContext(), id, c.Query("period"))
	if err != nil {
		return err
	}
	return c.JSON(analysis)
}

func (h *Handler) StressTest(c *fiber.Ctx) error {
	id, err := portfolioID(c)
	if err != nil {
		return err
	}

	req := stressTestRequest{}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(err)
	}

	result, err := h.svc.StressTest(c.UserContext(), id, req.Scenario, req.Impacts)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// ListScenarios returns the named stress scenarios
func (h *Handler) ListScenarios(c *fiber.Ctx) error {
	return c.JSON(h.svc.Scenarios())
}

func (h *Handler) GetBenchmark(c *fiber.Ctx) error {
	report, err := h.svc.GetBenchmark(c.UserContext(), c.Params("symbol"), c.Query("period"))
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// Search looks up instruments matching the q query parameter
func (h *Handler) Search(c *fiber.Ctx) error {
	results, err := h.svc.SearchInstruments(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"results": results})
}
