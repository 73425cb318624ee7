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
	"github.com/penny-vault/pv-folio/portfolio"
)

type createPortfolioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListPortfolios lists every portfolio
func (h *Handler) ListPortfolios(c *fiber.Ctx) error {
	summaries, err := h.svc.ListPortfolios(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(summaries)
}

// CreatePortfolio creates an empty portfolio
func (h *Handler) CreatePortfolio(c *fiber.Ctx) error {
	req := createPortfolioRequest{}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(err)
	}

	p, err := h.svc.CreatePortfolio(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// GetPortfolio returns a portfolio with its holdings
func (h *Handler) GetPortfolio(c *fiber.Ctx) error {
	id, err := portfolioID(c)
	if err != nil {
		return err
	}

	p, err := h.svc.GetPortfolio(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *Handler) DeletePortfolio(c *fiber.Ctx) error {
	id, err := portfolioID(c)
	if err != nil {
		return err
	}

	if err := h.svc.DeletePortfolio(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddHolding adds an instrument to a portfolio
func (h *Handler) AddHolding(c *fiber.Ctx) error {
	id, err := portfolioID(c)
	if err != nil {
		return err
	}

	in := portfolio.HoldingInput{}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(err)
	}

	holding, err := h.svc.AddHolding(c.UserContext(), id, &in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(holding)
}

func (h *Handler) RemoveHolding(c *fiber.Ctx) error {
	id, err := portfolioID(c)
	if err != nil {
		return err
	}

	if err := h.svc.RemoveHolding(c.UserContext(), id, c.Params("symbol")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddTransaction records a buy or sell against a holding
func (h *Handler) AddTransaction(c *fiber.Ctx) error {
	id, err := portfolioID(c)
	if err != nil {
		return err
	}

	in := portfolio.TransactionInput{}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(err)
	}

	t, err := h.svc.AddTransaction(c.UserContext(), id, c.Params("symbol"), &in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// DeleteTransaction removes the transaction matching the request body
func (h *Handler) DeleteTransaction(c *fiber.Ctx) error {
	id, err := portfolioID(c)
	if err != nil {
		return err
	}

	match := portfolio.TransactionInput{}
	if err := c.BodyParser(&match); err != nil {
		return badRequest(err)
	}

	if err := h.svc.DeleteTransaction(c.UserContext(), id, c.Params("symbol"), &match); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
