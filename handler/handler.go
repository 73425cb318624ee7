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
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/penny-vault/pv-folio/data"
	"github.com/penny-vault/pv-folio/portfolio"
	"github.com/rs/zerolog/log"
)

// Handler serves the portfolio API
type Handler struct {
	svc *portfolio.Service
}

func New(svc *portfolio.Service) *Handler {
	return &Handler{svc: svc}
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type PingResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"API is alive"`
	Time    string `json:"time" example:"2021-06-19T08:09:10.115924-05:00"`
}

var (
	ErrInvalidID = errors.New("invalid portfolio id")
)

func Ping(c *fiber.Ctx) error {
	var response PingResponse
	now, err := time.Now().MarshalText()
	if err != nil {
		log.Error().Err(err).Msg("error while getting time in ping")
		response = PingResponse{
			Status:  "error",
			Message: err.Error(),
			Time:    string(now),
		}
	} else {
		response = PingResponse{
			Status:  "success",
			Message: "API is alive",
			Time:    string(now),
		}
	}
	return c.JSON(response)
}

// StatusCode maps an application error to an HTTP status
func StatusCode(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, portfolio.ErrNotFound), errors.Is(err, data.ErrSymbolNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, portfolio.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, portfolio.ErrInvalidTransaction),
		errors.Is(err, portfolio.ErrInvalidPeriod),
		errors.Is(err, portfolio.ErrInvalidDate),
		errors.Is(err, portfolio.ErrOversell),
		errors.Is(err, portfolio.ErrUnknownScenario),
		errors.Is(err, portfolio.ErrInvalidCSV),
		errors.Is(err, portfolio.ErrEmptyName),
		errors.Is(err, portfolio.ErrEmptySymbol),
		errors.Is(err, data.ErrEmptyQuery):
		return fiber.StatusBadRequest
	case errors.Is(err, data.ErrInvalidStatusCode):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders errors returned by handlers as JSON
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusCode(err)
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("Path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(ErrorResponse{
		Status:  "error",
		Message: err.Error(),
	})
}

func portfolioID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

func badRequest(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}
