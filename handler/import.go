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
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ImportCSV imports transactions from the multipart file field "file"
func (h *Handler) ImportCSV(c *fiber.Ctx) error {
	id, err := portfolioID(c)
	if err != nil {
		return err
	}

	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(err)
	}

	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	result, err := h.svc.ImportCSV(c.UserContext(), id, file)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// ExportCSV downloads every transaction of a portfolio
func (h *Handler) ExportCSV(c *fiber.Ctx) error {
	id, err := portfolioID(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := h.svc.ExportCSV(c.UserContext(), id, &buf); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", id.String()+".csv"))
	return c.Send(buf.Bytes())
}
