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

package handler_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-folio/cache"
	"github.com/penny-vault/pv-folio/data"
	"github.com/penny-vault/pv-folio/handler"
	"github.com/penny-vault/pv-folio/portfolio"
	"github.com/penny-vault/pv-folio/router"
	"github.com/penny-vault/pv-folio/store"
)

type stubProvider struct{}

func (stubProvider) Search(ctx context.Context, query string) ([]*data.SearchResult, error) {
	if query == "" {
		return nil, data.ErrEmptyQuery
	}
	return []*data.SearchResult{{Symbol: "VTI", Name: "Vanguard Total Stock Market"}}, nil
}

func (stubProvider) History(ctx context.Context, symbol string, interval data.Interval) ([]*data.Bar, error) {
	return nil, data.ErrSymbolNotFound
}

func doJSON(app *fiber.App, method, url string, body interface{}) *http.Response {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		Expect(err).To(BeNil())
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	Expect(err).To(BeNil())
	return resp
}

func decodeBody(resp *http.Response, dest interface{}) {
	defer resp.Body.Close()
	buf, err := io.ReadAll(resp.Body)
	Expect(err).To(BeNil())
	Expect(json.Unmarshal(buf, dest)).To(Succeed())
}

var _ = Describe("Handler", func() {
	var (
		app *fiber.App
		id  string
	)

	BeforeEach(func() {
		resultCache, err := cache.New(cache.Config{LocalSize: 16})
		Expect(err).To(BeNil())
		svc := portfolio.NewService(store.NewMemory(), stubProvider{}, resultCache)

		app = fiber.New(fiber.Config{
			ErrorHandler: handler.ErrorHandler,
			JSONEncoder:  json.Marshal,
			JSONDecoder:  json.Unmarshal,
		})
		router.SetupRoutes(app, handler.New(svc))

		resp := doJSON(app, fiber.MethodPost, "/api/v1/portfolios", map[string]string{"name": "retirement"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))
		created := portfolio.Portfolio{}
		decodeBody(resp, &created)
		id = created.ID.String()
	})

	It("answers ping", func() {
		resp := doJSON(app, fiber.MethodGet, "/api/v1/ping", nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		ping := handler.PingResponse{}
		decodeBody(resp, &ping)
		Expect(ping.Status).To(Equal("success"))
	})

	It("lists portfolios", func() {
		resp := doJSON(app, fiber.MethodGet, "/api/v1/portfolios", nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		summaries := []portfolio.Summary{}
		decodeBody(resp, &summaries)
		Expect(summaries).To(HaveLen(1))
		Expect(summaries[0].Name).To(Equal("retirement"))
	})

	It("rejects a portfolio without a name", func() {
		resp := doJSON(app, fiber.MethodPost, "/api/v1/portfolios", map[string]string{"description": "nameless"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})

	It("maps missing portfolios to 404", func() {
		resp := doJSON(app, fiber.MethodGet, "/api/v1/portfolios/"+uuid.New().String(), nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		errResp := handler.ErrorResponse{}
		decodeBody(resp, &errResp)
		Expect(errResp.Status).To(Equal("error"))
	})

	It("maps malformed ids to 400", func() {
		resp := doJSON(app, fiber.MethodGet, "/api/v1/portfolios/not-a-uuid", nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})

	It("maps duplicate holdings to 409", func() {
		resp := doJSON(app, fiber.MethodPost, "/api/v1/portfolios/"+id+"/holdings", map[string]interface{}{"symbol": "VTI"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

		resp = doJSON(app, fiber.MethodPost, "/api/v1/portfolios/"+id+"/holdings", map[string]interface{}{"symbol": "vti"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusConflict))
	})

	It("records and deletes transactions", func() {
		resp := doJSON(app, fiber.MethodPost, "/api/v1/portfolios/"+id+"/holdings", map[string]interface{}{"symbol": "VTI"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

		trx := map[string]interface{}{"date": "2022-01-03", "type": "buy", "quantity": 10, "price": 220}
		resp = doJSON(app, fiber.MethodPost, "/api/v1/portfolios/"+id+"/holdings/VTI/transactions", trx)
		Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

		oversell := map[string]interface{}{"date": "2022-01-04", "type": "sell", "quantity": 11, "price": 220}
		resp = doJSON(app, fiber.MethodPost, "/api/v1/portfolios/"+id+"/holdings/VTI/transactions", oversell)
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

		resp = doJSON(app, fiber.MethodPost, "/api/v1/portfolios/"+id+"/holdings/VTI/transactions/delete", trx)
		Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))

		resp = doJSON(app, fiber.MethodPost, "/api/v1/portfolios/"+id+"/holdings/VTI/transactions/delete", trx)
		Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
	})

	It("imports a CSV upload", func() {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("file", "trades.csv")
		Expect(err).To(BeNil())
		_, err = part.Write([]byte("symbol,date,type,quantity,price\nVTI,2022-01-03,buy,10,220\nBND,2022-01-04,buy,x,80\n"))
		Expect(err).To(BeNil())
		Expect(writer.Close()).To(Succeed())

		req := httptest.NewRequest(fiber.MethodPost, "/api/v1/portfolios/"+id+"/import", &body)
		req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
		resp, err := app.Test(req, -1)
		Expect(err).To(BeNil())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		result := portfolio.ImportResult{}
		decodeBody(resp, &result)
		Expect(result.Imported).To(Equal(1))
		Expect(result.Errors).To(HaveLen(1))

		resp = doJSON(app, fiber.MethodGet, "/api/v1/portfolios/"+id+"/export", nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		csv, err := io.ReadAll(resp.Body)
		Expect(err).To(BeNil())
		Expect(string(csv)).To(ContainSubstring("VTI,2022-01-03,buy,10,220"))
	})

	It("serves the analysis of an empty portfolio", func() {
		resp := doJSON(app, fiber.MethodGet, "/api/v1/portfolios/"+id+"/analysis?period=3m", nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		analysis := portfolio.Analysis{}
		decodeBody(resp, &analysis)
		Expect(analysis.Period).To(Equal(portfolio.ThreeMonths))
	})

	It("rejects unknown periods", func() {
		resp := doJSON(app, fiber.MethodGet, "/api/v1/portfolios/"+id+"/performance?period=10y", nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})

	It("rejects unknown stress scenarios", func() {
		resp := doJSON(app, fiber.MethodPost, "/api/v1/portfolios/"+id+"/stress-test", map[string]string{"scenario": "meteor"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

		resp = doJSON(app, fiber.MethodPost, "/api/v1/portfolios/"+id+"/stress-test", map[string]string{"scenario": "covid_2020"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
	})

	It("searches instruments", func() {
		resp := doJSON(app, fiber.MethodGet, "/api/v1/search?q=vanguard", nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		resp = doJSON(app, fiber.MethodGet, "/api/v1/search", nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})

	It("maps unknown benchmark symbols to 404", func() {
		resp := doJSON(app, fiber.MethodGet, "/api/v1/benchmark/NOPE", nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
	})

	It("deletes portfolios", func() {
		resp := doJSON(app, fiber.MethodDelete, "/api/v1/portfolios/"+id, nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))
		resp = doJSON(app, fiber.MethodGet, "/api/v1/portfolios/"+id, nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
	})
})
