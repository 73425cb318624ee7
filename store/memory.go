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

// Package store provides the portfolio repositories: an in-memory store for
// single process deployments and a PostgreSQL store.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/penny-vault/pv-folio/portfolio"
)

type memoryEntry struct {
	mu        sync.Mutex
	portfolio *portfolio.Portfolio
	deleted   bool
}

// Memory keeps portfolios in process. Readers always receive deep copies
// and updates to one portfolio are serialized without blocking others.
type Memory struct {
	mu         sync.RWMutex
	portfolios map[uuid.UUID]*memoryEntry
}

func NewMemory() *Memory {
	return &Memory{
		portfolios: make(map[uuid.UUID]*memoryEntry),
	}
}

func (m *Memory) entry(id uuid.UUID) (*memoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.portfolios[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", portfolio.ErrPortfolioNotFound, id)
	}
	return e, nil
}

// List returns a summary of every portfolio ordered by creation time
func (m *Memory) List(ctx context.Context) ([]portfolio.Summary, error) {
	m.mu.RLock()
	entries := make([]*memoryEntry, 0, len(m.portfolios))
	for _, e := range m.portfolios {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	summaries := make([]portfolio.Summary, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			summaries = append(summaries, e.portfolio.Summary())
		}
		e.mu.Unlock()
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].Name < summaries[j].Name
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})

	return summaries, nil
}

func (m *Memory) Get(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error) {
	e, err := m.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, fmt.Errorf("%w: %s", portfolio.ErrPortfolioNotFound, id)
	}
	return e.portfolio.Clone(), nil
}

func (m *Memory) Create(ctx context.Context, p *portfolio.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.portfolios[p.ID]; ok {
		return fmt.Errorf("%w: portfolio %s", portfolio.ErrAlreadyExists, p.ID)
	}
	m.portfolios[p.ID] = &memoryEntry{portfolio: p.Clone()}
	return nil
}

func (m *Memory) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	e, ok := m.portfolios[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", portfolio.ErrPortfolioNotFound, id)
	}
	delete(m.portfolios, id)
	m.mu.Unlock()

	// wait for in-flight updates and make them fail
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()

	return nil
}

// Update applies fn to a copy of the portfolio while holding its lock. The
// copy replaces the stored portfolio only when fn returns nil.
func (m *Memory) Update(ctx context.Context, id uuid.UUID, fn func(*portfolio.Portfolio) error) (*portfolio.Portfolio, error) {
	e, err := m.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return nil, fmt.Errorf("%w: %s", portfolio.ErrPortfolioNotFound, id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	working := e.portfolio.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}

	e.portfolio = working
	return working.Clone(), nil
}
