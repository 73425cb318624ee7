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

package portfolio

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// Asset classes used to bucket holdings in a stress test
const (
	Equity       = "Equity"
	Bond         = "Bond"
	Commodity    = "Commodity"
	RealEstate   = "RealEstate"
	Cash         = "Cash"
	Crypto       = "Crypto"
	DefaultClass = "Default"

	CustomScenario = "custom"

	// applied to unclassified holdings of a custom scenario that does not
	// set a default
	DefaultCustomImpact = -0.15
)

// Scenario is a static shock per asset class expressed as a fraction
// (-0.5 is a 50% loss)
type Scenario struct {
	Name        string             `toml:"name" json:"name"`
	Description string             `toml:"description" json:"description"`
	Impacts     map[string]float64 `toml:"impacts" json:"impacts"`
}

type scenarioFile struct {
	Scenarios []*Scenario `toml:"scenario"`
}

type AssetImpact struct {
	Type           string  `json:"type"`
	ImpactPct      float64 `json:"impact_pct"`
	OriginalValue  float64 `json:"original_value"`
	StressedValue  float64 `json:"stressed_value"`
	AbsoluteImpact float64 `json:"absolute_impact"`
}

type StressResult struct {
	Scenario         string                  `json:"scenario"`
	Description      string                  `json:"description"`
	CurrentValue     float64                 `json:"current_value"`
	StressedValue    float64                 `json:"stressed_value"`
	AbsoluteImpact   float64                 `json:"absolute_impact"`
	PercentageImpact float64                 `json:"percentage_impact"`
	ImpactByAsset    map[string]*AssetImpact `json:"impact_by_asset"`
}

// BuiltinScenarios returns the default historical scenarios
func BuiltinScenarios() map[string]*Scenario {
	return map[string]*Scenario{
		"crisis_2008": {
			Name:        "crisis_2008",
			Description: "2008 global financial crisis",
			Impacts: map[string]float64{
				Equity: -0.50, Bond: 0.05, Commodity: -0.35, RealEstate: -0.60,
				Cash: 0, Crypto: -0.70, DefaultClass: -0.40,
			},
		},
		"covid_2020": {
			Name:        "covid_2020",
			Description: "2020 pandemic crash",
			Impacts: map[string]float64{
				Equity: -0.34, Bond: 0.03, Commodity: -0.25, RealEstate: -0.40,
				Cash: 0, Crypto: -0.50, DefaultClass: -0.30,
			},
		},
		"tech_bubble": {
			Name:        "tech_bubble",
			Description: "2000-2002 dot-com bust",
			Impacts: map[string]float64{
				Equity: -0.45, Bond: 0.10, Commodity: -0.10, RealEstate: 0.05,
				Cash: 0, Crypto: -0.80, DefaultClass: -0.30,
			},
		},
		"rate_hike": {
			Name:        "rate_hike",
			Description: "rapid rise in interest rates",
			Impacts: map[string]float64{
				Equity: -0.20, Bond: -0.15, Commodity: 0.05, RealEstate: -0.25,
				Cash: 0.01, Crypto: -0.40, DefaultClass: -0.15,
			},
		},
		"stagflation": {
			Name:        "stagflation",
			Description: "high inflation with low growth",
			Impacts: map[string]float64{
				Equity: -0.25, Bond: -0.20, Commodity: 0.30, RealEstate: -0.10,
				Cash: -0.05, Crypto: -0.30, DefaultClass: -0.15,
			},
		},
	}
}

// LoadScenarios reads [[scenario]] tables from a TOML file and layers them
// over the builtin scenarios
func LoadScenarios(path string) (map[string]*Scenario, error) {
	scenarios := BuiltinScenarios()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	file := scenarioFile{}
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("could not parse scenario file %s: %w", path, err)
	}

	for _, sc := range file.Scenarios {
		if sc.Name == "" || sc.Name == CustomScenario {
			log.Warn().Str("Path", path).Str("Name", sc.Name).Msg("ignoring scenario with reserved or empty name")
			continue
		}
		scenarios[sc.Name] = sc
	}

	return scenarios, nil
}

// ClassifyAsset maps an instrument type to an asset class
func ClassifyAsset(instrumentType string) string {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(instrumentType), " ", "")) {
	case "EQUITY", "ETF", "MUTUALFUND", "STOCK", "INDEX":
		return Equity
	case "BOND", "FIXEDINCOME":
		return Bond
	case "COMMODITY", "FUTURE", "FUTURES":
		return Commodity
	case "REALESTATE", "REIT":
		return RealEstate
	case "CASH", "MONEYMARKET", "CURRENCY":
		return Cash
	case "CRYPTO", "CRYPTOCURRENCY":
		return Crypto
	default:
		return DefaultClass
	}
}

func (sc *Scenario) impact(class string) float64 {
	if v, ok := sc.Impacts[class]; ok {
		return v
	}
	return sc.Impacts[DefaultClass]
}

// StressTest applies the scenario's shocks to the current value of every
// holding. No history is consulted beyond the current price.
func StressTest(p *Portfolio, sc *Scenario) *StressResult {
	result := &StressResult{
		Scenario:      sc.Name,
		Description:   sc.Description,
		ImpactByAsset: make(map[string]*AssetImpact, len(p.Holdings)),
	}

	for _, h := range p.Holdings {
		price := h.CurrentPrice
		if price == 0 {
			if last, ok := NewPriceIndex(h.History).Last(); ok {
				price = last.Price
			}
		}

		class := ClassifyAsset(h.Type)
		shock := sc.impact(class)
		value := NetQuantity(h.Transactions) * price
		stressed := value * (1 + shock)

		result.ImpactByAsset[h.Symbol] = &AssetImpact{
			Type:           class,
			ImpactPct:      shock * 100,
			OriginalValue:  value,
			StressedValue:  stressed,
			AbsoluteImpact: stressed - value,
		}
		result.CurrentValue += value
		result.StressedValue += stressed
	}

	result.AbsoluteImpact = result.StressedValue - result.CurrentValue
	if result.CurrentValue != 0 {
		result.PercentageImpact = result.AbsoluteImpact / result.CurrentValue * 100
	}

	return result
}

// StressTest runs a named scenario, or the caller's impacts when scenario
// is "custom", against the portfolio
func (s *Service) StressTest(ctx context.Context, id uuid.UUID, scenario string, custom map[string]float64) (*StressResult, error) {
	scenario = strings.ToLower(strings.TrimSpace(scenario))

	var sc *Scenario
	if scenario == CustomScenario {
		sc = &Scenario{
			Name:        CustomScenario,
			Description: "custom scenario",
			Impacts:     map[string]float64{DefaultClass: DefaultCustomImpact},
		}
		for k, v := range custom {
			sc.Impacts[k] = v
		}
	} else {
		var ok bool
		if sc, ok = s.scenarios[scenario]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, scenario)
		}
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return StressTest(p, sc), nil
}
