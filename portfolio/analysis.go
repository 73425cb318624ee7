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

import "time"

type PerformanceMetrics struct {
	TotalReturn      float64 `json:"totalReturn"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
	Volatility       float64 `json:"volatility"`
	SharpeRatio      float64 `json:"sharpeRatio"`
	Alpha            float64 `json:"alpha"`
	Beta             float64 `json:"beta"`
	StartValue       float64 `json:"startValue"`
	EndValue         float64 `json:"endValue"`
}

type PerformanceReport struct {
	Dates           []string           `json:"dates"`
	PortfolioValues []float64          `json:"portfolioValues"`
	Metrics         PerformanceMetrics `json:"metrics"`
}

// DrawdownPeriod is a stretch of the value curve spent below a prior peak.
// Duration and RecoveryDays are calendar days.
type DrawdownPeriod struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Trough       time.Time `json:"trough"`
	StartIndex   int       `json:"startIndex"`
	EndIndex     int       `json:"endIndex"`
	TroughIndex  int       `json:"troughIndex"`
	Duration     int       `json:"duration"`
	Depth        float64   `json:"depth"`
	Recovered    bool      `json:"recovered"`
	RecoveryDays int       `json:"recoveryDays"`
}

type DrawdownMetrics struct {
	MaxDrawdown         float64 `json:"maxDrawdown"`
	AvgDrawdownDuration float64 `json:"avgDrawdownDuration"`
	AvgRecoveryTime     float64 `json:"avgRecoveryTime"`
	CurrentDrawdown     float64 `json:"currentDrawdown"`
}

type DrawdownReport struct {
	Dates          []string          `json:"dates"`
	DrawdownValues []float64         `json:"drawdownValues"`
	Periods        []*DrawdownPeriod `json:"periods"`
	Metrics        DrawdownMetrics   `json:"metrics"`
}

type AllocationReport struct {
	Assets      []string  `json:"assets"`
	Allocations []float64 `json:"allocations"`
}

type RiskReturnReport struct {
	Assets          []string  `json:"assets"`
	Returns         []float64 `json:"returns"`
	Risks           []float64 `json:"risks"`
	PortfolioReturn float64   `json:"portfolioReturn"`
	PortfolioRisk   float64   `json:"portfolioRisk"`
}

// DistributionReport is a histogram; Bins holds the lower edge of each bin
type DistributionReport struct {
	Bins        []float64 `json:"bins"`
	Frequencies []int     `json:"frequencies"`
	BinWidth    float64   `json:"binWidth"`
}

type CorrelationReport struct {
	Labels []string    `json:"labels"`
	Matrix [][]float64 `json:"correlationMatrix"`
}

// Analysis bundles every report derived from a single valuation series
type Analysis struct {
	Period              Period             `json:"period"`
	StartDate           string             `json:"startDate"`
	EndDate             string             `json:"endDate"`
	Performance         PerformanceReport  `json:"performance"`
	Drawdown            DrawdownReport     `json:"drawdown"`
	Allocation          AllocationReport   `json:"allocation"`
	RiskReturn          RiskReturnReport   `json:"riskReturn"`
	ReturnsDistribution DistributionReport `json:"returnsDistribution"`
	Correlation         CorrelationReport  `json:"correlation"`
}

// Analyze runs every metric over the series. A series without instruments
// yields empty reports.
func Analyze(series *ValuationSeries) *Analysis {
	if len(series.Instruments) == 0 {
		series = &ValuationSeries{
			Dates:       []time.Time{},
			Values:      []float64{},
			Returns:     []float64{},
			Instruments: []*InstrumentSeries{},
		}
	}

	analysis := &Analysis{
		Performance:         Performance(series),
		Drawdown:            Drawdown(series),
		Allocation:          Allocation(series),
		RiskReturn:          RiskReturn(series),
		ReturnsDistribution: ReturnsDistribution(series),
		Correlation:         Correlation(series),
	}

	if n := series.Len(); n > 0 {
		analysis.StartDate = series.Dates[0].Format(DateLayout)
		analysis.EndDate = series.Dates[n-1].Format(DateLayout)
	}

	return analysis
}
