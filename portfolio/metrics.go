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
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	TradingDaysPerYear = 252
	RiskFreeRate       = 0.005

	// placeholders until benchmark regression is implemented
	PlaceholderAlpha = 0.0
	PlaceholderBeta  = 1.0

	// instruments with too little history report these values (percent)
	PlaceholderReturn = 5.0
	PlaceholderRisk   = 10.0

	// allocations below this percent are omitted
	MinAllocationPercent = 0.1

	minHistogramBins = 5
	maxHistogramBins = 20
	defaultBinWidth  = 0.5
)

// Metric functions operate on plain slices so they can be applied to any
// value curve. Percent results are scaled by 100.

// TotalReturn is the percent change between the first and last value
func TotalReturn(values []float64) float64 {
	if len(values) == 0 || values[0] <= 0 {
		return 0
	}
	return (values[len(values)-1]/values[0] - 1) * 100
}

// AnnualizedReturn compounds the first-to-last growth over the calendar days
// between the first and last date. The result is a fraction, not a percent.
func AnnualizedReturn(dates []time.Time, values []float64) float64 {
	if len(values) == 0 || len(dates) != len(values) || values[0] <= 0 {
		return 0
	}

	daysHeld := daysBetween(dates[0], dates[len(dates)-1])
	if daysHeld <= 0 {
		return 0
	}

	return math.Pow(values[len(values)-1]/values[0], 365/float64(daysHeld)) - 1
}

// Volatility is the population standard deviation of daily returns scaled
// to a year. The result is a fraction.
func Volatility(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return stat.PopStdDev(returns, nil) * math.Sqrt(TradingDaysPerYear)
}

// SharpeRatio of an annualized return and volatility (both fractions)
// against the fixed risk free rate. Returns 0 when volatility is 0.
func SharpeRatio(annualizedReturn, volatility float64) float64 {
	if volatility == 0 {
		return 0
	}
	return (annualizedReturn - RiskFreeRate) / volatility
}

// Performance computes the performance report of a valuation series
func Performance(series *ValuationSeries) PerformanceReport {
	annualized := AnnualizedReturn(series.Dates, series.Values)
	volatility := Volatility(series.Returns)

	report := PerformanceReport{
		Dates:           formatDates(series.Dates),
		PortfolioValues: append([]float64{}, series.Values...),
		Metrics: PerformanceMetrics{
			TotalReturn:      TotalReturn(series.Values),
			AnnualizedReturn: annualized * 100,
			Volatility:       volatility * 100,
			SharpeRatio:      SharpeRatio(annualized, volatility),
		},
	}

	if n := len(series.Values); n > 0 {
		report.Metrics.StartValue = series.Values[0]
		report.Metrics.EndValue = series.Values[n-1]
		report.Metrics.Alpha = PlaceholderAlpha
		report.Metrics.Beta = PlaceholderBeta
	}

	return report
}

// Drawdowns returns the percent decline from the running peak at every
// point (always <= 0) and the drawdown periods. A period opens on the first
// negative point and closes when the curve regains its peak; a period still
// open at the end of the series is returned with Recovered set to false.
func Drawdowns(dates []time.Time, values []float64) ([]float64, []*DrawdownPeriod) {
	drawdown := make([]float64, len(values))
	periods := []*DrawdownPeriod{}
	if len(values) == 0 {
		return drawdown, periods
	}

	peak := values[0]
	var current *DrawdownPeriod
	for ii, v := range values {
		if v >= peak {
			peak = v
			if current != nil {
				current.close(dates, ii, true)
				periods = append(periods, current)
				current = nil
			}
			continue
		}

		if peak > 0 {
			drawdown[ii] = (v - peak) / peak * 100
		}
		if drawdown[ii] == 0 {
			continue
		}

		if current == nil {
			current = &DrawdownPeriod{
				StartIndex:  ii,
				Start:       dates[ii],
				TroughIndex: ii,
				Depth:       drawdown[ii],
			}
		}
		if drawdown[ii] < current.Depth {
			current.Depth = drawdown[ii]
			current.TroughIndex = ii
		}
	}

	if current != nil {
		current.close(dates, len(values)-1, false)
		periods = append(periods, current)
	}

	return drawdown, periods
}

func (dd *DrawdownPeriod) close(dates []time.Time, endIdx int, recovered bool) {
	dd.EndIndex = endIdx
	dd.End = dates[endIdx]
	dd.Duration = daysBetween(dates[dd.StartIndex], dates[endIdx])
	dd.Trough = dates[dd.TroughIndex]
	dd.Recovered = recovered
	if recovered {
		dd.RecoveryDays = daysBetween(dates[dd.TroughIndex], dates[endIdx])
	}
}

// Drawdown computes the drawdown report of a valuation series
func Drawdown(series *ValuationSeries) DrawdownReport {
	values, periods := Drawdowns(series.Dates, series.Values)
	report := DrawdownReport{
		Dates:          formatDates(series.Dates),
		DrawdownValues: values,
		Periods:        periods,
	}

	if len(values) == 0 {
		return report
	}

	report.Metrics.MaxDrawdown = values[0]
	for _, v := range values {
		if v < report.Metrics.MaxDrawdown {
			report.Metrics.MaxDrawdown = v
		}
	}
	report.Metrics.CurrentDrawdown = values[len(values)-1]

	var durations, recoveries []float64
	for _, dd := range periods {
		if !dd.Recovered {
			continue
		}
		durations = append(durations, float64(dd.Duration))
		recoveries = append(recoveries, float64(dd.RecoveryDays))
	}
	if len(durations) > 0 {
		report.Metrics.AvgDrawdownDuration = stat.Mean(durations, nil)
		report.Metrics.AvgRecoveryTime = stat.Mean(recoveries, nil)
	}

	return report
}

// Allocation reports each instrument's share of the latest portfolio value
func Allocation(series *ValuationSeries) AllocationReport {
	report := AllocationReport{
		Assets:      []string{},
		Allocations: []float64{},
	}

	n := len(series.Values)
	if n == 0 || series.Values[n-1] <= 0 {
		return report
	}

	total := series.Values[n-1]
	for _, inst := range series.Instruments {
		pct := inst.Values[n-1] / total * 100
		if pct < MinAllocationPercent {
			continue
		}
		report.Assets = append(report.Assets, inst.Symbol)
		report.Allocations = append(report.Allocations, pct)
	}

	return report
}

// AnnualizedMeanReturn scales the mean daily return to a year, in percent
func AnnualizedMeanReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return stat.Mean(returns, nil) * TradingDaysPerYear * 100
}

// AnnualizedRisk scales the population standard deviation of daily returns
// to a year, in percent
func AnnualizedRisk(returns []float64) float64 {
	return Volatility(returns) * 100
}

// commonReturnLen is the length of the shortest return series among
// instruments with at least two returns, or math.MaxInt when there is none
func commonReturnLen(instruments []*InstrumentSeries) int {
	minLen := math.MaxInt
	for _, inst := range instruments {
		if len(inst.Returns) >= 2 && len(inst.Returns) < minLen {
			minLen = len(inst.Returns)
		}
	}
	return minLen
}

func truncate(x []float64, n int) []float64 {
	if len(x) > n {
		return x[:n]
	}
	return x
}

// RiskReturn reports the annualized return and risk of every instrument
// and of the portfolio as a whole. Instrument returns are truncated to the
// shortest common length the same way Correlation does.
func RiskReturn(series *ValuationSeries) RiskReturnReport {
	report := RiskReturnReport{
		Assets:          []string{},
		Returns:         []float64{},
		Risks:           []float64{},
		PortfolioReturn: AnnualizedMeanReturn(series.Returns),
		PortfolioRisk:   AnnualizedRisk(series.Returns),
	}

	minLen := commonReturnLen(series.Instruments)
	for _, inst := range series.Instruments {
		ret, risk := PlaceholderReturn, PlaceholderRisk
		if inst.HistoryLen >= 2 {
			returns := truncate(inst.Returns, minLen)
			ret = AnnualizedMeanReturn(returns)
			risk = AnnualizedRisk(returns)
		}
		report.Assets = append(report.Assets, inst.Symbol)
		report.Returns = append(report.Returns, ret)
		report.Risks = append(report.Risks, risk)
	}

	return report
}

// Histogram bins x using the Freedman-Diaconis rule. The bin count is
// range/width rounded up, clamped to [5, 20] and bins span [min, max] with equal width; when every
// sample is equal the span is widened by half a unit on each side.
func Histogram(x []float64) DistributionReport {
	report := DistributionReport{
		Bins:        []float64{},
		Frequencies: []int{},
	}
	if len(x) == 0 {
		return report
	}

	sorted := append([]float64{}, x...)
	sort.Float64s(sorted)

	iqr := stat.Quantile(0.75, stat.LinInterp, sorted, nil) - stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	width := defaultBinWidth
	if iqr > 0 {
		width = 2 * iqr * math.Pow(float64(len(sorted)), -1.0/3.0)
	}

	lo, hi := sorted[0], sorted[len(sorted)-1]
	numBins := int(math.Ceil((hi - lo) / width))
	if numBins < minHistogramBins {
		numBins = minHistogramBins
	}
	if numBins > maxHistogramBins {
		numBins = maxHistogramBins
	}

	if hi == lo {
		lo -= 0.5
		hi += 0.5
	}
	binWidth := (hi - lo) / float64(numBins)

	report.BinWidth = binWidth
	report.Bins = make([]float64, numBins)
	report.Frequencies = make([]int, numBins)
	for ii := range report.Bins {
		report.Bins[ii] = lo + float64(ii)*binWidth
	}
	for _, v := range sorted {
		bin := int((v - lo) / binWidth)
		if bin >= numBins {
			bin = numBins - 1
		}
		report.Frequencies[bin]++
	}

	return report
}

// ReturnsDistribution bins the portfolio's daily returns expressed in
// percent
func ReturnsDistribution(series *ValuationSeries) DistributionReport {
	pct := make([]float64, len(series.Returns))
	for ii, r := range series.Returns {
		pct[ii] = r * 100
	}
	return Histogram(pct)
}

// Correlation computes the Pearson correlation matrix of instrument daily
// returns. Only instruments with at least two returns take part and every
// series is truncated to the shortest one without aligning dates.
func Correlation(series *ValuationSeries) CorrelationReport {
	report := CorrelationReport{
		Labels: []string{},
		Matrix: [][]float64{},
	}

	var labels []string
	var returns [][]float64
	minLen := commonReturnLen(series.Instruments)
	for _, inst := range series.Instruments {
		if len(inst.Returns) < 2 {
			continue
		}
		labels = append(labels, inst.Symbol)
		returns = append(returns, truncate(inst.Returns, minLen))
	}

	if len(labels) < 2 {
		return report
	}

	n := len(labels)
	matrix := make([][]float64, n)
	for ii := range matrix {
		matrix[ii] = make([]float64, n)
		matrix[ii][ii] = 1
	}

	for ii := 0; ii < n; ii++ {
		for jj := ii + 1; jj < n; jj++ {
			corr := stat.Correlation(returns[ii], returns[jj], nil)
			if math.IsNaN(corr) || math.IsInf(corr, 0) {
				corr = 0
			}
			matrix[ii][jj] = corr
			matrix[jj][ii] = corr
		}
	}

	report.Labels = labels
	report.Matrix = matrix
	return report
}
