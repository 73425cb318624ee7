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
	"fmt"
	"strings"
	"time"
)

type Period string

const (
	OneMonth    Period = "1m"
	ThreeMonths Period = "3m"
	SixMonths   Period = "6m"
	YearToDate  Period = "ytd"
	OneYear     Period = "1y"
	ThreeYears  Period = "3y"
	FiveYears   Period = "5y"
	AllTime     Period = "all"
)

var periods = []Period{OneMonth, ThreeMonths, SixMonths, YearToDate, OneYear, ThreeYears, FiveYears, AllTime}

// ParsePeriod validates a period token. An empty token means one month.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return OneMonth, nil
	}
	for _, p := range periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Window resolves the period to a [start, end] range ending on today.
// AllTime starts at the portfolio's earliest transaction; ok is false when
// there is none.
func (p Period) Window(port *Portfolio, today time.Time) (start, end time.Time, ok bool) {
	end = NormalizeDate(today)
	switch p {
	case OneMonth:
		start = end.AddDate(0, -1, 0)
	case ThreeMonths:
		start = end.AddDate(0, -3, 0)
	case SixMonths:
		start = end.AddDate(0, -6, 0)
	case YearToDate:
		start = time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case OneYear:
		start = end.AddDate(-1, 0, 0)
	case ThreeYears:
		start = end.AddDate(-3, 0, 0)
	case FiveYears:
		start = end.AddDate(-5, 0, 0)
	case AllTime:
		earliest, found := port.EarliestTransaction()
		if !found {
			return time.Time{}, time.Time{}, false
		}
		start = earliest
	default:
		return time.Time{}, time.Time{}, false
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
