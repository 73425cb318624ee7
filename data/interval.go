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

package data

import (
	"time"

	"github.com/rs/zerolog"
)

// Interval is a closed range of calendar days. The zero Interval means the
// full available history.
type Interval struct {
	Begin time.Time
	End   time.Time
}

// Max is the interval covering all available history
var Max = Interval{}

// IsMax returns true if the interval requests the full history
func (interval Interval) IsMax() bool {
	return interval.Begin.IsZero() && interval.End.IsZero()
}

// Contains returns true if t falls within the interval (daily resolution)
func (interval Interval) Contains(t time.Time) bool {
	if interval.IsMax() {
		return true
	}
	return !t.Before(interval.Begin) && !t.After(interval.End)
}

// Valid checks if the given interval is valid range and returns an error if not
func (interval Interval) Valid() error {
	if interval.Begin.After(interval.End) {
		return ErrBeginAfterEnd
	}
	return nil
}

// MarshalZerologObject implement the log marshaller interface for zerolog
func (interval Interval) MarshalZerologObject(e *zerolog.Event) {
	if interval.IsMax() {
		e.Str("Range", "max")
		return
	}
	e.Time("Begin", interval.Begin).Time("End", interval.End)
}
