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
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("holding already in portfolio")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidPeriod      = errors.New("invalid period")
	ErrInvalidDate        = errors.New("could not parse date")
	ErrOversell           = errors.New("sell quantity exceeds held quantity")
	ErrUnknownScenario    = errors.New("unknown stress scenario")
	ErrInvalidCSV         = errors.New("invalid csv")
	ErrEmptyName          = errors.New("portfolio name cannot be empty")
	ErrEmptySymbol        = errors.New("symbol cannot be empty")
	ErrGenerateHash       = errors.New("could not generate hash")
)

var (
	ErrPortfolioNotFound   = fmt.Errorf("portfolio %w", ErrNotFound)
	ErrHoldingNotFound     = fmt.Errorf("holding %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
)
