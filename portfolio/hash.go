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
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

// computeTransactionSourceID calculates a 16-byte blake3 hash of the date,
// kind, quantity, price and fee of a transaction. Identical rows hash to
// the same id which lets imports detect duplicates.
func computeTransactionSourceID(t *Transaction) error {
	h := blake3.New()

	fields := []string{
		NormalizeDate(t.Date).Format(DateLayout),
		string(t.Kind),
		fmt.Sprintf("%.5f", t.Quantity),
		fmt.Sprintf("%.5f", t.Price),
		fmt.Sprintf("%.5f", t.Fee),
	}

	for _, field := range fields {
		if _, err := h.Write([]byte(field)); err != nil {
			log.Error().Stack().Err(err).Str("Field", field).Msg("could not write to blake3 hasher")
			return err
		}
		// field separator
		if _, err := h.Write([]byte{0}); err != nil {
			return err
		}
	}

	digest := h.Digest()
	buf := make([]byte, 16)
	n, err := digest.Read(buf)
	if err != nil {
		return err
	}
	if n != 16 {
		return ErrGenerateHash
	}

	t.SourceID = hex.EncodeToString(buf)
	return nil
}
