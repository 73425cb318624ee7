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

package data_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-folio/data"
)

var _ = Describe("Interval tests", func() {
	Context("with various date ranges", func() {
		interval := data.Interval{
			Begin: time.Date(2021, 8, 3, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2021, 8, 8, 0, 0, 0, 0, time.UTC),
		}

		DescribeTable("check containment",
			func(t time.Time, expected bool) {
				Expect(interval.Contains(t)).To(Equal(expected))
			},
			Entry("before begin", time.Date(2021, 8, 2, 0, 0, 0, 0, time.UTC), false),
			Entry("on begin", time.Date(2021, 8, 3, 0, 0, 0, 0, time.UTC), true),
			Entry("inside", time.Date(2021, 8, 5, 0, 0, 0, 0, time.UTC), true),
			Entry("on end", time.Date(2021, 8, 8, 0, 0, 0, 0, time.UTC), true),
			Entry("after end", time.Date(2021, 8, 9, 0, 0, 0, 0, time.UTC), false),
		)

		It("is valid when begin precedes end", func() {
			Expect(interval.Valid()).To(BeNil())
		})

		It("is invalid when begin follows end", func() {
			bad := data.Interval{Begin: interval.End, End: interval.Begin}
			Expect(bad.Valid()).To(MatchError(data.ErrBeginAfterEnd))
		})
	})

	Context("with the max interval", func() {
		It("contains every date", func() {
			Expect(data.Max.IsMax()).To(BeTrue())
			Expect(data.Max.Contains(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC))).To(BeTrue())
			Expect(data.Max.Valid()).To(BeNil())
		})
	})
})
