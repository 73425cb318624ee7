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

package common

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// commitHash and buildDate are set by the mage build through -ldflags
	commitHash string
	buildDate  string
)

const programName = "pvfolio"

// Version is a SemVer 2.0.0 compatible build version
type Version struct {
	Major  int
	Minor  int
	Patch  int
	Suffix string // blank for release builds
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Suffix == "" {
		return s
	}

	s = fmt.Sprintf("%s-%s", s, v.Suffix)
	if commitHash != "" {
		s = fmt.Sprintf("%s+%s", s, strings.ToLower(commitHash))
	}
	return s
}

// MarshalZerologObject implement the log marshaller interface for zerolog
func (v Version) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Version", v.String()).Str("BuildDate", buildDateOrUnknown()).Str("Commit", commitHash)
}

// DependencyList returns the module dependencies compiled into the binary
// sorted and formatted as path="version"
func DependencyList() []string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return []string{}
	}

	deps := make([]string, 0, len(bi.Deps))
	for _, dep := range bi.Deps {
		deps = append(deps, fmt.Sprintf("%s=%q", dep.Path, dep.Version))
	}
	sort.Strings(deps)
	return deps
}

// BuildVersionString creates the text printed by "pvfolio version"
func BuildVersionString(withDeps bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s v%s %s/%s\n\n", programName, CurrentVersion, runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&sb, "Build Date: %s\n", buildDateOrUnknown())
	fmt.Fprintf(&sb, "Commit: %s\n", commitHash)
	fmt.Fprintf(&sb, "Built with: %s", runtime.Version())

	if withDeps {
		sb.WriteString("\n\nDependencies:\n\n")
		sb.WriteString(strings.Join(DependencyList(), "\n"))
	}

	return sb.String()
}

func buildDateOrUnknown() string {
	if buildDate == "" {
		return "unknown"
	}
	return buildDate
}
