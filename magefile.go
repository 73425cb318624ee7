//go:build mage

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

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "pvfolio"
	modulePath = "github.com/penny-vault/pv-folio"
)

// goexe can be overridden with GOEXE=go1.18.3 mage build
var goexe = "go"

func init() {
	if exe := os.Getenv("GOEXE"); exe != "" {
		goexe = exe
	}
}

// versionFlags stamps the commit and build date into common
func versionFlags() (string, map[string]string) {
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = ""
	}
	env := map[string]string{
		"COMMIT_HASH": commit,
		"BUILD_DATE":  time.Now().UTC().Format(time.RFC3339),
	}
	flags := fmt.Sprintf("-X %[1]s/common.commitHash=$COMMIT_HASH -X %[1]s/common.buildDate=$BUILD_DATE", modulePath)
	return flags, env
}

// Build compiles the pvfolio binary into the working directory
func Build() error {
	flags, env := versionFlags()
	return sh.RunWith(env, goexe, "build", "-o", binaryName, "-ldflags", flags, ".")
}

// Install places pvfolio in GOBIN
func Install() error {
	flags, env := versionFlags()
	return sh.RunWith(env, goexe, "install", "-ldflags", flags, ".")
}

// Clean removes the built binary
func Clean() error {
	return sh.Rm(binaryName)
}

// Test runs every ginkgo suite
func Test() error {
	return sh.RunV(goexe, "test", "./...")
}

// TestRace runs every ginkgo suite with the race detector; the cache,
// store and scheduler suites exercise concurrent access
func TestRace() error {
	return sh.RunV(goexe, "test", "-race", "./...")
}

// Serve builds pvfolio and runs the server with pvfolio.toml
func Serve() error {
	mg.Deps(Build)
	return sh.RunV("./"+binaryName, "serve")
}
