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
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/viper"
)

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warning": zerolog.WarnLevel,
	"warn":    zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
	"panic":   zerolog.PanicLevel,
}

// SetupLogging configures the global zerolog logger from the log.* viper keys
func SetupLogging() {
	level := strings.ToLower(viper.GetString("log.level"))
	if zl, ok := logLevels[level]; ok {
		log.Info().Str("Level", level).Msg("setting logging level")
		zerolog.SetGlobalLevel(zl)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	if viper.GetBool("log.report_caller") {
		log.Logger = log.With().Caller().Logger()
	}

	pretty := viper.GetBool("log.pretty")
	switch output := viper.GetString("log.output"); output {
	case "", "stdout":
		log.Logger = log.Output(logWriter(os.Stdout, pretty))
	case "stderr":
		log.Logger = log.Output(logWriter(os.Stderr, pretty))
	default:
		// the file handle lives for the rest of the process
		fh, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		if err != nil {
			panic(err)
		}
		log.Logger = log.Output(logWriter(fh, pretty))
	}

	// setup stack marshaler
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

func logWriter(out *os.File, pretty bool) io.Writer {
	if pretty {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return out
}

// GetTimezone returns the reference timezone used for scheduling jobs
func GetTimezone() *time.Location {
	tz, err := time.LoadLocation(viper.GetString("refresh.timezone"))
	if err != nil {
		log.Warn().Err(err).Str("Timezone", viper.GetString("refresh.timezone")).Msg("could not load timezone, falling back to UTC")
		return time.UTC
	}
	return tz
}
