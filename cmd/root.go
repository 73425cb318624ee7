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

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/penny-vault/pv-folio/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Profile bool
var Trace bool

func bindFlag(key, env string, flag string) {
	viper.BindEnv(key, env)
	viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
}

func init() {
	// Database
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	bindFlag("database.url", "DATABASE_URL", "database-url")

	rootCmd.PersistentFlags().String("store", "memory", "Portfolio store, one of: `memory` or `postgres`")
	bindFlag("store.kind", "PVFOLIO_STORE", "store")

	// Result cache
	rootCmd.PersistentFlags().Bool("cache-redis", false, "Share computed results through redis")
	bindFlag("cache.redis", "PVFOLIO_CACHE_REDIS", "cache-redis")

	rootCmd.PersistentFlags().String("cache-redis-url", "redis://localhost:6379/0", "Redis connection string")
	bindFlag("cache.redis_url", "REDIS_URL", "cache-redis-url")

	rootCmd.PersistentFlags().Int("cache-local-size", 1024, "Number of results kept in process")
	bindFlag("cache.local_size", "PVFOLIO_CACHE_LOCAL_SIZE", "cache-local-size")

	rootCmd.PersistentFlags().Duration("cache-ttl", time.Hour, "Lifetime of a cached result")
	bindFlag("cache.ttl", "PVFOLIO_CACHE_TTL", "cache-ttl")

	// Market data
	rootCmd.PersistentFlags().Duration("provider-timeout", 10*time.Second, "Timeout for market data requests")
	bindFlag("provider.timeout", "PVFOLIO_PROVIDER_TIMEOUT", "provider-timeout")

	// Price refresh
	rootCmd.PersistentFlags().String("refresh-schedule", "0 18 * * 1-5", "Cron schedule for refreshing prices; empty disables")
	bindFlag("refresh.schedule", "PVFOLIO_REFRESH_SCHEDULE", "refresh-schedule")

	rootCmd.PersistentFlags().String("refresh-timezone", "America/New_York", "Timezone the refresh schedule is evaluated in")
	bindFlag("refresh.timezone", "PVFOLIO_REFRESH_TIMEZONE", "refresh-timezone")

	// Stress scenarios
	rootCmd.PersistentFlags().String("stress-scenarios", "", "TOML file with additional or replacement stress scenarios")
	bindFlag("stress.scenarios_file", "PVFOLIO_STRESS_SCENARIOS", "stress-scenarios")

	// Tracing
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OTLP collector endpoint; empty disables tracing")
	bindFlag("otlp.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT", "otlp-endpoint")

	rootCmd.PersistentFlags().Bool("otlp-http", false, "Export spans over HTTP instead of gRPC")
	bindFlag("otlp.http", "PVFOLIO_OTLP_HTTP", "otlp-http")

	// Logging configuration
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	bindFlag("log.level", "PVFOLIO_LOG_LEVEL", "log-level")

	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	bindFlag("log.report_caller", "PVFOLIO_LOG_REPORT_CALLER", "log-report-caller")

	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	bindFlag("log.output", "PVFOLIO_LOG_OUTPUT", "log-output")

	rootCmd.PersistentFlags().Bool("log-pretty", false, "Write human readable logs instead of JSON")
	bindFlag("log.pretty", "PVFOLIO_LOG_PRETTY", "log-pretty")

	rootCmd.PersistentFlags().BoolVar(&Profile, "cpu-profile", false, "Run pprof and save in profile.out")
	rootCmd.PersistentFlags().BoolVar(&Trace, "trace", false, "Trace program execution and save in trace.out")
}

var rootCmd = &cobra.Command{
	Use:     "pvfolio",
	Version: common.CurrentVersion.String(),
	Short:   "pvfolio tracks investment portfolios",
	Long:    `Track holdings and transactions, value them against daily closing prices and compute performance, risk and stress test reports.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
