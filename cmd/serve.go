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
	"context"
	"os"
	"os/signal"
	"runtime/pprof"
	"runtime/trace"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/penny-vault/pv-folio/common"
	"github.com/penny-vault/pv-folio/handler"
	"github.com/penny-vault/pv-folio/middleware"
	"github.com/penny-vault/pv-folio/observability/opentelemetry"
	"github.com/penny-vault/pv-folio/router"
	"github.com/penny-vault/pv-folio/scheduler"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	viper.BindEnv("server.allow_origins", "PVFOLIO_ALLOW_ORIGINS")
	serveCmd.Flags().String("allow-origins", "http://localhost:8080", "Comma separated list of origins allowed by CORS")
	viper.BindPFlag("server.allow_origins", serveCmd.Flags().Lookup("allow-origins"))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pvfolio server",
	Long:  `Run HTTP server that implements the portfolio API`,
	Run: func(cmd *cobra.Command, args []string) {
		if Profile {
			f, err := os.Create("profile.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create profile output file")
			}
			pprof.StartCPUProfile(f)
			defer pprof.StopCPUProfile()
		}

		if Trace {
			f, err := os.Create("trace.out")
			if err != nil {
				log.Fatal().Err(err).Msg("failed to create trace output file")
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Fatal().Err(err).Msg("failed to close trace file")
				}
			}()

			if err := trace.Start(f); err != nil {
				log.Fatal().Err(err).Msg("failed to start trace")
			}
			defer trace.Stop()
		}

		log.Info().EmbedObject(common.CurrentVersion).Msg("starting pvfolio")

		shutdownTracing, err := opentelemetry.Setup()
		if err != nil {
			log.Fatal().Err(err).Msg("could not setup tracing")
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				log.Error().Err(err).Msg("could not flush spans")
			}
		}()

		svc, cleanup, err := newService(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize portfolio service")
		}
		defer cleanup()

		// Create new Fiber instance
		app := fiber.New(fiber.Config{
			AppName:      "pvfolio",
			ErrorHandler: handler.ErrorHandler,
			JSONEncoder:  json.Marshal,
			JSONDecoder:  json.Unmarshal,
		})

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-c // block until signal is read
			log.Info().Str("Signal", sig.String()).Msg("received signal; shutting down")
			if err := app.Shutdown(); err != nil {
				log.Error().Err(err).Msg("error shutting down server")
			}
		}()

		// Configure CORS
		corsConfig := cors.Config{
			AllowOrigins: viper.GetString("server.allow_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		}
		app.Use(cors.New(corsConfig))

		// Setup logging and tracing middleware
		app.Use(middleware.NewLogger())
		app.Use(middleware.NewTracer())

		// Setup routes
		router.SetupRoutes(app, handler.New(svc))

		// Refresh prices on a schedule
		if spec := viper.GetString("refresh.schedule"); spec != "" {
			refresher, err := scheduler.New(spec, common.GetTimezone(), svc)
			if err != nil {
				log.Fatal().Err(err).Str("Schedule", spec).Msg("invalid refresh schedule")
			}
			refresher.Start()
			defer refresher.Stop()
		}

		err = app.Listen(":" + viper.GetString("server.port"))
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	},
}
