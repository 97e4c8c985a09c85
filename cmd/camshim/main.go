/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/carverauto/camshim/pkg/bridge"
	"github.com/carverauto/camshim/pkg/config"
	"github.com/carverauto/camshim/pkg/lifecycle"
	"github.com/carverauto/camshim/pkg/logger"
	"github.com/carverauto/camshim/pkg/version"
)

var errFailedToLoadConfig = errors.New("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/camshim/camshim.json", "Path to camshim config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion())
		return nil
	}

	ctx := context.Background()

	var cfg bridge.Config

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	mainLogger, err := lifecycle.CreateComponentLogger(ctx, "camshim", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if shutdownErr := lifecycle.ShutdownLogger(); shutdownErr != nil {
			mainLogger.Error().Err(shutdownErr).Msg("Error shutting down logger")
		}
	}()

	if _, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version.GetVersion(),
		OTel:           &logConfig.OTel,
	}); err != nil && !errors.Is(err, logger.ErrOTelMetricsDisabled) {
		return err
	}

	if _, err := logger.InitializeTracing(ctx, cfg.ServiceName, version.GetVersion(), &logConfig.OTel); err != nil &&
		!errors.Is(err, logger.ErrOTelTracingDisabled) {
		return err
	}

	svc, err := bridge.NewService(&cfg, mainLogger)
	if err != nil {
		return err
	}

	mainLogger.Info().
		Str("version", version.GetFullVersion()).
		Str("listen_addr", cfg.ListenAddr).
		Int("devices", len(cfg.Devices)).
		Msg("Starting camshim")

	return lifecycle.RunService(ctx, &lifecycle.ServiceOptions{
		ServiceName:     cfg.ServiceName,
		Service:         svc,
		Logger:          mainLogger,
		ShutdownTimeout: time.Duration(cfg.ShutdownTimeout),
	})
}
