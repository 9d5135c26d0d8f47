// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command tg-editorial-relay is a Telegram bot that relays anonymous
// submissions from private chats into a moderation group and routes the
// group's replies back to the authors.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	flag "maunium.net/go/mauflag"

	"github.com/aiku/tg-editorial-relay/pkg/relay"
	"github.com/aiku/tg-editorial-relay/pkg/relay/telegram"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	configPath  = flag.MakeFull("c", "config", "The path to the config file.", "config.yaml").String()
	envFile     = flag.MakeFull("e", "env-file", "A .env file with RELAY_* overrides.", ".env").String()
	noUpdate    = flag.MakeFull("n", "no-update", "Don't write the upgraded config back to disk.", "false").Bool()
	showVersion = flag.MakeFull("v", "version", "Print the version and exit.", "false").Bool()
	wantHelp, _ = flag.MakeHelpFlag()
)

func main() {
	flag.SetHelpTitles(
		"tg-editorial-relay - anonymous submission relay for a Telegram moderation group.",
		"tg-editorial-relay [-hnv] [-c <path>] [-e <path>]",
	)
	if err := flag.Parse(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		flag.PrintHelp()
		os.Exit(1)
	} else if *wantHelp {
		flag.PrintHelp()
		os.Exit(0)
	} else if *showVersion {
		fmt.Printf("tg-editorial-relay %s (commit %s, built %s)\n", Tag, Commit, BuildTime)
		os.Exit(0)
	}
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, "Failed to load env file:", err)
		return 10
	}

	cfg, err := relay.LoadConfig(*configPath, !*noUpdate)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		return 10
	}

	log, err := cfg.Logging.Compile()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		return 11
	}
	log.Info().
		Str("version", Tag).
		Str("commit", Commit).
		Str("built_at", BuildTime).
		Msg("Initializing tg-editorial-relay")

	bans := relay.NewBanList(cfg.Relay.BanListPath, *log)
	if err = bans.Load(); err != nil {
		log.Warn().Err(err).Msg("Failed to create initial ban list file")
	}

	client, err := telegram.NewClient(cfg.Telegram, *log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to Telegram")
		return 12
	}

	var (
		reg     = newRegistry()
		metrics *relay.Metrics
	)
	if cfg.Metrics.Enabled {
		metrics = relay.NewMetrics(reg)
	}

	engine := relay.NewEngine(relay.EngineParams{
		Transport:            client,
		Bans:                 bans,
		GroupID:              cfg.Relay.GroupID,
		BotID:                client.BotID(),
		EditWindow:           cfg.Relay.EditWindow,
		CorrelationRetention: cfg.Relay.CorrelationRetention,
		WelcomeText:          cfg.Relay.WelcomeText,
		Metrics:              metrics,
		Log:                  *log,
	})
	if cfg.Metrics.Enabled {
		if err = relay.RegisterStateGauges(reg, engine.Correlations(), bans); err != nil {
			log.Error().Err(err).Msg("Failed to register state gauges")
			return 11
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var background sync.WaitGroup
	background.Add(2)
	go func() {
		defer background.Done()
		bans.RunPeriodicFlush(ctx, cfg.Relay.FlushInterval)
	}()
	go func() {
		defer background.Done()
		engine.RunMaintenance(ctx, 0)
	}()
	if cfg.Metrics.Enabled {
		background.Add(1)
		go func() {
			defer background.Done()
			serveMetrics(ctx, cfg.Metrics.Listen, reg, *log)
		}()
	}

	log.Info().
		Int64("group_id", cfg.Relay.GroupID).
		Str("bot_username", client.Username()).
		Msg("Relay started")
	client.Run(ctx, engine)
	background.Wait()

	if err = bans.Save(); err != nil {
		log.Error().Err(err).Msg("Final ban list flush failed")
		return 13
	}
	log.Info().Msg("Relay stopped")
	return 0
}
