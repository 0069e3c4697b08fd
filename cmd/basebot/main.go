// Basebot - session-driven volume trading bot for Base
//
// The process hosts two activities sharing one relational store: a polling
// trading loop that executes buy/sell swaps for the active session, and an
// HTTP API that starts/stops sessions and reports wallet status.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/basebot/internal/api"
	"github.com/web3guy0/basebot/internal/chain"
	"github.com/web3guy0/basebot/internal/config"
	"github.com/web3guy0/basebot/internal/database"
	"github.com/web3guy0/basebot/internal/indexer"
	"github.com/web3guy0/basebot/internal/notify"
	"github.com/web3guy0/basebot/internal/trader"
)

const version = "1.0.0"

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load environment
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().
		Str("version", version).
		Int64("chain_id", cfg.ChainID).
		Int("port", cfg.Port).
		Msg("Basebot starting...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Chain client
	chainClient, err := chain.Dial(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect chain client")
	}
	defer chainClient.Close()

	// Trading engine
	engine := trader.NewEngine(cfg, db, chainClient)

	// Indexing API for verbose transaction decoding
	if cfg.MoralisAPIKey != "" {
		engine.SetIndexer(indexer.NewClient(cfg.MoralisAPIURL, cfg.MoralisAPIKey))
		log.Info().Msg("Moralis indexing client enabled")
	} else {
		log.Warn().Msg("MORALIS_API_KEY not set, verbose transaction decoding disabled")
	}

	// Optional Telegram notifications
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		notifier, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("Telegram setup failed, notifications disabled")
		} else {
			engine.SetNotifier(notifier)
		}
	}

	engine.Start(ctx)

	// HTTP API
	server := api.NewServer(cfg, db, chainClient, engine)
	server.Start()

	log.Info().Msg("All systems online")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Received shutdown signal")
	case <-engine.Done():
		log.Info().Str("state", engine.State().String()).Msg("Trading engine exited")
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}

	cancel()
	engine.Stop()

	log.Info().Msg("Goodbye!")
}
