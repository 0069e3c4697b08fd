package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the bot
type Config struct {
	// HTTP API
	Port int

	// Chain
	RPCEndpoint   string
	ChainID       int64
	RouterAddress string
	WETHAddress   string
	TokenDecimals int32

	// Trading loop
	IdlePollInterval time.Duration
	ReceiptTimeout   time.Duration

	// Moralis indexing API
	MoralisAPIURL string
	MoralisAPIKey string

	// Telegram notifications (optional)
	TelegramToken  string
	TelegramChatID int64

	// Mode
	Debug bool

	// Database
	DatabasePath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),

		// Chain defaults target Base mainnet
		RPCEndpoint:   os.Getenv("RPC_ENDPOINT"),
		ChainID:       int64(getEnvInt("CHAIN_ID", 8453)),
		RouterAddress: getEnv("ROUTER_ADDRESS", "0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24"),
		WETHAddress:   getEnv("WETH_ADDRESS", "0x4200000000000000000000000000000000000006"),
		TokenDecimals: int32(getEnvInt("TOKEN_DECIMALS", 9)),

		IdlePollInterval: getEnvDuration("IDLE_POLL_INTERVAL", 3*time.Second),
		ReceiptTimeout:   getEnvDuration("RECEIPT_TIMEOUT", 0),

		MoralisAPIURL: getEnv("MORALIS_API_URL", "https://deep-index.moralis.io/api/v2.2"),
		MoralisAPIKey: os.Getenv("MORALIS_API_KEY"),

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		Debug: getEnvBool("DEBUG", false),

		DatabasePath: getEnv("DATABASE_PATH", "data/basebot.db"),
	}

	// Parse chat ID
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	// Validate required fields
	if cfg.RPCEndpoint == "" {
		return nil, fmt.Errorf("RPC_ENDPOINT is required")
	}
	if cfg.IdlePollInterval <= 0 {
		return nil, fmt.Errorf("IDLE_POLL_INTERVAL must be positive")
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
