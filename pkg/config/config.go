package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/2019UGEC100/matching-engine-go/pkg/engine"
)

// Load configures the random order driver.
type Load struct {
	Workers         int
	OrdersPerWorker int
	Sleep           time.Duration
	MinQuantity     int64
	MaxQuantity     int64
	MinPrice        float64
	PriceSpread     int // prices are MinPrice + [0, PriceSpread)
}

type Config struct {
	Engine   engine.Config
	Load     Load
	LogLevel string
}

func Default() Config {
	return Config{
		Engine: engine.DefaultConfig(),
		Load: Load{
			Workers:         5,
			OrdersPerWorker: 100,
			Sleep:           10 * time.Millisecond,
			MinQuantity:     1,
			MaxQuantity:     100,
			MinPrice:        50.0,
			PriceSpread:     50,
		},
		LogLevel: "info",
	}
}

// LoadFromEnv loads configuration from a .env file (if it exists) and the environment.
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Engine.MaxSecurities = getInt("ENGINE_MAX_SECURITIES", cfg.Engine.MaxSecurities)
	cfg.Engine.MaxOrdersPerSide = getInt("ENGINE_MAX_ORDERS_PER_SIDE", cfg.Engine.MaxOrdersPerSide)
	cfg.Engine.MaxTrades = getInt("ENGINE_MAX_TRADES", cfg.Engine.MaxTrades)

	cfg.Load.Workers = getInt("LOAD_WORKERS", cfg.Load.Workers)
	cfg.Load.OrdersPerWorker = getInt("LOAD_ORDERS_PER_WORKER", cfg.Load.OrdersPerWorker)
	if ms := os.Getenv("LOAD_SLEEP_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v >= 0 {
			cfg.Load.Sleep = time.Duration(v) * time.Millisecond
		}
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt ignores unparsable values and keeps the default.
func getInt(key string, defaultValue int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return defaultValue
}
