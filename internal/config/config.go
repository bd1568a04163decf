package config

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                string
	DBPath              string
	StockfishPath       string
	AnalysisDepth       int
	AnalysisDeepDepth   int
	AnalysisLines       int
	EvalTimeout         time.Duration
	EnginePoolSize      int
	LogLevel            string
	AnalysisWorkerCount int
	AnalysisQueueSize   int
	// ThresholdsPath points at an optional TOML file overriding analysis thresholds.
	ThresholdsPath string
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                envOr("ADDR", ":8080"),
		DBPath:              envOr("DB_PATH", "file:chesscoach.db"),
		StockfishPath:       envOr("STOCKFISH_PATH", "stockfish"),
		AnalysisDepth:       envIntOr("ANALYSIS_DEPTH", 15),
		AnalysisDeepDepth:   envIntOr("ANALYSIS_DEEP_DEPTH", 20),
		AnalysisLines:       envIntOr("ANALYSIS_LINES", 3),
		EvalTimeout:         time.Duration(envIntOr("EVAL_TIMEOUT_MS", 10000)) * time.Millisecond,
		EnginePoolSize:      envIntOr("ENGINE_POOL_SIZE", 1),
		LogLevel:            envOr("LOG_LEVEL", "INFO"),
		AnalysisWorkerCount: envIntOr("ANALYSIS_WORKER_COUNT", 1),
		AnalysisQueueSize:   envIntOr("ANALYSIS_QUEUE_SIZE", 32),
		ThresholdsPath:      envOr("ANALYSIS_CONFIG", "chesscoach.toml"),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []string

	if c.Addr == "" {
		errs = append(errs, "ADDR cannot be empty")
	}
	if c.DBPath == "" {
		errs = append(errs, "DB_PATH cannot be empty")
	}
	if c.StockfishPath != "" {
		if _, err := exec.LookPath(c.StockfishPath); err != nil {
			errs = append(errs, fmt.Sprintf("STOCKFISH_PATH %q not found: %v", c.StockfishPath, err))
		}
	}
	if c.AnalysisDepth < 1 || c.AnalysisDepth > 40 {
		errs = append(errs, fmt.Sprintf("ANALYSIS_DEPTH must be between 1 and 40, got %d", c.AnalysisDepth))
	}
	if c.AnalysisDeepDepth < c.AnalysisDepth || c.AnalysisDeepDepth > 40 {
		errs = append(errs, fmt.Sprintf("ANALYSIS_DEEP_DEPTH must be between ANALYSIS_DEPTH and 40, got %d", c.AnalysisDeepDepth))
	}
	if c.AnalysisLines < 1 || c.AnalysisLines > 10 {
		errs = append(errs, fmt.Sprintf("ANALYSIS_LINES must be between 1 and 10, got %d", c.AnalysisLines))
	}
	if c.EvalTimeout < 0 {
		errs = append(errs, fmt.Sprintf("EVAL_TIMEOUT_MS cannot be negative, got %v", c.EvalTimeout))
	}
	if c.EnginePoolSize < 1 {
		errs = append(errs, fmt.Sprintf("ENGINE_POOL_SIZE must be at least 1, got %d", c.EnginePoolSize))
	}
	if c.AnalysisWorkerCount < 1 {
		errs = append(errs, fmt.Sprintf("ANALYSIS_WORKER_COUNT must be at least 1, got %d", c.AnalysisWorkerCount))
	}
	if c.AnalysisQueueSize < 1 {
		errs = append(errs, fmt.Sprintf("ANALYSIS_QUEUE_SIZE must be at least 1, got %d", c.AnalysisQueueSize))
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
