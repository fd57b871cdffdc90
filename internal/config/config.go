// Package config holds the client configuration: backend origin, persona and
// local data locations. Values come from compiled-in defaults overridden by
// environment variables, with .env support for development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// defaultAPIBaseURL selects the production backend origin when no override
// is present.
const defaultAPIBaseURL = "https://sagealpha-backend-render.onrender.com"

type Config struct {
	APIBaseURL string `json:"api_base_url"`
	Assistant  string `json:"assistant"`

	DataDir    string `json:"data_dir"`
	ReportsDir string `json:"reports_dir"`

	RequestTimeout time.Duration `json:"request_timeout"`
	Debug          bool          `json:"debug"`
}

func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home, _ = os.Getwd()
	}
	dataDir := filepath.Join(home, ".sagealpha")

	cfg := &Config{
		APIBaseURL:     defaultAPIBaseURL,
		Assistant:      "sagealpha",
		DataDir:        dataDir,
		ReportsDir:     filepath.Join(dataDir, "reports"),
		RequestTimeout: 30 * time.Second,
	}

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("SAGEALPHA_API_URL"); val != "" {
		c.APIBaseURL = val
	}
	if val := os.Getenv("SAGEALPHA_ASSISTANT"); val != "" {
		c.Assistant = val
	}
	if val := os.Getenv("SAGEALPHA_DATA_DIR"); val != "" {
		c.DataDir = val
		c.ReportsDir = filepath.Join(val, "reports")
	}
	if val := os.Getenv("SAGEALPHA_REPORTS_DIR"); val != "" {
		c.ReportsDir = val
	}
	if val := os.Getenv("SAGEALPHA_TIMEOUT_SECONDS"); val != "" {
		if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
			c.RequestTimeout = time.Duration(secs) * time.Second
		}
	}
	if val := os.Getenv("SAGEALPHA_DEBUG"); val != "" {
		if debug, err := strconv.ParseBool(val); err == nil {
			c.Debug = debug
		}
	}
}

// EnsureDirectories creates the local data directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.ReportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// PlansURL is the upgrade destination surfaced when the usage limit is
// reached.
func (c *Config) PlansURL() string {
	return "https://sagealpha.ai/plans"
}
