package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/viqi/internal/flagx"
)

const (
	ModePOC     = "poc"
	ModeAccount = "account"
)

// Config holds runtime settings for the ViQi client.
//
// Fields:
//   - APIBaseURL: base URL of the backend (matching, payments, auth).
//   - AppBaseURL: public URL of the app; checkout return links point here.
//   - StorePath: SQLite file backing the durable and session stores.
//   - RequestTimeout: per-request HTTP timeout.
//   - OnlineCheckInterval: how often the client checks the health endpoint.
//   - MaxResults: number of contacts asked for per query.
//   - MatchingMode: "poc" (email-only endpoint) or "account" (match + reveal).
//   - LogLevel: debug, info, warn or error.
//   - FreshSession: wipe the session scope on start, like opening a new tab.
type Config struct {
	APIBaseURL          string
	AppBaseURL          string
	StorePath           string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	MaxResults          int
	MatchingMode        string
	LogLevel            string
	FreshSession        bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8000"
	c.AppBaseURL = "http://localhost:3000"
	c.StorePath = defaultStorePath()
	c.RequestTimeout = 15 * time.Second
	c.OnlineCheckInterval = 10 * time.Second
	c.MaxResults = 4
	c.MatchingMode = ModePOC
	c.LogLevel = "info"
	c.FreshSession = false
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "viqi.db"
	}
	return filepath.Join(dir, "viqi", "viqi.db")
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api base url is empty")
	}
	if c.MatchingMode != ModePOC && c.MatchingMode != ModeAccount {
		return fmt.Errorf("unknown matching mode %q", c.MatchingMode)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max results must be positive, got %d", c.MaxResults)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive")
	}
	return nil
}

// Load constructs a Config for args (without the program name), applying
// defaults, then the environment, then the JSON file, then flags. Later
// sources take precedence over earlier ones.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	env, err := readEnv(flagx.EnvFileFlag(args), os.LookupEnv)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, env); err != nil {
		return nil, err
	}

	jsonFile := flagx.ConfigFileFlag(args)
	if jsonFile == "" {
		jsonFile = env[EnvConfigFile]
	}
	if err := parseJSON(cfg, jsonFile); err != nil {
		return nil, err
	}

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.AppBaseURL = strings.TrimRight(cfg.AppBaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
