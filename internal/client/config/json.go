package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/viqi/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero-valued fields left out of the file keep the earlier value.
type JsonConfig struct {
	APIBaseURL          string          `json:"api_base_url"`
	AppBaseURL          string          `json:"app_base_url"`
	StorePath           string          `json:"store_path"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	MaxResults          int             `json:"max_results"`
	MatchingMode        string          `json:"matching_mode"`
	LogLevel            string          `json:"log_level"`
	FreshSession        *bool           `json:"fresh_session"`
}

// parseJSON overlays cfg with the values of the JSON file at path. An empty
// path loads nothing.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.AppBaseURL != "" {
		cfg.AppBaseURL = jc.AppBaseURL
	}
	if jc.StorePath != "" {
		cfg.StorePath = jc.StorePath
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.MaxResults != 0 {
		cfg.MaxResults = jc.MaxResults
	}
	if jc.MatchingMode != "" {
		cfg.MatchingMode = jc.MatchingMode
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.FreshSession != nil {
		cfg.FreshSession = *jc.FreshSession
	}
	return nil
}
