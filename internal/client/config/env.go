package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by the client.
const (
	EnvAPIBaseURL     = "VIQI_API_URL"
	EnvAppBaseURL     = "VIQI_APP_URL"
	EnvStorePath      = "VIQI_STORE"
	EnvRequestTimeout = "VIQI_TIMEOUT"
	EnvOnlineInterval = "VIQI_ONLINE_INTERVAL"
	EnvMaxResults     = "VIQI_MAX_RESULTS"
	EnvMatchingMode   = "VIQI_MODE"
	EnvLogLevel       = "VIQI_LOG_LEVEL"
	EnvFreshSession   = "VIQI_FRESH"
	EnvConfigFile     = "VIQI_CONFIG"
)

var envKeys = []string{
	EnvAPIBaseURL, EnvAppBaseURL, EnvStorePath, EnvRequestTimeout, EnvOnlineInterval,
	EnvMaxResults, EnvMatchingMode, EnvLogLevel, EnvFreshSession, EnvConfigFile,
}

const defaultEnvFile = ".env"

// readEnv merges the dotenv file with the process environment; process
// variables win. An explicitly named file must exist, the default ".env" is
// optional.
func readEnv(file string, lookup func(string) (string, bool)) (map[string]string, error) {
	values := map[string]string{}

	explicit := file != ""
	if !explicit {
		file = defaultEnvFile
	}
	fileValues, err := godotenv.Read(file)
	switch {
	case err == nil:
		for _, k := range envKeys {
			if v, ok := fileValues[k]; ok {
				values[k] = v
			}
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read env file %s: %w", file, err)
	}

	for _, k := range envKeys {
		if v, ok := lookup(k); ok {
			values[k] = v
		}
	}
	return values, nil
}

// applyEnv overlays cfg with the VIQI_* values present in env.
func applyEnv(cfg *Config, env map[string]string) error {
	if v, ok := env[EnvAPIBaseURL]; ok {
		cfg.APIBaseURL = v
	}
	if v, ok := env[EnvAppBaseURL]; ok {
		cfg.AppBaseURL = v
	}
	if v, ok := env[EnvStorePath]; ok {
		cfg.StorePath = v
	}
	if v, ok := env[EnvMatchingMode]; ok {
		cfg.MatchingMode = v
	}
	if v, ok := env[EnvLogLevel]; ok {
		cfg.LogLevel = v
	}
	if v, ok := env[EnvRequestTimeout]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := env[EnvOnlineInterval]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOnlineInterval, err)
		}
		cfg.OnlineCheckInterval = d
	}
	if v, ok := env[EnvMaxResults]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxResults, err)
		}
		cfg.MaxResults = n
	}
	if v, ok := env[EnvFreshSession]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFreshSession, err)
		}
		cfg.FreshSession = b
	}
	return nil
}
