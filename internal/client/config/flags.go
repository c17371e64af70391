package config

import (
	"io"

	"github.com/dmitrijs2005/viqi/internal/flagx"
	"github.com/spf13/pflag"
)

// Flag names shared by the loader and the command tree.
const (
	FlagConfig         = "config"
	FlagEnvFile        = "env-file"
	FlagAPIBaseURL     = "api-url"
	FlagAppBaseURL     = "app-url"
	FlagStorePath      = "store"
	FlagRequestTimeout = "timeout"
	FlagOnlineInterval = "online-interval"
	FlagMaxResults     = "max-results"
	FlagMatchingMode   = "mode"
	FlagLogLevel       = "log-level"
	FlagFreshSession   = "fresh"
)

// settingFlags are the flags parseFlags applies; config and env-file are
// pre-scanned by flagx instead.
var settingFlags = []string{
	"--" + FlagAPIBaseURL, "--" + FlagAppBaseURL, "--" + FlagStorePath, "--" + FlagRequestTimeout,
	"--" + FlagOnlineInterval, "--" + FlagMaxResults, "--" + FlagMatchingMode, "-m",
	"--" + FlagLogLevel, "--" + FlagFreshSession,
}

// RegisterFlags defines every configuration flag on fs with defaults taken
// from cfg.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringP(FlagConfig, "c", "", "path to a JSON config file")
	fs.String(FlagEnvFile, "", "path to a dotenv file (default .env when present)")
	registerSettings(fs, cfg)
}

func registerSettings(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.APIBaseURL, FlagAPIBaseURL, cfg.APIBaseURL, "backend base URL")
	fs.StringVar(&cfg.AppBaseURL, FlagAppBaseURL, cfg.AppBaseURL, "app base URL used for checkout return links")
	fs.StringVar(&cfg.StorePath, FlagStorePath, cfg.StorePath, "path to the local SQLite store")
	fs.DurationVar(&cfg.RequestTimeout, FlagRequestTimeout, cfg.RequestTimeout, "per-request timeout")
	fs.DurationVar(&cfg.OnlineCheckInterval, FlagOnlineInterval, cfg.OnlineCheckInterval, "online status check interval")
	fs.IntVar(&cfg.MaxResults, FlagMaxResults, cfg.MaxResults, "contacts requested per query")
	fs.StringVarP(&cfg.MatchingMode, FlagMatchingMode, "m", cfg.MatchingMode, "matching mode: poc or account")
	fs.StringVar(&cfg.LogLevel, FlagLogLevel, cfg.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.FreshSession, FlagFreshSession, cfg.FreshSession, "start with an empty session")
}

// parseFlags overlays cfg with the setting flags found in args. Arguments
// that are not setting flags, such as subcommands, are ignored.
func parseFlags(cfg *Config, args []string) error {
	fs := pflag.NewFlagSet("viqi", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	registerSettings(fs, cfg)
	return fs.Parse(flagx.FilterArgs(args, settingFlags))
}
