package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override values from the config file.
const (
	EnvConfigPath = "BLOEMIST_CONFIG"
	EnvDebug      = "BLOEMIST_DEBUG"
	EnvHost       = "BLOEMIST_HOST"
	EnvPort       = "BLOEMIST_PORT"
	EnvDatabase   = "BLOEMIST_DATABASE_PATH"
	EnvBleveIndex = "BLOEMIST_BLEVE_INDEX_PATH"
	EnvFormat     = "BLOEMIST_HIGHLIGHT_FORMAT"
	EnvKeywords   = "BLOEMIST_DEFAULT_KEYWORDS" // comma separated
)

// LoadDotEnv loads variables from the given .env files (".env" when none are given)
// without overriding variables already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overrides cfg fields from BLOEMIST_* environment variables.
// Malformed numeric or boolean values are ignored.
func ApplyEnv(cfg *Config) {
	if v, ok := lookupEnv(EnvDebug); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if v, ok := lookupEnv(EnvHost); ok {
		cfg.Server.Host = v
	}
	if v, ok := lookupEnv(EnvPort); ok {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.Server.Port = p
		}
	}
	if v, ok := lookupEnv(EnvDatabase); ok {
		cfg.Storage.DatabasePath = v
	}
	if v, ok := lookupEnv(EnvBleveIndex); ok {
		cfg.Storage.BleveIndexPath = v
	}
	if v, ok := lookupEnv(EnvFormat); ok {
		cfg.Highlight.Format = v
	}
	if v, ok := lookupEnv(EnvKeywords); ok {
		var kws []string
		for _, kw := range strings.Split(v, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				kws = append(kws, kw)
			}
		}
		cfg.Highlight.DefaultKeywords = kws
	}
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
