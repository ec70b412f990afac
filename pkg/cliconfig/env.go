package cliconfig

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names
const (
	EnvURL         = "APICTL_URL"
	EnvToken       = "APICTL_TOKEN"
	EnvAPI         = "APICTL_API"
	EnvContext     = "APICTL_CONTEXT"
	EnvTimeout     = "APICTL_TIMEOUT"
	EnvTLSInsecure = "APICTL_TLS_INSECURE"
	EnvLogLevel    = "APICTL_LOG_LEVEL"
	EnvLogFormat   = "APICTL_LOG_FORMAT"
	EnvLogFile     = "APICTL_LOG_FILE"
	EnvJSON        = "APICTL_JSON"
)

// LoadEnvConfig loads configuration from environment variables.
// It only sets values that are present in the environment.
func LoadEnvConfig(cfg *CLIConfig) {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	if v := os.Getenv(EnvURL); v != "" {
		cfg.ManagementURL = v
		cfg.Sources["managementUrl"] = SourceEnv
	}
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Token = v
		cfg.Sources["token"] = SourceEnv
	}
	if v := os.Getenv(EnvAPI); v != "" {
		cfg.APIID = v
		cfg.Sources["apiId"] = SourceEnv
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			cfg.Timeout = timeout
			cfg.Sources["timeout"] = SourceEnv
		}
	}
	if v := os.Getenv(EnvTLSInsecure); v != "" {
		cfg.TLSInsecure = parseBool(v)
		cfg.Sources["tlsInsecure"] = SourceEnv
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
		cfg.Sources["logLevel"] = SourceEnv
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
		cfg.Sources["logFormat"] = SourceEnv
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.LogFile = v
		cfg.Sources["logFile"] = SourceEnv
	}
	if v := os.Getenv(EnvJSON); v != "" {
		cfg.JSON = parseBool(v)
		cfg.Sources["json"] = SourceEnv
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// GetContextFromEnv returns the context name from environment variable.
// Returns empty string if not set.
func GetContextFromEnv() string {
	return os.Getenv(EnvContext)
}
