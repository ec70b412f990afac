package cliconfig

// DefaultManagementURL is the management API of a local gateway install.
const DefaultManagementURL = "http://localhost:8083/management"

// DefaultTimeout is the default HTTP timeout in seconds.
const DefaultTimeout = 30

// MaxTimeout is the largest accepted HTTP timeout in seconds.
const MaxTimeout = 600

// DefaultLogLevel is the default log level.
const DefaultLogLevel = "warn"

// DefaultLogFormat is the default log format.
const DefaultLogFormat = "text"

// NewDefault creates a new CLIConfig with default values.
func NewDefault() *CLIConfig {
	cfg := &CLIConfig{
		ManagementURL: DefaultManagementURL,
		Timeout:       DefaultTimeout,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		Sources:       make(map[string]string),
	}
	for _, key := range []string{"managementUrl", "timeout", "logLevel", "logFormat", "tlsInsecure", "json"} {
		cfg.Sources[key] = SourceDefault
	}
	return cfg
}
