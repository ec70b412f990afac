// Package cliconfig provides configuration types and loading for the apictl CLI.
//
// Values are layered with the following precedence (highest first):
//
//  1. Command-line flags
//  2. Environment variables (APICTL_* prefix)
//  3. The selected context in contexts.yaml
//  4. Local config file (.apictlrc.yaml in the current directory)
//  5. Global config file ($XDG_CONFIG_HOME/apictl/config.yaml)
//  6. Default values
//
// Sources records where every value came from so `apictl context show` can
// explain the effective configuration.
package cliconfig

// CLIConfig is the file and environment level configuration of the CLI.
type CLIConfig struct {
	// Management API settings
	ManagementURL string `yaml:"managementUrl" json:"managementUrl"`
	Token         string `yaml:"token,omitempty" json:"-"`
	APIID         string `yaml:"apiId,omitempty" json:"apiId,omitempty"`
	Timeout       int    `yaml:"timeout" json:"timeout"`
	TLSInsecure   bool   `yaml:"tlsInsecure" json:"tlsInsecure"`

	// Logging settings
	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`
	// LogFile, when set, also receives every record as JSON lines.
	LogFile string `yaml:"logFile,omitempty" json:"logFile,omitempty"`

	// Output settings
	JSON bool `yaml:"json" json:"json"`

	// Sources tracks where each value came from (for debugging)
	Sources map[string]string `yaml:"-" json:"-"`

	// SetFields lists the keys present in the file the config was loaded
	// from, so an explicit false can override a true.
	SetFields map[string]bool `yaml:"-" json:"-"`
}

// ConfigSource identifies where a config value originated.
const (
	SourceDefault = "default"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceContext = "context"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)
