package cliconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ContextConfigFileName is the name of the context configuration file.
const ContextConfigFileName = "contexts.yaml"

// ContextConfigVersion is the current version of the context config schema.
const ContextConfigVersion = 1

// DefaultContextName is the name of the default context.
const DefaultContextName = "local"

// ContextConfig holds the named management endpoints the CLI can talk to.
type ContextConfig struct {
	Version        int                 `yaml:"version"`
	CurrentContext string              `yaml:"currentContext"`
	Contexts       map[string]*Context `yaml:"contexts"`
}

// Context is one management API installation, similar to a kubectl context.
type Context struct {
	ManagementURL string `yaml:"managementUrl"`
	Token         string `yaml:"token,omitempty"`
	APIID         string `yaml:"apiId,omitempty"`
	Description   string `yaml:"description,omitempty"`
	TLSInsecure   bool   `yaml:"tlsInsecure,omitempty"`
}

// NewDefaultContextConfig creates a new ContextConfig with default values.
func NewDefaultContextConfig() *ContextConfig {
	return &ContextConfig{
		Version:        ContextConfigVersion,
		CurrentContext: DefaultContextName,
		Contexts: map[string]*Context{
			DefaultContextName: {
				ManagementURL: DefaultManagementURL,
				Description:   "Local gateway",
			},
		},
	}
}

// GetContextConfigPath returns the path to the context config file.
func GetContextConfigPath() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ContextConfigFileName), nil
}

// LoadContextConfig loads the context configuration from disk.
// If the file doesn't exist, returns a default configuration.
func LoadContextConfig() (*ContextConfig, error) {
	path, err := GetContextConfigPath()
	if err != nil {
		//nolint:nilerr // without a config dir there is nothing to load
		return NewDefaultContextConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultContextConfig(), nil
		}
		return nil, fmt.Errorf("failed to read context config: %w", err)
	}

	var cfg ContextConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, newConfigError(path, err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	if len(cfg.Contexts) == 0 {
		cfg.Contexts[DefaultContextName] = &Context{ManagementURL: DefaultManagementURL, Description: "Local gateway"}
		if cfg.CurrentContext == "" {
			cfg.CurrentContext = DefaultContextName
		}
	}
	return &cfg, nil
}

// SaveContextConfig saves the context configuration to disk. The file may
// hold tokens, so it is only readable by the user.
func SaveContextConfig(cfg *ContextConfig) error {
	path, err := GetContextConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode context config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write context config: %w", err)
	}
	return nil
}

// GetCurrentContext returns the currently active context.
// Returns nil if no context is set or the context doesn't exist.
func (c *ContextConfig) GetCurrentContext() *Context {
	if c.CurrentContext == "" {
		return nil
	}
	return c.Contexts[c.CurrentContext]
}

// SetCurrentContext switches to the named context.
func (c *ContextConfig) SetCurrentContext(name string) error {
	if _, exists := c.Contexts[name]; !exists {
		return fmt.Errorf("context not found: %s", name)
	}
	c.CurrentContext = name
	return nil
}

// AddContext adds a new context with the given name.
func (c *ContextConfig) AddContext(name string, ctx *Context) error {
	if name == "" {
		return errors.New("context name is required")
	}
	if _, exists := c.Contexts[name]; exists {
		return fmt.Errorf("context already exists: %s", name)
	}
	if ctx.ManagementURL != "" {
		if err := validateURL(ctx.ManagementURL); err != nil {
			return fmt.Errorf("context %s: %w", name, err)
		}
	}
	if c.Contexts == nil {
		c.Contexts = make(map[string]*Context)
	}
	c.Contexts[name] = ctx
	return nil
}

// RemoveContext removes a context by name. The current context cannot be
// removed.
func (c *ContextConfig) RemoveContext(name string) error {
	if _, exists := c.Contexts[name]; !exists {
		return fmt.Errorf("context not found: %s", name)
	}
	if c.CurrentContext == name {
		return errors.New("cannot remove current context; switch to another context first")
	}
	delete(c.Contexts, name)
	return nil
}

// Names returns the context names in sorted order.
func (c *ContextConfig) Names() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
