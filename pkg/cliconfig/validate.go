package cliconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that the configuration values are usable.
func (c *CLIConfig) Validate() error {
	var errs []error
	if c.ManagementURL != "" {
		if err := validateURL(c.ManagementURL); err != nil {
			errs = append(errs, fmt.Errorf("managementUrl: %w", err))
		}
	}
	if c.Timeout < 0 || c.Timeout > MaxTimeout {
		errs = append(errs, fmt.Errorf("timeout %d is out of range (0-%d)", c.Timeout, MaxTimeout))
	}
	if c.LogLevel != "" && !oneOf(c.LogLevel, "debug", "info", "warn", "warning", "error") {
		errs = append(errs, fmt.Errorf("logLevel %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "" && !oneOf(c.LogFormat, "text", "json") {
		errs = append(errs, fmt.Errorf("logFormat %q is not one of text, json", c.LogFormat))
	}
	return errors.Join(errs...)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must be an http or https URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}
