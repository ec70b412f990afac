package cliconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// isolate points the user config dir at a temp dir and clears APICTL_*.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, env := range []string{EnvURL, EnvToken, EnvAPI, EnvContext, EnvTimeout, EnvTLSInsecure, EnvLogLevel, EnvLogFormat, EnvLogFile, EnvJSON} {
		t.Setenv(env, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCLIConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  CLIConfig
		wantErr string
	}{
		{name: "valid defaults", config: *NewDefault()},
		{name: "empty", config: CLIConfig{}},
		{name: "relative url", config: CLIConfig{ManagementURL: "/management"}, wantErr: "must be an http or https URL"},
		{name: "no host", config: CLIConfig{ManagementURL: "http://"}, wantErr: "has no host"},
		{name: "timeout too high", config: CLIConfig{Timeout: 601}, wantErr: "timeout 601 is out of range"},
		{name: "timeout negative", config: CLIConfig{Timeout: -1}, wantErr: "timeout -1 is out of range"},
		{name: "bad log level", config: CLIConfig{LogLevel: "loud"}, wantErr: `logLevel "loud"`},
		{name: "log level any case", config: CLIConfig{LogLevel: "DEBUG"}},
		{name: "bad log format", config: CLIConfig{LogFormat: "xml"}, wantErr: `logFormat "xml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAll_Layering(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, GlobalConfigDir, "config.yaml"), "managementUrl: https://global.example.com\ntimeout: 10\njson: true\n")
	local := t.TempDir()
	writeFile(t, filepath.Join(local, ".apictlrc.yaml"), "timeout: 20\njson: false\n")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := LoadAll(local)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	if cfg.ManagementURL != "https://global.example.com" || cfg.Sources["managementUrl"] != SourceGlobal {
		t.Errorf("managementUrl = %q (%s)", cfg.ManagementURL, cfg.Sources["managementUrl"])
	}
	if cfg.Timeout != 20 || cfg.Sources["timeout"] != SourceLocal {
		t.Errorf("timeout = %d (%s), want 20 from local", cfg.Timeout, cfg.Sources["timeout"])
	}
	if cfg.JSON || cfg.Sources["json"] != SourceLocal {
		t.Errorf("json = %v (%s), want explicit false from local", cfg.JSON, cfg.Sources["json"])
	}
	if cfg.LogLevel != "debug" || cfg.Sources["logLevel"] != SourceEnv {
		t.Errorf("logLevel = %q (%s)", cfg.LogLevel, cfg.Sources["logLevel"])
	}
	if cfg.LogFormat != DefaultLogFormat || cfg.Sources["logFormat"] != SourceDefault {
		t.Errorf("logFormat = %q (%s)", cfg.LogFormat, cfg.Sources["logFormat"])
	}
}

func TestLoadAll_LogFile(t *testing.T) {
	isolate(t)
	local := t.TempDir()
	writeFile(t, filepath.Join(local, ".apictlrc.yaml"), "logFile: apictl.log\n")

	cfg, err := LoadAll(local)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if cfg.LogFile != "apictl.log" || cfg.Sources["logFile"] != SourceLocal {
		t.Errorf("logFile = %q (%s), want apictl.log from local", cfg.LogFile, cfg.Sources["logFile"])
	}

	t.Setenv(EnvLogFile, "/var/log/apictl.json")
	cfg, err = LoadAll(local)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if cfg.LogFile != "/var/log/apictl.json" || cfg.Sources["logFile"] != SourceEnv {
		t.Errorf("logFile = %q (%s), want env override", cfg.LogFile, cfg.Sources["logFile"])
	}
}

func TestLoadAll_BadFile(t *testing.T) {
	isolate(t)
	local := t.TempDir()
	writeFile(t, filepath.Join(local, ".apictlrc.yaml"), "timeout: [1\n")

	_, err := LoadAll(local)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("LoadAll() error = %v, want *ConfigError", err)
	}
	if !strings.HasSuffix(cfgErr.Path, ".apictlrc.yaml") {
		t.Errorf("Path = %q", cfgErr.Path)
	}
}

func TestLoadEnvConfig(t *testing.T) {
	isolate(t)
	t.Setenv(EnvURL, "https://env.example.com")
	t.Setenv(EnvTimeout, "nope")
	t.Setenv(EnvTLSInsecure, "YES")

	cfg := NewDefault()
	LoadEnvConfig(cfg)

	if cfg.ManagementURL != "https://env.example.com" {
		t.Errorf("ManagementURL = %q", cfg.ManagementURL)
	}
	if cfg.Timeout != DefaultTimeout || cfg.Sources["timeout"] != SourceDefault {
		t.Errorf("unparsable timeout must be ignored, got %d", cfg.Timeout)
	}
	if !cfg.TLSInsecure {
		t.Error("TLSInsecure = false, want true")
	}
}

func TestMergeConfig_ProgrammaticBools(t *testing.T) {
	target := NewDefault()
	target.JSON = true
	MergeConfig(target, &CLIConfig{JSON: false}, SourceFlag)
	if !target.JSON {
		t.Error("a false bool without SetFields must not override")
	}
}

func TestResolveClientConfig(t *testing.T) {
	isolate(t)
	contexts := &ContextConfig{
		CurrentContext: "staging",
		Contexts: map[string]*Context{
			"staging": {ManagementURL: "https://staging.example.com", Token: "ctx-token", TLSInsecure: true},
			"prod":    {ManagementURL: "https://prod.example.com", APIID: "petstore"},
		},
	}

	t.Run("current context over files", func(t *testing.T) {
		got := ResolveClientConfig(NewDefault(), contexts, Flags{})
		if got.ManagementURL != "https://staging.example.com" || got.Sources["managementUrl"] != SourceContext {
			t.Errorf("ManagementURL = %q (%s)", got.ManagementURL, got.Sources["managementUrl"])
		}
		if got.Token != "ctx-token" || !got.TLSInsecure || got.Context != "staging" {
			t.Errorf("got %+v", got)
		}
		if got.Timeout != DefaultTimeout*time.Second {
			t.Errorf("Timeout = %v", got.Timeout)
		}
	})

	t.Run("context flag", func(t *testing.T) {
		got := ResolveClientConfig(NewDefault(), contexts, Flags{Context: "prod"})
		if got.ManagementURL != "https://prod.example.com" || got.APIID != "petstore" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("env beats context", func(t *testing.T) {
		base := NewDefault()
		t.Setenv(EnvURL, "https://env.example.com")
		LoadEnvConfig(base)
		got := ResolveClientConfig(base, contexts, Flags{})
		if got.ManagementURL != "https://env.example.com" || got.Sources["managementUrl"] != SourceEnv {
			t.Errorf("ManagementURL = %q (%s)", got.ManagementURL, got.Sources["managementUrl"])
		}
	})

	t.Run("flags beat everything", func(t *testing.T) {
		got := ResolveClientConfig(NewDefault(), contexts, Flags{URL: "https://flag.example.com", Token: "flag-token", APIID: "orders"})
		if got.ManagementURL != "https://flag.example.com" || got.Token != "flag-token" || got.APIID != "orders" {
			t.Errorf("got %+v", got)
		}
		if got.Sources["token"] != SourceFlag {
			t.Errorf("token source = %q", got.Sources["token"])
		}
	})

	t.Run("unknown context", func(t *testing.T) {
		got := ResolveClientConfig(NewDefault(), contexts, Flags{Context: "nope"})
		if got.ManagementURL != DefaultManagementURL || got.Context != "" {
			t.Errorf("got %+v", got)
		}
	})
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tok := signedToken(t, jwt.MapClaims{"sub": "admin", "exp": exp.Unix()})

	got, ok := TokenExpiry(tok)
	if !ok || !got.Equal(exp) {
		t.Errorf("TokenExpiry() = %v, %v; want %v, true", got, ok, exp)
	}

	if _, ok := TokenExpiry("opaque-personal-token"); ok {
		t.Error("opaque tokens have no expiry")
	}
	if _, ok := TokenExpiry(signedToken(t, jwt.MapClaims{"sub": "admin"})); ok {
		t.Error("tokens without exp have no expiry")
	}
}

func TestCheckToken(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := signedToken(t, jwt.MapClaims{"exp": exp.Unix()})

	if err := CheckToken(tok, exp.Add(-time.Hour)); err != nil {
		t.Errorf("CheckToken() before expiry = %v", err)
	}
	err := CheckToken(tok, exp.Add(time.Second))
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("CheckToken() after expiry = %v, want ErrTokenExpired", err)
	}
	if err := CheckToken("opaque", exp.Add(time.Hour)); err != nil {
		t.Errorf("CheckToken(opaque) = %v", err)
	}
}
