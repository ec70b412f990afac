package cliconfig

import "time"

// Flags are the connection flags given on the command line. Empty values
// were not provided.
type Flags struct {
	URL     string
	Token   string
	Context string
	APIID   string
}

// ClientConfig holds resolved configuration for creating a management client.
// This is the single source of truth for CLI commands needing to connect.
type ClientConfig struct {
	ManagementURL string
	Token         string
	APIID         string
	TLSInsecure   bool
	Timeout       time.Duration

	// Context is the name of the context that was applied, if any.
	Context string

	// Sources tracks where each value came from.
	Sources map[string]string
}

// ResolveContext resolves which context to use.
// Priority: explicit flag > env var > current context
func ResolveContext(flagValue string, contexts *ContextConfig) string {
	if flagValue != "" {
		return flagValue
	}
	if envCtx := GetContextFromEnv(); envCtx != "" {
		return envCtx
	}
	if contexts == nil {
		return DefaultContextName
	}
	return contexts.CurrentContext
}

// ResolveClientConfig layers base (files + env, see LoadAll), the selected
// context and the flags. For every field the priority is
// flag > env > context > config file > default.
func ResolveClientConfig(base *CLIConfig, contexts *ContextConfig, flags Flags) *ClientConfig {
	if base == nil {
		base = NewDefault()
	}
	out := &ClientConfig{
		ManagementURL: base.ManagementURL,
		Token:         base.Token,
		APIID:         base.APIID,
		TLSInsecure:   base.TLSInsecure,
		Timeout:       time.Duration(base.Timeout) * time.Second,
		Sources:       make(map[string]string),
	}
	for _, key := range []string{"managementUrl", "token", "apiId", "tlsInsecure"} {
		if src, ok := base.Sources[key]; ok {
			out.Sources[key] = src
		}
	}

	name := ResolveContext(flags.Context, contexts)
	if contexts != nil {
		if ctx := contexts.Contexts[name]; ctx != nil {
			out.Context = name
			applyContext(out, ctx, base.Sources)
		}
	}

	if flags.URL != "" {
		out.ManagementURL = flags.URL
		out.Sources["managementUrl"] = SourceFlag
	}
	if flags.Token != "" {
		out.Token = flags.Token
		out.Sources["token"] = SourceFlag
	}
	if flags.APIID != "" {
		out.APIID = flags.APIID
		out.Sources["apiId"] = SourceFlag
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout * time.Second
	}
	return out
}

// applyContext overrides file and default values with the context; values
// from the environment stay.
func applyContext(out *ClientConfig, ctx *Context, sources map[string]string) {
	overridable := func(key string) bool { return sources[key] != SourceEnv }

	if ctx.ManagementURL != "" && overridable("managementUrl") {
		out.ManagementURL = ctx.ManagementURL
		out.Sources["managementUrl"] = SourceContext
	}
	if ctx.Token != "" && overridable("token") {
		out.Token = ctx.Token
		out.Sources["token"] = SourceContext
	}
	if ctx.APIID != "" && overridable("apiId") {
		out.APIID = ctx.APIID
		out.Sources["apiId"] = SourceContext
	}
	if ctx.TLSInsecure && overridable("tlsInsecure") {
		out.TLSInsecure = true
		out.Sources["tlsInsecure"] = SourceContext
	}
}
