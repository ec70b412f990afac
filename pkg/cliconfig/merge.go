package cliconfig

// MergeConfig merges source config into target, updating sources tracking.
// Only non-zero values from source are applied.
func MergeConfig(target, source *CLIConfig, sourceType string) {
	if source == nil {
		return
	}
	if target.Sources == nil {
		target.Sources = make(map[string]string)
	}

	if source.ManagementURL != "" {
		target.ManagementURL = source.ManagementURL
		target.Sources["managementUrl"] = sourceType
	}
	if source.Token != "" {
		target.Token = source.Token
		target.Sources["token"] = sourceType
	}
	if source.APIID != "" {
		target.APIID = source.APIID
		target.Sources["apiId"] = sourceType
	}
	if source.Timeout != 0 {
		target.Timeout = source.Timeout
		target.Sources["timeout"] = sourceType
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
		target.Sources["logLevel"] = sourceType
	}
	if source.LogFormat != "" {
		target.LogFormat = source.LogFormat
		target.Sources["logFormat"] = sourceType
	}
	if source.LogFile != "" {
		target.LogFile = source.LogFile
		target.Sources["logFile"] = sourceType
	}
	if boolIsSet(source, "tlsInsecure") {
		target.TLSInsecure = source.TLSInsecure
		target.Sources["tlsInsecure"] = sourceType
	}
	if boolIsSet(source, "json") {
		target.JSON = source.JSON
		target.Sources["json"] = sourceType
	}
}

// boolIsSet reports whether a boolean field was explicitly present in the
// source. Configs built in code have no SetFields; for them only true counts.
func boolIsSet(cfg *CLIConfig, yamlKey string) bool {
	if cfg.SetFields != nil {
		return cfg.SetFields[yamlKey]
	}
	switch yamlKey {
	case "tlsInsecure":
		return cfg.TLSInsecure
	case "json":
		return cfg.JSON
	}
	return false
}
