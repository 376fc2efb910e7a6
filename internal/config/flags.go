package config

import "flag"

type flagValues struct {
	configFile     *string
	mode           *string
	addr           *string
	logLevel       *string
	logFile        *string
	storage        *string
	dataDir        *string
	authMode       *string
	apiKey         *string
	bearerToken    *string
	rateLimitRPS   *float64
	rateLimitBurst *int
	traceExporter  *string
	otlpEndpoint   *string
}

func defineFlags(fs *flag.FlagSet) *flagValues {
	return &flagValues{
		configFile:     fs.String("config", "", "path to a TOML config file"),
		mode:           fs.String("mode", "", "user interface: web or tui"),
		addr:           fs.String("addr", "", "listen address for the web UI"),
		logLevel:       fs.String("log-level", "", "debug, info, warn or error"),
		logFile:        fs.String("log-file", "", "log destination in tui mode"),
		storage:        fs.String("storage", "", "storage backend: file, sqlite or memory"),
		dataDir:        fs.String("data-dir", "", "directory holding the task snapshot"),
		authMode:       fs.String("auth-mode", "", "API auth: none, apikey or bearer"),
		apiKey:         fs.String("api-key", "", "expected X-API-Key value"),
		bearerToken:    fs.String("bearer-token", "", "expected bearer token"),
		rateLimitRPS:   fs.Float64("rate-limit-rps", 0, "requests per second, 0 disables"),
		rateLimitBurst: fs.Int("rate-limit-burst", 0, "rate limiter burst size"),
		traceExporter:  fs.String("trace-exporter", "", "none, stdout or otlp"),
		otlpEndpoint:   fs.String("otlp-endpoint", "", "OTLP/HTTP collector host:port"),
	}
}

// apply copies only the flags that were set on the command line.
func (v *flagValues) apply(fs *flag.FlagSet, cfg *Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = *v.mode
		case "addr":
			cfg.Addr = *v.addr
		case "log-level":
			cfg.LogLevel = *v.logLevel
		case "log-file":
			cfg.LogFile = *v.logFile
		case "storage":
			cfg.Storage = *v.storage
		case "data-dir":
			cfg.DataDir = *v.dataDir
		case "auth-mode":
			cfg.AuthMode = *v.authMode
		case "api-key":
			cfg.APIKey = *v.apiKey
		case "bearer-token":
			cfg.BearerToken = *v.bearerToken
		case "rate-limit-rps":
			cfg.RateLimitRPS = *v.rateLimitRPS
		case "rate-limit-burst":
			cfg.RateLimitBurst = *v.rateLimitBurst
		case "trace-exporter":
			cfg.TraceExporter = *v.traceExporter
		case "otlp-endpoint":
			cfg.OTLPEndpoint = *v.otlpEndpoint
		}
	})
}
