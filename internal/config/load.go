// AngelaMos | 2026
// load.go

package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load layers configuration from lowest to highest precedence: built-in
// defaults, the optional YAML file at configPath, then the environment.
// A .env file in the working directory is read into the environment first.
func Load(configPath string) (*Config, error) {
	//nolint:errcheck // .env is optional outside local development
	_ = godotenv.Load()

	k := koanf.New(".")

	flat, _ := maps.Flatten(defaults(), nil, ".")
	for key, value := range flat {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func defaults() map[string]any {
	return map[string]any{
		"app": map[string]any{
			"name":        "Solution Ledger",
			"version":     "1.0.0",
			"environment": "development",
		},
		"server": map[string]any{
			"host":             "0.0.0.0",
			"port":             8080,
			"read_timeout":     "30s",
			"write_timeout":    "60s",
			"idle_timeout":     "120s",
			"shutdown_timeout": "15s",
		},
		"database": map[string]any{
			"max_open_conns":     25,
			"max_idle_conns":     5,
			"conn_max_lifetime":  "1h",
			"conn_max_idle_time": "30m",
		},
		"redis": map[string]any{
			"pool_size":      10,
			"min_idle_conns": 2,
		},
		"jwt": map[string]any{
			"access_token_expire":  "15m",
			"refresh_token_expire": "168h",
			"issuer":               "solution-ledger",
			"audience":             "solution-ledger-api",
			"private_key_path":     "keys/private.pem",
			"public_key_path":      "keys/public.pem",
		},
		"rate_limit": map[string]any{
			"requests": 100,
			"window":   "1m",
			"burst":    20,
		},
		"cors": map[string]any{
			"allowed_origins":   []string{"http://localhost:5173"},
			"allowed_methods":   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			"allowed_headers":   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			"allow_credentials": true,
			"max_age":           300,
		},
		"log": map[string]any{
			"level":  "info",
			"format": "json",
		},
		"otel": map[string]any{
			"enabled":      false,
			"insecure":     true,
			"sample_rate":  0.1,
			"service_name": "solution-ledger",
		},
		"storage": map[string]any{
			"enabled":          true,
			"region":           "auto",
			"key_prefix":       "expense-uploads/upi-screenshots",
			"use_path_style":   false,
			"max_upload_bytes": 10 << 20,
		},
		"mail": map[string]any{
			"provider":          "log",
			"from_name":         "Solution Ledger",
			"smtp_port":         "587",
			"frontend_base_url": "http://localhost:5173",
		},
		"metrics": map[string]any{
			"enabled": true,
			"path":    "/metrics",
		},
	}
}

// envKeys maps the deployment's environment variable names onto config
// paths. Variables not listed here are ignored.
var envKeys = map[string]string{
	"ENVIRONMENT":               "app.environment",
	"APP_VERSION":               "app.version",
	"HOST":                      "server.host",
	"PORT":                      "server.port",
	"DATABASE_URL":              "database.url",
	"REDIS_URL":                 "redis.url",
	"LOG_LEVEL":                 "log.level",
	"LOG_FORMAT":                "log.format",
	"JWT_PRIVATE_KEY_PATH":      "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":       "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":   "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":  "jwt.refresh_token_expire",
	"JWT_ISSUER":                "jwt.issuer",
	"JWT_AUDIENCE":              "jwt.audience",
	"RATE_LIMIT_REQUESTS":       "rate_limit.requests",
	"RATE_LIMIT_WINDOW":         "rate_limit.window",
	"RATE_LIMIT_BURST":          "rate_limit.burst",
	"OTEL_ENABLED":              "otel.enabled",
	"OTEL_ENDPOINT":             "otel.endpoint",
	"OTEL_INSECURE":             "otel.insecure",
	"OTEL_SAMPLE_RATE":          "otel.sample_rate",
	"OTEL_SERVICE_NAME":         "otel.service_name",
	"STORAGE_ENABLED":           "storage.enabled",
	"STORAGE_ENDPOINT":          "storage.endpoint",
	"STORAGE_REGION":            "storage.region",
	"STORAGE_BUCKET":            "storage.bucket",
	"STORAGE_ACCESS_KEY_ID":     "storage.access_key_id",
	"STORAGE_SECRET_ACCESS_KEY": "storage.secret_access_key",
	"STORAGE_PUBLIC_BASE_URL":   "storage.public_base_url",
	"STORAGE_KEY_PREFIX":        "storage.key_prefix",
	"STORAGE_USE_PATH_STYLE":    "storage.use_path_style",
	"STORAGE_MAX_UPLOAD_BYTES":  "storage.max_upload_bytes",
	"MAIL_PROVIDER":             "mail.provider",
	"MAIL_FROM_EMAIL":           "mail.from_email",
	"MAIL_FROM_NAME":            "mail.from_name",
	"RESEND_API_KEY":            "mail.resend_api_key",
	"SMTP_HOST":                 "mail.smtp_host",
	"SMTP_PORT":                 "mail.smtp_port",
	"SMTP_USER":                 "mail.smtp_user",
	"SMTP_PASS":                 "mail.smtp_pass",
	"FRONTEND_BASE_URL":         "mail.frontend_base_url",
	"METRICS_ENABLED":           "metrics.enabled",
	"METRICS_PATH":              "metrics.path",
}

// envKey returns "" for unknown variables, which koanf skips.
func envKey(name string) string {
	return envKeys[name]
}
