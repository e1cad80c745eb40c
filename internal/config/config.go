// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Storage   StorageConfig   `koanf:"storage"`
	Mail      MailConfig      `koanf:"mail"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) validate() error {
	if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 {
		return errors.New("server read and write timeouts must be positive")
	}
	return nil
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

func (d *DatabaseConfig) validate() error {
	if d.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

// RedisConfig points at the instance holding the token denylist and rate
// limit buckets.
type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

func (r *RedisConfig) validate() error {
	if r.URL == "" {
		return errors.New("REDIS_URL is required")
	}
	return nil
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

func (j *JWTConfig) validate() error {
	var errs []error
	if j.PrivateKeyPath == "" {
		errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH is required"))
	}
	if j.PublicKeyPath == "" {
		errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required"))
	}
	if j.AccessTokenExpire > 0 && j.RefreshTokenExpire > 0 &&
		j.RefreshTokenExpire <= j.AccessTokenExpire {
		errs = append(errs, errors.New("refresh tokens must outlive access tokens"))
	}
	return errors.Join(errs...)
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

func (c *CORSConfig) validate() error {
	if c.AllowCredentials && slices.Contains(c.AllowedOrigins, "*") {
		return errors.New("CORS wildcard '*' cannot be used with AllowCredentials")
	}
	return nil
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// StorageConfig describes the S3-compatible bucket that holds payment
// screenshots. Objects are served from PublicBaseURL + "/" + key.
type StorageConfig struct {
	Enabled         bool   `koanf:"enabled"`
	Endpoint        string `koanf:"endpoint"`
	Region          string `koanf:"region"`
	Bucket          string `koanf:"bucket"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	PublicBaseURL   string `koanf:"public_base_url"`
	KeyPrefix       string `koanf:"key_prefix"`
	UsePathStyle    bool   `koanf:"use_path_style"`
	MaxUploadBytes  int64  `koanf:"max_upload_bytes"`
}

func (s *StorageConfig) validate() error {
	if s.MaxUploadBytes <= 0 {
		return errors.New("storage.max_upload_bytes must be positive")
	}
	if !s.Enabled {
		return nil
	}
	if s.Bucket == "" {
		return errors.New("STORAGE_BUCKET is required when storage is enabled")
	}
	if s.PublicBaseURL != "" {
		if _, err := url.ParseRequestURI(s.PublicBaseURL); err != nil {
			return fmt.Errorf("STORAGE_PUBLIC_BASE_URL: %w", err)
		}
	}
	return nil
}

// MailConfig selects the outbound mail provider. "log" only writes the
// message to the application log.
type MailConfig struct {
	Provider        string `koanf:"provider"`
	FromEmail       string `koanf:"from_email"`
	FromName        string `koanf:"from_name"`
	ResendAPIKey    string `koanf:"resend_api_key"`
	SMTPHost        string `koanf:"smtp_host"`
	SMTPPort        string `koanf:"smtp_port"`
	SMTPUser        string `koanf:"smtp_user"`
	SMTPPass        string `koanf:"smtp_pass"`
	FrontendBaseURL string `koanf:"frontend_base_url"`
}

func (m *MailConfig) validate() error {
	switch m.Provider {
	case "log":
		return nil
	case "resend":
		if m.ResendAPIKey == "" {
			return errors.New("RESEND_API_KEY is required for the resend provider")
		}
	case "smtp":
		if m.SMTPHost == "" {
			return errors.New("SMTP_HOST is required for the smtp provider")
		}
	default:
		return fmt.Errorf("unknown mail provider %q", m.Provider)
	}
	return nil
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// validate reports every problem at once so a misconfigured deployment
// can be fixed in one pass.
func validate(c *Config) error {
	errs := []error{
		c.Database.validate(),
		c.Redis.validate(),
		c.JWT.validate(),
		c.CORS.validate(),
		c.Server.validate(),
		c.Storage.validate(),
		c.Mail.validate(),
	}

	if c.IsProduction() && c.Otel.Enabled && c.Otel.Insecure {
		errs = append(errs, errors.New("OTEL_INSECURE must be false in production"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
