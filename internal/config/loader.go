package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var defaults = map[string]interface{}{
	"server.port":                "3000",
	"server.mode":                "release",
	"server.allowed_origins":     []string{"http://localhost:3000", "http://localhost:5173"},
	"server.max_upload_mb":       int64(32),
	"database.dsn":               "",
	"database.host":              "localhost",
	"database.port":              5432,
	"database.user":              "postgres",
	"database.password":          "",
	"database.name":              "admissions",
	"database.sslmode":           "disable",
	"database.max_open_conns":    25,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": 30 * time.Minute,
	"auth.jwt_secret":            "",
	"auth.token_ttl":             30 * time.Minute,
	"storage.upload_dir":         "uploads",
	"redis.enabled":              false,
	"redis.address":              "localhost:6379",
	"redis.password":             "",
	"redis.db":                   0,
	"rate_limit.login_limit":     10,
	"rate_limit.login_window":    time.Minute,
	"logging.level":              "info",
	"logging.format":             "json",
}

// Short environment names kept for deployments that predate the nested
// keys.
var envAliases = map[string][]string{
	"server.port":        {"SERVER_PORT", "PORT"},
	"database.dsn":       {"DATABASE_DSN", "DATABASE_URL"},
	"auth.jwt_secret":    {"AUTH_JWT_SECRET", "JWT_SECRET"},
	"storage.upload_dir": {"STORAGE_UPLOAD_DIR", "UPLOAD_DIR"},
}

// Load reads .env (if present), then the optional YAML file at path, then
// environment variables. Environment wins.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func Validate(cfg *Config) error {
	var problems []string

	if cfg.Auth.JWTSecret == "" {
		problems = append(problems, "auth.jwt_secret (JWT_SECRET) is required")
	}
	if cfg.Auth.TokenTTL <= 0 {
		problems = append(problems, "auth.token_ttl must be positive")
	}
	if cfg.Storage.UploadDir == "" {
		problems = append(problems, "storage.upload_dir is required")
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		problems = append(problems, "server.allowed_origins must list at least one origin")
	}
	if cfg.Server.MaxUploadMB <= 0 {
		problems = append(problems, "server.max_upload_mb must be positive")
	}
	if cfg.RateLimit.LoginLimit < 0 {
		problems = append(problems, "rate_limit.login_limit must not be negative")
	}
	if cfg.Redis.Enabled && cfg.Redis.Address == "" {
		problems = append(problems, "redis.address is required when redis is enabled")
	}
	switch cfg.Logging.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be json or console", cfg.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
