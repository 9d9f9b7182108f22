package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "WIREMSG"
	envConfigDefaultPath = "WIREMSG_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
	dotenvFile           = ".env"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars (.env included) < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, os.ErrNotExist) && logger != nil {
		logger.Warn().Err(err).Str("path", dotenvFile).Msg("failed to load .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)
	if err := readOrCreate(v, configPath, cfg, logger); err != nil {
		return cfg, configPath, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper, cfg Config) {
	defaults := map[string]any{
		"addr":                cfg.Addr,
		"read_header_timeout": cfg.ReadHeaderTimeout,
		"shutdown_timeout":    cfg.ShutdownTimeout,
		"log_level":           cfg.LogLevel,
		"log_format":          cfg.LogFormat,
		"database_driver":     cfg.DatabaseDriver,
		"database_dsn":        cfg.DatabaseDSN,
		"jwt_secret":          cfg.JWTSecret,
		"jwt_issuer":          cfg.JWTIssuer,
		"jwt_audience":        cfg.JWTAudience,
		"jwt_ttl":             cfg.JWTTTL,
		"metrics_enabled":     cfg.MetricsEnabled,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// readOrCreate reads the config file, writing cfg there first when it does not exist.
// A file that cannot be written is not fatal: defaults and env still apply.
func readOrCreate(v *viper.Viper, path string, cfg Config, logger *zerolog.Logger) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config: %w", err)
	}

	if err := writeDefaultConfig(path, cfg); err != nil {
		if logger != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to write default config")
		}
		return nil
	}
	if logger != nil {
		logger.Info().Str("path", path).Msg("created default config")
	}

	if err := v.ReadInConfig(); err != nil && logger != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to read config after writing default")
	}
	return nil
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
