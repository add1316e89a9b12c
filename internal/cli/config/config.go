package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/eighteen73/custom-tables/internal/database"
	"github.com/eighteen73/custom-tables/internal/logging"
)

// Config represents the custom tables configuration
type Config struct {
	Database database.Config `mapstructure:"database"`
	Server   ServerConfig    `mapstructure:"server"`
	Log      logging.Config  `mapstructure:"log"`
	Entities EntitiesConfig  `mapstructure:"entities"`
	Locale   string          `mapstructure:"locale"`
}

// ServerConfig represents the admin host configuration
type ServerConfig struct {
	Address     string `mapstructure:"address"`
	AdminPrefix string `mapstructure:"admin_prefix"`
	RESTPrefix  string `mapstructure:"rest_prefix"`
}

// EntitiesConfig locates the entity definitions file
type EntitiesConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads the configuration from customtables.yml or customtables.yaml
// in the working directory
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads the configuration from dir. Environment variables prefixed
// with CUSTOMTABLES_ override file values (CUSTOMTABLES_SERVER_ADDRESS for
// server.address) and DATABASE_URL sets database.dsn.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.admin_prefix", "/admin")
	v.SetDefault("server.rest_prefix", "/rest")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("entities.path", "entities.yml")
	v.SetDefault("locale", "en")

	v.SetConfigName("customtables")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("CUSTOMTABLES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.dsn", "CUSTOMTABLES_DATABASE_DSN", "DATABASE_URL"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Database.Driver == "" {
		config.Database.Driver = driverForDSN(config.Database.DSN)
	}
	if config.Entities.Path != "" && !filepath.IsAbs(config.Entities.Path) {
		config.Entities.Path = filepath.Join(dir, config.Entities.Path)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// driverForDSN picks a driver from the DSN scheme, defaulting to SQLite
func driverForDSN(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "pgx"
	}
	return "sqlite"
}

// InProject checks if the current directory holds a custom tables config
func InProject() bool {
	for _, name := range []string{"customtables.yml", "customtables.yaml"} {
		if _, err := os.Stat(name); err == nil {
			return true
		}
	}
	return false
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	for key, prefix := range map[string]string{
		"server.admin_prefix": cfg.Server.AdminPrefix,
		"server.rest_prefix":  cfg.Server.RESTPrefix,
	} {
		// "-" turns the REST routes off
		if key == "server.rest_prefix" && prefix == "-" {
			continue
		}
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("%s must start with '/', got: %s", key, prefix)
		}
		if len(prefix) > 1 && strings.HasSuffix(prefix, "/") {
			return fmt.Errorf("%s must not end with '/', got: %s", key, prefix)
		}
	}

	switch cfg.Database.Driver {
	case "sqlite", "sqlite3", "pgx", "postgres":
	default:
		return fmt.Errorf("database.driver must be one of sqlite, sqlite3, pgx, postgres, got: %s", cfg.Database.Driver)
	}
	return nil
}
