// Package config loads qurancms settings from config.yaml, an optional .env
// file, and QURANCMS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/qurancms/internal/paths"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "QURANCMS"

// Environments.
const (
	EnvLocal      = "local"
	EnvProduction = "production"
)

// Config holds the application settings.
type Config struct {
	Env                   string  `mapstructure:"env" yaml:"env"`
	Backend               string  `mapstructure:"backend" yaml:"backend"`
	DataDir               string  `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	DatabaseURL           string  `mapstructure:"-" yaml:"-"` // environment only
	AdminKey              string  `mapstructure:"-" yaml:"-"` // environment only
	LegacyCollectionNames bool    `mapstructure:"legacy_collection_names" yaml:"legacy_collection_names"`
	Storage               Storage `mapstructure:"storage" yaml:"storage"`
	HTTP                  HTTP    `mapstructure:"http" yaml:"http"`
	DB                    DB      `mapstructure:"database" yaml:"database"`
}

// Storage configures the blob store.
type Storage struct {
	Root      string `mapstructure:"root" yaml:"root,omitempty"`
	PublicURL string `mapstructure:"public_url" yaml:"public_url"`
}

// HTTP configures the admin server.
type HTTP struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	SessionLifetime time.Duration `mapstructure:"session_lifetime" yaml:"session_lifetime"`
	SecureCookies   bool          `mapstructure:"secure_cookies" yaml:"secure_cookies"`
}

// DB holds connection pool parameters of the postgres backend.
type DB struct {
	MaxConnections  int32         `mapstructure:"max_connections" yaml:"max_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime" yaml:"max_conn_lifetime"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Env:                   EnvLocal,
		Backend:               types.BackendSQLite,
		LegacyCollectionNames: true,
		Storage:               Storage{PublicURL: "http://localhost:8080"},
		HTTP:                  HTTP{Addr: ":8080", SessionLifetime: 12 * time.Hour},
		DB:                    DB{MaxConnections: 10, MaxConnLifetime: 30 * time.Minute},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("env", d.Env)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("data_dir", "")
	v.SetDefault("legacy_collection_names", d.LegacyCollectionNames)
	v.SetDefault("storage.root", "")
	v.SetDefault("storage.public_url", d.Storage.PublicURL)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.session_lifetime", d.HTTP.SessionLifetime)
	v.SetDefault("http.secure_cookies", false)
	v.SetDefault("database.max_connections", d.DB.MaxConnections)
	v.SetDefault("database.max_conn_lifetime", d.DB.MaxConnLifetime)
}

// Load reads configDir/.env and configDir/config.yaml, then applies
// environment overrides. Missing files are not an error.
func Load(configDir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(configDir, paths.EnvFileName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("admin_key", EnvPrefix+"_ADMIN_KEY")
	_ = v.BindEnv("env", EnvPrefix+"_ENV", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DatabaseURL = v.GetString("database_url")
	cfg.AdminKey = v.GetString("admin_key")
	return &cfg, nil
}

// Library returns the backend configuration for Library.Attach with dataDir
// already resolved.
func (c *Config) Library(dataDir string) types.Config {
	return types.Config{
		Backend:         c.Backend,
		DataDir:         dataDir,
		DatabaseURL:     c.DatabaseURL,
		LegacyNames:     c.LegacyCollectionNames,
		MaxConns:        c.DB.MaxConnections,
		MaxConnLifetime: c.DB.MaxConnLifetime,
	}
}

// WriteDefault writes a default config.yaml to configDir unless one exists.
// It reports whether a file was written.
func WriteDefault(configDir string) (bool, error) {
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}

	body, err := yaml.Marshal(Default())
	if err != nil {
		return false, fmt.Errorf("encode config: %w", err)
	}
	header := "# qurancms configuration\n" +
		"# Secrets come from the environment: QURANCMS_DATABASE_URL, QURANCMS_ADMIN_KEY.\n"
	if err := os.WriteFile(path, append([]byte(header), body...), 0o644); err != nil {
		return false, fmt.Errorf("write config file: %w", err)
	}
	return true, nil
}
