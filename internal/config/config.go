// =============================================================================
// Pharmacy Records - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a YAML file with
// environment overrides.
//
// SOURCES (later wins):
//   1. Built-in defaults (env-default tags and applyDefaults)
//   2. The YAML file, if it exists (pharmacy.yaml by default)
//   3. PHARMACY_* environment variables, including any set from .env
//
// A missing config file is not an error. `pharmacy config init` writes one
// with every default spelled out.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file used when --config is not given.
const DefaultPath = "pharmacy.yaml"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// DATA FILES
	// =========================================================================

	// DataDir holds every record file. Relative file names below are
	// resolved against it.
	// Default: "./data"
	DataDir string `yaml:"data_dir" env:"PHARMACY_DATA_DIR" env-default:"./data"`

	MedicinesFile string `yaml:"medicines_file" env:"PHARMACY_MEDICINES_FILE" env-default:"medicines.txt"`
	PurchasesFile string `yaml:"purchases_file" env:"PHARMACY_PURCHASES_FILE" env-default:"purchases.txt"`
	UsersFile     string `yaml:"users_file" env:"PHARMACY_USERS_FILE" env-default:"users.txt"`
	SuppliersFile string `yaml:"suppliers_file" env:"PHARMACY_SUPPLIERS_FILE" env-default:"suppliers.txt"`

	// JournalFile holds the intent of a sale in progress.
	JournalFile string `yaml:"journal_file" env:"PHARMACY_JOURNAL_FILE" env-default:"sales.journal"`

	// BackupDir receives timestamped copies made by `pharmacy backup` and
	// `sale reset --backup`.
	// Default: "./backups"
	BackupDir string `yaml:"backup_dir" env:"PHARMACY_BACKUP_DIR" env-default:"./backups"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "trace", "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" env:"PHARMACY_LOG_LEVEL" env-default:"info"`

	// LogFile is appended to when set; otherwise logs go to stderr.
	LogFile string `yaml:"log_file" env:"PHARMACY_LOG_FILE"`

	// =========================================================================
	// ACCOUNTS
	// =========================================================================

	// PasswordHashing is "bcrypt" or "plaintext".
	// Default: "bcrypt"
	PasswordHashing string `yaml:"password_hashing" env:"PHARMACY_PASSWORD_HASHING" env-default:"bcrypt"`

	// BcryptCost is the bcrypt work factor.
	// Default: 10
	BcryptCost int `yaml:"bcrypt_cost" env:"PHARMACY_BCRYPT_COST" env-default:"10"`

	// DefaultAdmin is created in an empty users file.
	DefaultAdmin AdminConfig `yaml:"default_admin" env-prefix:"PHARMACY_DEFAULT_ADMIN_"`

	// =========================================================================
	// ALERTS
	// =========================================================================

	// ExpiryAlertDays is the window `medicine expiring` uses by default.
	// Default: 30
	ExpiryAlertDays int `yaml:"expiry_alert_days" env:"PHARMACY_EXPIRY_ALERT_DAYS" env-default:"30"`
}

// AdminConfig is the bootstrap administrator account.
type AdminConfig struct {
	Username string `yaml:"username" env:"USERNAME" env-default:"admin"`
	Password string `yaml:"password" env:"PASSWORD" env-default:"admin"`
}

// Path resolves a data file name against DataDir.
func (c *Config) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration.
//
// PARAMETERS:
//   - configPath: The YAML file. It may be missing.
//
//   - overrides: Applied after the file and environment, before validation.
//
// RETURNS:
//   - The resolved configuration, with the data directory created.
//   - An error if the file cannot be parsed or a value is invalid.
func Load(configPath string, overrides ...Override) (*Config, error) {
	var cfg Config

	_, statErr := os.Stat(configPath)
	switch {
	case configPath != "" && statErr == nil:
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	case configPath == "" || errors.Is(statErr, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to read config file: %w", statErr)
	}

	applyDefaults(&cfg)
	for _, o := range overrides {
		o(&cfg)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Override adjusts a loaded configuration before it is validated.
type Override func(*Config)

// WithDataDir replaces data_dir when dir is not empty.
func WithDataDir(dir string) Override {
	return func(c *Config) {
		if dir != "" {
			c.DataDir = dir
		}
	}
}

// Default returns the built-in configuration without reading any file or
// the environment.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills values a config file left empty.
func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.MedicinesFile == "" {
		cfg.MedicinesFile = "medicines.txt"
	}
	if cfg.PurchasesFile == "" {
		cfg.PurchasesFile = "purchases.txt"
	}
	if cfg.UsersFile == "" {
		cfg.UsersFile = "users.txt"
	}
	if cfg.SuppliersFile == "" {
		cfg.SuppliersFile = "suppliers.txt"
	}
	if cfg.JournalFile == "" {
		cfg.JournalFile = "sales.journal"
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = "./backups"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.PasswordHashing == "" {
		cfg.PasswordHashing = "bcrypt"
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
	if cfg.DefaultAdmin.Username == "" {
		cfg.DefaultAdmin.Username = "admin"
	}
	if cfg.DefaultAdmin.Password == "" {
		cfg.DefaultAdmin.Password = "admin"
	}
	if cfg.ExpiryAlertDays == 0 {
		cfg.ExpiryAlertDays = 30
	}
}

// validate checks values and creates the data directory.
func validate(cfg *Config) error {
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	switch cfg.PasswordHashing {
	case "bcrypt":
		// bcrypt.MinCost and bcrypt.MaxCost
		if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
			return fmt.Errorf("bcrypt_cost %d is outside 4..31", cfg.BcryptCost)
		}
	case "plaintext":
	default:
		return fmt.Errorf("password_hashing must be \"bcrypt\" or \"plaintext\", got %q", cfg.PasswordHashing)
	}

	if cfg.ExpiryAlertDays < 0 {
		return fmt.Errorf("expiry_alert_days must not be negative")
	}

	if _, err := os.Stat(cfg.DataDir); os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", cfg.DataDir, err)
		}
	}
	return nil
}

// =============================================================================
// WRITING
// =============================================================================

// WriteDefault writes the default configuration as YAML.
//
// RETURNS:
//   - An error if path exists and force is false.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	header := []byte("# Pharmacy records configuration. Every PHARMACY_* environment variable\n# overrides the matching key.\n")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(header, data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
