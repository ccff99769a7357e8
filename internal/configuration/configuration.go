package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/zdziszkee/mt103-simulator/internal/broker"
	"github.com/zdziszkee/mt103-simulator/internal/database"
	"github.com/zdziszkee/mt103-simulator/internal/models"
	"github.com/zdziszkee/mt103-simulator/internal/registry"
	"github.com/zdziszkee/mt103-simulator/internal/workers"
)

type Config struct {
	AppName    string                 `koanf:"app_name"`
	Log        LogConfig              `koanf:"log"`
	Broker     broker.Config          `koanf:"broker"`
	Database   database.Config        `koanf:"database"`
	Sender     workers.SenderConfig   `koanf:"sender"`
	Receiver   workers.ReceiverConfig `koanf:"receiver"`
	HTTP       HTTPConfig             `koanf:"http"`
	Simulation SimulationConfig       `koanf:"simulation"`
	Data       DataConfig             `koanf:"data"`
	Banks      []BankConfig           `koanf:"banks"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Address string `koanf:"address"`
}

type SimulationConfig struct {
	StartingBalance int           `koanf:"starting_balance"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DataConfig struct {
	// BanksFile is a CSV seed file; when set it replaces Banks
	BanksFile string `koanf:"banks_file"`
}

// BankConfig declares a bank and the holders of its accounts
type BankConfig struct {
	Name      string   `koanf:"name"`
	SwiftName string   `koanf:"swift_name"`
	Currency  string   `koanf:"currency"`
	Queue     string   `koanf:"queue"`
	Accounts  []string `koanf:"accounts"`
}

// DefaultConfig returns the default configuration for swift-sim
func DefaultConfig() *Config {
	cfg := &Config{
		AppName: "swift-sim",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Broker: broker.Config{
			Type:           broker.TypeMemory,
			ReceiveTimeout: workers.DefaultReceiveTimeout,
			QueueCapacity:  broker.DefaultQueueCapacity,
			PollInterval:   broker.DefaultPollInterval,
		},
		Database: database.Config{
			Type:            "trino",
			Host:            "trino",
			Port:            8080,
			User:            "swift-sim",
			Catalog:         "swift_catalog",
			Schema:          "default_schema",
			TableName:       "mt103_messages",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 1 * time.Hour,
		},
		Sender: workers.SenderConfig{
			RateMin:     workers.DefaultRateMin,
			RateMax:     workers.DefaultRateMax,
			MaxFailures: workers.DefaultMaxFailures,
		},
		Receiver: workers.ReceiverConfig{
			MaxFailures: workers.DefaultMaxFailures,
		},
		HTTP: HTTPConfig{
			Address: ":8080",
		},
		Simulation: SimulationConfig{
			StartingBalance: models.DefaultStartingBalance,
			ShutdownTimeout: 10 * time.Second,
		},
	}
	for _, def := range registry.DefaultDefinitions() {
		bank := BankConfig{Name: def.Name, SwiftName: def.SwiftName, Currency: def.Currency, Queue: def.Queue}
		for _, acc := range def.Accounts {
			bank.Accounts = append(bank.Accounts, acc.Name)
		}
		cfg.Banks = append(cfg.Banks, bank)
	}
	return cfg
}

// Load loads the configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading TOML config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error checking config file: %w", err)
		}
	} else {
		commonPaths := []string{
			"./config.toml",
			"./config/config.toml",
			"/etc/swift-sim/config.toml",
		}
		for _, path := range commonPaths {
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
					return nil, fmt.Errorf("error loading TOML config file from %s: %w", path, err)
				}
				break
			}
		}
	}

	// APP_BROKER__TYPE -> broker.type
	callback := func(s string) string {
		s = strings.TrimPrefix(s, "APP_")
		parts := strings.Split(s, "__")
		for i, part := range parts {
			parts[i] = strings.ToLower(part)
		}
		return strings.Join(parts, ".")
	}
	if err := k.Load(env.Provider("APP_", ".", callback), nil); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// Definitions turns the configured banks into bank definitions
func (c *Config) Definitions() []models.BankDefinition {
	defs := make([]models.BankDefinition, 0, len(c.Banks))
	for _, b := range c.Banks {
		def := models.BankDefinition{Name: b.Name, SwiftName: b.SwiftName, Currency: b.Currency, Queue: b.Queue}
		for _, name := range b.Accounts {
			def.Accounts = append(def.Accounts, models.AccountDefinition{Name: name})
		}
		defs = append(defs, def)
	}
	return defs
}

// validateConfig checks required fields.
func validateConfig(config *Config) error {
	if config.Log.Level == "" {
		return errors.New("log level cannot be empty")
	}
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(config.Log.Level)] {
		return errors.New("invalid log level: must be one of debug, info, warn, error")
	}
	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(config.Log.Format)] {
		return errors.New("invalid log format: must be text or json")
	}

	// Broker config validations.
	switch config.Broker.Type {
	case broker.TypeMemory:
		if config.Broker.QueueCapacity <= 0 {
			return errors.New("broker queue_capacity must be positive")
		}
	case broker.TypeSQL:
		if err := validateDatabase(config.Database); err != nil {
			return err
		}
		if config.Broker.PollInterval <= 0 {
			return errors.New("broker poll_interval must be positive")
		}
	default:
		return fmt.Errorf("invalid broker type '%s': must be memory or sql", config.Broker.Type)
	}
	if config.Broker.ReceiveTimeout <= 0 {
		return errors.New("broker receive_timeout must be positive")
	}

	// Worker config validations.
	if config.Sender.RateMin <= 0 {
		return errors.New("sender rate_min must be positive")
	}
	if config.Sender.RateMax <= config.Sender.RateMin {
		return errors.New("sender rate_max must be greater than rate_min")
	}
	if config.Sender.MaxFailures < 0 {
		return errors.New("sender max_failures cannot be negative")
	}
	if config.Receiver.MaxFailures < 0 {
		return errors.New("receiver max_failures cannot be negative")
	}

	if config.Simulation.StartingBalance < 0 {
		return errors.New("simulation starting_balance cannot be negative")
	}
	if config.Simulation.ShutdownTimeout <= 0 {
		return errors.New("simulation shutdown_timeout must be positive")
	}
	if config.HTTP.Enabled && config.HTTP.Address == "" {
		return errors.New("http address cannot be empty when http is enabled")
	}
	if config.Data.BanksFile == "" && len(config.Banks) == 0 {
		return errors.New("no banks configured: set banks or data.banks_file")
	}

	return nil
}

func validateDatabase(db database.Config) error {
	if db.Host == "" {
		return errors.New("database host cannot be empty")
	}
	if db.Catalog == "" {
		return errors.New("database catalog cannot be empty")
	}
	if db.Schema == "" {
		return errors.New("database schema cannot be empty")
	}
	if db.TableName == "" {
		return errors.New("database table cannot be empty")
	}
	// Connection pool validations.
	if db.MaxOpenConns < 0 {
		return errors.New("max open connections cannot be negative")
	}
	if db.MaxIdleConns < 0 {
		return errors.New("max idle connections cannot be negative")
	}
	if db.ConnMaxLifetime < 0 {
		return errors.New("connection max lifetime cannot be negative")
	}
	return nil
}
