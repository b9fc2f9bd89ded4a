package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"caixa/internal/core"
)

// Backend names accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendSheets = "sheets"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendMySQL, BackendSheets}

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string
	MySQLDSN     string

	// Google Sheets backend
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Slot keys are prefixed with this namespace.
	StorageNamespace string

	// Ledger settings
	InitialBalance   core.Money
	EmergencyReserve core.Money

	// AMQP summary feed; empty URL disables it.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	SummaryCacheTTL time.Duration
	LogLevel        string

	// Accumulated while reading money variables, reported by Validate.
	parseErrors []string
}

func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8081"),
		DataBackend: getEnv("DATA_BACKEND", BackendMemory),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/caixa.db"),
		MySQLDSN:     getEnv("MYSQL_DSN", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Slots"),

		StorageNamespace: getEnv("STORAGE_NAMESPACE", "alho_e_so_v6_final"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "caixa"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_summaries"),

		SummaryCacheTTL: getEnvDuration("SUMMARY_CACHE_TTL", 30*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	defaults := core.DefaultSettings()
	cfg.InitialBalance = cfg.getEnvMoney("INITIAL_BALANCE", defaults.InitialBalance)
	cfg.EmergencyReserve = cfg.getEnvMoney("EMERGENCY_RESERVE", defaults.EmergencyReserve)

	return cfg
}

// Settings returns the ledger settings carried by the configuration.
func (c *Config) Settings() core.Settings {
	return core.Settings{InitialBalance: c.InitialBalance, EmergencyReserve: c.EmergencyReserve}
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	errors := slices.Clone(c.parseErrors)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendMySQL:
		if c.MySQLDSN == "" {
			errors = append(errors, "MYSQL_DSN is required when using mysql backend")
		}
	case BackendSheets:
		if strings.TrimSpace(c.GoogleSpreadsheetID) == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET_ID is required when using sheets backend")
		}
	}

	if strings.TrimSpace(c.StorageNamespace) == "" {
		errors = append(errors, "storage namespace cannot be empty")
	}

	if c.EmergencyReserve.IsNegative() {
		errors = append(errors, fmt.Sprintf("invalid emergency reserve %s: must not be negative", c.EmergencyReserve))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SummaryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must not be negative", c.SummaryCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvMoney reads a decimal amount. Unlike the other getters a malformed
// value is not silently replaced: it is recorded and fails Validate.
func (c *Config) getEnvMoney(key string, defaultValue core.Money) core.Money {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	m, err := core.ParseMoney(value)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("invalid %s '%s': must be a decimal amount", key, value))
		return defaultValue
	}
	return m
}
