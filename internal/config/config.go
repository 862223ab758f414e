package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm/logger"
)

type Config struct {
	Database DatabaseConfig `json:"database"`
	Server   ServerConfig   `json:"server"`
	Invoice  InvoiceConfig  `json:"invoice"`
	Security SecurityConfig `json:"security"`
	Logging  LoggingConfig  `json:"logging"`
}

type DatabaseConfig struct {
	Host               string          `json:"host"`
	Port               int             `json:"port"`
	Database           string          `json:"database"`
	Username           string          `json:"username"`
	Password           string          `json:"password"`
	MaxOpenConns       int             `json:"max_open_conns"`
	MaxIdleConns       int             `json:"max_idle_conns"`
	ConnMaxLifetime    time.Duration   `json:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration   `json:"conn_max_idle_time"`
	SlowQueryThreshold time.Duration   `json:"slow_query_threshold"`
	EnableQueryLogging bool            `json:"enable_query_logging"`
	LogLevel           logger.LogLevel `json:"-"` // Not serializable
	PrepareStmt        bool            `json:"prepare_stmt"`
}

type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

type InvoiceConfig struct {
	DefaultPaymentTerms int    `json:"default_payment_terms"`
	AllowedPaymentTerms []int  `json:"allowed_payment_terms"`
	CurrencySymbol      string `json:"currency_symbol"`
	CurrencyCode        string `json:"currency_code"`
	DateFormat          string `json:"date_format"`
}

type SecurityConfig struct {
	SessionTimeout    int `json:"session_timeout"`
	PasswordMinLength int `json:"password_min_length"`
	BcryptCost        int `json:"bcrypt_cost"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

func LoadConfig(path string) (*Config, error) {
	// Start with default config
	config := getDefaultConfig()

	// Override with environment variables if they exist
	loadFromEnvironment(config)

	// Try to load from file if it exists
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		decoder := json.NewDecoder(file)
		if err := decoder.Decode(config); err != nil {
			return nil, err
		}
		// Override again with environment variables to give them priority
		loadFromEnvironment(config)
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(c)
}

func getDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:               "localhost",
			Port:               3306,
			Database:           "invoices",
			Username:           "root",
			Password:           "",
			MaxOpenConns:       25,
			MaxIdleConns:       5,
			ConnMaxLifetime:    5 * time.Minute,
			ConnMaxIdleTime:    5 * time.Minute,
			SlowQueryThreshold: 500 * time.Millisecond,
			EnableQueryLogging: false,
			LogLevel:           logger.Warn,
			PrepareStmt:        true,
		},
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Invoice: InvoiceConfig{
			DefaultPaymentTerms: 1,
			AllowedPaymentTerms: []int{1, 7, 14, 30},
			CurrencySymbol:      "£",
			CurrencyCode:        "GBP",
			DateFormat:          "YYYY-MM-DD",
		},
		Security: SecurityConfig{
			SessionTimeout:    3600,
			PasswordMinLength: 8,
			BcryptCost:        14,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "logs/app.log",
		},
	}
}

// loadFromEnvironment loads configuration from environment variables
func loadFromEnvironment(config *Config) {
	// Database configuration
	if host := os.Getenv("DB_HOST"); host != "" {
		config.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Database.Port = p
		}
	}
	if database := os.Getenv("DB_NAME"); database != "" {
		config.Database.Database = database
	}
	if username := os.Getenv("DB_USERNAME"); username != "" {
		config.Database.Username = username
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.Database.Password = password
	}
	if logging := os.Getenv("DB_ENABLE_QUERY_LOGGING"); logging != "" {
		config.Database.EnableQueryLogging = logging == "true"
	}

	// Server configuration
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Security configuration
	if timeout := os.Getenv("SESSION_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			config.Security.SessionTimeout = t
		}
	}

	// Invoice configuration
	if paymentTerms := os.Getenv("DEFAULT_PAYMENT_TERMS"); paymentTerms != "" {
		if terms, err := strconv.Atoi(paymentTerms); err == nil {
			config.Invoice.DefaultPaymentTerms = terms
		}
	}
	if symbol := os.Getenv("CURRENCY_SYMBOL"); symbol != "" {
		config.Invoice.CurrencySymbol = symbol
	}
	if code := os.Getenv("CURRENCY_CODE"); code != "" {
		config.Invoice.CurrencyCode = code
	}

	// Logging configuration
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if file := os.Getenv("LOG_FILE"); file != "" {
		config.Logging.File = file
	}
}
