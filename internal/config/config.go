package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
	BackendMemory = "memory"
)

// Sync targets
const (
	SyncNone     = "none"
	SyncWorkbook = "workbook"
	SyncSheets   = "sheets"
	SyncLark     = "lark"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Insight  InsightConfig  `mapstructure:"insight"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig selects where the ERP state lives
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// SyncConfig configures the push of finalized invoices to an external sheet
type SyncConfig struct {
	Target       string         `mapstructure:"target"`
	QueueSize    int            `mapstructure:"queue_size"`
	PushTimeout  time.Duration  `mapstructure:"push_timeout"`
	MaxAttempts  int            `mapstructure:"max_attempts"`
	RetryBackoff time.Duration  `mapstructure:"retry_backoff"`
	Workbook     WorkbookConfig `mapstructure:"workbook"`
	Sheets       SheetsConfig   `mapstructure:"sheets"`
	Lark         LarkConfig     `mapstructure:"lark"`
}

// WorkbookConfig holds the local XLSX sync target settings
type WorkbookConfig struct {
	Path  string `mapstructure:"path"`
	Sheet string `mapstructure:"sheet"`
}

// SheetsConfig holds Google Sheets sync target settings
type SheetsConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	SheetName       string `mapstructure:"sheet_name"`
	CredentialsFile string `mapstructure:"credentials_file"`
	CredentialsJSON string `mapstructure:"credentials_json"`
}

// LarkConfig holds Lark chat notification settings
type LarkConfig struct {
	AppID         string `mapstructure:"app_id"`
	AppSecret     string `mapstructure:"app_secret"`
	ReceiveID     string `mapstructure:"receive_id"`
	ReceiveIDType string `mapstructure:"receive_id_type"`
}

// InsightConfig holds the LLM provider settings. An empty APIKey disables it.
type InsightConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	Model       string `mapstructure:"model"`
	PromptsPath string `mapstructure:"prompts_path"`
}

// CatalogConfig lists the products, and optionally the invoices, installed
// into an empty store
type CatalogConfig struct {
	Products []ProductConfig     `mapstructure:"products"`
	Invoices []SeedInvoiceConfig `mapstructure:"invoices"`
}

// SeedInvoiceConfig is a historical invoice installed on first run. Lines
// are priced from the seed catalog; stock is not deducted for them.
type SeedInvoiceConfig struct {
	ID         string           `mapstructure:"id"`
	SchoolName string           `mapstructure:"school_name"`
	Date       string           `mapstructure:"date"` // YYYY-MM-DD
	Status     string           `mapstructure:"status"`
	AccountsBy string           `mapstructure:"accounts_by"`
	StockBy    string           `mapstructure:"stock_by"`
	Items      []SeedLineConfig `mapstructure:"items"`
}

// SeedLineConfig is one line of a seed invoice
type SeedLineConfig struct {
	ProductID string `mapstructure:"product_id"`
	Quantity  int    `mapstructure:"quantity"`
}

// ProductConfig is one seed product. Price is a decimal string.
type ProductConfig struct {
	ID           string `mapstructure:"id"`
	Name         string `mapstructure:"name"`
	Price        string `mapstructure:"price"`
	Stock        int    `mapstructure:"stock"`
	ReorderLevel int    `mapstructure:"reorder_level"`
	Category     string `mapstructure:"category"`
}

// Load loads configuration from file and environment variables. A .env
// file in the working directory is applied first when present. An empty
// configPath runs on defaults and environment only.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{})

	// Database defaults
	v.SetDefault("database.path", "data/erp.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	// Storage defaults
	v.SetDefault("storage.backend", BackendSQLite)
	v.SetDefault("storage.data_dir", "data")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Sync defaults
	v.SetDefault("sync.target", SyncNone)
	v.SetDefault("sync.queue_size", 64)
	v.SetDefault("sync.push_timeout", 10*time.Second)
	v.SetDefault("sync.max_attempts", 3)
	v.SetDefault("sync.retry_backoff", 500*time.Millisecond)
	v.SetDefault("sync.workbook.path", "data/invoices.xlsx")
	v.SetDefault("sync.workbook.sheet", "Invoices")
	v.SetDefault("sync.sheets.sheet_name", "Invoices")
	v.SetDefault("sync.lark.receive_id_type", "chat_id")

	// Insight defaults
	v.SetDefault("insight.model", "gpt-4o-mini")

	// Catalog defaults
	v.SetDefault("catalog.products", defaultCatalog())
}

func defaultCatalog() []map[string]interface{} {
	return []map[string]interface{}{
		{"id": "P001", "name": "Mathematics Textbook Gr 10", "price": "45.00", "stock": 500, "reorder_level": 100, "category": "Books"},
		{"id": "P002", "name": "Science Lab Kit", "price": "120.00", "stock": 50, "reorder_level": 20, "category": "Equipment"},
		{"id": "P003", "name": "School Uniform Set", "price": "85.00", "stock": 200, "reorder_level": 50, "category": "Apparel"},
		{"id": "P004", "name": "Luminate Tablet", "price": "350.00", "stock": 15, "reorder_level": 25, "category": "Electronics"},
	}
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	_ = v.BindEnv("insight.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("insight.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("sync.lark.app_id", "LARK_APP_ID")
	_ = v.BindEnv("sync.lark.app_secret", "LARK_APP_SECRET")
	_ = v.BindEnv("sync.lark.receive_id", "LARK_RECEIVE_ID")
	_ = v.BindEnv("sync.sheets.spreadsheet_id", "GOOGLE_SHEETS_ID")
	_ = v.BindEnv("sync.sheets.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")
	_ = v.BindEnv("sync.sheets.credentials_json", "GOOGLE_SHEETS_CREDENTIALS_JSON")
	_ = v.BindEnv("storage.backend", "ERP_STORAGE_BACKEND")
	_ = v.BindEnv("database.path", "ERP_DATABASE_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite backend")
		}
	case BackendJSON:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir is required for the json backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("storage.backend %q is not one of sqlite, json, memory", c.Storage.Backend)
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format %q is not one of json, console", c.Logger.Format)
	}

	if err := c.Sync.validate(); err != nil {
		return err
	}

	products, err := c.Catalog.SeedProducts()
	if err != nil {
		return err
	}
	_, err = c.Catalog.SeedInvoices(products)
	return err
}

func (s *SyncConfig) validate() error {
	if s.QueueSize <= 0 {
		return fmt.Errorf("sync.queue_size must be positive")
	}
	if s.MaxAttempts <= 0 {
		return fmt.Errorf("sync.max_attempts must be positive")
	}

	switch s.Target {
	case SyncNone:
	case SyncWorkbook:
		if s.Workbook.Path == "" {
			return fmt.Errorf("sync.workbook.path is required")
		}
	case SyncSheets:
		if s.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("sync.sheets.spreadsheet_id is required")
		}
		if s.Sheets.CredentialsFile == "" && s.Sheets.CredentialsJSON == "" {
			return fmt.Errorf("sync.sheets.credentials_file or credentials_json is required")
		}
	case SyncLark:
		if s.Lark.AppID == "" || s.Lark.AppSecret == "" {
			return fmt.Errorf("sync.lark.app_id and app_secret are required")
		}
		if s.Lark.ReceiveID == "" {
			return fmt.Errorf("sync.lark.receive_id is required")
		}
	default:
		return fmt.Errorf("sync.target %q is not one of none, workbook, sheets, lark", s.Target)
	}
	return nil
}
