package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Data source kinds.
const (
	SourceSheetsAPI = "sheets_api"
	SourceCSVExport = "csv_export"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Sheets   SheetsConfig
	Columns  ColumnsConfig
	Cache    CacheConfig
	Pipeline PipelineConfig
	MongoDB  MongoDBConfig
	LogLevel string
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// SheetsConfig contains configuration required to read the inventory spreadsheet.
type SheetsConfig struct {
	Source             string
	SpreadsheetID      string
	SpreadsheetName    string
	ServiceAccountJSON string
	CredentialsPath    string
	ExportBaseURL      string
	ExportGID          string
}

// ColumnsConfig holds the source header of each presented column. Values are
// used verbatim, leading or trailing spaces included.
type ColumnsConfig struct {
	Code                string
	ProductName         string
	StockGroup          string
	QuantityInStock     string
	WeeklyAverageSales  string
	StockAnalysisStatus string
}

// CacheConfig controls how long a fetched table is reused.
type CacheConfig struct {
	TTL          time.Duration
	WarmSchedule string
}

// PipelineConfig holds the cleaning and display options.
type PipelineConfig struct {
	NumericCleaning   string
	RepairLeadingZero bool
	DisplayDecimals   int
	PadLeadingZero    bool
	Timezone          string
}

// MongoDBConfig holds settings for the optional lookup audit store.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	ttlSeconds, err := getenvInt("CACHE_TTL_SECONDS", 600)
	if err != nil {
		return nil, err
	}
	decimals, err := getenvInt("DISPLAY_DECIMALS", 2)
	if err != nil {
		return nil, err
	}
	repairZero, err := getenvBool("CLEAN_REPAIR_LEADING_ZERO", false)
	if err != nil {
		return nil, err
	}
	padZero, err := getenvBool("DISPLAY_PAD_LEADING_ZERO", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Sheets: SheetsConfig{
			Source:             strings.ToLower(getenvWithDefault("DATA_SOURCE", SourceSheetsAPI)),
			SpreadsheetID:      strings.TrimSpace(os.Getenv("GOOGLE_SHEET_ID")),
			SpreadsheetName:    getenvWithDefault("GOOGLE_SHEET_NAME", "Estoque_Loja_Analitico"),
			ServiceAccountJSON: os.Getenv("GCP_SERVICE_ACCOUNT"),
			CredentialsPath:    getenvWithDefault("GOOGLE_SHEETS_CREDENTIALS_PATH", "credentials.json"),
			ExportBaseURL:      getenvWithDefault("SHEETS_EXPORT_BASE_URL", "https://docs.google.com"),
			ExportGID:          getenvWithDefault("SHEETS_EXPORT_GID", "0"),
		},
		Columns: ColumnsConfig{
			Code:                getenvWithDefault("SHEET_COLUMN_CODE", "Codigo"),
			ProductName:         getenvWithDefault("SHEET_COLUMN_PRODUCT", "Produto"),
			StockGroup:          getenvWithDefault("SHEET_COLUMN_GROUP", "Grupo_de_Estoque"),
			QuantityInStock:     getenvWithDefault("SHEET_COLUMN_QUANTITY", "Em_Estoque"),
			WeeklyAverageSales:  getenvWithDefault("SHEET_COLUMN_WEEKLY_SALES", "Media de venda semanal"),
			StockAnalysisStatus: getenvWithDefault("SHEET_COLUMN_STATUS", "Analise de estoque"),
		},
		Cache: CacheConfig{
			TTL:          time.Duration(ttlSeconds) * time.Second,
			WarmSchedule: strings.TrimSpace(os.Getenv("CACHE_WARM_SCHEDULE")),
		},
		Pipeline: PipelineConfig{
			NumericCleaning:   getenvWithDefault("NUMERIC_CLEANING", "locale"),
			RepairLeadingZero: repairZero,
			DisplayDecimals:   decimals,
			PadLeadingZero:    padZero,
			Timezone:          getenvWithDefault("TIMEZONE", "America/Sao_Paulo"),
		},
		MongoDB: MongoDBConfig{
			URI:    strings.TrimSpace(os.Getenv("MONGODB_URI")),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "estoque"),
		},
		LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves the display timezone.
func (p PipelineConfig) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Sheets.Source {
	case SourceSheetsAPI:
		if c.Sheets.SpreadsheetID == "" && c.Sheets.SpreadsheetName == "" {
			return errors.New("GOOGLE_SHEET_ID or GOOGLE_SHEET_NAME must be provided")
		}
		if strings.TrimSpace(c.Sheets.ServiceAccountJSON) == "" && c.Sheets.CredentialsPath == "" {
			return errors.New("GCP_SERVICE_ACCOUNT or GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
		}
	case SourceCSVExport:
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("GOOGLE_SHEET_ID must be provided for csv_export")
		}
		if c.Sheets.ExportBaseURL == "" {
			return errors.New("SHEETS_EXPORT_BASE_URL must not be empty")
		}
	default:
		return fmt.Errorf("unsupported DATA_SOURCE %q", c.Sheets.Source)
	}

	for name, header := range map[string]string{
		"SHEET_COLUMN_CODE":         c.Columns.Code,
		"SHEET_COLUMN_PRODUCT":      c.Columns.ProductName,
		"SHEET_COLUMN_GROUP":        c.Columns.StockGroup,
		"SHEET_COLUMN_QUANTITY":     c.Columns.QuantityInStock,
		"SHEET_COLUMN_WEEKLY_SALES": c.Columns.WeeklyAverageSales,
		"SHEET_COLUMN_STATUS":       c.Columns.StockAnalysisStatus,
	} {
		if header == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}

	if c.Cache.TTL < 0 {
		return errors.New("CACHE_TTL_SECONDS must not be negative")
	}

	switch strings.ToLower(c.Pipeline.NumericCleaning) {
	case "locale", "raw":
	default:
		return fmt.Errorf("NUMERIC_CLEANING must be locale or raw, got %q", c.Pipeline.NumericCleaning)
	}

	if c.Pipeline.DisplayDecimals < 1 || c.Pipeline.DisplayDecimals > 8 {
		return errors.New("DISPLAY_DECIMALS must be between 1 and 8")
	}

	if _, err := time.LoadLocation(c.Pipeline.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Pipeline.Timezone, err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
