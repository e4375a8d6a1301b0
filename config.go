package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type config struct {
	HTTPAddr string

	SourceKind      string
	DatabaseURL     string
	CredentialsPath string
	SummaryTable    string
	WorkbookPath    string
	WorkbookSheet   string
	WatchWorkbook   bool

	FreshnessTTL time.Duration
	RedisURL     string
	SessionTTL   time.Duration
	ValueMode    string

	JWTSecret string
}

// fileConfig is the optional YAML layer pointed to by FEEDBOARD_CONFIG.
// Every field has an env fallback.
type fileConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	Source struct {
		Kind            string `yaml:"kind"`
		DatabaseURL     string `yaml:"database_url"`
		CredentialsPath string `yaml:"credentials_path"`
		SummaryTable    string `yaml:"summary_table"`
		WorkbookPath    string `yaml:"workbook_path"`
		WorkbookSheet   string `yaml:"workbook_sheet"`
		Watch           bool   `yaml:"watch"`
	} `yaml:"source"`

	FreshnessTTL string `yaml:"freshness_ttl"`
	RedisURL     string `yaml:"redis_url"`
	SessionTTL   string `yaml:"session_ttl"`
	ValueMode    string `yaml:"value_mode"`
}

func loadConfig() config {
	cfg := config{
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		SourceKind:      getenvDefault("SOURCE_KIND", "postgres"),
		DatabaseURL:     getenvDefault("DATABASE_URL", ""),
		CredentialsPath: getenvDefault("CREDENTIALS_PATH", "service_account.json"),
		SummaryTable:    getenvDefault("SUMMARY_TABLE", ""),
		WorkbookPath:    getenvDefault("WORKBOOK_PATH", ""),
		WorkbookSheet:   getenvDefault("WORKBOOK_SHEET", ""),
		WatchWorkbook:   getenvBoolDefault("WORKBOOK_WATCH", true),
		FreshnessTTL:    getenvDuration("FRESHNESS_TTL", 10*time.Minute),
		RedisURL:        getenvDefault("REDIS_URL", ""),
		SessionTTL:      getenvDuration("SESSION_TTL", 30*time.Minute),
		ValueMode:       getenvDefault("VALUE_MODE", "corrected"),
		JWTSecret:       getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}

	if path := os.Getenv("FEEDBOARD_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("config file error: %v", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			log.Fatalf("config parse error: %v", err)
		}
		mergeFileConfig(&cfg, fc)
	}

	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	if cfg.SourceKind != "postgres" && cfg.SourceKind != "spreadsheet" {
		log.Fatalf("unknown SOURCE_KIND %q (want postgres or spreadsheet)", cfg.SourceKind)
	}
	if cfg.SourceKind == "spreadsheet" && cfg.WorkbookPath == "" {
		log.Fatal("WORKBOOK_PATH is required for the spreadsheet source")
	}
	return cfg
}

func mergeFileConfig(cfg *config, fc fileConfig) {
	if fc.HTTPAddr != "" {
		cfg.HTTPAddr = fc.HTTPAddr
	}
	if fc.Source.Kind != "" {
		cfg.SourceKind = fc.Source.Kind
	}
	if fc.Source.DatabaseURL != "" {
		cfg.DatabaseURL = fc.Source.DatabaseURL
	}
	if fc.Source.CredentialsPath != "" {
		cfg.CredentialsPath = fc.Source.CredentialsPath
	}
	if fc.Source.SummaryTable != "" {
		cfg.SummaryTable = fc.Source.SummaryTable
	}
	if fc.Source.WorkbookPath != "" {
		cfg.WorkbookPath = fc.Source.WorkbookPath
		cfg.WatchWorkbook = fc.Source.Watch
	}
	if fc.Source.WorkbookSheet != "" {
		cfg.WorkbookSheet = fc.Source.WorkbookSheet
	}
	if fc.FreshnessTTL != "" {
		if d, err := time.ParseDuration(fc.FreshnessTTL); err == nil {
			cfg.FreshnessTTL = d
		}
	}
	if fc.RedisURL != "" {
		cfg.RedisURL = fc.RedisURL
	}
	if fc.SessionTTL != "" {
		if d, err := time.ParseDuration(fc.SessionTTL); err == nil {
			cfg.SessionTTL = d
		}
	}
	if fc.ValueMode != "" {
		cfg.ValueMode = fc.ValueMode
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
