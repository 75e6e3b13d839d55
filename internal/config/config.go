package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the application configuration, loaded from the environment with
// an optional .env file on top.
type Config struct {
	// Server
	Port string `json:"port"`

	// Data sources
	DataDir            string `json:"data_dir"`
	StationPrefix      string `json:"station_prefix"`
	LookupWorkbookPath string `json:"lookup_workbook_path"`
	TranslatorCache    string `json:"translator_cache_path"`
	StorePath          string `json:"store_path"`
	LedgerYear         int    `json:"ledger_year"`

	// Weighing service
	WeightAPIBaseURL   string        `json:"weight_api_base_url"`
	WeightAPITimeout   time.Duration `json:"weight_api_timeout"`
	WeightAPIRateLimit time.Duration `json:"weight_api_rate_limit"`

	// Mail
	SMTPHost     string   `json:"smtp_host"`
	SMTPPort     string   `json:"smtp_port"`
	SMTPUsername string   `json:"smtp_username"`
	SMTPPassword string   `json:"-"`
	MailFrom     string   `json:"mail_from"`
	MailTo       []string `json:"mail_to"`

	// GUI sign-in
	GUIUsername string `json:"gui_username"`
	GUIPassword string `json:"-"`

	// Aggregation
	YearGroups []string `json:"year_groups"`
}

// LoadConfig builds the configuration from the environment. A .env file in
// the working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg := &Config{
		Port: getEnv("SERVER_PORT", "9090"),

		DataDir:            getEnv("DATA_DIR", "data"),
		StationPrefix:      getEnv("STATION_LEDGER_PREFIX", "餐线消费数据-"),
		LookupWorkbookPath: getEnv("LOOKUP_WORKBOOK", "conversion.xlsx"),
		TranslatorCache:    getEnv("TRANSLATOR_CACHE", "data/translator_cache.db"),
		StorePath:          getEnv("STORE_PATH", "combined_data/merged_data.json"),
		LedgerYear:         getEnvInt("LEDGER_YEAR", time.Now().Year()),

		WeightAPIBaseURL:   getEnv("WEIGHT_API_URL", "http://10.10.0.44/beijingdev/dev"),
		WeightAPITimeout:   getEnvDuration("WEIGHT_API_TIMEOUT", 30*time.Second),
		WeightAPIRateLimit: getEnvDuration("WEIGHT_API_RATE_LIMIT", time.Second),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "25"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", ""),
		MailTo:       getEnvList("MAIL_TO"),

		GUIUsername: getEnv("GUI_USERNAME", "admin"),
		GUIPassword: getEnv("GUI_PASSWORD", "pw"),

		YearGroups: getEnvList("YEAR_GROUPS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %s", key, value, fallback)
		return fallback
	}
	return d
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
