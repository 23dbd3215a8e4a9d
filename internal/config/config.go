package config

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Server
	Env        string
	Port       string
	AppBaseURL string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// JWT
	JWTSecret            string
	JWTExpirationDur     time.Duration
	RefreshExpirationDur time.Duration

	// Trusted internal callers (report generation)
	PipelineAPIKey string
	ReportWorkers  int

	Mail MailConfig
}

// MailConfig holds outgoing SMTP settings.
type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var (
	appConfig *Config
	mu        sync.Mutex
)

var defaults = map[string]any{
	"ENV":                "development",
	"PORT":               "8080",
	"APP_BASE_URL":       "http://localhost:8080",
	"DB_DRIVER":          "postgres",
	"DB_HOST":            "localhost",
	"DB_PORT":            "5432",
	"DB_USER":            "pocketbook",
	"DB_PASSWORD":        "pocketbook",
	"DB_NAME":            "pocketbook",
	"DB_SSLMODE":         "disable",
	"SQLITE_PATH":        "pocketbook.db",
	"JWT_SECRET":         "fallback-secret-key-for-dev-only",
	"JWT_EXPIRES_IN":     "15m",
	"REFRESH_EXPIRES_IN": "168h",
	"PIPELINE_API_KEY":   "",
	"REPORT_WORKERS":     4,
	"MAIL_ENABLED":       false,
	"MAIL_HOST":          "localhost",
	"MAIL_PORT":          587,
	"MAIL_USERNAME":      "",
	"MAIL_PASSWORD":      "",
	"MAIL_FROM":          "no-reply@pocketbook.local",
}

// Load loads configuration from a .env file, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Env:        v.GetString("ENV"),
		Port:       v.GetString("PORT"),
		AppBaseURL: strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),
		SQLitePath: v.GetString("SQLITE_PATH"),

		JWTSecret:            v.GetString("JWT_SECRET"),
		JWTExpirationDur:     parseDuration(v, "JWT_EXPIRES_IN", 15*time.Minute),
		RefreshExpirationDur: parseDuration(v, "REFRESH_EXPIRES_IN", 7*24*time.Hour),

		PipelineAPIKey: v.GetString("PIPELINE_API_KEY"),
		ReportWorkers:  v.GetInt("REPORT_WORKERS"),

		Mail: MailConfig{
			Enabled:  v.GetBool("MAIL_ENABLED"),
			Host:     v.GetString("MAIL_HOST"),
			Port:     v.GetInt("MAIL_PORT"),
			Username: v.GetString("MAIL_USERNAME"),
			Password: v.GetString("MAIL_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
		},
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (use postgres or sqlite)", cfg.DBDriver)
	}
	if cfg.ReportWorkers < 1 {
		cfg.ReportWorkers = 1
	}

	Set(cfg)
	return cfg, nil
}

// Get returns the application configuration
func Get() *Config {
	mu.Lock()
	cfg := appConfig
	mu.Unlock()
	if cfg != nil {
		return cfg
	}

	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

// Set replaces the process-wide configuration. Tests use it to inject secrets.
func Set(cfg *Config) {
	mu.Lock()
	appConfig = cfg
	mu.Unlock()
}

// PostgresDSN returns the key/value connection string used by the gorm driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// PostgresURL returns the URL form used by golang-migrate.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, fallback)
		return fallback
	}
	return d
}
