package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// GenerateAPIKey generates a secure random API key
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// Config holds all configuration for the agent
type Config struct {
	// Server settings
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Authentication
	APIKey    string
	JWTSecret string

	// Security
	AllowedOrigins []string
	RateLimitRPS   int

	// Logging
	LogLevel  string
	LogFormat string

	// Locations seed file (yaml)
	LocationsFile string

	// Directory listing
	ShowUnixHiddenEntries bool
	MaxLoops              int
	TagDelimiter          string
	MetaFolder            string
	WebMode               bool
	MetaCacheTTL          time.Duration
	// PersistTagsInSidecarFile is the global default; locations may override it
	PersistTagsInSidecarFile bool
	WatchInterval            time.Duration

	// Thumbnails
	UseGenerateThumbnails bool
	// GenerateThumbnailsOverride, when set, wins over UseGenerateThumbnails.
	GenerateThumbnailsOverride *bool
	EnableWS                   bool
	ThumbWorkers               int

	// Setup mode
	SetupMode bool
	EnvFile   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	envFile := getEnvFile()

	// Load .env file if it exists
	_ = godotenv.Load(envFile)

	cfg := &Config{
		Port:                       getEnvInt("PORT", 8091),
		Host:                       getEnv("HOST", "0.0.0.0"),
		ReadTimeout:                time.Duration(getEnvInt("READ_TIMEOUT_SECONDS", 30)) * time.Second,
		WriteTimeout:               time.Duration(getEnvInt("WRITE_TIMEOUT_SECONDS", 300)) * time.Second,
		APIKey:                     getEnv("API_KEY", ""),
		JWTSecret:                  getEnv("JWT_SECRET", ""),
		AllowedOrigins:             getEnvSlice("ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:               getEnvInt("RATE_LIMIT_RPS", 100),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "json"),
		LocationsFile:              getEnv("LOCATIONS_FILE", "locations.yaml"),
		ShowUnixHiddenEntries:      getEnvBool("SHOW_UNIX_HIDDEN_ENTRIES", false),
		MaxLoops:                   getEnvInt("MAX_LOOPS", 5000),
		TagDelimiter:               getEnv("TAG_DELIMITER", " "),
		MetaFolder:                 getEnv("META_FOLDER", ".ts"),
		WebMode:                    getEnvBool("WEB_MODE", false),
		MetaCacheTTL:               time.Duration(getEnvInt("META_CACHE_SECONDS", 30)) * time.Second,
		PersistTagsInSidecarFile:   getEnvBool("PERSIST_TAGS_IN_SIDECAR", true),
		WatchInterval:              time.Duration(getEnvInt("WATCH_INTERVAL_SECONDS", 2)) * time.Second,
		UseGenerateThumbnails:      getEnvBool("USE_GENERATE_THUMBNAILS", true),
		GenerateThumbnailsOverride: getEnvOptionalBool("GENERATE_THUMBNAILS_OVERRIDE"),
		EnableWS:                   getEnvBool("ENABLE_WS", true),
		ThumbWorkers:               getEnvInt("THUMB_WORKERS", 2),
		SetupMode:                  false,
		EnvFile:                    envFile,
	}

	// Check if API key is configured
	if cfg.APIKey == "" {
		cfg.SetupMode = true
		return cfg, nil
	}

	if cfg.JWTSecret == "" {
		// Use API key as fallback for JWT secret
		cfg.JWTSecret = cfg.APIKey
	}

	return cfg, nil
}

// getEnvFile returns the path to the .env file
func getEnvFile() string {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		return envFile
	}

	if _, err := os.Stat(".env"); err == nil {
		return ".env"
	}

	exe, err := os.Executable()
	if err == nil {
		dir := strings.TrimSuffix(exe, "/tagdeck")
		envPath := dir + "/.env"
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	return ".env"
}

// SaveAPIKey saves the API key to the .env file
func (c *Config) SaveAPIKey(apiKey string) error {
	updates := map[string]string{"API_KEY": apiKey}
	if err := UpdateEnvFile(c.EnvFile, updates); err != nil {
		return err
	}

	c.APIKey = apiKey
	c.JWTSecret = apiKey
	c.SetupMode = false

	return nil
}

// UpdateEnvFile updates or adds environment variables in a .env file
func UpdateEnvFile(envFile string, updates map[string]string) error {
	existingContent := ""
	if data, err := os.ReadFile(envFile); err == nil {
		existingContent = string(data)
	}

	lines := strings.Split(existingContent, "\n")
	found := make(map[string]bool)

	for i, line := range lines {
		for key, value := range updates {
			if strings.HasPrefix(line, key+"=") {
				lines[i] = key + "=" + value
				found[key] = true
				break
			}
		}
	}

	// Add missing keys at the beginning
	var newLines []string
	for key, value := range updates {
		if !found[key] {
			newLines = append(newLines, key+"="+value)
		}
	}
	if len(newLines) > 0 {
		lines = append(newLines, lines...)
	}

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(envFile, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write .env file: %w", err)
	}

	return nil
}

// LoadWithDefaults loads config with defaults for testing
func LoadWithDefaults() *Config {
	return &Config{
		Port:                     8091,
		Host:                     "0.0.0.0",
		ReadTimeout:              30 * time.Second,
		WriteTimeout:             300 * time.Second,
		APIKey:                   "test-api-key",
		JWTSecret:                "test-jwt-secret",
		AllowedOrigins:           []string{"*"},
		RateLimitRPS:             100,
		LogLevel:                 "info",
		LogFormat:                "json",
		LocationsFile:            "locations.yaml",
		ShowUnixHiddenEntries:    false,
		MaxLoops:                 5000,
		TagDelimiter:             " ",
		MetaFolder:               ".ts",
		MetaCacheTTL:             30 * time.Second,
		PersistTagsInSidecarFile: true,
		WatchInterval:            2 * time.Second,
		UseGenerateThumbnails:    true,
		EnableWS:                 true,
		ThumbWorkers:             2,
	}
}

// Addr returns the server address string
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ThumbnailsEnabled resolves the effective thumbnail switch: an explicit
// override wins over the user setting.
func (c *Config) ThumbnailsEnabled() bool {
	if c.GenerateThumbnailsOverride != nil {
		return *c.GenerateThumbnailsOverride
	}
	return c.UseGenerateThumbnails
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvOptionalBool returns nil when the key is unset or unparsable.
func getEnvOptionalBool(key string) *bool {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil
	}
	return &b
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
