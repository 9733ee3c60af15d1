package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Mirror modes
const (
	MirrorFS   = "fs"
	MirrorS3   = "s3"
	MirrorNone = "none"
)

// Config holds all configuration for the application
type Config struct {
	// Output files
	OutputDir     string `json:"output_dir" validate:"required"`
	HutbesFile    string `json:"hutbes_file" validate:"required"`
	PrayersFile   string `json:"prayers_file" validate:"required"`
	PublicBaseURL string `json:"public_base_url" validate:"required,url"`

	// Upstream
	UpstreamBaseURL string        `json:"upstream_base_url" validate:"required,url"`
	Languages       []string      `json:"languages" validate:"required,min=1,dive,required"`
	MaxPages        int           `json:"max_pages" validate:"min=1,max=100"`
	FetchTimeout    time.Duration `json:"fetch_timeout" validate:"gt=0"`
	MaxConcurrency  int           `json:"max_concurrency" validate:"min=1"`

	// PDF mirroring
	MirrorMode  string `json:"mirror_mode" validate:"oneof=fs s3 none"`
	MaxFileSize int64  `json:"max_file_size" validate:"gt=0"`

	// CloudFlare R2 Configuration
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"r2_access_key"`
	R2SecretKey string `json:"r2_secret_key"`
	R2Bucket    string `json:"r2_bucket"`
	R2AccountID string `json:"r2_account_id"`
	R2PublicURL string `json:"r2_public_url" validate:"omitempty,url"`

	// Locking
	RedisURL string        `json:"redis_url"`
	LockTTL  time.Duration `json:"lock_ttl" validate:"gt=0"`

	// Daemon mode
	Schedule string `json:"schedule"`
	Timezone string `json:"timezone"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFile   string `json:"log_file"`
	LogPretty bool   `json:"log_pretty"`
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	githubUser := getEnv("GITHUB_USERNAME", "TalhaY61")
	githubRepo := getEnv("GITHUB_REPO", "open-hutbe-api")

	cfg := &Config{
		OutputDir:     getEnv("OUTPUT_DIR", "."),
		HutbesFile:    getEnv("HUTBES_FILE", "hutbes.json"),
		PrayersFile:   getEnv("PRAYERS_FILE", "prayers.json"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", fmt.Sprintf("https://%s.github.io/%s", githubUser, githubRepo)), "/"),

		UpstreamBaseURL: strings.TrimRight(getEnv("UPSTREAM_BASE_URL", "https://dinhizmetleri.diyanet.gov.tr"), "/"),
		Languages:       getEnvAsList("LANGUAGES", []string{"tr", "de", "en", "fr", "ru", "ar", "it", "es"}),
		MaxPages:        getEnvAsInt("HUTBE_MAX_PAGES", 10),
		FetchTimeout:    getEnvAsDuration("FETCH_TIMEOUT", 45*time.Second),
		MaxConcurrency:  getEnvAsInt("MAX_CONCURRENCY", 4),

		MirrorMode:  strings.ToLower(getEnv("MIRROR_MODE", MirrorFS)),
		MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 50<<20), // 50MB

		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", "hutbe"),
		R2AccountID: getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
		R2PublicURL: strings.TrimRight(getEnv("R2_PUBLIC_URL", ""), "/"),

		RedisURL: getEnv("REDIS_URL", ""),
		LockTTL:  getEnvAsDuration("LOCK_TTL", time.Hour),

		Schedule: getEnv("UPDATE_SCHEDULE", "0 9 * * 5"), // Fridays 09:00
		Timezone: getEnv("UPDATE_TIMEZONE", "Europe/Istanbul"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFile:   getEnv("LOG_FILE", ""),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.MirrorMode == MirrorS3 {
		if c.R2Bucket == "" || c.R2PublicURL == "" {
			return errors.New("s3 mirror needs R2_BUCKET and R2_PUBLIC_URL")
		}
		if c.R2Endpoint == "" && c.R2AccountID == "" {
			return errors.New("s3 mirror needs R2_ENDPOINT or CLOUDFLARE_ACCOUNT_ID")
		}
	}
	return nil
}

// HutbesPath is the full path of hutbes.json
func (c *Config) HutbesPath() string {
	return filepath.Join(c.OutputDir, c.HutbesFile)
}

// PrayersPath is the full path of prayers.json
func (c *Config) PrayersPath() string {
	return filepath.Join(c.OutputDir, c.PrayersFile)
}

// PDFRoot is the directory mirrored PDFs are written to in fs mode
func (c *Config) PDFRoot() string {
	return filepath.Join(c.OutputDir, "pdfs")
}

// LockPath is the lock file guarding the archive
func (c *Config) LockPath() string {
	return c.HutbesPath() + ".lock"
}

// R2EndpointURL resolves the S3 endpoint for Cloudflare R2
func (c *Config) R2EndpointURL() string {
	if c.R2Endpoint != "" {
		return c.R2Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2AccountID)
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsInt64(name string, defaultVal int64) int64 {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %t", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsList(name string, defaultVal []string) []string {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
