// Package config loads guardianpaws settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Prefix is prepended to every environment variable name.
const Prefix = "GUARDIANPAWS_"

// Config is the process configuration read from the environment.
type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	StorageDriver string
	SQLitePath    string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	MongoURI      string
	MongoDatabase string

	BlobDriver     string
	BlobFSRoot     string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3PathStyle    bool
	MaxPhotoBytes  int64
	PhotoURLExpiry time.Duration

	GeminiAPIKey  string
	GeminiModel   string
	TriageTimeout time.Duration

	JWTSecret  string
	TokenTTL   time.Duration
	AdminToken string

	SeedDemo bool
	// DotEnvLoaded reports whether a .env file was read.
	DotEnvLoaded bool
}

// Production reports whether the service runs with APP_ENV=production.
func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads files (default ".env") into the process environment without
// overriding existing variables, then builds a Config. A missing file is not
// an error; a malformed value is.
func Load(files ...string) (*Config, error) {
	loaded := godotenv.Load(files...) == nil

	var errs []error
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorageDriver: getEnv("STORAGE_DRIVER", "sqlite"),
		SQLitePath:    getEnv("SQLITE_PATH", "./guardianpaws.db"),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0, &errs),
		RedisPrefix:   getEnv("REDIS_PREFIX", "guardianpaws:state:"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "guardianpaws"),

		BlobDriver:     getEnv("BLOB_DRIVER", "fs"),
		BlobFSRoot:     getEnv("BLOB_FS_ROOT", "./blobdata"),
		S3Bucket:       getEnv("BLOB_S3_BUCKET", ""),
		S3Region:       getEnv("BLOB_S3_REGION", "us-east-1"),
		S3Endpoint:     getEnv("BLOB_S3_ENDPOINT", ""),
		S3PathStyle:    getBool("BLOB_S3_PATH_STYLE", false, &errs),
		MaxPhotoBytes:  int64(getInt("MAX_PHOTO_BYTES", 10<<20, &errs)),
		PhotoURLExpiry: getDuration("PHOTO_URL_EXPIRY", 15*time.Minute, &errs),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		TriageTimeout: getDuration("TRIAGE_TIMEOUT", 20*time.Second, &errs),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		TokenTTL:   getDuration("TOKEN_TTL", 24*time.Hour, &errs),
		AdminToken: getEnv("ADMIN_TOKEN", ""),

		SeedDemo:     getBool("SEED_DEMO", false, &errs),
		DotEnvLoaded: loaded,
	}
	if cfg.JWTSecret == "" {
		if cfg.Production() {
			errs = append(errs, fmt.Errorf("%sJWT_SECRET is required in production", Prefix))
		} else {
			cfg.JWTSecret = "dev-secret"
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(Prefix + key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int, errs *[]error) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", Prefix, key, err))
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool, errs *[]error) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", Prefix, key, err))
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", Prefix, key, err))
		return defaultValue
	}
	return v
}
