package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends for the session
const (
	StoreKeyring = "keyring"
	StoreFile    = "file"
	StoreMemory  = "memory"
)

// Config holds all configuration for the application
type Config struct {
	// Client Configuration
	Client ClientConfig

	// Reference backend Configuration
	DevAPI DevAPIConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ClientConfig holds the CLI's API and session settings
type ClientConfig struct {
	APIURL         string
	Store          string        // keyring, file, memory
	StoreDir       string        // file store only; empty = $XDG_RUNTIME_DIR or user cache dir
	SessionScope   string        // empty = derived from API host and parent process identity
	RequestTimeout time.Duration // 0 disables the timeout
	StrictRoles    bool          // refuse to infer ADMIN from a roster 403
}

// DevAPIConfig holds the reference backend settings
type DevAPIConfig struct {
	Addr          string
	DatabaseURL   string
	AdminEmail    string
	AdminPassword string
	CORSOrigins   []string
	SeedDemo      bool // load the demo directory into an empty database
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	timeout, err := durationEnv("HEALTHMAP_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	strict, err := boolEnv("HEALTHMAP_STRICT_ROLES", false)
	if err != nil {
		return nil, err
	}

	seedDemo, err := boolEnv("DEVAPI_SEED_DEMO", false)
	if err != nil {
		return nil, err
	}

	store := strings.ToLower(envOr("HEALTHMAP_STORE", StoreKeyring))
	if err := ValidateStore(store); err != nil {
		return nil, err
	}

	return &Config{
		Client: ClientConfig{
			APIURL:         strings.TrimSuffix(envOr("HEALTHMAP_API_URL", "http://localhost:8080/api"), "/"),
			Store:          store,
			StoreDir:       os.Getenv("HEALTHMAP_STORE_DIR"),
			SessionScope:   os.Getenv("HEALTHMAP_SESSION"),
			RequestTimeout: timeout,
			StrictRoles:    strict,
		},
		DevAPI: DevAPIConfig{
			Addr:          envOr("DEVAPI_ADDR", ":8080"),
			DatabaseURL:   envOr("DATABASE_URL", "healthmap-devapi.sqlite"),
			AdminEmail:    os.Getenv("DEVAPI_ADMIN_EMAIL"),
			AdminPassword: os.Getenv("DEVAPI_ADMIN_PASSWORD"),
			CORSOrigins:   splitList(envOr("DEVAPI_CORS_ORIGINS", "http://localhost:4200")),
			SeedDemo:      seedDemo,
		},
		Logging: LoggingConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "console"),
		},
	}, nil
}

// ValidateStore rejects unknown store backends
func ValidateStore(store string) error {
	switch store {
	case StoreKeyring, StoreFile, StoreMemory:
		return nil
	default:
		return fmt.Errorf("invalid session store %q, must be one of: keyring, file, memory", store)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	// Bare integers are seconds
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
