package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the hush-node service.
type Config struct {
	// Server Configuration
	ListenAddr  string
	MetricsAddr string
	HealthAddr  string

	// Database Configuration
	DatabaseURL       string
	DBHost            string
	DBPort            int
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Blockchain Settings
	BlockIntervalMs int64

	// Mempool Settings
	MempoolMaxDrainBatch int

	// Reactions Settings
	ReactionsMerkleRootGracePeriod int

	// Stacker (block producer) credentials
	StackerPublicSigningAddress string
	StackerPrivateSigningKey    string
	StackerPublicEncryptAddress string
	StackerPrivateEncryptKey    string

	// Redis (reserved for future in-flight coordination across nodes)
	RedisConnectionString string
	RedisInstanceName     string
	RedisEnabled          bool

	// Firestore (push-notification delivery)
	FirestoreEnabled        bool
	FirebaseProjectID       string
	FirebaseCredentialsFile string

	// KV store backing the membership Merkle root mirror
	MembershipKVDir string

	LogLevel string
}

// Load reads configuration from environment variables.
//
// Required variables have no defaults; call Validate() after Load() to
// ensure bootstrap-critical fields are present before the node starts.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  getEnv("HUSH_HOST", "0.0.0.0") + ":" + getEnv("HUSH_RPC_PORT", "8080"),
		MetricsAddr: getEnv("HUSH_HOST", "0.0.0.0") + ":" + getEnv("HUSH_METRICS_PORT", "9090"),
		HealthAddr:  getEnv("HUSH_HOST", "0.0.0.0") + ":" + getEnv("HUSH_HEALTH_PORT", "8081"),

		DatabaseURL:       getEnv("HUSH_NETWORK_DB", ""),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnvInt("DB_PORT", 5432),
		DBUser:            getEnv("DB_USER", "hush"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "hush_node"),
		DBSSLMode:         getEnv("DB_SSL_MODE", "require"),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),

		BlockIntervalMs: getEnvInt64("HUSH_BLOCK_INTERVAL_MS", 5000),

		MempoolMaxDrainBatch: getEnvInt("HUSH_MEMPOOL_MAX_DRAIN", 1000),

		ReactionsMerkleRootGracePeriod: getEnvInt("HUSH_MERKLE_ROOT_GRACE_PERIOD", 3),

		StackerPublicSigningAddress: getEnv("HUSH_STACKER_PUBLIC_SIGNING_ADDRESS", ""),
		StackerPrivateSigningKey:    getEnv("HUSH_STACKER_PRIVATE_SIGNING_KEY", ""),
		StackerPublicEncryptAddress: getEnv("HUSH_STACKER_PUBLIC_ENCRYPT_ADDRESS", ""),
		StackerPrivateEncryptKey:    getEnv("HUSH_STACKER_PRIVATE_ENCRYPT_KEY", ""),

		RedisConnectionString: getEnv("HUSH_REDIS_CONNECTION_STRING", ""),
		RedisInstanceName:     getEnv("HUSH_REDIS_INSTANCE_NAME", "hush-node"),
		RedisEnabled:          getEnvBool("HUSH_REDIS_ENABLED", false),

		FirestoreEnabled:        getEnvBool("HUSH_FIRESTORE_ENABLED", false),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		MembershipKVDir: getEnv("HUSH_MEMBERSHIP_KV_DIR", "./data/membership"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate checks that bootstrap-critical configuration is present.
// Exit codes: callers should exit non-zero when this returns an error
// (unreachable database, missing credentials, invalid configuration).
func (c *Config) Validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "HUSH_NETWORK_DB is required but not set")
	}
	if c.StackerPublicSigningAddress == "" {
		errs = append(errs, "HUSH_STACKER_PUBLIC_SIGNING_ADDRESS is required but not set")
	}
	if c.StackerPrivateSigningKey == "" {
		errs = append(errs, "HUSH_STACKER_PRIVATE_SIGNING_KEY is required but not set")
	}
	if c.MempoolMaxDrainBatch <= 0 {
		errs = append(errs, "HUSH_MEMPOOL_MAX_DRAIN must be positive")
	}
	if c.ReactionsMerkleRootGracePeriod <= 0 {
		errs = append(errs, "HUSH_MERKLE_ROOT_GRACE_PERIOD must be positive")
	}
	if c.FirestoreEnabled && c.FirebaseProjectID == "" {
		errs = append(errs, "FIREBASE_PROJECT_ID is required when HUSH_FIRESTORE_ENABLED is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
