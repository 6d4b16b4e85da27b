// internal/infra/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Member store backends.
const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
)

// Config holds the process settings read from the environment.
type Config struct {
	Port        string
	MemberStore string

	GCPProjectID             string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirebaseProjectID        string

	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGDatabase string
	PGSSLMode  string

	// RedisAddr empty disables the stats cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StatsCacheTTL time.Duration
	StatsTimeout  time.Duration

	MemberPhotoBucket string

	SendGridAPIKey       string
	SendGridAPIKeySecret string // Secret Manager secret id, used when SendGridAPIKey is empty
	SendGridFrom         string
	SecurityAlertEmail   string

	CORSAllowedOrigin string

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	defaultProject := getenvDefault("GCP_PROJECT_ID", "pdpi-member-dev")

	return &Config{
		Port:        getenvDefault("PORT", "8080"),
		MemberStore: strings.ToLower(getenvDefault("MEMBER_STORE", StoreFirestore)),

		GCPProjectID:             defaultProject,
		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		FirebaseProjectID:        getenvDefault("FIREBASE_PROJECT_ID", defaultProject),

		PGHost:     getenvDefault("PG_HOST", "127.0.0.1"),
		PGPort:     getenvDefault("PG_PORT", "5432"),
		PGUser:     getenvDefault("PG_USER", "postgres"),
		PGPassword: os.Getenv("PG_PASSWORD"),
		PGDatabase: getenvDefault("PG_DATABASE", "memberdir"),
		PGSSLMode:  getenvDefault("PG_SSLMODE", "disable"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),
		StatsCacheTTL: getenvDuration("STATS_CACHE_TTL", 30*time.Second),
		StatsTimeout:  getenvDuration("STATS_TIMEOUT", 15*time.Second),

		MemberPhotoBucket: os.Getenv("GCS_BUCKET_MEMBER_PHOTOS"),

		SendGridAPIKey:       os.Getenv("SENDGRID_API_KEY"),
		SendGridAPIKeySecret: os.Getenv("SENDGRID_API_KEY_SECRET"),
		SendGridFrom:         os.Getenv("SENDGRID_FROM"),
		SecurityAlertEmail:   os.Getenv("SECURITY_ALERT_EMAIL"),

		CORSAllowedOrigin: getenvDefault("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),

		LogLevel:  getenvDefault("LOG_LEVEL", "info"),
		LogFormat: getenvDefault("LOG_FORMAT", "json"),
	}
}

// UsePostgres reports whether members live in Postgres.
func (c *Config) UsePostgres() bool {
	return c.MemberStore == StorePostgres
}

// AlertsEnabled reports whether denied-access mails can be sent.
func (c *Config) AlertsEnabled() bool {
	return c.SendGridFrom != "" && c.SecurityAlertEmail != "" &&
		(c.SendGridAPIKey != "" || c.SendGridAPIKeySecret != "")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

// getenvDuration accepts Go durations ("45s") or plain seconds ("45").
func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
