// Package config reads the server settings from the environment, after loading a
// .env file when one is present.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"trainerapp/internal/adapters/blob"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every TRAINER_* setting.
type Config struct {
	Addr string
	Env  string

	DBPath string

	BackendURL          string
	BackendServiceToken string // lets background jobs call the backend; optional

	ResendKey  string
	ResendFrom string
	ReplyTo    string

	CSRFKey        []byte
	TrustedOrigins []string
	RateLimit      int // requests per minute per IP
	SlowRequest    time.Duration

	UploadDir string
	MinIO     blob.MinIOConfig // used when Endpoint is set

	MapsKey string

	ReminderLead time.Duration
	PushInterval time.Duration
	DevLogin     bool
}

// Production reports whether the server runs in production mode.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// UseMinIO reports whether uploads go to a bucket rather than the upload directory.
func (c Config) UseMinIO() bool {
	return c.MinIO.Endpoint != ""
}

// Load reads .env (if present) and then the environment.
// PRE: none
// POST: returns a config with defaults applied, or an error naming the bad variable
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the environment without touching .env.
func FromEnv() (Config, error) {
	c := Config{
		Addr:                envOrDefault("TRAINER_ADDR", ":8080"),
		Env:                 envOrDefault("TRAINER_ENV", EnvDevelopment),
		DBPath:              envOrDefault("TRAINER_DB_PATH", "trainerapp.db"),
		BackendURL:          envOrDefault("TRAINER_BACKEND_URL", "http://localhost:8000"),
		BackendServiceToken: os.Getenv("TRAINER_BACKEND_SERVICE_TOKEN"),
		ResendKey:           os.Getenv("TRAINER_RESEND_KEY"),
		ResendFrom:          envOrDefault("TRAINER_RESEND_FROM", "Entrenador <no-reply@localhost>"),
		ReplyTo:             os.Getenv("TRAINER_REPLY_TO"),
		UploadDir:           envOrDefault("TRAINER_UPLOAD_DIR", "uploads"),
		MapsKey:             os.Getenv("TRAINER_MAPS_KEY"),
		MinIO: blob.MinIOConfig{
			Endpoint:  os.Getenv("TRAINER_MINIO_ENDPOINT"),
			AccessKey: os.Getenv("TRAINER_MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("TRAINER_MINIO_SECRET_KEY"),
			Bucket:    envOrDefault("TRAINER_MINIO_BUCKET", "trainer-logos"),
			Region:    os.Getenv("TRAINER_MINIO_REGION"),
			PublicURL: os.Getenv("TRAINER_MINIO_PUBLIC_URL"),
		},
	}
	if v := os.Getenv("TRAINER_TRUSTED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.TrustedOrigins = append(c.TrustedOrigins, o)
			}
		}
	}

	var err error
	if c.RateLimit, err = envInt("TRAINER_RATE_LIMIT", 600); err != nil {
		return Config{}, err
	}
	slowMs, err := envInt("TRAINER_SLOW_REQUEST_MS", 300)
	if err != nil {
		return Config{}, err
	}
	c.SlowRequest = time.Duration(slowMs) * time.Millisecond
	if c.ReminderLead, err = envDuration("TRAINER_REMINDER_LEAD", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if c.PushInterval, err = envDuration("TRAINER_PUSH_INTERVAL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if c.MinIO.UseSSL, err = envBool("TRAINER_MINIO_SSL", false); err != nil {
		return Config{}, err
	}
	if c.DevLogin, err = envBool("TRAINER_DEV_LOGIN", c.Env != EnvProduction); err != nil {
		return Config{}, err
	}
	if c.CSRFKey, err = csrfKey(c.Env); err != nil {
		return Config{}, err
	}
	if c.Production() && c.DevLogin {
		return Config{}, errors.New("TRAINER_DEV_LOGIN cannot be enabled in production")
	}
	return c, nil
}

// csrfKey reads TRAINER_CSRF_KEY (64 hex characters). Outside production a random key is
// generated per start, so form tokens do not survive a restart.
func csrfKey(env string) ([]byte, error) {
	if keyHex := os.Getenv("TRAINER_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("TRAINER_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if env == EnvProduction {
		return nil, errors.New("TRAINER_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate CSRF key: %w", err)
	}
	slog.Warn("config_event", "event", "random_csrf_key", "hint", "set TRAINER_CSRF_KEY")
	return key, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", key, v)
	}
	return b, nil
}

// envDuration accepts Go durations ("36h") or plain minutes ("90").
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
