package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Import godotenv for loading .env files
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Vendor   VendorConfig   `json:"vendor"`
	Storage  StorageConfig  `json:"storage"`
	Playback PlaybackConfig `json:"playback"`
	Sweep    SweepConfig    `json:"sweep"`
	Auth     AuthConfig     `json:"auth"`
}

type ServerConfig struct {
	Port         int           `json:"port"`
	Host         string        `json:"host"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	CORSOrigins  []string      `json:"cors_origins"`
	RateLimit    int           `json:"rate_limit"`
	RateWindow   time.Duration `json:"rate_window"`
}

type DatabaseConfig struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// VendorConfig holds credentials for the cloud recording vendor's REST API.
type VendorConfig struct {
	AppID          string        `json:"app_id"`
	CustomerID     string        `json:"customer_id"`
	CustomerSecret string        `json:"customer_secret"`
	BaseURL        string        `json:"base_url"`
	RequestTimeout time.Duration `json:"request_timeout"`
	// ResourceExpiredHours is passed to acquire; the vendor releases the
	// resource handle after this many hours.
	ResourceExpiredHours int `json:"resource_expired_hours"`
	// MaxIdleTime is the vendor-side idle timeout in seconds. Sessions with
	// no inbound media self-terminate after this; we do not poll for it.
	MaxIdleTime int `json:"max_idle_time"`
}

type StorageConfig struct {
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
}

type PlaybackConfig struct {
	SegmentURLTTL  time.Duration `json:"segment_url_ttl"`
	PlaylistURLTTL time.Duration `json:"playlist_url_ttl"`
	CacheTTL       time.Duration `json:"cache_ttl"`
	FetchTimeout   time.Duration `json:"fetch_timeout"`
	MatchTolerance time.Duration `json:"match_tolerance"`
}

type SweepConfig struct {
	RetentionWindow    time.Duration `json:"retention_window"`
	MaxSessionDuration time.Duration `json:"max_session_duration"`
}

type AuthConfig struct {
	JWTSecret        string        `json:"jwt_secret"`
	RecorderTokenTTL time.Duration `json:"recorder_token_ttl"`
}

// Load builds the configuration from environment variables and .env file.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := cfg.loadServerConfig(); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	cfg.loadDatabaseConfig()
	cfg.loadVendorConfig()
	cfg.loadStorageConfig()
	cfg.loadPlaybackConfig()
	cfg.loadSweepConfig()
	cfg.loadAuthConfig()

	return cfg, nil
}

func (c *Config) loadServerConfig() error {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}

	var corsOrigins []string
	corsOriginsStr := getEnv("CORS_ORIGINS", "*")
	if corsOriginsStr != "*" {
		for _, origin := range strings.Split(corsOriginsStr, ",") {
			corsOrigins = append(corsOrigins, strings.TrimSpace(origin))
		}
	} else {
		corsOrigins = []string{"*"}
	}

	c.Server = ServerConfig{
		Port:         port,
		Host:         getEnv("HOST", "0.0.0.0"),
		ReadTimeout:  getDurationEnv("READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getDurationEnv("WRITE_TIMEOUT", 10*time.Second),
		IdleTimeout:  getDurationEnv("IDLE_TIMEOUT", 10*time.Second),
		CORSOrigins:  corsOrigins,
		RateLimit:    getIntEnv("RATE_LIMIT", 100),
		RateWindow:   getDurationEnv("RATE_WINDOW", 1*time.Minute),
	}
	return nil
}

func (c *Config) loadDatabaseConfig() {
	uri := getEnv("DB_URI", "")
	if uri == "" {
		host := getEnv("DB_HOST", "localhost")
		port := getEnv("DB_PORT", "27017")
		username := getEnv("DB_USERNAME", "")
		password := getEnv("DB_PASSWORD", "")
		if username != "" && password != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%s", username, password, host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%s", host, port)
		}
	}

	c.Database = DatabaseConfig{
		URI:  uri,
		Name: getEnv("DB_NAME", "meetvault"),
	}
}

func (c *Config) loadVendorConfig() {
	c.Vendor = VendorConfig{
		AppID:                getEnv("VENDOR_APP_ID", ""),
		CustomerID:           getEnv("VENDOR_CUSTOMER_ID", ""),
		CustomerSecret:       getEnv("VENDOR_CUSTOMER_SECRET", ""),
		BaseURL:              getEnv("VENDOR_BASE_URL", "https://api.agora.io/v1"),
		RequestTimeout:       getDurationEnv("VENDOR_REQUEST_TIMEOUT", 10*time.Second),
		ResourceExpiredHours: getIntEnv("VENDOR_RESOURCE_EXPIRED_HOURS", 24),
		MaxIdleTime:          getIntEnv("VENDOR_MAX_IDLE_TIME", 160),
	}
}

func (c *Config) loadStorageConfig() {
	c.Storage = StorageConfig{
		Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
		Region:    getEnv("STORAGE_REGION", "auto"),
		AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
		SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		Bucket:    getEnv("STORAGE_BUCKET", ""),
	}
}

func (c *Config) loadPlaybackConfig() {
	c.Playback = PlaybackConfig{
		SegmentURLTTL:  getDurationEnv("PLAYBACK_SEGMENT_URL_TTL", 7*24*time.Hour),
		PlaylistURLTTL: getDurationEnv("PLAYBACK_PLAYLIST_URL_TTL", 7*24*time.Hour),
		CacheTTL:       getDurationEnv("PLAYBACK_CACHE_TTL", 7*24*time.Hour),
		FetchTimeout:   getDurationEnv("PLAYBACK_FETCH_TIMEOUT", 10*time.Second),
		MatchTolerance: getDurationEnv("PLAYBACK_MATCH_TOLERANCE", 60*time.Second),
	}
}

func (c *Config) loadSweepConfig() {
	c.Sweep = SweepConfig{
		RetentionWindow:    getDurationEnv("SWEEP_RETENTION_WINDOW", 5*24*time.Hour),
		MaxSessionDuration: getDurationEnv("SWEEP_MAX_SESSION_DURATION", 3*time.Hour),
	}
}

func (c *Config) loadAuthConfig() {
	c.Auth = AuthConfig{
		JWTSecret:        getEnv("JWT_SECRET", ""),
		RecorderTokenTTL: getDurationEnv("RECORDER_TOKEN_TTL", 1*time.Hour),
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Database.URI == "" {
		return fmt.Errorf("database uri is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret key is required")
	}
	if c.Vendor.AppID == "" || c.Vendor.CustomerID == "" || c.Vendor.CustomerSecret == "" {
		return fmt.Errorf("vendor credentials are required")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if c.Playback.CacheTTL > c.Playback.PlaylistURLTTL {
		return fmt.Errorf("playback cache ttl must not exceed playlist url ttl")
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
