package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the console and the sandbox backend
type Config struct {
	API     APIConfig
	Session SessionConfig
	Redis   RedisConfig
	Console ConsoleConfig
	Log     LogConfig
	Sandbox SandboxConfig
}

type APIConfig struct {
	BaseURL    string
	CSRFPath   string
	CSRFCookie string
	CSRFHeader string
	LoginPath  string
	LogoutPath string
	UploadPath string
	Timeout    time.Duration
}

type SessionConfig struct {
	Store     string // file, redis
	Path      string
	KeyPrefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	Username string
	DB       int
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type ConsoleConfig struct {
	PageSize     int
	RefreshSpec  string
	ConfirmWrite bool
}

type LogConfig struct {
	Level string
}

type SandboxConfig struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Storage    StorageConfig
	Redis      RedisConfig
	AdminPanel bool
	RateLimit  float64
	Seed       bool
}

type ServerConfig struct {
	Host      string
	Port      int
	PublicURL string
	BasePath  string
}

type DatabaseConfig struct {
	Driver   string // postgres, sqlite
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Path     string
}

// DSN returns the connection string for the configured driver
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type StorageConfig struct {
	Provider string // local, s3, r2
	BasePath string
	S3       S3Config
}

type S3Config struct {
	BucketName string `env:"S3_BUCKET_NAME"`
	Endpoint   string `env:"S3_ENDPOINT"`
	Region     string `env:"S3_REGION"`
	AccessKey  string `env:"S3_ACCESS_KEY"`
	SecretKey  string `env:"S3_SECRET_KEY"`
}

func Load() (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			BaseURL:    getEnv("TOURDESK_API_URL", getEnv("NEXT_PUBLIC_API_URL", "http://localhost:8080/api")),
			CSRFPath:   getEnv("API_CSRF_PATH", "/sanctum/csrf-cookie"),
			CSRFCookie: getEnv("API_CSRF_COOKIE", "XSRF-TOKEN"),
			CSRFHeader: getEnv("API_CSRF_HEADER", "X-XSRF-TOKEN"),
			LoginPath:  getEnv("API_LOGIN_PATH", "/auth/login"),
			LogoutPath: getEnv("API_LOGOUT_PATH", "/auth/logout"),
			UploadPath: getEnv("API_UPLOAD_PATH", "/files/upload"),
			Timeout:    getEnvAsDuration("API_TIMEOUT", 30*time.Second),
		},
		Session: SessionConfig{
			Store:     getEnv("SESSION_STORE", "file"),
			Path:      getEnv("SESSION_PATH", defaultSessionPath()),
			KeyPrefix: getEnv("SESSION_KEY_PREFIX", "tourdesk:"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			Username: getEnv("REDIS_USERNAME", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Console: ConsoleConfig{
			PageSize:     getEnvAsInt("CONSOLE_PAGE_SIZE", 10),
			RefreshSpec:  getEnv("CONSOLE_REFRESH", "@every 30s"),
			ConfirmWrite: getEnvAsBool("CONSOLE_CONFIRM_WRITE", true),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Sandbox: SandboxConfig{
			Server: ServerConfig{
				Host:      getEnv("SERVER_HOST", "localhost"),
				Port:      getEnvAsInt("SERVER_PORT", 8080),
				PublicURL: getEnv("PUBLIC_URL", "http://localhost:8080"),
				BasePath:  getEnv("SERVER_BASE_PATH", "/api"),
			},
			Database: DatabaseConfig{
				Driver:   getEnv("DB_DRIVER", "sqlite"),
				Host:     getEnv("POSTGRES_HOST", "localhost"),
				Port:     getEnvAsInt("POSTGRES_PORT", 5432),
				User:     getEnv("POSTGRES_USER", "postgres"),
				Password: getEnv("POSTGRES_PASSWORD", ""),
				Name:     getEnv("POSTGRES_DB", "tourdesk"),
				SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
				Path:     getEnv("SQLITE_PATH", "tourdesk.db"),
			},
			JWT: JWTConfig{
				Secret: getEnv("JWT_SECRET", "your-secret-key"),
				TTL:    getEnvAsDuration("JWT_TTL", 24*time.Hour),
			},
			Storage: StorageConfig{
				Provider: getEnv("STORAGE_PROVIDER", "local"),
				BasePath: getEnv("STORAGE_BASE_PATH", "./storage"),
				S3: S3Config{
					BucketName: getEnv("S3_BUCKET_NAME", ""),
					Endpoint:   getEnv("S3_ENDPOINT", ""),
					Region:     getEnv("S3_REGION", ""),
					AccessKey:  getEnv("S3_ACCESS_KEY", ""),
					SecretKey:  getEnv("S3_SECRET_KEY", ""),
				},
			},
			Redis: RedisConfig{
				Addr:     getEnv("SANDBOX_REDIS_ADDR", ""),
				Password: getEnv("SANDBOX_REDIS_PASSWORD", ""),
				Username: getEnv("SANDBOX_REDIS_USERNAME", ""),
				DB:       getEnvAsInt("SANDBOX_REDIS_DB", 0),
			},
			AdminPanel: getEnvAsBool("SANDBOX_ADMIN_PANEL", false),
			RateLimit:  getEnvAsFloat("SANDBOX_RATE_LIMIT", 20),
			Seed:       getEnvAsBool("SANDBOX_SEED", true),
		},
	}

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api base url is empty")
	}
	if cfg.Console.PageSize < 1 {
		cfg.Console.PageSize = 10
	}

	return cfg, nil
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "tourdesk-session.json"
	}
	return filepath.Join(dir, "tourdesk", "session.json")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
