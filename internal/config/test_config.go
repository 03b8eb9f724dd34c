package config

import "time"

func LoadTestConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8081/api",
			CSRFPath:   "/sanctum/csrf-cookie",
			CSRFCookie: "XSRF-TOKEN",
			CSRFHeader: "X-XSRF-TOKEN",
			LoginPath:  "/auth/login",
			LogoutPath: "/auth/logout",
			UploadPath: "/files/upload",
			Timeout:    5 * time.Second,
		},
		Session: SessionConfig{
			Store:     "file",
			KeyPrefix: "tourdesk_test:",
		},
		Console: ConsoleConfig{
			PageSize:     10,
			RefreshSpec:  "@every 30s",
			ConfirmWrite: true,
		},
		Log: LogConfig{
			Level: "error",
		},
		Sandbox: SandboxConfig{
			Server: ServerConfig{
				Host:      "localhost",
				Port:      8081,
				PublicURL: "http://localhost:8081",
				BasePath:  "/api",
			},
			Database: DatabaseConfig{
				Driver: "sqlite",
				Path:   "file::memory:",
			},
			JWT: JWTConfig{
				Secret: "test-secret",
				TTL:    time.Hour,
			},
			Storage: StorageConfig{
				Provider: "local",
			},
			RateLimit: 1000,
		},
	}
}
