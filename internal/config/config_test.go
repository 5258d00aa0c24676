package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DB: DatabaseConfig{Driver: DriverPostgres, Host: "localhost", Name: "users", MaxOpenConns: 25, MaxIdleConns: 5},
		App: AppConfig{
			HTTPPort:               "3002",
			APIPrefix:              "/api",
			ShutdownTimeoutSeconds: 30,
		},
		Redis: RedisConfig{Host: "localhost", Port: "6379"},
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "3002", cfg.App.HTTPPort)
	assert.Equal(t, "/api", cfg.App.APIPrefix)
	assert.Equal(t, 30, cfg.App.ShutdownTimeoutSeconds)
	assert.Equal(t, []string{"*"}, cfg.App.CORSAllowedOrigins)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.InDelta(t, 0.2, cfg.Logger.SlowQuerySeconds, 1e-9)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	content := "DB_DRIVER=SQLite\nDB_SQLITE_PATH=/tmp/test.db\nHTTP_PORT=8080\nCORS_ALLOWED_ORIGINS=https://a.example, https://b.example\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.DB.SQLitePath)
	assert.Equal(t, "8080", cfg.App.HTTPPort)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.CORSAllowedOrigins)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte("HTTP_PORT=8080\n"), 0o600))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("APP_ENV", EnvProduction)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.HTTPPort)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Logger.EnableSampling)
}

func TestLoadConfig_ProductionFromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte("APP_ENV=production\n"), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Logger.EnableSampling)
}

func TestLoadConfig_Telemetry(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)

		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "stdout", cfg.Telemetry.Exporter)
		assert.Equal(t, "localhost:4318", cfg.Telemetry.Endpoint)
		assert.Equal(t, 60, cfg.Telemetry.MetricIntervalSeconds)
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("TELEMETRY_ENABLED", "true")
		t.Setenv("TELEMETRY_EXPORTER", "OTLP")
		t.Setenv("TELEMETRY_OTLP_ENDPOINT", "collector:4318")

		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)

		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "otlp", cfg.Telemetry.Exporter)
		assert.Equal(t, "collector:4318", cfg.Telemetry.Endpoint)
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.DB.Driver = "mysql" },
			wantErr: `unsupported DB_DRIVER "mysql"`,
		},
		{
			name:    "postgres without host",
			mutate:  func(c *Config) { c.DB.Host = "" },
			wantErr: "DB_HOST and DB_NAME are required",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.DB.Driver = DriverSQLite },
			wantErr: "DB_SQLITE_PATH is required",
		},
		{
			name:    "negative pool",
			mutate:  func(c *Config) { c.DB.MaxIdleConns = -1 },
			wantErr: "pool sizes must not be negative",
		},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.App.HTTPPort = "" },
			wantErr: "HTTP_PORT is required",
		},
		{
			name:    "relative prefix",
			mutate:  func(c *Config) { c.App.APIPrefix = "api" },
			wantErr: "must start with /",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *Config) { c.App.ShutdownTimeoutSeconds = 0 },
			wantErr: "SHUTDOWN_TIMEOUT_SECONDS must be positive",
		},
		{
			name: "rate limit without burst",
			mutate: func(c *Config) {
				c.RateLimit = RateLimitConfig{Enabled: true, RequestsPerSecond: 5}
			},
			wantErr: "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive",
		},
		{
			name: "rate limit without redis",
			mutate: func(c *Config) {
				c.RateLimit = RateLimitConfig{Enabled: true, RequestsPerSecond: 5, BurstCapacity: 10}
				c.Redis.Host = ""
			},
			wantErr: "REDIS_HOST and REDIS_PORT are required",
		},
		{
			name: "telemetry with unknown exporter",
			mutate: func(c *Config) {
				c.Telemetry = TelemetryConfig{Enabled: true, Exporter: "zipkin", MetricIntervalSeconds: 60}
			},
			wantErr: `unsupported TELEMETRY_EXPORTER "zipkin"`,
		},
		{
			name: "otlp without endpoint",
			mutate: func(c *Config) {
				c.Telemetry = TelemetryConfig{Enabled: true, Exporter: "otlp", MetricIntervalSeconds: 60}
			},
			wantErr: "TELEMETRY_OTLP_ENDPOINT is required",
		},
		{
			name: "telemetry without interval",
			mutate: func(c *Config) {
				c.Telemetry = TelemetryConfig{Enabled: true, Exporter: "stdout"}
			},
			wantErr: "TELEMETRY_METRIC_INTERVAL_SECONDS must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.DB.Driver = ""
	cfg.App.HTTPPort = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DB_DRIVER")
	assert.Contains(t, err.Error(), "HTTP_PORT is required")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", User: "u", Password: "p", Name: "users", Port: "5432", SSLMode: "disable"}

	assert.Equal(t, "host=db user=u password=p dbname=users port=5432 sslmode=disable", c.DSN())
}
