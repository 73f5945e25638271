package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName  string
	AppEnv   string
	AppPort  string
	LogLevel string

	Database DatabaseConfig
	Catalog  CatalogConfig

	UploadsDir             string
	MaxUploadMB            int
	StorageBackend         string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	RedisURL           string
	NATSURL            string
	EventsSubject      string
	EventsRedisChannel string

	CORSAllowedOrigins []string
	WriteRateLimit     int
	WriteRateWindow    time.Duration
}

// DatabaseConfig describes how to reach the relational backend.
type DatabaseConfig struct {
	Driver   string
	URL      string
	Server   string
	Port     int
	Name     string
	User     string
	Password string
}

// CatalogConfig carries catalog table names and the lookup cache TTL.
type CatalogConfig struct {
	LanguagesTable  string
	LocalitiesTable string
	BloodTypesTable string
	CacheTTL        time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsDevelopment reports whether the service runs in a local development environment.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "" || c.AppEnv == "development"
}

// MaxUploadBytes is the size limit applied to each uploaded document.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// BodyLimit bounds a whole request body: room for ten documents plus the form fields.
func (c Config) BodyLimit() int {
	return (c.MaxUploadMB*10 + 1) << 20
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ALUMNOS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The bare names predate the prefixed ones and are still used by existing deployments.
	_ = v.BindEnv("database.server", "ALUMNOS_DATABASE_SERVER", "SERVER")
	_ = v.BindEnv("database.name", "ALUMNOS_DATABASE_NAME", "DATABASE")
	_ = v.BindEnv("database.user", "ALUMNOS_DATABASE_USER", "USER")
	_ = v.BindEnv("database.password", "ALUMNOS_DATABASE_PASSWORD", "PASSWORD")

	v.SetDefault("app.name", "SIA Alumnos API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8000")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "sqlserver")
	v.SetDefault("database.port", 1433)
	v.SetDefault("catalog.languages_table", "Catalogos.Lenguas")
	v.SetDefault("catalog.localities_table", "SIA.Catalogos.Localidades")
	v.SetDefault("catalog.blood_types_table", "SIA.Catalogos.TiposSangres")
	v.SetDefault("catalog.cache_ttl", "10m")
	v.SetDefault("uploads.dir", "uploads/documentos")
	v.SetDefault("uploads.max_mb", 10)
	v.SetDefault("storage.backend", "local")
	v.SetDefault("cloudinary.folder", "sia/documentos")
	v.SetDefault("events.subject", "sia.alumnos")
	v.SetDefault("cors.allowed_origins", "http://localhost:4200,http://127.0.0.1:4200,http://localhost:8000,http://127.0.0.1:8000")
	v.SetDefault("rate_limit.write_max", 30)
	v.SetDefault("rate_limit.write_window", "1m")

	ttl, err := parseDuration(v.GetString("catalog.cache_ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid catalog cache ttl: %w", err)
	}

	window, err := parseDuration(v.GetString("rate_limit.write_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid write rate window: %w", err)
	}

	cfg := Config{
		AppName:  v.GetString("app.name"),
		AppEnv:   v.GetString("app.env"),
		AppPort:  v.GetString("app.port"),
		LogLevel: strings.ToLower(v.GetString("log.level")),
		Database: DatabaseConfig{
			Driver:   strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
			URL:      v.GetString("database.url"),
			Server:   v.GetString("database.server"),
			Port:     v.GetInt("database.port"),
			Name:     v.GetString("database.name"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
		},
		Catalog: CatalogConfig{
			LanguagesTable:  v.GetString("catalog.languages_table"),
			LocalitiesTable: v.GetString("catalog.localities_table"),
			BloodTypesTable: v.GetString("catalog.blood_types_table"),
			CacheTTL:        ttl,
		},
		UploadsDir:             v.GetString("uploads.dir"),
		MaxUploadMB:            v.GetInt("uploads.max_mb"),
		StorageBackend:         strings.ToLower(v.GetString("storage.backend")),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventsSubject:          v.GetString("events.subject"),
		EventsRedisChannel:     v.GetString("events.redis_channel"),
		CORSAllowedOrigins:     splitList(v.GetString("cors.allowed_origins")),
		WriteRateLimit:         v.GetInt("rate_limit.write_max"),
		WriteRateWindow:        window,
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlserver", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Database.URL == "" && c.Database.Driver != "sqlite" {
		if c.Database.Server == "" || c.Database.Name == "" {
			return fmt.Errorf("database server and name must be provided")
		}
	}

	switch c.StorageBackend {
	case "local":
		if strings.TrimSpace(c.UploadsDir) == "" {
			return fmt.Errorf("uploads directory must be provided")
		}
	case "cloudinary":
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return fmt.Errorf("cloudinary credentials must be provided")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.StorageBackend)
	}

	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 10
	}

	if c.WriteRateLimit <= 0 {
		c.WriteRateLimit = 30
	}

	return nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
