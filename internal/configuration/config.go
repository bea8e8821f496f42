package configuration

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Database DatabaseConfig `mapstructure:"database"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	NATS     NATSConfig     `mapstructure:"nats"`
	ClamAV   ClamAVConfig   `mapstructure:"clamav"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type StorageConfig struct {
	Root string `mapstructure:"root" validate:"required"`
}

type CatalogConfig struct {
	Driver    string        `mapstructure:"driver" validate:"oneof=local postgres"`
	LocalPath string        `mapstructure:"local_path" validate:"required_if=Driver local"`
	CacheSize int           `mapstructure:"cache_size" validate:"gte=0"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type MinIOConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Endpoint   string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	BucketName string `mapstructure:"bucket" validate:"required_if=Enabled true"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// NATSConfig: an empty URL disables the event bus.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ClamAVConfig: an empty URL disables scanning.
type ClamAVConfig struct {
	URL string `mapstructure:"url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// envBindings keeps the environment variable names the service has always used.
var envBindings = map[string]string{
	"server.port":             "SERVER_PORT",
	"server.shutdown_timeout": "SERVER_SHUTDOWN_TIMEOUT",
	"storage.root":            "STORAGE_ROOT",
	"catalog.driver":          "CATALOG_DRIVER",
	"catalog.local_path":      "CATALOG_LOCAL_PATH",
	"catalog.cache_size":      "CATALOG_CACHE_SIZE",
	"catalog.cache_ttl":       "CATALOG_CACHE_TTL",
	"database.host":           "DB_HOST",
	"database.port":           "DB_PORT",
	"database.user":           "DB_USER",
	"database.password":       "DB_PASSWORD",
	"database.name":           "DB_NAME",
	"database.ssl_mode":       "DB_SSL_MODE",
	"minio.enabled":           "MINIO_ENABLED",
	"minio.endpoint":          "MINIO_ENDPOINT",
	"minio.access_key":        "MINIO_ACCESS_KEY",
	"minio.secret_key":        "MINIO_SECRET_KEY",
	"minio.bucket":            "MINIO_BUCKET",
	"minio.use_ssl":           "MINIO_USE_SSL",
	"nats.url":                "NATS_URL",
	"clamav.url":              "CLAMAV_URL",
	"log.level":               "LOG_LEVEL",
	"log.format":              "LOG_FORMAT",
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("storage.root", defaultStorageRoot())
	v.SetDefault("catalog.driver", "local")
	v.SetDefault("catalog.local_path", "file_metadata.json")
	v.SetDefault("catalog.cache_size", 1024)
	v.SetDefault("catalog.cache_ttl", 30*time.Second)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "fileuser")
	v.SetDefault("database.password", "filepassword")
	v.SetDefault("database.name", "filemanager")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "minioadmin")
	v.SetDefault("minio.secret_key", "minioadmin")
	v.SetDefault("minio.bucket", "files")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("nats.url", "")
	v.SetDefault("clamav.url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads defaults, then configFile (optional, any format viper knows),
// then the environment.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Catalog.Driver = strings.ToLower(cfg.Catalog.Driver)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks struct tags and reports the first violation.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return err
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultStorageRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "storage"
	}
	return filepath.Join(wd, "storage")
}
