package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Storage StorageConfig
	Admin   AdminConfig
}

type AppConfig struct {
	Port       string
	Env        string
	LogLevel   string
	CORSOrigin string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	URL        string
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type StorageConfig struct {
	UploadDir     string
	MaxUploadSize int64
	R2            R2Config
}

// R2Config holds credentials for the Cloudflare R2 bucket. All four of
// AccountID, AccessKeyID, SecretAccessKey and Bucket must be set for the
// remote backend to be used.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
}

type AdminConfig struct {
	Username string
	Email    string
	Password string
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// .env is optional; the environment alone is a valid configuration.
	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	accessExpiry, err := time.ParseDuration(v.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(v.GetString("JWT_REFRESH_EXPIRY"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	jwtSecret := v.GetString("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = v.GetString("SECRET_KEY")
	}

	config := &Config{
		App: AppConfig{
			Port:       v.GetString("APP_PORT"),
			Env:        v.GetString("APP_ENV"),
			LogLevel:   v.GetString("LOG_LEVEL"),
			CORSOrigin: v.GetString("CORS_ALLOWED_ORIGIN"),
		},
		DB: DBConfig{
			URL:        v.GetString("DATABASE_URL"),
			Driver:     v.GetString("DB_DRIVER"),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			Name:       v.GetString("DB_NAME"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        jwtSecret,
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		Storage: StorageConfig{
			UploadDir:     v.GetString("UPLOAD_FOLDER"),
			MaxUploadSize: v.GetInt64("MAX_UPLOAD_SIZE"),
			R2: R2Config{
				AccountID:       v.GetString("R2_ACCOUNT_ID"),
				AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
				SecretAccessKey: v.GetString("R2_SECRET_ACCESS_KEY"),
				Bucket:          v.GetString("R2_BUCKET_NAME"),
				Endpoint:        v.GetString("R2_ENDPOINT"),
			},
		},
		Admin: AdminConfig{
			Username: v.GetString("ADMIN_USERNAME"),
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
	}

	config.DB.Driver = config.DB.resolveDriver()

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET or SECRET_KEY must be set")
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGIN", "*")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "medical.db")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("UPLOAD_FOLDER", "uploads")
	v.SetDefault("MAX_UPLOAD_SIZE", 16*1024*1024)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_EMAIL", "admin@example.com")
}

func (c DBConfig) resolveDriver() string {
	if strings.HasPrefix(c.URL, "sqlite://") {
		return DriverSQLite
	}
	if c.URL != "" {
		return DriverPostgres
	}
	if c.Driver == DriverSQLite {
		return DriverSQLite
	}
	if c.Driver == "" && c.Name == "" {
		return DriverSQLite
	}
	return DriverPostgres
}

// PostgresURL returns a postgres:// connection URL, preferring DATABASE_URL.
func (c DBConfig) PostgresURL() string {
	if c.URL != "" {
		if strings.HasPrefix(c.URL, "postgresql://") {
			return "postgres://" + strings.TrimPrefix(c.URL, "postgresql://")
		}
		return c.URL
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// SQLiteFile returns the database file path for the sqlite driver.
func (c DBConfig) SQLiteFile() string {
	if strings.HasPrefix(c.URL, "sqlite://") {
		return strings.TrimPrefix(c.URL, "sqlite://")
	}
	return c.SQLitePath
}

// Enabled reports whether every credential needed for R2 is present.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Bucket != ""
}

// EndpointHost returns the S3 API host for the account, without scheme.
func (c R2Config) EndpointHost() string {
	if c.Endpoint != "" {
		return strings.TrimPrefix(strings.TrimPrefix(c.Endpoint, "https://"), "http://")
	}
	return fmt.Sprintf("%s.r2.cloudflarestorage.com", c.AccountID)
}
