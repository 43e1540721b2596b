// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klass-lk/folio"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverDynamoDB = "dynamodb"
)

type Config struct {
	Port     int
	BasePath string
	Lambda   bool

	StoreDriver string
	DatabaseURL string
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	SQLitePath  string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	MongoURI      string
	MongoDatabase string

	DynamoDBTable    string
	DynamoDBEndpoint string
	AWSRegion        string

	S3Bucket        string
	S3PublicBaseURL string
	S3UploadExpiry  time.Duration

	AdminPasswordHash string
	JWTSecret         string
	JWTTTL            time.Duration

	CORSAllowOrigins []string
}

func Load() (*Config, error) {
	c := &Config{
		BasePath:          getEnv("BASE_PATH", ""),
		Lambda:            getEnv("LAMBDA_RUNTIME", "") == "true",
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "folio"),
		DBSSLMode:         getEnv("DB_SSLMODE", ""),
		SQLitePath:        getEnv("SQLITE_PATH", "data/folio.db"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGO_DATABASE", "folio"),
		DynamoDBTable:     getEnv("DYNAMODB_TABLE", "folio"),
		DynamoDBEndpoint:  getEnv("DYNAMODB_ENDPOINT", ""),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		CORSAllowOrigins:  splitList(getEnv("CORS_ALLOW_ORIGINS", "")),
	}

	var err error
	if c.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if c.DBPort, err = getInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if c.DBMaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if c.DBMaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", 25); err != nil {
		return nil, err
	}
	if c.DBConnMaxLifetime, err = getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if c.S3UploadExpiry, err = getDuration("S3_UPLOAD_EXPIRY", 15*time.Minute); err != nil {
		return nil, err
	}
	if c.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	switch c.StoreDriver {
	case DriverPostgres, DriverSQLite, DriverMongo, DriverDynamoDB:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	return c, nil
}

// AdminAuthEnabled reports whether admin routes require a bearer token.
func (c *Config) AdminAuthEnabled() bool {
	return c.AdminPasswordHash != "" && c.JWTSecret != ""
}

func (c *Config) UploadsEnabled() bool {
	return c.S3Bucket != ""
}

func (c *Config) SQLConfig() *folio.SQLConfig {
	sqlConfig := folio.NewSQLConfig().WithPool(c.DBMaxOpenConns, c.DBMaxIdleConns, c.DBConnMaxLifetime)
	if c.StoreDriver == DriverSQLite {
		return sqlConfig.WithDriver(folio.DriverSQLite).WithPath(c.SQLitePath)
	}

	sqlConfig.
		WithDriver(folio.DriverPostgres).
		WithURL(c.DatabaseURL).
		WithHost(c.DBHost, c.DBPort).
		WithCredentials(c.DBUser, c.DBPassword).
		WithDatabase(c.DBName)
	if c.DBSSLMode != "" {
		sqlConfig.WithOption("sslmode", c.DBSSLMode)
	}
	return sqlConfig
}

func (c *Config) MongoConfig() *folio.MongoConfig {
	return folio.NewMongoConfig().WithURI(c.MongoURI).WithDatabase(c.MongoDatabase)
}

func (c *Config) DynamoDBConfig() *folio.DynamoDBConfig {
	return folio.NewDynamoDBConfig().
		WithTableName(c.DynamoDBTable).
		WithRegion(c.AWSRegion).
		WithEndpoint(c.DynamoDBEndpoint)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
