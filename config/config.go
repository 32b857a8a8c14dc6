package config

import (
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	DefaultPort     = "4000"
	DefaultMongoURI = "mongodb://127.0.0.1:27017/tasktracker"
	DefaultDatabase = "tasktracker"
	DefaultLogFile  = "logs/tasktracker.log"
	DefaultLogLevel = "info"
)

type Config struct {
	Port       string
	MongoURI   string
	Database   string
	LogFile    string
	LogLevel   string
	CORSOrigin string
}

// Load reads the process environment. The database name comes from the path
// component of MONGODB_URI.
func Load() (*Config, error) {
	cfg := &Config{
		Port:       getEnv("PORT", DefaultPort),
		MongoURI:   getEnv("MONGODB_URI", DefaultMongoURI),
		LogFile:    getEnv("LOG_FILE", DefaultLogFile),
		LogLevel:   getEnv("LOG_LEVEL", DefaultLogLevel),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
	}

	cs, err := connstring.ParseAndValidate(cfg.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("invalid MONGODB_URI: %w", err)
	}
	cfg.Database = cs.Database
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
