package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultPort          = "8080"
	defaultEnv           = "development"
	defaultMongoDatabase = "playmaker"
	defaultMetricsPort   = "9090"
	defaultLogLevel      = "info"
	defaultJWTSecret     = "supersecretjwtkey"
	defaultTokenTTL      = 72 * time.Hour
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	PostgresUrl             string
	MongoURI                string
	MongoDatabase           string
	MetricsPort             string
	LogLevel                string
	JWTSecret               string
	TokenTTL                time.Duration
}

// LoadDotEnv loads variables from a .env file when one exists. It reports whether a file was read.
func LoadDotEnv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

// NewViper returns a viper instance with defaults and env bindings configured
func NewViper() *viper.Viper {
	v := viper.New()
	ApplyDefaults(v)
	return v
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
// Keys map to upper-case env names with dots replaced by underscores (mongo.uri -> MONGO_URI).
func ApplyDefaults(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", defaultPort)
	v.SetDefault("env", defaultEnv)
	v.SetDefault("mongo.database", defaultMongoDatabase)
	v.SetDefault("metrics.port", defaultMetricsPort)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.ttl", defaultTokenTTL)
	v.SetDefault("firebase.credentials.path", "")

	// POSTGRES_CONN_STR and MONGO_URI are the names used by deployments
	_ = v.BindEnv("postgres.conn_str", "POSTGRES_CONN_STR", "POSTGRES_URL")
	_ = v.BindEnv("mongo.uri", "MONGO_URI")
}

// Load reads the configuration from viper and validates it
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                    v.GetString("port"),
		Env:                     v.GetString("env"),
		FirebaseCredentialsPath: v.GetString("firebase.credentials.path"),
		PostgresUrl:             v.GetString("postgres.conn_str"),
		MongoURI:                v.GetString("mongo.uri"),
		MongoDatabase:           v.GetString("mongo.database"),
		MetricsPort:             v.GetString("metrics.port"),
		LogLevel:                v.GetString("log.level"),
		JWTSecret:               v.GetString("jwt.secret"),
		TokenTTL:                v.GetDuration("jwt.ttl"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.PostgresUrl) == "" {
		return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
	}
	if strings.TrimSpace(c.MongoURI) == "" {
		return fmt.Errorf("MONGO_URI environment variable not set")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs with ENV=production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
