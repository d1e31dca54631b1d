package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Upstream UpstreamConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

// UpstreamConfig points at the profile backend this service hydrates from.
type UpstreamConfig struct {
	BaseURL string        `env:"UPSTREAM_BASE_URL, default=http://localhost:4000/api"`
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT,  default=5s"`
}

// MongoConfig points at the relationship directory.
type MongoConfig struct {
	URI            string        `env:"MONGO_URI,             default=mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DB,              default=portal_identity"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT, default=10s"`
}

// RedisConfig points at the session cache.
type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR,         default=localhost:6379"`
	DB          int           `env:"REDIS_DB,           default=0"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT, default=5s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
