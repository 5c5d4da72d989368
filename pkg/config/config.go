package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/tickerforge/book-engine/pkg/redis"
)

// KafkaConfig configures the order-flow reader.
type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"orders"`
	GroupID string   `env:"GROUP_ID"`
}

// FillPublisherConfig configures the fill-event publisher.
type FillPublisherConfig struct {
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"fills"`
}

// Config is the full engine configuration, populated from the
// environment (optionally seeded from a .env file).
type Config struct {
	Symbol   string `env:"SYMBOL" envDefault:"BTC-USD"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	SnapshotInterval    time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`
	SnapshotOffsetDelta int64         `env:"SNAPSHOT_OFFSET_DELTA" envDefault:"1000"`

	OrderReader   KafkaConfig         `envPrefix:"ORDER_READER_"`
	FillPublisher FillPublisherConfig `envPrefix:"FILL_PUBLISHER_"`
	Redis         redis.Config        `envPrefix:"REDIS_"`
}

// Load reads configuration from the environment. A missing .env file is
// not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
