// Package config loads engine configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Empty broker list disables the Kafka collaborators.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	TradeTopic   string   `env:"TRADE_TOPIC" envDefault:"trades"`
	OrderTopic   string   `env:"ORDER_TOPIC" envDefault:"orders"`

	WALDir         string        `env:"WAL_DIR" envDefault:"./data/wal"`
	WALSegmentSize int64         `env:"WAL_SEGMENT_SIZE" envDefault:"4194304"`
	WALSegmentAge  time.Duration `env:"WAL_SEGMENT_AGE" envDefault:"1h"`

	TradeDBDir string `env:"TRADE_DB_DIR" envDefault:"./data/trades"`

	SnapshotDir      string        `env:"SNAPSHOT_DIR" envDefault:"./data/snapshots"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"1m"`

	DepthLevels       int           `env:"DEPTH_LEVELS" envDefault:"10"`
	BroadcastInterval time.Duration `env:"BROADCAST_INTERVAL" envDefault:"250ms"`
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
