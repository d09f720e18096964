package kafka

import (
	"time"

	"clinicbook/pkg/config"
)

// ProducerConfig holds the writer settings for the events producer.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	RequireAcks  int    // -1 = all, 0 = none, 1 = leader only
	Compression  string // "none", "gzip", "snappy", "lz4", "zstd"
	MaxAttempts  int
	BatchTimeout time.Duration
	Async        bool
}

func DefaultProducerConfig(cfg *config.Config) ProducerConfig {
	return ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.EventsTopic,
		RequireAcks:  -1,
		Compression:  "snappy",
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		Async:        false,
	}
}
