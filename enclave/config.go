package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cloudx-io/doubleauction/auction"
	"github.com/cloudx-io/doubleauction/logging"
)

const (
	TransportVsock = "vsock"
	TransportTCP   = "tcp"
)

// Config is the node configuration, read from YAML and then overridden by
// the environment.
type Config struct {
	AuctionID string       `yaml:"auction_id"`
	Listen    ListenConfig `yaml:"listen"`
	// MaxWorkers bounds concurrent connections. Extra connections are
	// closed immediately.
	MaxWorkers  int           `yaml:"max_workers"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// PriceExponent is the decimal exponent of ladder prices: -2 means
	// prices are configured in cents.
	PriceExponent int32 `yaml:"price_exponent"`
	// ArchivePath is the SQLite file cleared rounds are written to.
	// Archiving is off when empty.
	ArchivePath string         `yaml:"archive_path"`
	Auction     auction.Config `yaml:"auction"`
	Logging     logging.Config `yaml:"logging"`
}

type ListenConfig struct {
	Transport string `yaml:"transport"`
	// Port is the vsock port, or the TCP port when Address has none.
	Port    uint32 `yaml:"port"`
	Address string `yaml:"address"`
}

// NewDefaultConfig listens on vsock port 5000 like a production enclave.
func NewDefaultConfig() Config {
	return Config{
		AuctionID:     "default",
		Listen:        ListenConfig{Transport: TransportVsock, Port: 5000},
		MaxWorkers:    16,
		ReadTimeout:   30 * time.Second,
		PriceExponent: -2,
		Auction:       auction.NewDefaultConfig(),
		Logging:       logging.NewDefaultConfig(),
	}
}

// LoadConfig reads path over the defaults. An empty path uses the defaults
// alone. Environment overrides are applied last.
func LoadConfig(path string) (Config, error) {
	cfg := NewDefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("AUCTION_OWNER"); ok {
		c.Auction.Owner = v
	}
	if v, ok := lookup("AUCTION_MODE"); ok {
		mode, err := auction.ParseMode(v)
		if err != nil {
			return fmt.Errorf("AUCTION_MODE: %w", err)
		}
		c.Auction.Mode = mode
	}
	if v, ok := lookup("ENCLAVE_MAX_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid value for ENCLAVE_MAX_WORKERS: %s (must be a valid integer)", v)
		}
		c.MaxWorkers = n
	}
	return nil
}

func (c Config) Validate() error {
	if c.AuctionID == "" {
		return fmt.Errorf("auction_id is required")
	}
	switch c.Listen.Transport {
	case TransportVsock, TransportTCP:
	default:
		return fmt.Errorf("unknown listen transport %q", c.Listen.Transport)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("max_workers must be positive, got %d", c.MaxWorkers)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive, got %s", c.ReadTimeout)
	}
	return c.Auction.Validate()
}
