package auction

import (
	"fmt"

	"github.com/cloudx-io/doubleauction/logging"
	"github.com/cloudx-io/doubleauction/mpc"
)

// Config selects and sizes an auction.
type Config struct {
	Mode  Mode   `yaml:"mode"`
	Owner string `yaml:"owner"`
	// Capacity is the oblivious slot count shared by both sides.
	Capacity int `yaml:"capacity"`
	// Parties is the number of share holders in oblivious mode.
	Parties int `yaml:"parties"`
}

// NewDefaultConfig returns a plaintext configuration with oblivious sizing
// defaults filled in.
func NewDefaultConfig() Config {
	return Config{
		Mode:     Plaintext,
		Capacity: DefaultCapacity,
		Parties:  3,
	}
}

// Validate checks that cfg describes a runnable auction.
func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.Owner == "" {
		return fmt.Errorf("auction owner is required")
	}
	if c.Mode == Oblivious {
		if c.Capacity <= 0 {
			return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
		}
		if c.Parties < 2 {
			return fmt.Errorf("oblivious mode needs at least 2 parties, got %d", c.Parties)
		}
	}
	return nil
}

// New builds the auction described by cfg.
func New(cfg Config, log *logging.Logger) (Auction, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid auction config: %w", err)
	}
	if cfg.Mode == Plaintext {
		return NewPlain(cfg.Owner, log), nil
	}
	engine, err := mpc.NewEngine(cfg.Parties)
	if err != nil {
		return nil, err
	}
	return NewOblivious(cfg.Owner, engine, cfg.Capacity, log), nil
}
