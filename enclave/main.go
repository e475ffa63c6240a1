package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/cloudx-io/doubleauction/auction"
	"github.com/cloudx-io/doubleauction/logging"
	"github.com/cloudx-io/doubleauction/store"
)

func main() {
	configPath := flag.String("config", "", "Path to the node YAML config (defaults apply when empty)")
	requireNSM := flag.Bool("require-nsm", true, "Fail when the Nitro Secure Module is not available")
	flag.Parse()

	if err := run(*configPath, *requireNSM); err != nil {
		fmt.Fprintf(os.Stderr, "auction node: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, requireNSM bool) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logging.NewLoggerFromConfig(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.AtExit()

	a, err := auction.New(cfg.Auction, log)
	if err != nil {
		return err
	}

	keys, err := NewKeyManager()
	if err != nil {
		return fmt.Errorf("failed to initialize key manager: %w", err)
	}

	opts := []NodeOption{WithPriceExponent(cfg.PriceExponent)}

	attester, err := getEnclaveAttester()
	switch {
	case err == nil:
		opts = append(opts, WithAttester(attester))
	case requireNSM:
		return err
	default:
		log.Warn("running without attestation", zap.Error(err))
	}

	if cfg.ArchivePath != "" {
		archive, err := store.Open(cfg.ArchivePath)
		if err != nil {
			return err
		}
		defer archive.Close()
		opts = append(opts, WithArchive(archive))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	node := NewNode(cfg.AuctionID, a, keys, log, opts...)
	return NewEnclaveServer(cfg, node, log).Start(ctx)
}
