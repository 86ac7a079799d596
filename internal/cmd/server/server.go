// Package server parses dice server flags and launches the gRPC service.
package server

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/diceroller/internal/platform/cmd"
	server "github.com/louisbranch/diceroller/internal/services/dice/app"
	"github.com/louisbranch/diceroller/internal/services/dice/roller"
)

// Config holds dice server command configuration.
type Config struct {
	Port   int    `env:"DICE_PORT" envDefault:"8080"`
	Addr   string `env:"DICE_LISTEN_ADDR"`
	Limits string `env:"DICE_LIMITS_PROFILE"`
	// ReplayableSeeds seeds every unseeded roll so its record can be replayed.
	ReplayableSeeds bool `env:"DICE_REPLAYABLE_SEEDS"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The dice gRPC server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address; overrides -port when set")
	fs.StringVar(&cfg.Limits, "limits", cfg.Limits, "YAML limits profile")
	fs.BoolVar(&cfg.ReplayableSeeds, "replayable-seeds", cfg.ReplayableSeeds, "Seed every roll so records can be replayed")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ListenAddr returns the address the server binds to.
func (c Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Run starts the dice gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		limits, err := roller.LoadLimits(cfg.Limits)
		if err != nil {
			return err
		}
		var opts []roller.Option
		if cfg.ReplayableSeeds {
			opts = append(opts, roller.WithReplayableSeeds())
		}
		r, err := roller.New(limits, opts...)
		if err != nil {
			return err
		}
		srv, err := server.New(cfg.ListenAddr(), r)
		if err != nil {
			return err
		}
		return srv.Serve(ctx)
	})
}
