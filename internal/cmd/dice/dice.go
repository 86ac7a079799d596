// Package dice parses dice command flags and evaluates one expression.
package dice

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	dicecore "github.com/louisbranch/diceroller/internal/core/dice"
	entrypoint "github.com/louisbranch/diceroller/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/diceroller/internal/platform/grpc"
	"github.com/louisbranch/diceroller/internal/platform/timeouts"
	dicegrpc "github.com/louisbranch/diceroller/internal/services/dice/api/grpc/dice"
	"github.com/louisbranch/diceroller/internal/services/dice/roller"
)

// Config holds dice command configuration.
type Config struct {
	// Addr evaluates against a remote DiceService instead of in-process.
	Addr   string `env:"DICE_REMOTE_ADDR"`
	Limits string `env:"DICE_LIMITS_PROFILE"`
	Locale string `env:"DICE_LOCALE"`

	Seed       *uint64
	Expression string
}

// ParseConfig parses environment and flags into Config. The remaining
// arguments are joined with spaces into the expression.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "DiceService address; empty evaluates in-process")
	fs.StringVar(&cfg.Limits, "limits", cfg.Limits, "YAML limits profile")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "preferred language for remote error messages")
	fs.Func("seed", "replay a roll from this seed", func(value string) error {
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("seed must be an unsigned integer")
		}
		cfg.Seed = &seed
		return nil
	})
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	cfg.Expression = strings.TrimSpace(strings.Join(fs.Args(), " "))
	if cfg.Expression == "" {
		return Config{}, errors.New("expression is required")
	}
	if cfg.Addr != "" && cfg.Limits != "" {
		return Config{}, errors.New("-limits applies to in-process rolls only; the remote server owns its limits")
	}
	return cfg, nil
}

// Run evaluates the expression, writes the record to out as indented JSON
// and returns it. Evaluation failures are reported in the record; the error
// is reserved for configuration and transport problems.
func Run(ctx context.Context, cfg Config, out io.Writer) (dicecore.Record, error) {
	var record dicecore.Record
	err := entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceDice, func(ctx context.Context) error {
		var err error
		if cfg.Addr != "" {
			record, err = rollRemote(ctx, cfg)
		} else {
			record, err = rollLocal(ctx, cfg)
		}
		if err != nil {
			return err
		}
		return writeRecord(out, record)
	})
	return record, err
}

func rollLocal(ctx context.Context, cfg Config) (dicecore.Record, error) {
	limits, err := roller.LoadLimits(cfg.Limits)
	if err != nil {
		return dicecore.Record{}, err
	}
	r, err := roller.New(limits)
	if err != nil {
		return dicecore.Record{}, err
	}
	return r.Roll(ctx, roller.Request{Expression: cfg.Expression, Seed: cfg.Seed}), nil
}

func rollRemote(ctx context.Context, cfg Config) (dicecore.Record, error) {
	logf := func(format string, args ...any) {
		log.Printf("dice %s", fmt.Sprintf(format, args...))
	}
	conn, err := platformgrpc.Dial(ctx, cfg.Addr, dicegrpc.ServiceName, timeouts.GRPCDial, logf)
	if err != nil {
		return dicecore.Record{}, err
	}
	defer conn.Close()

	return dicegrpc.NewClient(conn, cfg.Locale).Roll(ctx, cfg.Expression, cfg.Seed)
}

func writeRecord(out io.Writer, record dicecore.Record) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
