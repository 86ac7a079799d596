// Package main evaluates one dice expression and prints the result record.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	dicecmd "github.com/louisbranch/diceroller/internal/cmd/dice"
	entrypoint "github.com/louisbranch/diceroller/internal/platform/cmd"
	"github.com/louisbranch/diceroller/internal/platform/config"
)

func main() {
	cfg, err := dicecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.ExitCodef(2, "dice: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceDice))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	record, err := dicecmd.Run(ctx, cfg, os.Stdout)
	if err != nil {
		config.Exitf("dice: %v", err)
	}
	if !record.OK {
		config.Exitf("dice: %s at %d: %s", record.Error.Type, record.Error.Position, record.Error.Message)
	}
}
