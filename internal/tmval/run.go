// Package tmval is the command line front end over the valuation packages.
package tmval

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"

	"github.com/SimonSchneider/goslu/config"
	"github.com/SimonSchneider/goslu/srvu"
	"github.com/SimonSchneider/tmval/internal/value"
)

var ErrUsage = errors.New("usage")

type Config struct {
	Convention string
	Cents      bool
}

type command func(cfg Config, args []string, stdout io.Writer, logger value.Logger) error

var commands = map[string]command{
	"convert":  runConvert,
	"annuity":  runAnnuity,
	"loan":     runLoan,
	"npv":      runNPV,
	"irr":      runIRR,
	"yearfrac": runYearFrac,
}

func Run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer, getEnv func(string) string, getwd func() (string, error)) error {
	fs := flag.NewFlagSet("tmval", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg, err := parseConfig(fs, args[1:], getEnv)
	if err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	logger := srvu.LogToOutput(log.New(stderr, "", log.LstdFlags|log.Lshortfile))

	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("%w: tmval [flags] <%s> [command flags]", ErrUsage, strings.Join(commandNames(), "|"))
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q, want one of %s", ErrUsage, rest[0], strings.Join(commandNames(), ", "))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cmd(cfg, rest[1:], stdout, logger); err != nil {
		return fmt.Errorf("%s: %w", rest[0], err)
	}
	return nil
}

func parseConfig(fs *flag.FlagSet, args []string, getEnv func(string) string) (cfg Config, err error) {
	err = config.ParseInto(&cfg, fs, args, getEnv)
	if cfg.Convention == "" {
		cfg.Convention = "act/365"
	}
	return cfg, err
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
