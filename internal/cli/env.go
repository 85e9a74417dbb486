// Package cli holds the plumbing shared by the dbow commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dbow"
	"github.com/hupe1980/dbow/internal/config"
)

// Env is the resolved environment of a command run.
type Env struct {
	Config *config.Config
	Logger *dbow.Logger
	Out    io.Writer
}

// Setup loads the configuration for cmd, binding the flags named by keys
// along with the global logging flags.
func Setup(cmd *cobra.Command, keys ...string) (*Env, error) {
	configFile, _ := cmd.Flags().GetString("config")
	v, err := config.InitViper(configFile)
	if err != nil {
		return nil, err
	}
	config.BindFlags(v, cmd, append(slices.Clone(keys), config.FlagDebug, config.FlagLogFormat)...)

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &Env{Config: cfg, Logger: logger, Out: cmd.OutOrStdout()}, nil
}

// NewLogger builds the stderr logger described by c.
func NewLogger(c config.LogConfig) (*dbow.Logger, error) {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	switch strings.ToLower(c.Format) {
	case "", "text":
		return dbow.NewTextLogger(level), nil
	case "json":
		return dbow.NewJSONLogger(level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", c.Format)
	}
}

// Options returns the library options for env.
func (e *Env) Options() ([]dbow.Option, error) {
	return e.Config.Options(e.Logger)
}

// Printf writes to the command output.
func (e *Env) Printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format, args...)
}

// Println writes to the command output.
func (e *Env) Println(args ...any) {
	fmt.Fprintln(e.Out, args...)
}
