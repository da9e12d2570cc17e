// Package main provides the briefwork binary entry point.
// Briefwork walks a facilitator through a creative-brief workshop, one
// command per step, and compiles the answers into a finished brief.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/c360studio/briefwork/llm/providers"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "briefwork"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	// SIGINT/SIGTERM cancel the command context; App.Close still flushes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(os.Stdout, os.Stderr)
	if err := c.root().ExecuteContext(ctx); err != nil {
		c.printer().Failure(describe(err))
		stop()
		os.Exit(1)
	}
}

// cli holds the global flags and output streams shared by all commands.
type cli struct {
	configPath string
	sessionID  string
	logLevel   string

	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

func newCLI(out, errOut io.Writer) *cli {
	return &cli{out: out, errOut: errOut, logger: slog.Default()}
}

func (c *cli) printer() printer {
	return printer{out: c.out, err: c.errOut}
}

func (c *cli) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Guided creative-brief workshop",
		Long: `Briefwork walks a facilitator through a creative-brief workshop:
project framing, customer discovery, sticky-note clustering, spot exercises
and prioritization. Every change is saved to the configured session store,
and the collected answers compile into a finished creative brief, optionally
drafted by an LLM provider (OpenAI, Anthropic, Ollama or an offline mock).`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.configureLogging()
		},
	}
	cmd.SetOut(c.out)
	cmd.SetErr(c.errOut)

	cmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "User config file (default ~/.config/briefwork/config.yaml)")
	cmd.PersistentFlags().StringVarP(&c.sessionID, "session", "s", "", "Session id (default: the active session)")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		c.sessionCmd(),
		c.phaseCmd(),
		c.contextCmd(),
		c.discoveryCmd(),
		c.answerCmd(),
		c.noteCmd(),
		c.clusterCmd(),
		c.spotCmd(),
		c.cardCmd(),
		c.timerCmd(),
		c.llmCmd(),
		c.extractCmd(),
		c.synthesizeCmd(),
		c.briefCmd(),
		c.serveCmd(),
		c.configCmd(),
	)

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func (c *cli) configureLogging() {
	level := slog.LevelWarn
	switch strings.ToLower(c.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	c.logger = slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(c.logger)
}
