package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/pipeline"
	"github.com/funvibe/flowcheck/internal/report"
	"github.com/funvibe/flowcheck/internal/server"
	"github.com/funvibe/flowcheck/internal/store"
)

const usage = `flowcheck - flow-sensitive type checker

Usage:
  flowcheck check [-config file] [-db file] [-v] <file|dir>...
  flowcheck serve [-config file] [-addr host:port] [-v]
  flowcheck help

Settings are read from flowcheck.yaml in the current directory when
-config is not given.
`

// setupLogging sends structured logs to stderr. Without -v only warnings
// and errors are shown.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadSettings reads path, or flowcheck.yaml when path is empty and that
// file exists, or falls back to the defaults.
func loadSettings(path string) (config.Settings, error) {
	if path == "" {
		if _, err := os.Stat(config.SettingsFileName); err != nil {
			return config.DefaultSettings(), nil
		}
		path = config.SettingsFileName
	}
	s, err := config.LoadSettings(path)
	if err != nil {
		return config.Settings{}, err
	}
	slog.Debug("settings.loaded", "path", path)
	return *s, nil
}

func handleHelp(args []string, stdout io.Writer) bool {
	if len(args) > 0 && args[0] != "help" && args[0] != "-help" && args[0] != "--help" && args[0] != "-h" {
		return false
	}
	fmt.Fprint(stdout, usage)
	return true
}

// runCheck analyzes the given files and directories and returns the exit
// code: 0 when clean, 1 when errors or unanalyzable units were found, 2
// on usage or I/O failure.
func runCheck(ctx context.Context, args []string, stdout *os.File, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "settings file")
	dbPath := fs.String("db", "", "record the run in this SQLite database")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	setupLogging(*verbose)

	if fs.NArg() == 0 {
		fmt.Fprintf(stderr, "Usage: flowcheck check [flags] <file|dir>...\n")
		return 2
	}
	settings, err := loadSettings(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 2
	}
	units, err := pipeline.LoadUnits(fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 2
	}

	var db *store.Store
	if *dbPath != "" {
		db, err = store.Open(*dbPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", err)
			return 2
		}
		defer db.Close()
		logChangedUnits(ctx, db, units)
	}

	res, err := pipeline.Run(ctx, units, settings)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 2
	}
	report.ForFile(stdout).Result(res)

	if db != nil {
		if err := db.SaveRun(ctx, res); err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", err)
			return 2
		}
	}
	if report.Failed(res) {
		return 1
	}
	return 0
}

// logChangedUnits compares unit hashes with the previous recorded run.
func logChangedUnits(ctx context.Context, db *store.Store, units []pipeline.Unit) {
	prev, err := db.LastHashes(ctx)
	if err != nil {
		slog.Warn("store.hashes", "err", err)
		return
	}
	changed := 0
	for _, u := range units {
		if h, ok := prev[u.Path]; !ok || h != u.Hash() {
			changed++
			slog.Debug("unit.changed", "path", u.Path)
		}
	}
	slog.Info("units.changed", "changed", changed, "total", len(units))
}

func runServe(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "settings file")
	addr := fs.String("addr", "127.0.0.1:7311", "listen address")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	setupLogging(*verbose)

	settings, err := loadSettings(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 2
	}
	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 2
	}

	srv := server.New(settings)
	go func() {
		<-ctx.Done()
		srv.Stop()
	}()
	fmt.Fprintf(stderr, "listening on %s\n", lis.Addr())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, net.ErrClosed) {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, args []string) int {
	if handleHelp(args, os.Stdout) {
		return 0
	}
	switch args[0] {
	case "check":
		return runCheck(ctx, args[1:], os.Stdout, os.Stderr)
	case "serve":
		return runServe(ctx, args[1:], os.Stderr)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", args[0], usage)
		return 2
	}
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
