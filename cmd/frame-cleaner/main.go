package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/ironsheep/frame-cleaner/internal/config"
	"github.com/ironsheep/frame-cleaner/internal/httpapi"
	"github.com/ironsheep/frame-cleaner/internal/outcome"
	"github.com/ironsheep/frame-cleaner/internal/report"
	"github.com/ironsheep/frame-cleaner/internal/server"
	"github.com/ironsheep/frame-cleaner/internal/watch"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var errUsage = errors.New("usage")

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("frame-cleaner %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage(os.Stdout)
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		printUsage(os.Stderr)
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "frame-cleaner: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "frame-cleaner - remove content outside a drawing's frame")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: frame-cleaner [--config file] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  clean <drawing-or-folder>   Clean drawings and write reports")
	fmt.Fprintln(w, "  detect <drawing>            Print the detected frame as JSON; nothing is modified")
	fmt.Fprintln(w, "  serve                       Serve MCP tools over stdin/stdout")
	fmt.Fprintln(w, "  http                        Serve the HTTP API")
	fmt.Fprintln(w, "  watch [--existing] <folder> Clean drawings as they appear in a folder")
	fmt.Fprintln(w, "  init-config <file>          Write the current configuration to a new file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --config file    YAML, TOML or JSON configuration")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  FRAME_CLEANER_LOG_LEVEL=debug    Enable debug logging")
	fmt.Fprintln(w, "  FRAME_CLEANER_HISTORY_PATH       Run history database")
	fmt.Fprintln(w, "  FRAME_CLEANER_HTTP_ADDR          HTTP API listen address")
}

// run parses the global flags and dispatches the command. Command output
// goes to stdout; logs go to stderr.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("frame-cleaner", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "configuration file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "init-config":
		if len(rest) != 1 {
			return errUsage
		}
		return runInitConfig(cfg, rest[0], stdout)
	case "clean", "detect", "serve", "http", "watch":
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}

	a, err := newApp(cfg, cmd != "detect")
	if err != nil {
		return err
	}
	defer a.Close()
	a.log.Debug("frame-cleaner starting",
		zap.String("version", Version),
		zap.String("built", BuildTime),
		zap.String("commit", GitCommit),
		zap.String("command", cmd),
	)

	switch cmd {
	case "clean":
		if len(rest) != 1 {
			return errUsage
		}
		return runClean(ctx, a, rest[0], stdout)
	case "detect":
		if len(rest) != 1 {
			return errUsage
		}
		return runDetect(ctx, a, rest[0], stdout)
	case "serve":
		var hist server.History
		if a.store != nil {
			hist = a.store
		}
		return server.New(a.cleaner, hist, Version, a.log).Run(ctx)
	case "http":
		var hist httpapi.History
		if a.store != nil {
			hist = a.store
		}
		return httpapi.New(a.cleaner, hist, a.log).ListenAndServe(ctx, cfg.HTTP.Addr)
	default:
		return runWatch(ctx, a, rest)
	}
}

func runClean(ctx context.Context, a *app, input string, stdout io.Writer) error {
	run, err := a.cleaner.Run(ctx, input)
	if run != nil {
		printSummary(stdout, run, a.cfg.Report)
	}
	return err
}

func runDetect(ctx context.Context, a *app, path string, stdout io.Writer) error {
	in, err := a.cleaner.Inspect(ctx, path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(in)
}

// runInitConfig writes the effective configuration to path, refusing to
// overwrite an existing file.
func runInitConfig(cfg *config.Config, path string, stdout io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	existing := fs.Bool("existing", false, "also clean drawings already in the folder")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}

	w, err := watch.New(a.cleaner, fs.Arg(0), watch.Options{
		Debounce: a.cfg.Watch.Debounce(),
		Existing: *existing,
		OnRun: func(run *outcome.Run) {
			s := run.Summary()
			a.log.Info("batch cleaned",
				zap.String("run", run.ID),
				zap.Int("files", s.Total),
				zap.Int("failed", s.Failed),
				zap.Int("review", s.Review),
			)
		},
	}, a.log)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func printSummary(w io.Writer, run *outcome.Run, rc config.ReportConfig) {
	s := run.Summary()
	rule := "=================================================="

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "SUMMARY")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total files:      %d\n", s.Total)
	fmt.Fprintf(w, "Success:          %d\n", s.Success)
	fmt.Fprintf(w, "Failed:           %d\n", s.Failed)
	fmt.Fprintf(w, "Review:           %d\n", s.Review)
	fmt.Fprintf(w, "No border found:  %d\n", s.NoBorder)
	fmt.Fprintf(w, "Entities removed: %d\n", s.Removed)

	if failed := run.FailedOutcomes(); len(failed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failed files:")
		for _, o := range failed {
			fmt.Fprintf(w, "  - %s: %s\n", o.Filename, o.ErrorMessage)
		}
	}

	if s.Total > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Output folder: %s\n", run.OutputDir)
		if rc.CSV {
			fmt.Fprintf(w, "CSV report:    %s\n", filepath.Join(run.OutputDir, report.CSVName))
		}
		if rc.HTML {
			fmt.Fprintf(w, "HTML report:   %s\n", filepath.Join(run.OutputDir, report.HTMLName))
		}
	}
}
