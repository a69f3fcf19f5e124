package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/phraseclip/internal/config"
	"github.com/dshills/phraseclip/internal/logger"
	"github.com/dshills/phraseclip/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const defaultConfigPath = "phraseclip.yaml"

const usage = `Usage: phraseclip [-config path] <command> [flags]

Commands:
  serve        run the HTTP search API
  mcp          run the MCP server on stdio
  transcribe   produce an SRT transcript with whisper
  cut          cut one clip per subtitle cue and write the manifest
  load         import the manifest into the phrase index
  stats        print corpus statistics
  version      print build information
`

// command runs one subcommand with its remaining arguments
type command func(ctx context.Context, app *app, args []string) error

var commands = map[string]command{
	"serve":      runServe,
	"mcp":        runMCP,
	"transcribe": runTranscribe,
	"cut":        runCut,
	"load":       runLoad,
	"stats":      runStats,
}

// app holds what every subcommand needs
type app struct {
	cfg *config.Config
	log *logger.Logger
	out io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("phraseclip", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", defaultConfigPath, "path to the YAML config file")
	showVersion := fs.Bool("version", false, "print build information")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	name := fs.Arg(0)
	if *showVersion || name == "version" {
		printVersion(stdout)
		return 0
	}
	if name == "" {
		fs.Usage()
		return 2
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		fs.Usage()
		return 2
	}

	// The default config file is optional; an explicit one must exist.
	cfg, err := config.Load(*configPath, *configPath == defaultConfigPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, &app{cfg: cfg, log: log, out: stdout}, fs.Args()[1:]); err != nil {
		log.Error("command failed", "command", name, "error", err)
		return 1
	}
	return 0
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "phraseclip\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Build Mode: %s\n", storage.BuildMode)
	fmt.Fprintf(w, "SQLite Driver: %s\n", storage.DriverName)
}
