// FILE: lixenwraith/layered/cmd/main.go
// Command layered resolves values from a config file, the environment and
// command-line overrides, and prints them.
//
// Usage:
//
//	layered [-file path] [-app name] [-env PREFIX] [-get key[,key...]] [-debug] [-- --key value ...]
//
// Without -get the merged view is dumped as TOML. With -get the keys are
// tried in order and the first one that resolves is printed.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lixenwraith/layered"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	file      string
	app       string
	envPrefix string
	get       string
	fallback  string
	logLevel  string
	debug     bool
	overrides []string
}

// parseArgs parses args (without the program name). Arguments after "--"
// are kept as overrides for the command-line layer.
func parseArgs(args []string, output io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("layered", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.file, "file", "", "config file (TOML, YAML or JSON)")
	fs.StringVar(&opts.app, "app", "", "application name used for file discovery")
	fs.StringVar(&opts.envPrefix, "env", "", "environment variable prefix")
	fs.StringVar(&opts.get, "get", "", "comma separated keys, first match wins")
	fs.StringVar(&opts.fallback, "default", "", "value printed when no key resolves")
	fs.StringVar(&opts.logLevel, "log-level", "WARN", "log level")
	fs.BoolVar(&opts.debug, "debug", false, "print source and cursor state")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if opts.file != "" && opts.app != "" {
		return cliOptions{}, fmt.Errorf("-file and -app are mutually exclusive")
	}
	opts.overrides = fs.Args()
	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "layered: %v\n", err)
		os.Exit(2)
	}

	logger := layered.NewLogger(opts.logLevel, os.Stderr)

	b := layered.NewBuilder().
		WithLogger(logger).
		WithEnvPrefix(opts.envPrefix).
		WithArgs(opts.overrides)
	switch {
	case opts.file != "":
		b = b.WithFile(opts.file)
	case opts.app != "":
		b = b.WithFileDiscovery(layered.DefaultDiscoveryOptions(opts.app))
	}

	r, err := b.Build()
	if err != nil {
		if r == nil || !errors.Is(err, layered.ErrConfigNotFound) {
			logger.Error("build failed", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Warn("config file not found, continuing", slog.Any("error", err))
	}

	if opts.debug {
		fmt.Fprint(os.Stderr, r.Debug())
	}

	if opts.get == "" {
		if err := r.Dump(os.Stdout); err != nil {
			logger.Error("dump failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	readOpts := layered.ReadOptions{}
	if opts.fallback != "" {
		readOpts.Default = opts.fallback
	}
	keys := strings.Split(opts.get, ",")
	paths := make([]any, len(keys))
	for i, k := range keys {
		paths[i] = strings.TrimSpace(k)
	}

	value, err := r.Find(readOpts, paths...)
	if errors.Is(err, layered.ErrNotFound) {
		logger.Error("no key resolved", slog.String("keys", opts.get))
		os.Exit(2)
	}
	if err != nil {
		logger.Error("lookup failed", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println(value)
}
