// Package main is the conflang command line tool.
//
// It parses a config file, optionally against a TOML schema manifest
// and Lua keyword handlers, and prints the resolved values as TOML.
// With -check it only validates; with -watch it reparses on change.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pelletier/go-toml/v2"

	conflang "github.com/dshills/conflang"
	"github.com/dshills/conflang/notify"
	"github.com/dshills/conflang/plugin"
	"github.com/dshills/conflang/schema"
	"github.com/dshills/conflang/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	schemaPath   string
	handlersPath string
	keywords     string
	check        bool
	watchFile    bool
	permissive   bool
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.schemaPath, "schema", "", "Path to TOML schema manifest")
	flag.StringVar(&opts.schemaPath, "s", "", "Path to TOML schema manifest (shorthand)")
	flag.StringVar(&opts.handlersPath, "handlers", "", "Path to Lua handler script")
	flag.StringVar(&opts.keywords, "keywords", "", "Comma-separated keywords bound to the handler script")
	flag.BoolVar(&opts.check, "check", false, "Validate only, do not print values")
	flag.BoolVar(&opts.watchFile, "watch", false, "Reparse and reprint when the file changes")
	flag.BoolVar(&opts.permissive, "permissive", false, "Skip unknown keys instead of reporting them")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if showVersion {
		fmt.Printf("conflang %s (%s, %s)\n", version, commit, date)
		return 0
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: conflang [flags] <config-file>")
		flag.PrintDefaults()
		return 2
	}
	path := flag.Arg(0)

	// Without a schema there is nothing to validate keys against, so
	// fall back to the inference entry point.
	if opts.schemaPath == "" {
		values, err := conflang.ParseFileToMap(path, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if opts.check {
			return 0
		}
		return printTOML(values)
	}

	cfg := conflang.New(path, conflang.Options{
		VerifyOnly: opts.check && !opts.watchFile,
		Permissive: opts.permissive,
	})

	manifest, err := schema.Load(opts.schemaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := manifest.Apply(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if opts.handlersPath != "" {
		script, err := plugin.Load(opts.handlersPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer script.Close()

		keywords := splitKeywords(opts.keywords)
		if len(keywords) == 0 {
			fmt.Fprintln(os.Stderr, "Error: -handlers requires -keywords")
			return 2
		}
		if err := script.Bind(cfg, conflang.HandlerOptions{}, keywords...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if err := cfg.Commence(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if res := cfg.Parse(); res.Error {
		fmt.Fprintf(os.Stderr, "Error: %s\n", res.Message)
		return 1
	}

	if opts.check && !opts.watchFile {
		return 0
	}
	if !opts.check {
		if code := printTOML(cfg.Snapshot()); code != 0 {
			return code
		}
	}

	if opts.watchFile {
		return watchLoop(cfg, path, opts.check)
	}
	return 0
}

// watchLoop reparses on file change until interrupted.
func watchLoop(cfg *conflang.Config, path string, checkOnly bool) int {
	n := notify.New()
	n.Attach(cfg)
	n.Subscribe(func(c notify.Change) {
		fmt.Fprintf(os.Stderr, "changed %s: %v -> %v\n", c.Path, c.Old, c.New)
	})

	w, err := watch.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer w.Close()

	w.OnChange(watch.Reload(cfg, func(res conflang.Result) {
		if res.Error {
			fmt.Fprintf(os.Stderr, "Error: %s\n", res.Message)
			return
		}
		if !checkOnly {
			printTOML(cfg.Snapshot())
		}
	}))
	if err := w.Add(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	return 0
}

func printTOML(values map[string]any) int {
	out, err := toml.Marshal(values)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	os.Stdout.Write(out)
	return 0
}

func splitKeywords(s string) []string {
	var out []string
	for _, kw := range strings.Split(s, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
