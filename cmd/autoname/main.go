// Command autoname applies the auto-name rewrite to Go source files at
// build time: every qualifying assignment `x := pkg.Ctor(...)` gains an
// explicit `pkg.Name("x")` option. It is the opt-in alternative to the
// runtime pipeline for projects that prefer committed, reviewable source.
//
// Usage:
//
//	autoname [-config autoname.yaml] [-write | -list] file.go ...
//
// With -write files are rewritten in place; with -list changed filenames
// are printed and the exit status is 1 when any file needs rewriting; by
// default rewritten source is printed to stdout.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/probkit/probkit/internal/rewrite"
)

const defaultConfigFile = "autoname.yaml"

var (
	configPath = flag.String("config", "", "yaml configuration file (default autoname.yaml if present)")
	write      = flag.Bool("write", false, "rewrite files in place")
	list       = flag.Bool("list", false, "list files that would change; exit 1 if any")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: autoname [flags] file.go ...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *write && *list {
		fmt.Fprintln(os.Stderr, "autoname: -write and -list are mutually exclusive")
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}

	changedAny := false
	for _, path := range flag.Args() {
		changed, err := processFile(path, cfg)
		if err != nil {
			fatal(err)
		}
		changedAny = changedAny || changed
	}
	if *list && changedAny {
		os.Exit(1)
	}
}

func loadConfig() (*rewrite.Config, error) {
	if *configPath != "" {
		return rewrite.LoadConfig(*configPath)
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return rewrite.LoadConfig(defaultConfigFile)
	}
	return &rewrite.Config{}, nil
}

func processFile(path string, cfg *rewrite.Config) (bool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	out, changed, err := rewrite.RewriteSource(path, src, cfg)
	if err != nil {
		return false, err
	}

	switch {
	case *list:
		if changed {
			fmt.Println(path)
		}
	case *write:
		if changed {
			if err := os.WriteFile(path, out, 0o644); err != nil {
				return false, err
			}
			fmt.Fprintf(os.Stderr, "%s %s\n", colorize("rewrote"), path)
		}
	default:
		os.Stdout.Write(out)
	}
	return changed, nil
}

// colorize highlights a status word when stderr is a terminal.
func colorize(s string) string {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return "\x1b[32m" + s + "\x1b[0m"
	}
	return s
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "autoname: %v\n", err)
	os.Exit(2)
}
