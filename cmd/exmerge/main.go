// Package main provides the exmerge binary entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/exbook/exmerge/config"
	"github.com/exbook/exmerge/expand"
	"github.com/exbook/exmerge/session"

	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
)

// Version is the released version of exmerge.
const Version = "0.3.0"

func checkUpdate(currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      "exbook",
		Repository: "exmerge",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Printf("A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Println("Download it from https://github.com/exbook/exmerge/releases")
	} else {
		fmt.Printf("You are using the latest version: %s\n", currentVer)
	}
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: exmerge [options]\n\n")
		fmt.Fprintf(os.Stderr, "exmerge merges exercise includes into pasted document text.\n")
		fmt.Fprintf(os.Stderr, "It prompts for an output filename, reads pasted text until a blank line,\n")
		fmt.Fprintf(os.Stderr, "writes it, then expands \\exinput / \\exsetinput directives and the\n")
		fmt.Fprintf(os.Stderr, "\\printconcepts / \\printproblems / \\printreview tokens in place.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  exmerge              # Interactive run\n")
		fmt.Fprintf(os.Stderr, "  exmerge -d chapters  # Read includes from ./chapters\n")
		fmt.Fprintf(os.Stderr, "  exmerge --list       # Show the available include files\n")
	}

	configFlag := pflag.StringP("config", "c", "", "Load configuration from the specified file")
	dirFlag := pflag.StringP("dir", "d", "", "Directory searched for include files")
	passesFlag := pflag.IntP("passes", "p", 0, "Maximum number of expansion passes")
	listFlag := pflag.BoolP("list", "l", false, "List the available include files and exit")
	verboseFlag := pflag.BoolP("verbose", "v", false, "Enable debug logging")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for the latest released version")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("exmerge version %s\n", Version)
		return
	}

	if *updateFlag {
		checkUpdate(Version)
		return
	}

	level := slog.LevelWarn
	if *verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *dirFlag != "" {
		cfg.Exercises.Dir = *dirFlag
	}
	if *passesFlag > 0 {
		cfg.Expand.MaxPasses = *passesFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *listFlag {
		runListMode(cfg, logger)
		return
	}

	s := session.New(cfg, os.Stdin, os.Stdout, logger)
	if err := s.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runListMode(cfg *config.Config, logger *slog.Logger) {
	resolver, err := expand.NewResolver(logger,
		expand.Dir(cfg.Exercises.Dir),
		expand.Suffix(cfg.Exercises.Suffix),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	files, err := resolver.Available()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(files) == 0 {
		fmt.Printf("No include files found under %s\n", cfg.Exercises.Dir)
		return
	}

	for _, f := range files {
		fmt.Println(f)
	}
}
