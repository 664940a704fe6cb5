// Package session runs one interactive collect-expand-write cycle.
package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/exbook/exmerge/config"
	"github.com/exbook/exmerge/expand"
	"github.com/nickwells/english.mod/english"
)

// ErrNoFilename is returned when the user enters an empty filename.
var ErrNoFilename = errors.New("no filename provided")

// Session holds the collaborators for one interactive run: the config,
// the terminal reader and writer and the logger warnings go to. Nothing
// is written to the filesystem until a filename and some text have been
// collected.
type Session struct {
	cfg    *config.Config
	in     *bufio.Scanner
	out    io.Writer
	logger *slog.Logger
}

// New creates a Session reading from in and prompting on out. A nil
// logger means the default logger is used.
func New(cfg *config.Config, in io.Reader, out io.Writer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		cfg:    cfg,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger,
	}
}

// Run prompts for a destination filename and pasted text, writes the raw
// text, expands it and overwrites the destination with the result. The
// raw write happens first so that the pasted text survives even if
// expansion is interrupted.
func (s *Session) Run() error {
	name, err := s.promptFilename()
	if err != nil {
		return err
	}
	outPath := ensureOutputSuffix(name, s.cfg.Output.Suffix)

	raw := s.collect()

	if err := writeTextFile(outPath, raw); err != nil {
		return fmt.Errorf("could not write %s: %w", outPath, err)
	}

	exp, err := s.newExpander(outPath)
	if err != nil {
		return err
	}

	processed := exp.Expand(raw)

	if err := writeTextFile(outPath, processed); err != nil {
		return fmt.Errorf("could not write %s: %w", outPath, err)
	}

	s.report(exp, processed, outPath)

	return nil
}

// newExpander builds the resolver and expander from the session config.
func (s *Session) newExpander(outPath string) (*expand.Expander, error) {
	resolver, err := expand.NewResolver(s.logger,
		expand.Dir(s.cfg.Exercises.Dir),
		expand.Suffix(s.cfg.Exercises.Suffix),
		expand.Labels(s.cfg.Expand.Labels),
	)
	if err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(s.cfg.Expand.Labels))
	for tok := range s.cfg.Expand.Labels {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	return expand.NewExpander(resolver, s.logger,
		expand.MaxPasses(s.cfg.Expand.MaxPasses),
		expand.LabelTokens(tokens...),
		expand.Name(outPath),
	)
}

// promptFilename asks for the destination filename. An empty answer, or
// end of input, aborts the run.
func (s *Session) promptFilename() (string, error) {
	fmt.Fprint(s.out, "Enter a filename (without extension is fine): ")

	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", ErrNoFilename
	}

	name := strings.TrimSpace(s.in.Text())
	if name == "" {
		return "", ErrNoFilename
	}

	return name, nil
}

// collect reads pasted lines until a blank line or end of input. The
// collected text joins the lines with newlines and, when any line was
// read, ends with one.
func (s *Session) collect() string {
	fmt.Fprintln(s.out, "Paste your multiline input text below.")
	fmt.Fprintln(s.out, "(Finish by pressing Enter on a blank line.)")

	stop := watchInterrupt()
	defer stop()

	var lines []string
	for s.in.Scan() {
		line := s.in.Text()
		if line == "" {
			break
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}

// watchInterrupt arms a SIGINT handler for the collection phase only. A
// read blocked on a terminal cannot be unblocked from Go so the handler
// exits the process directly, before anything has been written.
func watchInterrupt() (stop func()) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	done := make(chan struct{})
	go func() {
		select {
		case <-sig:
			fmt.Fprintln(os.Stderr, "\nInput cancelled.")
			os.Exit(1)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sig)
		close(done)
	}
}

// report lists any directives left in the processed text and names the
// file written.
func (s *Session) report(exp *expand.Expander, text, outPath string) {
	if occs := exp.Unresolved(text); len(occs) > 0 {
		fmt.Fprintf(s.out, "\n%d %s left unexpanded:\n",
			len(occs), english.Plural("directive", len(occs)))

		for _, o := range occs {
			fmt.Fprintf(s.out, "  %s at %s\n", o.Text, o.Loc)
		}
	}

	abs, err := filepath.Abs(outPath)
	if err != nil {
		abs = outPath
	}

	fmt.Fprintf(s.out, "\nDone. Wrote processed output to: %s\n", abs)
}

// ensureOutputSuffix appends the output suffix unless the name already
// ends with it, compared case-insensitively.
func ensureOutputSuffix(name, suffix string) string {
	if strings.HasSuffix(strings.ToLower(name), strings.ToLower(suffix)) {
		return name
	}

	return name + suffix
}

// writeTextFile writes text to path exactly as given, creating parent
// directories as needed.
func writeTextFile(path, text string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, []byte(text), 0o644)
}
