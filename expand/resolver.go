package expand

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nickwells/filecheck.mod/filecheck"
)

// DfltDir is the default directory searched for include files
// DfltSuffix is the default suffix enforced on include file arguments
//
// They are used by NewResolver when no overriding options are given
const (
	DfltDir    = "exercises"
	DfltSuffix = ".tex"
)

// Kind identifies what a directive occurrence is asking for.
type Kind int

const (
	// KindContentInput requests the contents of an include file. The
	// argument is the file's name relative to the include directory.
	KindContentInput Kind = iota
	// KindLabel requests a fixed label string. The argument is the label
	// token without its leading backslash.
	KindLabel
)

// Resolver maps a directive to its replacement text. The boolean reports
// whether the directive resolved; if it is false the occurrence must be
// left in the text exactly as it was found.
type Resolver interface {
	Resolve(kind Kind, arg string) (string, bool)
}

// DefaultLabels returns the standard label table.
func DefaultLabels() map[string]string {
	return map[string]string{
		"printconcepts": "Terms and Concepts",
		"printproblems": "Problems",
		"printreview":   "Review",
	}
}

// FileResolver resolves content-input directives against files under a
// single include directory and label directives against a fixed table.
//
// You should create a new FileResolver with NewResolver and then pass it
// to NewExpander. The include directory is not required to exist when the
// resolver is created; its absence is checked at each resolution and
// degrades every content-input directive to unresolved.
//
// A FileResolver remembers which warnings it has already issued. It is
// scoped to a single run and is not safe for concurrent use.
type FileResolver struct {
	dir    string
	suffix string
	labels map[string]string
	logger *slog.Logger

	warnedDir   bool
	warnedFiles map[string]bool
}

type OptFunc func(r *FileResolver) error

// NewResolver creates a new FileResolver. A nil logger means the default
// logger is used.
func NewResolver(logger *slog.Logger, opts ...OptFunc) (*FileResolver, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &FileResolver{
		dir:         DfltDir,
		suffix:      DfltSuffix,
		labels:      DefaultLabels(),
		logger:      logger,
		warnedFiles: make(map[string]bool),
	}

	for _, o := range opts {
		if err := o(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Dir returns an OptFunc that will set the directory under which include
// files are looked up. Note that the directory need not exist; a missing
// directory is reported when the first directive is resolved.
func Dir(dir string) OptFunc {
	return func(r *FileResolver) error {
		if dir == "" {
			return fmt.Errorf("the include directory must not be empty")
		}

		r.dir = dir
		return nil
	}
}

// Suffix returns an OptFunc that will set the suffix enforced on include
// file arguments. The suffix must be complete and include the separator.
// For instance ".tex". Any other suffix on a directive argument is
// replaced with this one.
func Suffix(suffix string) OptFunc {
	return func(r *FileResolver) error {
		if !strings.HasPrefix(suffix, ".") {
			return fmt.Errorf("bad suffix %q: it must start with '.'", suffix)
		}

		r.suffix = suffix
		return nil
	}
}

// Labels returns an OptFunc that will add the given entries to the label
// table. Existing entries with the same token are replaced.
func Labels(labels map[string]string) OptFunc {
	return func(r *FileResolver) error {
		for tok, label := range labels {
			if tok == "" || label == "" {
				return fmt.Errorf("bad label entry %q: %q", tok, label)
			}

			r.labels[tok] = label
		}

		return nil
	}
}

// Resolve maps a directive to its replacement text.
func (r *FileResolver) Resolve(kind Kind, arg string) (string, bool) {
	switch kind {
	case KindContentInput:
		return r.readContent(arg)
	case KindLabel:
		label, ok := r.labels[arg]
		return label, ok
	}

	return "", false
}

// readContent returns the contents of the named include file. Any failure
// degrades to a warning and an unresolved result; each distinct problem
// is warned about at most once.
func (r *FileResolver) readContent(name string) (string, bool) {
	if err := filecheck.DirExists().StatusCheck(r.dir); err != nil {
		if !r.warnedDir {
			r.logger.Warn("Missing directory", slog.String("dir", r.dir))
			r.warnedDir = true
		}

		return "", false
	}

	path := filepath.Join(r.dir, ensureSuffix(name, r.suffix))

	if err := filecheck.FileExists().StatusCheck(path); err != nil {
		r.warnOnce(path, "Missing file", slog.String("path", path))
		return "", false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		r.warnOnce(path, "Could not read file",
			slog.String("path", path), slog.String("error", err.Error()))
		return "", false
	}

	return string(content), true
}

func (r *FileResolver) warnOnce(path, msg string, args ...any) {
	if r.warnedFiles[path] {
		return
	}
	r.warnedFiles[path] = true

	r.logger.Warn(msg, args...)
}

// Available lists the include files under the resolver's directory,
// including those in subdirectories.
func (r *FileResolver) Available() ([]string, error) {
	pattern := filepath.Join(r.dir, "**", "*"+r.suffix)

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	return matches, nil
}

// ensureSuffix gives name the include suffix, replacing any other final
// extension rather than appending to it. A bare leading-dot name such as
// ".hidden" has no extension and gets the suffix appended.
func ensureSuffix(name, suffix string) string {
	ext := filepath.Ext(name)
	if base := filepath.Base(name); base == ext && strings.HasPrefix(base, ".") {
		ext = ""
	}

	if ext == suffix {
		return name
	}

	return strings.TrimSuffix(name, ext) + suffix
}
