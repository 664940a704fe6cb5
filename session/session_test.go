package session

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/exbook/exmerge/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCfg(incDir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Exercises.Dir = incDir
	return cfg
}

func runSession(t *testing.T, cfg *config.Config, input string) (*bytes.Buffer, error) {
	t.Helper()

	var out bytes.Buffer
	s := New(cfg, strings.NewReader(input), &out, discardLogger())
	return &out, s.Run()
}

func TestRunWritesExpandedText(t *testing.T) {
	tmp := t.TempDir()
	incDir := filepath.Join(tmp, "exercises")
	require.NoError(t, os.Mkdir(incDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(incDir, "foo.tex"),
		[]byte("\\printreview"), 0o644))

	outBase := filepath.Join(tmp, "out")
	out, err := runSession(t, testCfg(incDir),
		outBase+"\nline A\n\\exinput{foo}\n\n")
	require.NoError(t, err)

	got, err := os.ReadFile(outBase + ".txt")
	require.NoError(t, err)
	assert.Equal(t, "line A\nReview\n", string(got))

	assert.Contains(t, out.String(), "Done. Wrote processed output to:")
	assert.NotContains(t, out.String(), "left unexpanded")
}

func TestRunNoDirectivesRawPreserved(t *testing.T) {
	tmp := t.TempDir()
	outBase := filepath.Join(tmp, "plain")

	_, err := runSession(t, testCfg(filepath.Join(tmp, "missing")),
		outBase+"\nA\nB\n\n")
	require.NoError(t, err)

	got, err := os.ReadFile(outBase + ".txt")
	require.NoError(t, err)
	assert.Equal(t, "A\nB\n", string(got))
}

func TestRunEmptyPaste(t *testing.T) {
	tmp := t.TempDir()
	outBase := filepath.Join(tmp, "empty")

	_, err := runSession(t, testCfg(tmp), outBase+"\n\n")
	require.NoError(t, err)

	got, err := os.ReadFile(outBase + ".txt")
	require.NoError(t, err)
	assert.Equal(t, "", string(got))
}

func TestEmptyFilenameAborts(t *testing.T) {
	tmp := t.TempDir()

	_, err := runSession(t, testCfg(tmp), "\nsome text\n\n")
	assert.ErrorIs(t, err, ErrNoFilename)

	entries, readErr := os.ReadDir(tmp)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestNoInputAborts(t *testing.T) {
	_, err := runSession(t, testCfg(t.TempDir()), "")
	assert.ErrorIs(t, err, ErrNoFilename)
}

func TestOutputSuffixAppended(t *testing.T) {
	tmp := t.TempDir()

	_, err := runSession(t, testCfg(tmp),
		filepath.Join(tmp, "report")+"\nX\n\n")
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(tmp, "report.txt"))
	assert.NoError(t, statErr)
}

func TestOutputSuffixCaseInsensitive(t *testing.T) {
	tmp := t.TempDir()

	_, err := runSession(t, testCfg(tmp),
		filepath.Join(tmp, "REPORT.TXT")+"\nX\n\n")
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(tmp, "REPORT.TXT"))
	assert.NoError(t, statErr)
}

func TestParentDirsCreated(t *testing.T) {
	tmp := t.TempDir()
	outBase := filepath.Join(tmp, "sub", "deep", "out")

	_, err := runSession(t, testCfg(tmp), outBase+"\nX\n\n")
	require.NoError(t, err)

	_, statErr := os.Stat(outBase + ".txt")
	assert.NoError(t, statErr)
}

func TestUnresolvedReported(t *testing.T) {
	tmp := t.TempDir()
	incDir := filepath.Join(tmp, "exercises")
	require.NoError(t, os.Mkdir(incDir, 0o755))

	outBase := filepath.Join(tmp, "out")
	out, err := runSession(t, testCfg(incDir),
		outBase+"\n\\exinput{gone}\n\n")
	require.NoError(t, err)

	assert.Contains(t, out.String(), "1 directive left unexpanded")
	assert.Contains(t, out.String(), "\\exinput{gone}")

	// the directive survives verbatim in the written file
	got, readErr := os.ReadFile(outBase + ".txt")
	require.NoError(t, readErr)
	assert.Equal(t, "\\exinput{gone}\n", string(got))
}

func TestEnsureOutputSuffix(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "report", want: "report.txt"},
		{name: "report.txt", want: "report.txt"},
		{name: "REPORT.TXT", want: "REPORT.TXT"},
		{name: "report.tex", want: "report.tex.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ensureOutputSuffix(tt.name, ".txt"))
		})
	}
}
