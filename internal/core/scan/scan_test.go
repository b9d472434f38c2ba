package scan

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func newTestScanner(patterns ...string) *Scanner {
	return New(patterns, zerolog.Nop())
}

func TestScannerScan(t *testing.T) {
	t.Run("matches doublestar patterns recursively", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "main.go")
		writeFile(t, root, "internal/app/app.go")
		writeFile(t, root, "docs/readme.md")

		files, err := newTestScanner("**/*.go").Scan(root)
		require.NoError(t, err)
		assert.Equal(t, []string{"internal/app/app.go", "main.go"}, files)
	})

	t.Run("basename patterns find nested files", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "a/b/c/deep.txt")
		writeFile(t, root, "top.txt")

		files, err := newTestScanner("*.txt").Scan(root)
		require.NoError(t, err)
		assert.Equal(t, []string{"a/b/c/deep.txt", "top.txt"}, files)
	})

	t.Run("dangerous directories are never traversed", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "src/ok.js")
		writeFile(t, root, "node_modules/pkg/index.js")
		writeFile(t, root, ".git/objects/blob.js")
		writeFile(t, root, "vendor/dep/dep.js")
		writeFile(t, root, "dist/bundle.js")

		files, err := newTestScanner("**/*.js").Scan(root)
		require.NoError(t, err)
		assert.Equal(t, []string{"src/ok.js"}, files)
	})

	t.Run("dot directories are pruned", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "app.py")
		writeFile(t, root, ".venv/lib/site.py")
		writeFile(t, root, ".cache/x.py")

		files, err := newTestScanner("**/*.py").Scan(root)
		require.NoError(t, err)
		assert.Equal(t, []string{"app.py"}, files)
	})

	t.Run("symlinks are skipped", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("symlinks need privileges on windows")
		}

		root := t.TempDir()
		writeFile(t, root, "real.txt")
		require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")))

		files, err := newTestScanner("**/*.txt").Scan(root)
		require.NoError(t, err)
		assert.Equal(t, []string{"real.txt"}, files)
	})

	t.Run("overlapping patterns de-duplicate", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "note.md")

		files, err := newTestScanner("**/*.md", "*.md").Scan(root)
		require.NoError(t, err)
		assert.Equal(t, []string{"note.md"}, files)
	})

	t.Run("invalid pattern errors", func(t *testing.T) {
		_, err := newTestScanner("[").Scan(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("empty tree yields empty list", func(t *testing.T) {
		files, err := newTestScanner("**/*").Scan(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}
