package ops

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hpungsan/moodjournal/internal/config"
	"github.com/hpungsan/moodjournal/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // import source
	PathCheckWrite                      // export target
)

// ExportExt is the only extension accepted for export and import files.
const ExportExt = ".jsonl"

// maxHeaderBytes bounds how much of an existing file is read to recognise
// an export header.
const maxHeaderBytes = 4096

// pathPolicy decides where journal exports may be written and read from.
// Build one per operation with newPathPolicy.
type pathPolicy struct {
	exportsDir string
	unsafe     bool
	allowed    []string // absolute, symlinks resolved; empty when unsafe
}

func newPathPolicy(cfg *config.Config) (*pathPolicy, error) {
	exportsDir, err := exportsDirFor(cfg)
	if err != nil {
		return nil, err
	}
	p := &pathPolicy{exportsDir: exportsDir}
	if cfg != nil && cfg.AllowUnsafePaths {
		p.unsafe = true
		return p, nil
	}

	dirs := []string{exportsDir}
	if cfg != nil {
		for _, d := range cfg.AllowedPaths {
			if filepath.IsAbs(d) {
				dirs = append(dirs, d)
			}
		}
	}
	for _, d := range dirs {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if isSymlink(abs) {
			if abs, err = filepath.EvalSymlinks(abs); err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
		}
		p.allowed = append(p.allowed, abs)
	}
	return p, nil
}

// defaultExportPath names a timestamped export inside the exports directory.
func (p *pathPolicy) defaultExportPath(now time.Time) string {
	return filepath.Join(p.exportsDir, "journal-"+now.Format("2006-01-02T150405")+ExportExt)
}

// check applies every rule to path:
//   - no ".." components
//   - .jsonl extension
//   - the file sits directly in an allowed directory (skipped when unsafe)
//   - neither the file nor its parent directory is a symlink
//   - an import source exists
//   - an export never overwrites a file that is not itself a journal export
//
// Nested directories are refused so that no intermediate component can be
// swapped for a symlink between this check and the O_NOFOLLOW open.
func (p *pathPolicy) check(path string, mode PathCheckMode) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ExportExt {
		return errors.NewInvalidRequest("path must have " + ExportExt + " extension")
	}

	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if !p.unsafe {
		dir := filepath.Dir(abs)
		if !slices.Contains(p.allowed, dir) {
			return errors.NewInvalidRequest(
				fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v", p.allowed))
		}
		if isSymlink(dir) {
			return errors.NewInvalidRequest("parent directory must not be a symlink")
		}
	}

	if isSymlink(abs) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}

	switch mode {
	case PathCheckRead:
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	case PathCheckWrite:
		if exists(abs) && !isJournalExport(abs) {
			return errors.NewInvalidRequest("refusing to overwrite a file that is not a journal export")
		}
	}
	return nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// isJournalExport reports whether the file starts with an export header line.
func isJournalExport(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	line, err := bufio.NewReader(io.LimitReader(f, maxHeaderBytes)).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return false
	}
	var h ExportHeader
	return json.Unmarshal(line, &h) == nil && h.MoodExport
}

// exportsDirFor prefers the directory set by config.Load.
func exportsDirFor(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.ExportsDir != "" {
		return cfg.ExportsDir, nil
	}
	return DefaultExportsDir()
}

// DefaultExportsDir returns ~/.moodjournal/exports.
func DefaultExportsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(homeDir, ".moodjournal", "exports"), nil
}

// containsTraversal reports whether any path component is "..". Both
// separators are honored since user input may use forward slashes anywhere.
func containsTraversal(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}
