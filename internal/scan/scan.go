package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"audio-analyzer/internal/logging"
)

// ErrNotDirectory reports a scan root that exists but is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Extensions is the case-insensitive allow-list of eligible file extensions,
// held in normalized form (lowercase, no leading dot). It is built once and
// read-only during a scan.
type Extensions []string

// NewExtensions normalizes values into an Extensions set, preserving order
// and dropping empties and duplicates.
func NewExtensions(values []string) Extensions {
	exts := make(Extensions, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		normalized = strings.TrimPrefix(normalized, ".")
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	return exts
}

// Match reports whether the path carries an allow-listed extension. The
// comparison is case-insensitive; a path with no extension never matches.
func (e Extensions) Match(path string) bool {
	ext := extensionOf(path)
	if ext == "" {
		return false
	}
	for _, allowed := range e {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// extensionOf returns the extension without the dot. Dotfiles such as
// ".wav" have no extension; a trailing dot means no extension either.
func extensionOf(path string) string {
	base := filepath.Base(path)
	idx := strings.LastIndexByte(base, '.')
	if idx <= 0 || idx == len(base)-1 {
		return ""
	}
	return base[idx+1:]
}

// Scan walks root and returns the absolute paths of eligible regular files
// in walk (lexical) order. Symlinked directories are not followed. A missing
// or non-directory root is fatal; unreadable entries below it are skipped
// with a warning.
func Scan(root string, exts Extensions, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root %q: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("scan root %q: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %q: %w", absRoot, ErrNotDirectory)
	}

	var files []string
	walkErr := filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return fmt.Errorf("scan root %q: %w", absRoot, err)
			}
			logger.Warn("skipping unreadable entry",
				logging.String("path", path),
				logging.Error(err))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if !exts.Match(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return files, nil
}
