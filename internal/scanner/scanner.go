// Package scanner discovers locally installed applications by unioning the
// results of several independent per-platform sources.
package scanner

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/raido/internal/models"
)

// maxWalkDepth bounds how far filesystem sources descend below a scan root,
// keeping scan latency predictable on large trees.
const maxWalkDepth = 4

// Source is one independent discovery mechanism. A failing source must not
// abort the overall scan; its error is logged and its results dropped.
type Source struct {
	Name string
	Scan func() (map[string]models.AppEntry, error)
}

// Scanner unions the results of its sources into a fresh index.
type Scanner struct {
	sources []Source
	logger  *slog.Logger
}

// New creates a scanner with the default sources for the host platform.
// On unsupported platforms the source list is empty and Scan returns an
// empty index.
func New(logger *slog.Logger) *Scanner {
	return &Scanner{sources: defaultSources(), logger: logger}
}

// NewWithSources creates a scanner over an explicit source list.
func NewWithSources(logger *slog.Logger, sources []Source) *Scanner {
	return &Scanner{sources: sources, logger: logger}
}

// Scan runs every source and unions the results. On a name collision the
// last source processed wins; this nondeterminism between sources is
// accepted. Scan never fails: total failure of every source yields an
// empty index.
func (s *Scanner) Scan() map[string]models.AppEntry {
	index := make(map[string]models.AppEntry)
	for _, src := range s.sources {
		apps, err := src.Scan()
		if err != nil {
			s.logger.Warn("scanner: source failed",
				slog.String("source", src.Name),
				slog.String("error", err.Error()))
			continue
		}
		for name, entry := range apps {
			index[name] = entry
		}
		s.logger.Debug("scanner: source done",
			slog.String("source", src.Name),
			slog.Int("apps", len(apps)))
	}
	s.logger.Info("scanner: scan complete", slog.Int("apps", len(index)))
	return index
}

// walkRoot walks root up to maxWalkDepth levels deep and calls visit for
// every regular file whose lowercased name ends in one of exts. A missing
// root is not an error.
func walkRoot(root string, exts []string, visit func(path, name string)) error {
	if _, err := os.Stat(root); err != nil {
		return nil
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: skip, keep walking siblings.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if depthBelow(root, path) > maxWalkDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasExt(d.Name(), exts) {
			return nil
		}
		visit(path, stripExt(d.Name()))
		return nil
	})
}

func depthBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(rel, string(os.PathSeparator)))
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
