package scanner

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/raido/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fakeSource(name string, apps map[string]models.AppEntry, err error) Source {
	return Source{
		Name: name,
		Scan: func() (map[string]models.AppEntry, error) { return apps, err },
	}
}

func entry(name, path string) models.AppEntry {
	return models.AppEntry{Name: name, Path: path, Aliases: []string{}, Platform: models.PlatformMacOS, Source: "test"}
}

func TestScanUnionsSources(t *testing.T) {
	s := NewWithSources(testLogger(), []Source{
		fakeSource("a", map[string]models.AppEntry{"One": entry("One", "/a/one")}, nil),
		fakeSource("b", map[string]models.AppEntry{"Two": entry("Two", "/b/two")}, nil),
	})
	index := s.Scan()
	if len(index) != 2 {
		t.Fatalf("index size = %d, want 2", len(index))
	}
	if index["One"].Path != "/a/one" || index["Two"].Path != "/b/two" {
		t.Errorf("unexpected index contents: %+v", index)
	}
}

func TestScanLastSourceWinsOnCollision(t *testing.T) {
	s := NewWithSources(testLogger(), []Source{
		fakeSource("first", map[string]models.AppEntry{"App": entry("App", "/first")}, nil),
		fakeSource("second", map[string]models.AppEntry{"App": entry("App", "/second")}, nil),
	})
	index := s.Scan()
	if index["App"].Path != "/second" {
		t.Errorf("path = %q, want /second (last source wins)", index["App"].Path)
	}
}

func TestScanSwallowsSourceFailure(t *testing.T) {
	s := NewWithSources(testLogger(), []Source{
		fakeSource("broken", nil, errors.New("boom")),
		fakeSource("ok", map[string]models.AppEntry{"App": entry("App", "/ok")}, nil),
	})
	index := s.Scan()
	if len(index) != 1 || index["App"].Path != "/ok" {
		t.Errorf("failing source should not abort the scan: %+v", index)
	}
}

func TestScanAllSourcesFailYieldsEmptyIndex(t *testing.T) {
	s := NewWithSources(testLogger(), []Source{
		fakeSource("a", nil, errors.New("a")),
		fakeSource("b", nil, errors.New("b")),
	})
	index := s.Scan()
	if index == nil {
		t.Fatal("index must be non-nil")
	}
	if len(index) != 0 {
		t.Errorf("index size = %d, want 0", len(index))
	}
}

func TestScanNoSources(t *testing.T) {
	s := NewWithSources(testLogger(), nil)
	if got := s.Scan(); len(got) != 0 {
		t.Errorf("expected empty index, got %d entries", len(got))
	}
}

func TestWalkRootDepthBound(t *testing.T) {
	root := t.TempDir()

	shallow := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(shallow, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(shallow, "shallow.exe"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deep := filepath.Join(root, "1", "2", "3", "4", "5", "6")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(deep, "deep.exe"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var seen []string
	err := walkRoot(root, []string{".exe"}, func(_, name string) {
		seen = append(seen, name)
	})
	if err != nil {
		t.Fatalf("walkRoot: %v", err)
	}
	if len(seen) != 1 || seen[0] != "shallow" {
		t.Errorf("seen = %v, want only the shallow file", seen)
	}
}

func TestWalkRootMissingRoot(t *testing.T) {
	if err := walkRoot(filepath.Join(t.TempDir(), "nope"), []string{".exe"}, func(_, _ string) {
		t.Error("visit called for missing root")
	}); err != nil {
		t.Fatalf("missing root must not be an error: %v", err)
	}
}

func TestWalkRootExtensionFilter(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"app.EXE", "doc.txt", "link.lnk"} {
		if err := os.WriteFile(filepath.Join(root, f), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	var seen []string
	if err := walkRoot(root, []string{".exe", ".lnk"}, func(_, name string) {
		seen = append(seen, name)
	}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 {
		t.Errorf("seen = %v, want app and link", seen)
	}
}
