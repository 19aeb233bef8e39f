// Package testutil provides shared test helpers for journal databases and
// app index fixtures.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/models"
)

// TestJournal creates a temporary SQLite journal that is automatically
// cleaned up.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := journal.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestIndex returns a small fixed application index for matcher and
// service tests.
func TestIndex() map[string]models.AppEntry {
	return map[string]models.AppEntry{
		"Safari":        {Name: "Safari", Path: "/Applications/Safari.app", Platform: models.PlatformMacOS, Source: "spotlight"},
		"Google Chrome": {Name: "Google Chrome", Path: "/Applications/Google Chrome.app", Platform: models.PlatformMacOS, Source: "spotlight"},
		"TextEdit":      {Name: "TextEdit", Path: "/Applications/TextEdit.app", Platform: models.PlatformMacOS, Source: "applications_folder"},
	}
}
