//go:build darwin

package scanner

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/platform"
)

func defaultSources() []Source {
	return []Source{
		{Name: "spotlight", Scan: scanSpotlight},
		{Name: "applications_folder", Scan: scanApplicationsFolder},
	}
}

// scanSpotlight asks the Spotlight metadata index for every application
// bundle known to the system.
func scanSpotlight() (map[string]models.AppEntry, error) {
	out, err := exec.Command("mdfind", "kMDItemContentType == com.apple.application-bundle").Output()
	if err != nil {
		return nil, fmt.Errorf("scanner: mdfind: %w", err)
	}
	apps := make(map[string]models.AppEntry)
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		path := strings.TrimSpace(line)
		if path == "" || !strings.HasSuffix(path, ".app") {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), ".app")
		apps[name] = models.AppEntry{
			Name:     name,
			Path:     path,
			Aliases:  []string{},
			Platform: models.PlatformMacOS,
			Source:   "spotlight",
		}
	}
	return apps, nil
}

// scanApplicationsFolder lists .app bundles directly under the standard
// application directories. Bundles are directories, so only the top level
// of each root is inspected.
func scanApplicationsFolder() (map[string]models.AppEntry, error) {
	apps := make(map[string]models.AppEntry)
	for _, root := range platform.ScanRoots(models.PlatformMacOS) {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".app") {
				continue
			}
			name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			apps[name] = models.AppEntry{
				Name:     name,
				Path:     filepath.Join(root, e.Name()),
				Aliases:  []string{},
				Platform: models.PlatformMacOS,
				Source:   "applications_folder",
			}
		}
	}
	return apps, nil
}
