//go:build windows

package scanner

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows/registry"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/platform"
)

var appPathsKeys = []string{
	`SOFTWARE\Microsoft\Windows\CurrentVersion\App Paths`,
	`SOFTWARE\Wow6432Node\Microsoft\Windows\CurrentVersion\App Paths`,
}

func defaultSources() []Source {
	return []Source{
		{Name: "registry", Scan: scanRegistry},
		{Name: "program_files", Scan: scanProgramFiles},
	}
}

// scanRegistry reads the App Paths registry keys, where installers register
// their main executables.
func scanRegistry() (map[string]models.AppEntry, error) {
	apps := make(map[string]models.AppEntry)
	var lastErr error
	for _, keyPath := range appPathsKeys {
		key, err := registry.OpenKey(registry.LOCAL_MACHINE, keyPath, registry.READ)
		if err != nil {
			lastErr = fmt.Errorf("scanner: open key %s: %w", keyPath, err)
			continue
		}
		names, err := key.ReadSubKeyNames(-1)
		if err != nil {
			key.Close()
			lastErr = fmt.Errorf("scanner: enumerate %s: %w", keyPath, err)
			continue
		}
		for _, name := range names {
			sub, err := registry.OpenKey(key, name, registry.READ)
			if err != nil {
				continue
			}
			path, _, err := sub.GetStringValue("")
			sub.Close()
			if err != nil || path == "" {
				continue
			}
			if _, err := os.Stat(path); err != nil {
				continue
			}
			appName := stripExt(name)
			apps[appName] = models.AppEntry{
				Name:     appName,
				Path:     path,
				Aliases:  []string{},
				Platform: models.PlatformWindows,
				Source:   "registry",
			}
		}
		key.Close()
	}
	if len(apps) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return apps, nil
}

// scanProgramFiles walks the Program Files trees (depth-bounded) collecting
// .exe and .lnk files. The first occurrence of a name wins within this
// source, matching the walk order.
func scanProgramFiles() (map[string]models.AppEntry, error) {
	apps := make(map[string]models.AppEntry)
	exts := platform.Extensions(models.PlatformWindows)
	for _, root := range platform.ScanRoots(models.PlatformWindows) {
		err := walkRoot(root, exts, func(path, name string) {
			if _, ok := apps[name]; ok {
				return
			}
			apps[name] = models.AppEntry{
				Name:     name,
				Path:     path,
				Aliases:  []string{},
				Platform: models.PlatformWindows,
				Source:   "program_files",
			}
		})
		if err != nil {
			return apps, fmt.Errorf("scanner: walk %s: %w", root, err)
		}
	}
	return apps, nil
}
