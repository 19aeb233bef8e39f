// Package platform resolves host-OS specifics: which platform Raido is
// running on, where applications are conventionally installed, and which
// file extensions count as launchable.
package platform

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/starford/raido/internal/models"
)

// Current maps runtime.GOOS onto the platform tags used throughout the index.
func Current() string {
	switch runtime.GOOS {
	case "windows":
		return models.PlatformWindows
	case "darwin":
		return models.PlatformMacOS
	default:
		return models.PlatformUnknown
	}
}

// ScanRoots returns the directories the filesystem sources walk, for the
// given platform. Roots that do not exist are skipped by the scanner.
func ScanRoots(platform string) []string {
	switch platform {
	case models.PlatformWindows:
		return []string{
			`C:\Program Files`,
			`C:\Program Files (x86)`,
			ExpandHome(`~\AppData\Local\Microsoft\WindowsApps`),
		}
	case models.PlatformMacOS:
		return []string{
			"/Applications",
			ExpandHome("~/Applications"),
		}
	default:
		return nil
	}
}

// AllowedDirs returns the install directories the executor considers
// conventional. Paths outside them are allowed but logged as warnings.
func AllowedDirs(platform string) []string {
	switch platform {
	case models.PlatformWindows:
		return []string{
			`C:\Program Files`,
			`C:\Program Files (x86)`,
			ExpandHome(`~\AppData`),
		}
	case models.PlatformMacOS:
		return []string{
			"/Applications",
			ExpandHome("~/Applications"),
			"/System/Applications",
		}
	default:
		return nil
	}
}

// Extensions returns the launchable file extensions for the platform.
func Extensions(platform string) []string {
	switch platform {
	case models.PlatformWindows:
		return []string{".exe", ".lnk"}
	case models.PlatformMacOS:
		return []string{".app"}
	default:
		return nil
	}
}

// ExpandHome resolves a leading ~ against the current user's home directory.
func ExpandHome(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
