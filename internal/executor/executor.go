// Package executor validates application paths and spawns the actual
// launch. Every launch passes a security gate first; the process itself is
// started fire-and-forget, Raido never waits for the app to exit.
package executor

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/platform"
)

// Shell metacharacters are refused outright. A path carrying one of these
// came from a corrupted cache or a crafted request, not an installer.
var dangerousPatterns = []string{";", "&&", "||", "|", "&", "`", "$", `\`, ">", "<"}

// Executor launches applications for one platform. The spawn and
// process-list functions are injectable so tests never start real
// processes. Not safe for concurrent use.
type Executor struct {
	platform    string
	allowedDirs []string
	logger      *slog.Logger

	spawn       func(argv []string) error
	processList func() (string, error)

	executed []models.ExecutedApp
	now      func() time.Time
}

// New builds an executor for the given platform tag.
func New(plat string, logger *slog.Logger) *Executor {
	e := &Executor{
		platform:    plat,
		allowedDirs: platform.AllowedDirs(plat),
		logger:      logger,
		processList: defaultProcessList(plat),
		now:         time.Now,
	}
	e.spawn = defaultSpawn
	return e
}

// Execute validates entry's path and starts the application. The returned
// error wraps apperr.ErrSecurityPolicy when the gate refuses the path and
// apperr.ErrUnsupportedPlatform when the host cannot launch apps at all.
func (e *Executor) Execute(name string, entry models.AppEntry) error {
	if name == "" || entry.Path == "" {
		return fmt.Errorf("%w: app %q has no path", apperr.ErrSecurityPolicy, name)
	}
	if err := e.securityCheck(entry.Path); err != nil {
		return err
	}

	argv, err := e.launchArgv(entry.Path)
	if err != nil {
		return err
	}
	if err := e.spawn(argv); err != nil {
		return fmt.Errorf("launch %s: %w", name, err)
	}

	e.executed = append(e.executed, models.ExecutedApp{
		Name:      name,
		Path:      entry.Path,
		Timestamp: e.now().Unix(),
	})
	e.logger.Info("executor: launched",
		slog.String("app", name),
		slog.String("path", entry.Path))
	return nil
}

// securityCheck runs the gate in a fixed order: existence, absoluteness,
// allow-list (warn only), executable bit, metacharacters.
func (e *Executor) securityCheck(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: path does not exist: %s", apperr.ErrSecurityPolicy, path)
	}
	if !isAbs(e.platform, path) {
		return fmt.Errorf("%w: path is not absolute: %s", apperr.ErrSecurityPolicy, path)
	}

	// Outside the conventional install dirs is suspicious but legal; the
	// user may have installed anywhere.
	if len(e.allowedDirs) > 0 && !e.inAllowedDir(path) {
		e.logger.Warn("executor: path outside conventional install dirs",
			slog.String("path", path))
	}

	// Windows has no executable bit. On macOS an .app bundle is a
	// directory whose nested binary carries the bit, so the bundle itself
	// is exempt.
	if e.platform != models.PlatformWindows {
		if info.Mode().Perm()&0o111 == 0 {
			if !(e.platform == models.PlatformMacOS && strings.HasSuffix(path, ".app")) {
				return fmt.Errorf("%w: file is not executable: %s", apperr.ErrSecurityPolicy, path)
			}
			e.logger.Warn("executor: bundle without executable bit", slog.String("path", path))
		}
	}

	for _, pattern := range dangerousPatterns {
		if e.platform == models.PlatformWindows && pattern == `\` {
			continue
		}
		if strings.Contains(path, pattern) {
			return fmt.Errorf("%w: path contains %q: %s", apperr.ErrSecurityPolicy, pattern, path)
		}
	}
	return nil
}

func (e *Executor) inAllowedDir(path string) bool {
	for _, dir := range e.allowedDirs {
		if strings.HasPrefix(path, dir) {
			return true
		}
	}
	return false
}

// launchArgv builds the platform launch command for path.
func (e *Executor) launchArgv(path string) ([]string, error) {
	switch e.platform {
	case models.PlatformMacOS:
		if strings.HasSuffix(path, ".app") {
			return []string{"open", "-a", path}, nil
		}
		return []string{"open", path}, nil
	case models.PlatformWindows:
		if strings.HasSuffix(strings.ToLower(path), ".lnk") {
			// Shortcuts only resolve through the shell.
			return []string{"cmd", "/c", "start", "", path}, nil
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("%w: %s", apperr.ErrUnsupportedPlatform, e.platform)
	}
}

// IsRunning reports whether an app with this name shows up in the process
// list. nil means the platform gives no answer.
func (e *Executor) IsRunning(name string) *bool {
	if e.processList == nil || name == "" {
		return nil
	}
	out, err := e.processList()
	if err != nil {
		e.logger.Warn("executor: process list failed", slog.String("error", err.Error()))
		return nil
	}
	running := strings.Contains(strings.ToLower(out), strings.ToLower(name))
	return &running
}

// Executed returns a copy of the launch log for this process lifetime.
func (e *Executor) Executed() []models.ExecutedApp {
	out := make([]models.ExecutedApp, len(e.executed))
	copy(out, e.executed)
	return out
}

// isAbs avoids filepath.IsAbs because the index may hold Windows paths on
// a non-Windows host (stale cache copied between machines).
func isAbs(plat, path string) bool {
	if plat == models.PlatformWindows {
		return len(path) >= 3 && path[1] == ':' && (path[2] == '\\' || path[2] == '/')
	}
	return strings.HasPrefix(path, "/")
}

func defaultSpawn(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child in the background so it never zombies.
	go func() { _ = cmd.Wait() }()
	return nil
}

func defaultProcessList(plat string) func() (string, error) {
	switch plat {
	case models.PlatformWindows:
		return func() (string, error) {
			out, err := exec.Command("tasklist").Output()
			return string(out), err
		}
	case models.PlatformMacOS:
		return func() (string, error) {
			out, err := exec.Command("ps", "-ax").Output()
			return string(out), err
		}
	default:
		return nil
	}
}
