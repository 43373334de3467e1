package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDevLogDir is the workspace-relative directory of dev-mode log files.
const DefaultDevLogDir = ".fbagate/log"

var workspaceMarkers = []string{"go.mod", ".git"}

// WorkspaceRoot walks up from start to the nearest directory holding go.mod or
// .git. start is returned when no marker is found.
func WorkspaceRoot(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	for dir := start; ; {
		for _, marker := range workspaceMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// DevLogPath names the dev log file for the day of now. A relative dir, or an
// empty one meaning DefaultDevLogDir, resolves against the workspace root of cwd.
func DevLogPath(dir, cwd, appName string, now time.Time) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = DefaultDevLogDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(WorkspaceRoot(cwd), dir)
	}
	name := fmt.Sprintf("%s-%s.log", LogFileStem(appName), now.Format("20060102"))
	return filepath.Join(filepath.Clean(dir), name)
}

// LogFileStem turns an app name into a safe file-name segment, falling back to
// DefaultAppName.
func LogFileStem(appName string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	stem := strings.Trim(replacer.Replace(strings.TrimSpace(appName)), "-")
	if stem == "" {
		return DefaultAppName
	}
	return stem
}
