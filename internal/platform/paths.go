package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// DefaultAppName names the config and data directories when no override is given.
const DefaultAppName = "fbagate"

const (
	configFileName = "config.toml"
	exportsDirName = "exports"
)

// ErrInvalidAppName reports an app name that cannot be used as a directory name.
var ErrInvalidAppName = errors.New("invalid app name")

// Paths is where one app name keeps its config, its gate database and its exports.
type Paths struct {
	// AppDir is the per-app directory name, "<app>" or "<app>-dev".
	AppDir     string
	ConfigDir  string
	ConfigPath string
	DataDir    string
	DBPath     string
	ExportDir  string
}

// ExportPath names a timestamped export file under ExportDir.
func (p Paths) ExportPath(now time.Time) string {
	name := fmt.Sprintf("%s-export-%s.json", p.AppDir, now.UTC().Format("20060102-150405"))
	return filepath.Join(p.ExportDir, name)
}

// Options selects the app name and dev-mode suffix used for path resolution.
type Options struct {
	AppName string
	DevMode bool
}

// DirName returns the per-app directory name. Dev mode appends "-dev" so local
// runs never touch the real database.
func (o Options) DirName() (string, error) {
	name := strings.TrimSpace(o.AppName)
	if name == "" {
		name = DefaultAppName
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("app name %q: %w", name, ErrInvalidAppName)
	}
	if o.DevMode {
		name += "-dev"
	}
	return name, nil
}

// Roots are the per-user base directories config and data live under.
type Roots struct {
	Config string
	Data   string
}

// Env carries the environment overrides root resolution honours.
type Env struct {
	XDGConfigHome string
	XDGDataHome   string
	AppData       string
	LocalAppData  string
}

func envFromOS() Env {
	return Env{
		XDGConfigHome: strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")),
		XDGDataHome:   strings.TrimSpace(os.Getenv("XDG_DATA_HOME")),
		AppData:       strings.TrimSpace(os.Getenv("APPDATA")),
		LocalAppData:  strings.TrimSpace(os.Getenv("LOCALAPPDATA")),
	}
}

// ResolveRoots applies goos-specific env overrides to fallback. XDG variables
// only count on linux and APPDATA/LOCALAPPDATA only on windows.
func ResolveRoots(goos string, env Env, fallback Roots) (Roots, error) {
	if fallback.Config == "" || fallback.Data == "" {
		return Roots{}, errors.New("empty base dirs")
	}
	roots := fallback
	switch goos {
	case "linux":
		roots.Config = firstSet(env.XDGConfigHome, roots.Config)
		roots.Data = firstSet(env.XDGDataHome, roots.Data)
	case "windows":
		roots.Config = firstSet(env.AppData, roots.Config)
		roots.Data = firstSet(env.LocalAppData, roots.Data)
	}
	return roots, nil
}

// Resolve lays out the app's files under roots.
func Resolve(roots Roots, opts Options) (Paths, error) {
	if roots.Config == "" || roots.Data == "" {
		return Paths{}, errors.New("empty base dirs")
	}
	dir, err := opts.DirName()
	if err != nil {
		return Paths{}, err
	}
	configDir := filepath.Join(roots.Config, dir)
	dataDir := filepath.Join(roots.Data, dir)
	return Paths{
		AppDir:     dir,
		ConfigDir:  configDir,
		ConfigPath: filepath.Join(configDir, configFileName),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, dir+".db"),
		ExportDir:  filepath.Join(dataDir, exportsDirName),
	}, nil
}

// DefaultPaths resolves paths from the user's OS directories and environment.
func DefaultPaths(opts Options) (Paths, error) {
	configRoot, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataRoot := configRoot
	if runtime.GOOS == "linux" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("user home dir: %w", err)
		}
		dataRoot = filepath.Join(home, ".local", "share")
	}
	roots, err := ResolveRoots(runtime.GOOS, envFromOS(), Roots{Config: configRoot, Data: dataRoot})
	if err != nil {
		return Paths{}, err
	}
	return Resolve(roots, opts)
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
