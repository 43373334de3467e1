package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWorkspaceRootUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/test\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "cmd", "fbagate")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if got := WorkspaceRoot(nested); filepath.Clean(got) != filepath.Clean(root) {
		t.Fatalf("WorkspaceRoot() = %q, want %q", got, root)
	}
}

func TestDevLogPath(t *testing.T) {
	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	absDir := t.TempDir()
	if got, want := DevLogPath(absDir, "/ignored", "fba gate/dev", at), filepath.Join(absDir, "fba-gate-dev-20260302.log"); got != want {
		t.Fatalf("DevLogPath(abs) = %q, want %q", got, want)
	}

	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	cwd := filepath.Join(root, "internal")
	if err := os.Mkdir(cwd, 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	want := filepath.Join(root, ".fbagate", "log", "fbagate-20260302.log")
	if got := DevLogPath("", cwd, "fbagate", at); got != want {
		t.Fatalf("DevLogPath(default) = %q, want %q", got, want)
	}
}

func TestLogFileStemFallsBack(t *testing.T) {
	if got := LogFileStem(" / "); got != DefaultAppName {
		t.Fatalf("LogFileStem() = %q, want %q", got, DefaultAppName)
	}
	if got := LogFileStem("a:b c"); got != "a-b-c" {
		t.Fatalf("LogFileStem() = %q, want a-b-c", got)
	}
}
