package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocal_Run(t *testing.T) {
	l := NewLocal()
	stdout, stderr, err := l.Run(context.Background(), "echo hello")
	if err != nil {
		t.Fatalf("Run() error = %v, stderr = %s", err, stderr)
	}
	if strings.TrimSpace(stdout) != "hello" {
		t.Errorf("Run() stdout = %q, want hello", stdout)
	}
}

func TestLocal_RunFailure(t *testing.T) {
	l := NewLocal()
	_, _, err := l.Run(context.Background(), "exit 3")
	if err == nil {
		t.Error("Run() error = nil for failing command")
	}
}

func TestLocal_WriteAndReadFile(t *testing.T) {
	l := NewLocal()
	path := filepath.Join(t.TempDir(), "sub", "env")

	if err := l.WriteFile(context.Background(), path, []byte("A=1\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("file mode = %o, want 600", info.Mode().Perm())
	}

	data, err := l.ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "A=1\n" {
		t.Errorf("ReadFile() = %q", data)
	}
}

func TestLocal_FileExists(t *testing.T) {
	l := NewLocal()
	dir := t.TempDir()

	ok, err := l.FileExists(context.Background(), filepath.Join(dir, "missing"))
	if err != nil || ok {
		t.Errorf("FileExists(missing) = %v, %v", ok, err)
	}

	path := filepath.Join(dir, "present")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ok, err = l.FileExists(context.Background(), path)
	if err != nil || !ok {
		t.Errorf("FileExists(present) = %v, %v", ok, err)
	}
}

func TestNew_LocalForEmptyTarget(t *testing.T) {
	r, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if r.Target() != "local" {
		t.Errorf("Target() = %q, want local", r.Target())
	}
}
