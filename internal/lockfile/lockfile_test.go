package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pid")
	l := New(path)

	if err := l.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read lock: %v", err)
	}
	if string(data) != strconv.Itoa(os.Getpid()) {
		t.Errorf("lock file holds %q, want own pid", data)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("lock file should be gone after release")
	}
}

func TestAcquireFailsWhenHeldByLiveProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pid")

	// Our own pid is certainly alive.
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		t.Fatal(err)
	}

	err := New(path).Acquire()
	if !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld, got %v", err)
	}
}

func TestStaleLockReclaimed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pid")

	// A pid far above any plausible pid_max.
	if err := os.WriteFile(path, []byte("99999999"), 0o600); err != nil {
		t.Fatal(err)
	}

	l := New(path)
	if err := l.Acquire(); err != nil {
		t.Fatalf("stale lock should be reclaimed, got %v", err)
	}
	defer l.Release()

	data, _ := os.ReadFile(path)
	if string(data) != strconv.Itoa(os.Getpid()) {
		t.Errorf("lock file holds %q after reclaim, want own pid", data)
	}
}

func TestGarbageLockReclaimed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pid")

	if err := os.WriteFile(path, []byte("not a pid"), 0o600); err != nil {
		t.Fatal(err)
	}

	l := New(path)
	if err := l.Acquire(); err != nil {
		t.Fatalf("unreadable lock should be reclaimed, got %v", err)
	}
	l.Release()
}

func TestReleaseWithoutAcquire(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "never-created.pid"))
	if err := l.Release(); err != nil {
		t.Errorf("release on missing file should succeed, got %v", err)
	}
}

func TestAcquireCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "test.pid")
	l := New(path)
	if err := l.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	l.Release()
}
