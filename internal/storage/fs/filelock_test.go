package fs

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireConflictAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "work", "export.lock")

	held, err := Acquire(path, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := Acquire(path, 0); !errors.Is(err, ErrLocked) {
		t.Fatalf("second acquire = %v, want ErrLocked", err)
	}
	if err := held.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	again, err := Acquire(path, 0)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	if err := again.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestAcquireWaitsForHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.lock")

	held, err := Acquire(path, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = held.Release()
	}()

	start := time.Now()
	waited, err := Acquire(path, 2*time.Second)
	if err != nil {
		t.Fatalf("waiting acquire: %v", err)
	}
	defer waited.Release()
	if time.Since(start) < 50*time.Millisecond {
		t.Fatal("acquire returned before the holder released")
	}
}

func TestReleaseNil(t *testing.T) {
	var l *FileLock
	if err := l.Release(); err != nil {
		t.Fatalf("nil release: %v", err)
	}
}
