package fs

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

var ErrLocked = errors.New("directory locked by another process")

// FileLock is an advisory flock that makes an export output directory
// single-writer across processes.
type FileLock struct {
	file *os.File
}

// Acquire takes the lock at path, polling until wait elapses. wait of zero
// means a single non-blocking attempt. Returns ErrLocked when another
// process holds it.
func Acquire(path string, wait time.Duration) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(wait)
	for {
		err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return &FileLock{file: file}, nil
		}
		if err != syscall.EWOULDBLOCK && err != syscall.EAGAIN {
			_ = file.Close()
			return nil, err
		}
		if wait == 0 || time.Now().After(deadline) {
			_ = file.Close()
			return nil, ErrLocked
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (l *FileLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}
