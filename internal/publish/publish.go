// Package publish commits and pushes an exported site to its git remote.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vaultpub/internal/config"
	storage "vaultpub/internal/storage/fs"
)

// Result reports what one publish run did.
type Result struct {
	Committed bool
	Pushed    bool
	Message   string
	Output    string
}

// Run commits every change in the output directory and pushes it to the
// configured remote and branch. The output directory must be a git
// checkout prepared by the user; the exporter's bookkeeping under
// .vaultpub stays out of the history. Git output is captured to
// .vaultpub/publish.log.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	outDir := cfg.Output.Dir
	if _, err := os.Stat(filepath.Join(outDir, ".git")); err != nil {
		return nil, fmt.Errorf("publish: %s is not a git checkout", outDir)
	}

	lock, err := storage.Acquire(cfg.Output.LockPath(), 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("lock output: %w", err)
	}
	defer lock.Release()

	logFile := filepath.Join(cfg.Output.WorkDir(), "publish.log")
	logHandle, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	defer logHandle.Close()

	var captured bytes.Buffer
	w := io.MultiWriter(&captured, logHandle)
	writeLine := func(format string, args ...any) {
		_, _ = fmt.Fprintf(w, format, args...)
		_, _ = fmt.Fprintln(w)
	}
	git := gitRunner{dir: outDir, env: append(os.Environ(), "GIT_TERMINAL_PROMPT=0"), w: w}

	writeLine("publish: start %s", time.Now().Format(time.RFC3339))

	if err := ensureIgnored(outDir); err != nil {
		return nil, err
	}
	if err := git.ensureIdentity(ctx); err != nil {
		return nil, err
	}

	branch := cfg.Publish.Branch
	if git.currentBranch(ctx) != branch {
		if _, err := git.run(ctx, "checkout", "-B", branch); err != nil {
			return nil, fmt.Errorf("checkout %s: %w", branch, err)
		}
	}
	if _, err := git.run(ctx, "add", "-A"); err != nil {
		return nil, fmt.Errorf("stage changes: %w", err)
	}

	staged, err := git.hasStagedChanges(ctx)
	if err != nil {
		return nil, err
	}
	if !staged {
		writeLine("publish: no changes")
		_ = trimLogFile(logFile, 1000)
		return &Result{Output: captured.String()}, nil
	}

	msg := strings.TrimSpace(cfg.Publish.Message)
	if msg == "" {
		msg = "site export " + time.Now().Format("2006-01-02 15:04")
	}
	if _, err := git.run(ctx, "commit", "-m", msg); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	remote := cfg.Publish.Remote
	if !git.hasRemote(ctx, remote) {
		_ = trimLogFile(logFile, 1000)
		return &Result{Committed: true, Message: msg, Output: captured.String()},
			fmt.Errorf("publish: remote %q not configured in %s", remote, outDir)
	}
	writeLine("publish: push %s %s", remote, branch)
	if _, err := git.run(ctx, "push", remote, branch); err != nil {
		_ = trimLogFile(logFile, 1000)
		return &Result{Committed: true, Message: msg, Output: captured.String()},
			fmt.Errorf("push %s %s: %w", remote, branch, err)
	}

	writeLine("publish: done %s", time.Now().Format(time.RFC3339))
	_ = trimLogFile(logFile, 1000)
	return &Result{Committed: true, Pushed: true, Message: msg, Output: captured.String()}, nil
}

// ensureIgnored keeps the exporter's bookkeeping directory out of the
// published history.
func ensureIgnored(outDir string) error {
	path := filepath.Join(outDir, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == ".vaultpub/" {
			return nil
		}
	}
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}
	data = append(data, ".vaultpub/\n"...)
	return storage.WriteFileAtomic(path, data, 0o644)
}
