package publish

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

type gitRunner struct {
	dir string
	env []string
	w   io.Writer
}

// run executes one git command in the output checkout and tees the
// invocation and its combined output to the log, shell-transcript style.
func (g gitRunner) run(ctx context.Context, args ...string) (string, error) {
	_, _ = fmt.Fprintf(g.w, "\n$ git %s\n", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	cmd.Env = g.env
	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		_, _ = g.w.Write(output)
	}
	if err != nil {
		_, _ = fmt.Fprintf(g.w, "-> error: %v\n", err)
	} else {
		_, _ = fmt.Fprintln(g.w, "-> ok")
	}
	return string(output), err
}

// hasStagedChanges reports whether the index differs from HEAD. git
// signals a difference through exit code 1.
func (g gitRunner) hasStagedChanges(ctx context.Context) (bool, error) {
	_, err := g.run(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, err
}

// currentBranch returns the checked-out branch name, or "" on a detached
// or unborn HEAD.
func (g gitRunner) currentBranch(ctx context.Context) string {
	out, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return ""
	}
	branch := strings.TrimSpace(out)
	if branch == "HEAD" {
		return ""
	}
	return branch
}

func (g gitRunner) hasRemote(ctx context.Context, name string) bool {
	_, err := g.run(ctx, "remote", "get-url", name)
	return err == nil
}

// ensureIdentity sets a local fallback committer identity when none is
// configured, so committing works on machines without a gitconfig.
func (g gitRunner) ensureIdentity(ctx context.Context) error {
	if out, _ := g.run(ctx, "config", "--get", "user.email"); strings.TrimSpace(out) == "" {
		if _, err := g.run(ctx, "config", "--local", "user.email", "vaultpub@localhost"); err != nil {
			return fmt.Errorf("set user.email: %w", err)
		}
	}
	if out, _ := g.run(ctx, "config", "--get", "user.name"); strings.TrimSpace(out) == "" {
		if _, err := g.run(ctx, "config", "--local", "user.name", "vaultpub"); err != nil {
			return fmt.Errorf("set user.name: %w", err)
		}
	}
	return nil
}

// trimLogFile keeps the last maxLines lines of the publish log so it
// cannot grow without bound across runs.
func trimLogFile(path string, maxLines int) error {
	if maxLines <= 0 {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	lines := make([]string, 0, maxLines)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(lines) == maxLines {
			copy(lines, lines[1:])
			lines[maxLines-1] = scanner.Text()
			continue
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(tmp, line); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
