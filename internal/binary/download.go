package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

const (
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "nexo-runtimes/1.0"
	// maxRedirects caps redirect chains; GitHub release assets redirect once
	// to object storage.
	maxRedirects = 10
)

// Fetcher retrieves the content at url into destPath. A failed fetch must
// leave no file at destPath.
type Fetcher interface {
	Fetch(ctx context.Context, url, destPath string) error
}

// HTTPFetcher downloads in-process with net/http. It makes a single attempt.
type HTTPFetcher struct {
	client    *http.Client
	fs        afero.Fs
	userAgent string
}

// NewHTTPFetcher creates a fetcher writing through fs (the OS filesystem when
// nil). A zero timeout leaves the request unbounded apart from ctx.
func NewHTTPFetcher(fs afero.Fs, timeout time.Duration) *HTTPFetcher {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		fs:        fs,
		userAgent: DefaultUserAgent,
	}
}

// Fetch downloads url to destPath via a ".tmp" sibling that is renamed into
// place once the body has been fully written.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	// Status is checked before any byte of the body is read.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := f.fs.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := f.fs.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			f.fs.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := f.fs.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// Runner runs an external program and reports its exit status.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts name and waits for it. A non-zero exit is returned as an error
// wrapping *exec.ExitError.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with status %d: %w", name, exitErr.ExitCode(), err)
		}
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// CommandFetcher downloads by invoking curl. Only the exit status is
// inspected.
type CommandFetcher struct {
	Runner Runner
	// Program defaults to "curl".
	Program string
}

// NewCommandFetcher returns a curl-based fetcher using os/exec.
func NewCommandFetcher() *CommandFetcher {
	return &CommandFetcher{Runner: ExecRunner{Stderr: os.Stderr}, Program: "curl"}
}

// Fetch runs `curl -fsSL -o destPath url`. -f makes HTTP errors a non-zero
// exit; any partial output is removed on failure.
func (c *CommandFetcher) Fetch(ctx context.Context, url, destPath string) error {
	program := c.Program
	if program == "" {
		program = "curl"
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}
	if err := c.Runner.Run(ctx, program, "-fsSL", "-o", destPath, url); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("download: %w", err)
	}
	if !fileExists(afero.NewOsFs(), destPath) {
		return fmt.Errorf("download: %s produced no output at %s", program, destPath)
	}
	return nil
}
