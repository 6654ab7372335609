package binary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/clock"
	"github.com/juju/clock/testclock"
	"github.com/spf13/afero"
)

func TestTryLock(t *testing.T) {
	fs := afero.NewOsFs()
	lockPath := filepath.Join(t.TempDir(), "locks", ".1.0.0.lock")

	lock, err := tryLock(fs, clock.WallClock, lockPath)
	if err != nil {
		t.Fatalf("tryLock() error = %v", err)
	}

	if _, err := tryLock(fs, clock.WallClock, lockPath); !errors.Is(err, ErrLockExists) {
		t.Errorf("second tryLock() error = %v, want ErrLockExists", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("lock file should be removed on release")
	}

	lock, err = tryLock(fs, clock.WallClock, lockPath)
	if err != nil {
		t.Fatalf("tryLock() after release error = %v", err)
	}
	lock.Release()
}

func TestTryLock_Stale(t *testing.T) {
	fs := afero.NewOsFs()
	lockPath := filepath.Join(t.TempDir(), ".1.0.0.lock")
	if err := os.WriteFile(lockPath, []byte("pid=1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	fresh := testclock.NewClock(time.Now())
	if _, err := tryLock(fs, fresh, lockPath); !errors.Is(err, ErrLockExists) {
		t.Fatalf("fresh lock should be honoured, got %v", err)
	}

	later := testclock.NewClock(time.Now().Add(StaleLockThreshold + time.Minute))
	lock, err := tryLock(fs, later, lockPath)
	if err != nil {
		t.Fatalf("stale lock should be taken over, got %v", err)
	}
	lock.Release()
}

func TestAcquireLock_ContextDone(t *testing.T) {
	fs := afero.NewOsFs()
	lockPath := filepath.Join(t.TempDir(), ".1.0.0.lock")

	held, err := tryLock(fs, clock.WallClock, lockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = acquireLock(ctx, fs, clock.WallClock, lockPath)
	if !errors.Is(err, ErrLockExists) {
		t.Errorf("acquireLock() error = %v, want ErrLockExists", err)
	}
}

func TestAcquireLock_WaitsForRelease(t *testing.T) {
	fs := afero.NewOsFs()
	lockPath := filepath.Join(t.TempDir(), ".1.0.0.lock")

	held, err := tryLock(fs, clock.WallClock, lockPath)
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		time.Sleep(100 * time.Millisecond)
		held.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lock, err := acquireLock(ctx, fs, clock.WallClock, lockPath)
	if err != nil {
		t.Fatalf("acquireLock() error = %v", err)
	}
	lock.Release()
}

func TestInstallLock_HeartbeatKeepsLockFresh(t *testing.T) {
	fs := afero.NewOsFs()
	lockPath := filepath.Join(t.TempDir(), ".1.0.0.lock")
	clk := testclock.NewClock(time.Now())

	lock, err := tryLock(fs, clk, lockPath)
	if err != nil {
		t.Fatalf("tryLock() error = %v", err)
	}
	defer lock.Release()

	// Hold the lock well past the stale threshold.
	for elapsed := time.Duration(0); elapsed <= StaleLockThreshold; elapsed += lockHeartbeatInterval {
		if err := clk.WaitAdvance(lockHeartbeatInterval, time.Second, 1); err != nil {
			t.Fatalf("heartbeat not waiting: %v", err)
		}
		waitForMtime(t, lockPath, clk.Now())
	}

	if isLockStale(fs, clk, lockPath) {
		t.Error("held lock reported stale")
	}
	if _, err := tryLock(fs, clk, lockPath); !errors.Is(err, ErrLockExists) {
		t.Errorf("tryLock() on held lock error = %v, want ErrLockExists", err)
	}
}

// waitForMtime waits for the heartbeat to touch path at want.
func waitForMtime(t *testing.T, path string, want time.Time) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		info, err := os.Stat(path)
		if err == nil && !info.ModTime().Before(want.Add(-time.Second)) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("lock mtime not refreshed to %s", want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestInstallLock_ReleaseKeepsTakenOverLock(t *testing.T) {
	fs := afero.NewOsFs()
	lockPath := filepath.Join(t.TempDir(), ".1.0.0.lock")

	lock, err := tryLock(fs, clock.WallClock, lockPath)
	if err != nil {
		t.Fatalf("tryLock() error = %v", err)
	}

	// Another process judged the lock stale and replaced it.
	if err := os.WriteFile(lockPath, []byte("pid=2\nowner=someone-else\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := lock.Release(); !errors.Is(err, ErrLockLost) {
		t.Errorf("Release() error = %v, want ErrLockLost", err)
	}
	data, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("taken-over lock was removed: %v", err)
	}
	if string(data) != "pid=2\nowner=someone-else\n" {
		t.Errorf("lock contents = %q", data)
	}
}
