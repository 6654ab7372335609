package binary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/spf13/afero"
)

const (
	// StaleLockThreshold is the maximum age of a lock before it's considered
	// stale. A held lock is touched every lockHeartbeatInterval, so only a
	// lock whose owner died ages past it.
	StaleLockThreshold = 10 * time.Minute

	lockHeartbeatInterval = StaleLockThreshold / 10
	lockPollInterval      = 250 * time.Millisecond
)

var (
	// ErrLockExists reports that another process holds the install lock.
	ErrLockExists = errors.New("install lock exists: another operation may be in progress")

	// ErrLockLost reports that the lock was taken over while held.
	ErrLockLost = errors.New("install lock was taken over by another process")
)

// installLock is a cross-process lock file created with O_EXCL.
type installLock struct {
	fs    afero.Fs
	clk   clock.Clock
	path  string
	owner string
	file  afero.File

	stop chan struct{}
	done chan struct{}
}

// tryLock attempts to create the lock file once. A lock older than
// StaleLockThreshold is removed and creation retried once.
func tryLock(fs afero.Fs, clk clock.Clock, lockPath string) (*installLock, error) {
	if err := fs.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	file, err := fs.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if !isLockStale(fs, clk, lockPath) {
			return nil, ErrLockExists
		}
		fs.Remove(lockPath)
		file, err = fs.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
		if err != nil {
			return nil, ErrLockExists
		}
	}

	owner := uuid.NewString()
	lockData := fmt.Sprintf("pid=%d\nowner=%s\ntimestamp=%s\n", os.Getpid(), owner, clk.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		fs.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		fs.Remove(lockPath)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	l := &installLock{
		fs:    fs,
		clk:   clk,
		path:  lockPath,
		owner: owner,
		file:  file,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.heartbeat()
	return l, nil
}

// heartbeat keeps the lock's mtime fresh until Release.
func (l *installLock) heartbeat() {
	defer close(l.done)
	for {
		select {
		case <-l.stop:
			return
		case <-l.clk.After(lockHeartbeatInterval):
			if !l.owned() {
				return
			}
			now := l.clk.Now()
			l.fs.Chtimes(l.path, now, now)
		}
	}
}

// owned reports whether the lock file still carries this lock's owner.
func (l *installLock) owned() bool {
	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "owner="+l.owner+"\n")
}

// acquireLock polls tryLock until it succeeds or ctx is done.
func acquireLock(ctx context.Context, fs afero.Fs, clk clock.Clock, lockPath string) (*installLock, error) {
	for {
		lock, err := tryLock(fs, clk, lockPath)
		if !errors.Is(err, ErrLockExists) {
			return lock, err
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLockExists, ctx.Err())
		case <-clk.After(lockPollInterval):
		}
	}
}

// Release releases the lock. A lock file now owned by someone else is left
// in place and ErrLockLost returned.
func (l *installLock) Release() error {
	if l.stop != nil {
		close(l.stop)
		<-l.done
		l.stop = nil
	}
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if l.path == "" {
		return nil
	}
	defer func() { l.path = "" }()

	if exists, _ := afero.Exists(l.fs, l.path); !exists {
		return nil
	}
	if !l.owned() {
		return ErrLockLost
	}
	if err := l.fs.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

func isLockStale(fs afero.Fs, clk clock.Clock, lockPath string) bool {
	info, err := fs.Stat(lockPath)
	if err != nil {
		return false
	}
	return clk.Now().Sub(info.ModTime()) > StaleLockThreshold
}
