// Package ratelimit implements the per-provider, per-calendar-day request
// counter of §4.3: a JSON counter file guarded by an exclusive flock on a
// sibling lock file, acquired with a timeout; the lock file is never removed.
package ratelimit

import (
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// fileLock wraps an flock(2)-based exclusive lock on path, used exactly
// once per increment call. golang.org/x/sys/unix is required here because
// the standard library has no portable flock primitive.
type fileLock struct {
	f *os.File
}

// acquireLock polls (flock itself has no timeout parameter) until the lock
// is obtained or timeout elapses. It then makes one last attempt through
// takeoverStaleLock and returns an error if that attempt fails; the lock
// file is not removed, so a lock still held by another process is never
// taken over.
func acquireLock(path string, timeout time.Duration) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "ratelimit: open lock file %s", path)
	}

	deadline := time.Now().Add(timeout)
	backoff := 10 * time.Millisecond
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &fileLock{f: f}, nil
		}
		if time.Now().After(deadline) {
			glog.Warningf("ratelimit: lock %s held past %s, taking over as stale", path, timeout)
			if takeoverErr := takeoverStaleLock(f); takeoverErr != nil {
				f.Close()
				return nil, errors.Wrapf(takeoverErr, "ratelimit: stale-lock takeover of %s", path)
			}
			return &fileLock{f: f}, nil
		}
		time.Sleep(backoff)
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

// takeoverStaleLock releases any lock held through f and makes one more
// non-blocking flock attempt on the same descriptor. It neither reopens nor
// removes the lock file, so the attempt fails while another process holds
// the lock.
func takeoverStaleLock(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		return err
	}
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func (l *fileLock) release() error {
	defer l.f.Close()
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}
