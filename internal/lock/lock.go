// Package lock keeps a single rpint daemon per machine with a pid file.
//
// The file is created with O_EXCL, so of two daemons starting together only
// one wins. A file left behind by a crashed daemon is detected by probing
// the recorded pid and is replaced.
package lock

import (
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/rpint/rpint/internal/errors"
)

// maxAttempts bounds stale-file removal races with another starting daemon.
const maxAttempts = 3

// Lock is a held pid-file lock.
type Lock struct {
	Path string
	Info *LockInfo
}

// Acquire takes the pid-file lock at path. It fails with an error wrapping
// ErrLocked when a live process holds it.
func Acquire(path, command string) (*Lock, error) {
	info := NewLockInfo(command)
	data, err := info.Marshal()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrLock,
			"Failed to serialize lock info",
			"This shouldn't happen - please report this bug!")
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, werr := f.Write(data)
			cerr := f.Close()
			if werr == nil {
				werr = cerr
			}
			if werr != nil {
				os.Remove(path)
				return nil, errors.WrapWithCode(werr, errors.ErrLock,
					"Failed to write pid file "+path,
					"Check free space and permissions")
			}
			return &Lock{Path: path, Info: info}, nil
		}
		if !stderrors.Is(err, fs.ErrExist) {
			return nil, errors.WrapWithCode(err, errors.ErrLock,
				"Failed to create pid file "+path,
				"Check that the directory exists and is writable, or set pid_file")
		}

		holder, ok := read(path)
		if ok && holder.Alive() {
			return nil, errors.WrapWithCode(ErrLocked, errors.ErrLock,
				"rpint is already running: "+holder.String(),
				"Stop the other instance first, or remove "+path+" if it is stale")
		}
		if err := os.Remove(path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.WrapWithCode(err, errors.ErrLock,
				"Failed to remove stale pid file "+path,
				"Remove it by hand")
		}
	}

	return nil, errors.WrapWithCode(ErrLocked, errors.ErrLock,
		"Couldn't take the pid file "+path,
		"Another rpint seems to be starting at the same time")
}

// Release removes the pid file if it is still ours. It is safe to call on a
// nil Lock and more than once.
func (l *Lock) Release() error {
	if l == nil || l.Path == "" {
		return nil
	}
	holder, ok := read(l.Path)
	if !ok || holder.PID != l.Info.PID {
		return nil
	}
	if err := os.Remove(l.Path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.WrapWithCode(err, errors.ErrLock,
			"Failed to remove pid file "+l.Path,
			"Remove it by hand before the next start")
	}
	return nil
}

// Holder describes who holds the lock at path, or "" when nobody does.
func Holder(path string) string {
	info, ok := read(path)
	if !ok || !info.Alive() {
		return ""
	}
	return info.String()
}

// read loads the pid file. ok is false when it is missing or unreadable.
func read(path string) (*LockInfo, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	info, err := ParseLockInfo(data)
	if err != nil {
		return nil, false
	}
	return info, true
}
