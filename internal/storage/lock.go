package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// LockFileName is created next to the database while a process inspects it
const LockFileName = ".inspection-lock"

// A lock file that cannot be parsed is only treated as abandoned once it is
// older than this; younger files may still be mid-write.
const lockWriteGrace = 2 * time.Second

// InspectionLock is the content of the lock file. Every process that runs
// waves against a database holds it: each one keeps its own candidate
// registry, so two holders would enforce the same sites concurrently.
type InspectionLock struct {
	Command    string    `json:"command"`            // "run" or "once"
	OwnerID    string    `json:"owner_id,omitempty"` // agent instance ID
	Version    string    `json:"version"`
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// LockHeldError is returned when a live process already holds the lock
type LockHeldError struct {
	Path   string
	Holder InspectionLock
}

func (e *LockHeldError) Error() string {
	h := e.Holder
	if h.PID == 0 {
		return fmt.Sprintf("site inspection lock %s is being written by another process", e.Path)
	}
	owner := h.Command
	if h.OwnerID != "" {
		owner = fmt.Sprintf("%s %s", h.Command, h.OwnerID)
	}
	return fmt.Sprintf("sites are already being inspected by %s (PID %d on %s since %s)",
		owner, h.PID, h.Hostname, h.AcquiredAt.Format(time.RFC3339))
}

// IsLockHeld reports whether err means another process holds the lock
func IsLockHeld(err error) bool {
	var held *LockHeldError
	return errors.As(err, &held)
}

// AcquireInspectionLock takes the lock for the database at dbPath on behalf
// of owner. PID, Hostname and AcquiredAt are filled in here. The file is
// created with O_EXCL, so two processes racing for a free lock cannot both
// win. A lock left by a dead process on this host is replaced.
//
// Returns the lock path to pass to ReleaseInspectionLock.
func AcquireInspectionLock(dbPath string, owner InspectionLock) (string, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create lock directory: %w", err)
	}
	lockPath := filepath.Join(dir, LockFileName)

	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}
	owner.PID = os.Getpid()
	owner.Hostname = hostname
	owner.AcquiredAt = time.Now()

	data, err := json.MarshalIndent(owner, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal lock: %w", err)
	}

	// Second attempt only happens after a stale lock was removed
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			_, err = f.Write(data)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(lockPath)
				return "", fmt.Errorf("failed to write inspection lock: %w", err)
			}
			return lockPath, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("failed to create inspection lock: %w", err)
		}

		holder, err := ReadInspectionLock(lockPath)
		switch {
		case err == nil && holder.alive():
			return "", &LockHeldError{Path: lockPath, Holder: *holder}
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			if info, serr := os.Stat(lockPath); serr == nil && time.Since(info.ModTime()) < lockWriteGrace {
				return "", &LockHeldError{Path: lockPath}
			}
		}

		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to remove stale inspection lock: %w", err)
		}
	}

	return "", fmt.Errorf("inspection lock %s was taken while replacing a stale lock", lockPath)
}

// ReadInspectionLock parses the lock file at lockPath
func ReadInspectionLock(lockPath string) (*InspectionLock, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, err
	}
	var lock InspectionLock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("corrupt inspection lock %s: %w", lockPath, err)
	}
	return &lock, nil
}

// ReleaseInspectionLock removes the lock file. An empty path or a missing
// file is not an error.
func ReleaseInspectionLock(lockPath string) error {
	if lockPath == "" {
		return nil
	}
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove inspection lock: %w", err)
	}
	return nil
}

// alive reports whether the holder may still be running. Holders on other
// hosts cannot be checked and count as alive.
func (l *InspectionLock) alive() bool {
	hostname, err := os.Hostname()
	if err != nil || !strings.EqualFold(hostname, l.Hostname) {
		return true
	}
	if l.PID <= 0 {
		return false
	}
	proc, err := os.FindProcess(l.PID)
	if err != nil {
		return false
	}
	// Signal 0 delivers nothing; EPERM means the PID exists under another user
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
