package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockedDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), DataDirName, "sites.db")
}

func TestAcquireAndReleaseInspectionLock(t *testing.T) {
	dbPath := lockedDBPath(t)

	lockPath, err := AcquireInspectionLock(dbPath, InspectionLock{
		Command: "run",
		OwnerID: "agent-1",
		Version: "1.2.3",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(dbPath), LockFileName), lockPath)

	holder, err := ReadInspectionLock(lockPath)
	require.NoError(t, err)
	assert.Equal(t, "run", holder.Command)
	assert.Equal(t, "agent-1", holder.OwnerID)
	assert.Equal(t, "1.2.3", holder.Version)
	assert.Equal(t, os.Getpid(), holder.PID)
	assert.WithinDuration(t, time.Now(), holder.AcquiredAt, time.Minute)

	require.NoError(t, ReleaseInspectionLock(lockPath))
	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err))

	// Releasing twice is harmless
	assert.NoError(t, ReleaseInspectionLock(lockPath))
	assert.NoError(t, ReleaseInspectionLock(""))
}

func TestAcquireInspectionLockHeld(t *testing.T) {
	dbPath := lockedDBPath(t)

	lockPath, err := AcquireInspectionLock(dbPath, InspectionLock{Command: "run", OwnerID: "agent-1"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ReleaseInspectionLock(lockPath) })

	// This process is alive, so the second holder is refused
	_, err = AcquireInspectionLock(dbPath, InspectionLock{Command: "once"})
	require.Error(t, err)
	assert.True(t, IsLockHeld(err))
	assert.Contains(t, err.Error(), "run agent-1")

	// The refused attempt left the original holder in place
	holder, err := ReadInspectionLock(lockPath)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", holder.OwnerID)
}

func TestAcquireInspectionLockReplacesStaleLock(t *testing.T) {
	dbPath := lockedDBPath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(dbPath), 0755))

	hostname, err := os.Hostname()
	require.NoError(t, err)

	stale := InspectionLock{
		Command:    "run",
		PID:        999999999, // no such process
		Hostname:   hostname,
		AcquiredAt: time.Now().Add(-time.Hour),
	}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	lockPath := filepath.Join(filepath.Dir(dbPath), LockFileName)
	require.NoError(t, os.WriteFile(lockPath, data, 0644))

	got, err := AcquireInspectionLock(dbPath, InspectionLock{Command: "once"})
	require.NoError(t, err)
	assert.Equal(t, lockPath, got)
	t.Cleanup(func() { _ = ReleaseInspectionLock(got) })

	holder, err := ReadInspectionLock(got)
	require.NoError(t, err)
	assert.Equal(t, "once", holder.Command)
	assert.Equal(t, os.Getpid(), holder.PID)
}

func TestAcquireInspectionLockRemoteHolder(t *testing.T) {
	dbPath := lockedDBPath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(dbPath), 0755))

	remote := InspectionLock{Command: "run", PID: 1, Hostname: "some-other-host.invalid"}
	data, err := json.Marshal(remote)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(dbPath), LockFileName), data, 0644))

	_, err = AcquireInspectionLock(dbPath, InspectionLock{Command: "once"})
	assert.True(t, IsLockHeld(err))
}

func TestAcquireInspectionLockCorruptFile(t *testing.T) {
	dbPath := lockedDBPath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(dbPath), 0755))
	lockPath := filepath.Join(filepath.Dir(dbPath), LockFileName)
	require.NoError(t, os.WriteFile(lockPath, []byte("{"), 0644))

	// A fresh unparseable file may still be mid-write
	_, err := AcquireInspectionLock(dbPath, InspectionLock{Command: "once"})
	assert.True(t, IsLockHeld(err))

	// An old one is abandoned
	old := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(lockPath, old, old))
	got, err := AcquireInspectionLock(dbPath, InspectionLock{Command: "once"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ReleaseInspectionLock(got) })
}
