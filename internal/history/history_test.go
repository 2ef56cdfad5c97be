package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(Record{
		Operation:  OpBackup,
		Profile:    "daily",
		Status:     StatusOK,
		StartedAt:  start,
		FinishedAt: start.Add(time.Minute),
		NodeCount:  12,
	}))
	require.NoError(t, store.Record(Record{
		Operation:  OpVerify,
		Profile:    "daily",
		Status:     StatusError,
		Err:        "signature mismatch",
		StartedAt:  start.Add(time.Hour),
		FinishedAt: start.Add(time.Hour + time.Minute),
		NodeCount:  3,
	}))
	require.NoError(t, store.Record(Record{
		Operation:  OpBackup,
		Profile:    "weekly",
		Status:     StatusOK,
		StartedAt:  start.Add(2 * time.Hour),
		FinishedAt: start.Add(2*time.Hour + time.Minute),
		NodeCount:  40,
	}))

	all, err := store.Recent("", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, OpBackup, all[0].Operation)
	assert.Equal(t, "weekly", all[0].Profile)

	daily, err := store.Recent("daily", 10)
	require.NoError(t, err)
	assert.Len(t, daily, 2)
	assert.Equal(t, "signature mismatch", daily[0].Err)
}

func TestRecentDefaultLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.Recent("", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}
