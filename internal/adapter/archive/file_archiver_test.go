package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fixedTime() time.Time {
	return time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)
}

func TestArchive_WritesRecord(t *testing.T) {
	dir := t.TempDir()
	a := NewFileArchiver(dir, zap.NewNop()).WithArchiveClock(fixedTime)

	err := a.Archive(Record{
		EventKind: "invoice.paid",
		Payload: map[string]interface{}{
			"id":     "inv_1",
			"status": "PAID",
		},
	})
	require.NoError(t, err)

	path := filepath.Join(dir, "webhook_2025-06-01_12-30-45_invoice.paid_PAID_inv_1.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec Record
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "invoice.paid", rec.EventKind)
	assert.Equal(t, "inv_1", rec.Payload["id"])
	assert.Equal(t, fixedTime(), rec.ReceivedAt.UTC())
}

func TestArchive_DuplicateNamesGetSuffix(t *testing.T) {
	dir := t.TempDir()
	a := NewFileArchiver(dir, zap.NewNop()).WithArchiveClock(fixedTime)

	rec := Record{
		EventKind: "invoice.paid",
		Payload:   map[string]interface{}{"id": "inv_1", "status": "PAID"},
	}
	require.NoError(t, a.Archive(rec))
	require.NoError(t, a.Archive(rec))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestArchive_SanitizesFilenameComponents(t *testing.T) {
	dir := t.TempDir()
	a := NewFileArchiver(dir, zap.NewNop()).WithArchiveClock(fixedTime)

	err := a.Archive(Record{
		EventKind: "invoice.paid",
		Payload: map[string]interface{}{
			"id":     "../../etc/passwd",
			"status": "PAID",
		},
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")
	assert.Contains(t, entries[0].Name(), "..-..-etc-passwd")
}

func TestArchive_MissingFieldsUseNone(t *testing.T) {
	dir := t.TempDir()
	a := NewFileArchiver(dir, zap.NewNop()).WithArchiveClock(fixedTime)

	require.NoError(t, a.Archive(Record{
		EventKind: "unknown",
		Payload:   map[string]interface{}{},
	}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "webhook_2025-06-01_12-30-45_unknown_none_none.json", entries[0].Name())
}

func TestArchive_EmptyDirIsNoop(t *testing.T) {
	a := NewFileArchiver("", zap.NewNop())
	assert.NoError(t, a.Archive(Record{EventKind: "invoice.paid", Payload: map[string]interface{}{}}))
}
