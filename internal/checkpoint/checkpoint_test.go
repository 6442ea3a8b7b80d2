package checkpoint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyWhenMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	st, err := store.Load("cs")
	require.NoError(t, err)

	assert.Equal(t, 0, st.Len())
	assert.False(t, st.Contains("anything"))
	assert.False(t, st.Completed())
	processed, succeeded, failed := st.Counts()
	assert.Zero(t, processed)
	assert.Zero(t, succeeded)
	assert.Zero(t, failed)
}

func TestMark_CountsAndIdempotence(t *testing.T) {
	store := NewStore(t.TempDir())
	st, err := store.Load("cs")
	require.NoError(t, err)

	st.Mark("a", true)
	st.Mark("b", false)
	st.Mark("c", true)

	// Re-marking an attempted id must not change anything.
	st.Mark("a", true)
	st.Mark("a", false)
	st.Mark("b", true)

	processed, succeeded, failed := st.Counts()
	assert.Equal(t, 3, processed)
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 3, st.Len())
}

func TestFlushAndReload(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	st, err := store.Load("bio")
	require.NoError(t, err)
	st.Mark("x", true)
	st.Mark("y", false)
	require.NoError(t, st.Flush(false))

	// A fresh load sees the persisted state.
	reloaded, err := store.Load("bio")
	require.NoError(t, err)
	assert.True(t, reloaded.Contains("x"))
	assert.True(t, reloaded.Contains("y"))
	assert.False(t, reloaded.Contains("z"))
	assert.False(t, reloaded.Completed())

	processed, succeeded, failed := reloaded.Counts()
	assert.Equal(t, 2, processed)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	// Completion is persisted on the final flush.
	reloaded.Mark("z", true)
	require.NoError(t, reloaded.Flush(true))

	final, err := store.Load("bio")
	require.NoError(t, err)
	assert.True(t, final.Completed())
	assert.Equal(t, 3, final.Len())
}

func TestFlush_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	st, err := store.Load("cs")
	require.NoError(t, err)
	st.Mark("a", true)
	require.NoError(t, st.Flush(false))
	require.NoError(t, st.Flush(false))

	entries, err := os.ReadDir(filepath.Join(dir, "progress"))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".checkpoint-"),
			"temp file left behind: %s", entry.Name())
	}
	assert.Len(t, entries, 1)
}

func TestLoad_CorruptCheckpointIsError(t *testing.T) {
	dir := t.TempDir()
	progress := filepath.Join(dir, "progress")
	require.NoError(t, os.MkdirAll(progress, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(progress, "cs_progress.json"), []byte("{truncated"), 0o644))

	_, err := NewStore(dir).Load("cs")
	assert.Error(t, err)
}

func TestSummaries(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	cs, err := store.Load("cs")
	require.NoError(t, err)
	cs.Mark("a", true)
	cs.Mark("b", false)
	require.NoError(t, cs.Flush(true))

	bio, err := store.Load("bio")
	require.NoError(t, err)
	bio.Mark("x", true)
	require.NoError(t, bio.Flush(false))

	summaries, err := store.Summaries()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, CategorySummary{Category: "bio", Processed: 1, Succeeded: 1, Completed: false}, summaries[0])
	assert.Equal(t, CategorySummary{Category: "cs", Processed: 2, Succeeded: 1, Failed: 1, Completed: true}, summaries[1])
}

func TestSummaries_NoProgressDir(t *testing.T) {
	summaries, err := NewStore(t.TempDir()).Summaries()
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
