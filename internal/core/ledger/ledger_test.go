package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/backdate/internal/core/plan"
)

func testManifest(n int) plan.Manifest {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := make(plan.Manifest, 0, n)
	for i := range n {
		m = append(m, plan.Action{
			AuthorName:  "Alice",
			AuthorEmail: "alice@example.com",
			Timestamp:   base.Add(time.Duration(i) * time.Hour),
			Files:       []string{"file" + string(rune('a'+i)) + ".txt"},
			Message:     "Update 1 files",
		})
	}
	return m
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), Filename), zerolog.Nop())
}

func TestHash(t *testing.T) {
	t.Run("stable across repeated calls", func(t *testing.T) {
		m := testManifest(3)
		a, err := Hash(m)
		require.NoError(t, err)
		b, err := Hash(m)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("changes when any field differs", func(t *testing.T) {
		base := testManifest(3)
		baseHash, err := Hash(base)
		require.NoError(t, err)

		mutations := map[string]func(m plan.Manifest){
			"timestamp": func(m plan.Manifest) { m[1].Timestamp = m[1].Timestamp.Add(time.Second) },
			"file":      func(m plan.Manifest) { m[2].Files = []string{"other.txt"} },
			"message":   func(m plan.Manifest) { m[0].Message = "different" },
			"author":    func(m plan.Manifest) { m[0].AuthorEmail = "bob@example.com" },
		}

		for name, mutate := range mutations {
			m := testManifest(3)
			mutate(m)
			h, err := Hash(m)
			require.NoError(t, err)
			assert.NotEqual(t, baseHash, h, "mutation %s", name)
		}
	})

	t.Run("action order is significant", func(t *testing.T) {
		m := testManifest(2)
		a, err := Hash(m)
		require.NoError(t, err)

		swapped := plan.Manifest{m[1], m[0]}
		b, err := Hash(swapped)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestStoreInitOrResume(t *testing.T) {
	t.Run("fresh run persists state and starts at zero", func(t *testing.T) {
		store := newTestStore(t)
		m := testManifest(5)

		start, err := store.InitOrResume(m)
		require.NoError(t, err)
		assert.Equal(t, 0, start)

		st, err := store.Load()
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.Equal(t, -1, st.LastAppliedIndex)
		assert.Equal(t, 5, st.TotalCommits)
		assert.False(t, st.IsComplete)
		assert.Len(t, st.Manifest, 5)
	})

	t.Run("resumes after the last applied index", func(t *testing.T) {
		store := newTestStore(t)
		m := testManifest(5)

		_, err := store.InitOrResume(m)
		require.NoError(t, err)
		require.NoError(t, store.Advance(0, "c0", false))
		require.NoError(t, store.Advance(1, "c1", false))
		require.NoError(t, store.Advance(2, "c2", false))

		start, err := store.InitOrResume(m)
		require.NoError(t, err)
		assert.Equal(t, 3, start)
	})

	t.Run("completed record returns manifest length without mutation", func(t *testing.T) {
		store := newTestStore(t)
		m := testManifest(5)

		_, err := store.InitOrResume(m)
		require.NoError(t, err)
		for i := range 5 {
			require.NoError(t, store.Advance(i, "head", i == 4))
		}

		start, err := store.InitOrResume(m)
		require.NoError(t, err)
		assert.Equal(t, 5, start)

		st, err := store.Load()
		require.NoError(t, err)
		assert.True(t, st.IsComplete)
		assert.Equal(t, 4, st.LastAppliedIndex)
	})

	t.Run("hash mismatch is fatal plan drift", func(t *testing.T) {
		store := newTestStore(t)

		_, err := store.InitOrResume(testManifest(3))
		require.NoError(t, err)

		other := testManifest(3)
		other[0].Message = "tampered"
		_, err = store.InitOrResume(other)
		assert.ErrorIs(t, err, ErrPlanDrift)
	})
}

func TestStoreAdvance(t *testing.T) {
	t.Run("records head id and completion", func(t *testing.T) {
		store := newTestStore(t)
		m := testManifest(2)

		_, err := store.InitOrResume(m)
		require.NoError(t, err)

		require.NoError(t, store.Advance(0, "abc123", false))
		require.NoError(t, store.Advance(1, "def456", true))

		st, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, 1, st.LastAppliedIndex)
		assert.Equal(t, "def456", st.LastCommitID)
		assert.True(t, st.IsComplete)
	})

	t.Run("rejects non-monotonic index", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.InitOrResume(testManifest(3))
		require.NoError(t, err)

		require.NoError(t, store.Advance(1, "h", false))
		assert.Error(t, store.Advance(1, "h", false))
		assert.Error(t, store.Advance(0, "h", false))
	})

	t.Run("fails without initialized state", func(t *testing.T) {
		store := newTestStore(t)
		assert.Error(t, store.Advance(0, "h", false))
	})
}

func TestStoreLoad(t *testing.T) {
	t.Run("missing file is absent, not an error", func(t *testing.T) {
		store := newTestStore(t)
		st, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, st)
	})

	t.Run("corrupted file is treated as absent", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, Filename)
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		store := NewStore(path, zerolog.Nop())
		st, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, st)

		// A corrupted ledger must not block a fresh run.
		start, err := store.InitOrResume(testManifest(2))
		require.NoError(t, err)
		assert.Equal(t, 0, start)
	})
}

func TestStoreSavedManifest(t *testing.T) {
	t.Run("returns snapshot for incomplete runs", func(t *testing.T) {
		store := newTestStore(t)
		m := testManifest(4)

		_, err := store.InitOrResume(m)
		require.NoError(t, err)
		require.NoError(t, store.Advance(0, "h", false))

		saved, err := store.SavedManifest()
		require.NoError(t, err)
		require.Len(t, saved, 4)

		savedHash, err := Hash(saved)
		require.NoError(t, err)
		origHash, err := Hash(m)
		require.NoError(t, err)
		assert.Equal(t, origHash, savedHash)
	})

	t.Run("nil when complete or missing", func(t *testing.T) {
		store := newTestStore(t)

		saved, err := store.SavedManifest()
		require.NoError(t, err)
		assert.Nil(t, saved)

		m := testManifest(1)
		_, err = store.InitOrResume(m)
		require.NoError(t, err)
		require.NoError(t, store.Advance(0, "h", true))

		saved, err = store.SavedManifest()
		require.NoError(t, err)
		assert.Nil(t, saved)
	})
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)
	_, err := store.InitOrResume(testManifest(2))
	require.NoError(t, err)

	require.NoError(t, store.Clear())
	st, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, st)

	// Clearing an already-absent ledger is fine.
	require.NoError(t, store.Clear())
}
