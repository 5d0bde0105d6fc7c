package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/replay/pkg/types"
)

func TestTestCaseStoreRoundTrip(t *testing.T) {
	store, err := NewTestCaseStore(t.TempDir())
	require.NoError(t, err)

	tc := &types.TestCase{
		ID:      "case-1",
		Name:    "login",
		BaseURL: "https://example.com",
		Steps: []types.RecordedStep{
			{ID: "s1", Order: 1, Action: types.ActionClick, Selector: "#login"},
		},
		Snapshot:  &types.PageSnapshot{URL: "https://example.com/home", Title: "Home"},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(tc))

	loaded, err := store.Get("case-1")
	require.NoError(t, err)
	assert.Equal(t, tc.Name, loaded.Name)
	require.Len(t, loaded.Steps, 1)
	assert.Equal(t, "#login", loaded.Steps[0].Selector)
	require.NotNil(t, loaded.Snapshot)
	assert.Equal(t, "Home", loaded.Snapshot.Title)
}

func TestTestCaseStoreRejectsMissingID(t *testing.T) {
	store, err := NewTestCaseStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Save(&types.TestCase{Name: "anonymous"}))
}

func TestTestCaseStoreGetMissing(t *testing.T) {
	store, err := NewTestCaseStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get("missing")
	assert.Error(t, err)
}

func TestTestCaseStoreListNewestFirst(t *testing.T) {
	store, err := NewTestCaseStore(t.TempDir())
	require.NoError(t, err)

	base := time.Now()
	require.NoError(t, store.Save(&types.TestCase{ID: "old", CreatedAt: base.Add(-time.Hour)}))
	require.NoError(t, store.Save(&types.TestCase{ID: "new", CreatedAt: base}))

	cases, err := store.List()
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "new", cases[0].ID)
	assert.Equal(t, "old", cases[1].ID)
}

func TestTestCaseStoreListSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewTestCaseStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(&types.TestCase{ID: "good"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "testcases", "bad.json"), []byte("{not json"), 0640))

	cases, err := store.List()
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "good", cases[0].ID)
}

func TestTestCaseStoreDelete(t *testing.T) {
	store, err := NewTestCaseStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(&types.TestCase{ID: "doomed"}))
	require.NoError(t, store.Delete("doomed"))
	_, err = store.Get("doomed")
	assert.Error(t, err)

	// deleting again is a no-op
	assert.NoError(t, store.Delete("doomed"))
}
