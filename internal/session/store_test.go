package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(id, udid string) *Session {
	return &Session{
		ID:           id,
		UDID:         udid,
		State:        StateShutdown,
		BootStrategy: "direct",
		StartedAt:    time.Now().UTC(),
	}
}

func TestStoreSaveLoad(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	sess := testSession("ab12cd34", "F9266A2E-3B45-4C11-9E10-7A3F0E2B61D4")
	require.NoError(t, store.Save(sess))

	loaded, err := store.Load("ab12cd34")
	require.NoError(t, err)
	assert.Equal(t, sess.UDID, loaded.UDID)
	assert.Equal(t, StateShutdown, loaded.State)
}

func TestStoreLoadMissing(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nope")
	assert.ErrorContains(t, err, "session not found")
}

func TestStoreLoadByUDID(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(testSession("aaaa1111", "UDID-A")))
	require.NoError(t, store.Save(testSession("bbbb2222", "UDID-B")))

	sess, err := store.LoadByUDID("UDID-B")
	require.NoError(t, err)
	assert.Equal(t, "bbbb2222", sess.ID)

	_, err = store.LoadByUDID("UDID-C")
	assert.Error(t, err)
}

func TestStoreListSkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStoreAt(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(testSession("aaaa1111", "UDID-A")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))

	sessions, err := store.List()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "aaaa1111", sessions[0].ID)
}

func TestStoreDelete(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(testSession("aaaa1111", "UDID-A")))
	require.NoError(t, store.Delete("aaaa1111"))

	_, err = store.Load("aaaa1111")
	assert.Error(t, err)

	// Deleting again is not an error.
	require.NoError(t, store.Delete("aaaa1111"))
}
