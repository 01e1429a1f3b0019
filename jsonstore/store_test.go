package jsonstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bsid.es/despierta"
	"bsid.es/despierta/jsonstore"
)

func TestLoadMissingFile(t *testing.T) {
	store := jsonstore.New(filepath.Join(t.TempDir(), "alarms.json"))
	alarms, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, alarms)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.json")
	require.NoError(t, os.WriteFile(path, []byte("{definitely not json"), 0o644))

	_, err := jsonstore.New(path).Load()
	require.Error(t, err)
	assert.Equal(t, despierta.ErrCorrupt, despierta.ErrorCode(err))
}

func TestLoadRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{{
		name: "time out of range",
		data: `[{"id":"a1","time":"24:00","enabled":true,"label":""}]`,
	}, {
		name: "missing id",
		data: `[{"id":"","time":"07:00","enabled":true,"label":""}]`,
	}, {
		name: "duplicate ids",
		data: `[{"id":"a1","time":"07:00","enabled":true,"label":""},
			{"id":"a1","time":"08:00","enabled":true,"label":""}]`,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "alarms.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))

			_, err := jsonstore.New(path).Load()
			require.Error(t, err)
			assert.Equal(t, despierta.ErrCorrupt, despierta.ErrorCode(err))
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	list := despierta.NewList()
	_, err := list.Add(despierta.TimeOfDay{Hour: 0, Minute: 0}, "midnight", 0)
	require.NoError(t, err)
	repeat, err := despierta.ParseWeekdays("mon,thu")
	require.NoError(t, err)
	lastCall, err := list.Add(despierta.TimeOfDay{Hour: 23, Minute: 59}, "last call", repeat)
	require.NoError(t, err)
	require.NoError(t, list.Toggle(lastCall.ID))

	store := jsonstore.New(filepath.Join(t.TempDir(), "alarms.json"))
	want := list.Alarms()
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveReplacesPreviousContents(t *testing.T) {
	dir := t.TempDir()
	store := jsonstore.New(filepath.Join(dir, "alarms.json"))

	list := despierta.NewList()
	kept, err := list.Add(despierta.TimeOfDay{Hour: 6, Minute: 0}, "kept", 0)
	require.NoError(t, err)
	dropped, err := list.Add(despierta.TimeOfDay{Hour: 7, Minute: 0}, "dropped", 0)
	require.NoError(t, err)

	require.NoError(t, store.Save(list.Alarms()))
	require.NoError(t, list.Remove(dropped.ID))
	require.NoError(t, store.Save(list.Alarms()))

	got, err := store.Load()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, kept.ID, got[0].ID)

	// The rename leaves no temp files behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveUnwritableLocation(t *testing.T) {
	// The parent "directory" is a regular file, so nothing below it can be
	// created, like a data dir inside a protected folder.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, nil, 0o644))

	err := jsonstore.New(filepath.Join(blocked, "alarms.json")).Save(nil)
	require.Error(t, err)
	assert.Equal(t, despierta.ErrWrite, despierta.ErrorCode(err))
}
