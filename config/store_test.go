package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rotorflight/flashfs"
	"github.com/rotorflight/flashfs/config"
)

// S9: config round-trip.
func TestLoadMissingReturnsDefault(t *testing.T) {
	store := config.NewFileStore(filepath.Join(t.TempDir(), "flashfs.json"))

	cfg, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, flashfs.DefaultConfig(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	store := config.NewFileStore(filepath.Join(t.TempDir(), "flashfs.json"))

	want := flashfs.Config{ArmingEraseFreeSpace: 4 * 1024 * 1024, BackgroundErase: false}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSaveOverwritesPreviousValue(t *testing.T) {
	store := config.NewFileStore(filepath.Join(t.TempDir(), "flashfs.json"))

	require.NoError(t, store.Save(flashfs.Config{ArmingEraseFreeSpace: 1024, BackgroundErase: true}))
	require.NoError(t, store.Save(flashfs.Config{ArmingEraseFreeSpace: 2048, BackgroundErase: false}))

	got, err := store.Load()
	require.NoError(t, err)
	require.EqualValues(t, 2048, got.ArmingEraseFreeSpace)
	require.False(t, got.BackgroundErase)
}
