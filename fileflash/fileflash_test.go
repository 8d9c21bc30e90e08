package fileflash_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rotorflight/flashfs"
	"github.com/rotorflight/flashfs/fileflash"
)

func testGeometry() flashfs.Geometry {
	return flashfs.Geometry{
		PageSize:    2048,
		SectorSize:  16 * 1024,
		RegionStart: 0,
		RegionEnd:   8 * 16 * 1024,
	}
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.bin")
	geo := testGeometry()

	dev, err := fileflash.Open(path, geo)
	require.NoError(t, err)

	fs, err := flashfs.New(dev, flashfs.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, fs.Init())
	require.NoError(t, fs.WriteBytes([]byte("black box")))
	require.NoError(t, fs.Close())
	require.NoError(t, dev.Close())

	dev2, err := fileflash.Open(path, geo)
	require.NoError(t, err)
	defer dev2.Close()

	fs2, err := flashfs.New(dev2, flashfs.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, fs2.Init())
	require.EqualValues(t, geo.PageSize, fs2.Tail())
	require.EqualValues(t, 0, fs2.Head())
}

func TestFreshFileIsFullyErased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.bin")
	geo := testGeometry()

	dev, err := fileflash.Open(path, geo)
	require.NoError(t, err)
	defer dev.Close()

	buf := make([]byte, geo.RegionEnd)
	require.NoError(t, dev.Read(0, buf))
	for _, b := range buf {
		require.Equal(t, byte(0xFF), b)
	}
}
