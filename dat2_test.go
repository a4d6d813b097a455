package runefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSector writes one 520-byte sector slot at the given sector index
// into buf, which must already be sized to at least (sector+1)*SectorSize.
func writeSector(buf []byte, sector int, archiveID uint16, chunk uint16, next uint32, indexID uint8, data []byte) {
	offset := sector * SectorSize
	buf[offset] = byte(archiveID >> 8)
	buf[offset+1] = byte(archiveID)
	buf[offset+2] = byte(chunk >> 8)
	buf[offset+3] = byte(chunk)
	put24(buf[offset+4:offset+7], next)
	buf[offset+7] = indexID
	copy(buf[offset+8:offset+8+len(data)], data)
}

func TestDat2ReadSingleSector(t *testing.T) {
	payload := []byte("hello cache")
	buf := make([]byte, SectorSize)
	writeSector(buf, 0, 5, 0, 0, 255, payload)

	path := filepath.Join(t.TempDir(), "main_file_cache.dat2")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	dat2, err := OpenDat2(path)
	require.NoError(t, err)
	defer dat2.Close()

	ref := ArchiveRef{ID: 5, IndexID: 255, Sector: 0, Length: len(payload)}
	encoded, err := dat2.Read(ref)
	require.NoError(t, err)
	assert.Equal(t, payload, encoded.Finalize())
}

func TestDat2ReadSpansMultipleSectors(t *testing.T) {
	first := make([]byte, SectorDataLen)
	for i := range first {
		first[i] = byte(i)
	}
	second := []byte("tail chunk")

	buf := make([]byte, 2*SectorSize)
	writeSector(buf, 0, 9, 0, 1, 3, first)
	writeSector(buf, 1, 9, 1, 0, 3, second)

	path := filepath.Join(t.TempDir(), "main_file_cache.dat2")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	dat2, err := OpenDat2(path)
	require.NoError(t, err)
	defer dat2.Close()

	ref := ArchiveRef{ID: 9, IndexID: 3, Sector: 0, Length: SectorDataLen + len(second)}
	encoded, err := dat2.Read(ref)
	require.NoError(t, err)
	want := append(append([]byte(nil), first...), second...)
	assert.Equal(t, want, encoded.Finalize())
}

func TestDat2ReadDetectsHeaderMismatch(t *testing.T) {
	payload := []byte("mismatched")
	buf := make([]byte, SectorSize)
	writeSector(buf, 0, 7, 0, 0, 255, payload) // actual archive id 7

	path := filepath.Join(t.TempDir(), "main_file_cache.dat2")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	dat2, err := OpenDat2(path)
	require.NoError(t, err)
	defer dat2.Close()

	ref := ArchiveRef{ID: 5, IndexID: 255, Sector: 0, Length: len(payload)} // expects archive id 5
	_, err = dat2.Read(ref)
	require.Error(t, err)
	var mismatch *SectorArchiveMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, uint32(7), mismatch.Got)
	assert.Equal(t, uint32(5), mismatch.Want)
}
