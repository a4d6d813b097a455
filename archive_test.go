package runefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArchiveRefAbsent(t *testing.T) {
	ref, err := parseArchiveRef([]byte{0, 0, 0, 0, 0, 0}, 5, 255)
	require.NoError(t, err)
	assert.True(t, ref.IsAbsent())
	assert.True(t, ref.IsEmpty())
}

func TestParseArchiveRefPresentButEmpty(t *testing.T) {
	ref, err := parseArchiveRef([]byte{0, 0, 0, 0, 0, 7}, 5, 255)
	require.NoError(t, err)
	assert.False(t, ref.IsAbsent())
	assert.True(t, ref.IsEmpty())
	assert.Equal(t, 7, ref.Sector)
}

func TestParseArchiveRefPresent(t *testing.T) {
	ref, err := parseArchiveRef([]byte{0, 1, 0, 0, 0, 2}, 9, 3)
	require.NoError(t, err)
	assert.Equal(t, 256, ref.Length)
	assert.Equal(t, 2, ref.Sector)
	assert.Equal(t, uint32(9), ref.ID)
	assert.Equal(t, uint8(3), ref.IndexID)
}

func TestParseArchiveRefTruncated(t *testing.T) {
	_, err := parseArchiveRef([]byte{0, 1, 2}, 9, 3)
	require.Error(t, err)
	var parseErr *ArchiveParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestDataBlockLensBounded(t *testing.T) {
	ref := ArchiveRef{ID: 1, Length: SectorDataLen + 10}
	lens := ref.dataBlockLens()
	require.Len(t, lens, 2)
	assert.Equal(t, SectorDataLen, lens[0])
	assert.Equal(t, 10, lens[1])
}

func TestDataBlockLensExpandedHeader(t *testing.T) {
	ref := ArchiveRef{ID: 0x10000, Length: SectorExpandedDataLen + 1}
	lens := ref.dataBlockLens()
	require.Len(t, lens, 2)
	assert.Equal(t, SectorExpandedDataLen, lens[0])
	assert.Equal(t, 1, lens[1])
}

func TestArchiveRefRoundTrip(t *testing.T) {
	ref := ArchiveRef{ID: 1, IndexID: 2, Sector: 42, Length: 1000}
	encoded := encodeArchiveRef(ref)
	decoded, err := parseArchiveRef(encoded, ref.ID, ref.IndexID)
	require.NoError(t, err)
	assert.Equal(t, ref, decoded)
}
