package runefs

// ArchiveRefLen is the fixed size of an on-disk locator record.
const ArchiveRefLen = 6

// ArchiveRef locates one archive's sector chain inside a data file. ID and
// IndexID are back-references used to validate the sectors visited while
// walking the chain; they are not stored in the record itself (ID is the
// record's position in the index file, IndexID comes from the index it
// belongs to).
type ArchiveRef struct {
	ID      uint32
	IndexID uint8
	Sector  int
	Length  int
}

// parseArchiveRef decodes a 6-byte locator record: a 3-byte big-endian
// length followed by a 3-byte big-endian first sector.
func parseArchiveRef(buf []byte, id uint32, indexID uint8) (ArchiveRef, error) {
	if len(buf) < ArchiveRefLen {
		return ArchiveRef{}, &ArchiveParseError{ID: id}
	}
	return ArchiveRef{
		ID:      id,
		IndexID: indexID,
		Length:  int(be24(buf[0:3])),
		Sector:  int(be24(buf[3:6])),
	}, nil
}

// IsAbsent reports whether the record is the all-zero sentinel for "no
// archive stored at this id".
func (r ArchiveRef) IsAbsent() bool {
	return r.Length == 0 && r.Sector == 0
}

// IsEmpty reports whether the archive is present but carries zero bytes.
func (r ArchiveRef) IsEmpty() bool {
	return r.Length == 0
}

// headerSize derives which sector header layout this archive's chain uses.
func (r ArchiveRef) headerSize() SectorHeaderSize {
	return headerSizeFor(r.ID)
}

// dataBlockLens returns the byte length to read from each successive
// sector in the chain, summing to r.Length. The count of elements is the
// bound on how many sectors the chain walk visits.
func (r ArchiveRef) dataBlockLens() []int {
	size := r.headerSize()
	blockLen := size.dataLen()

	remaining := r.Length
	var lens []int
	for remaining > 0 {
		n := blockLen
		if remaining < n {
			n = remaining
		}
		lens = append(lens, n)
		remaining -= n
	}
	return lens
}

// ArchiveMetadata is one archive's descriptor row out of an index's
// reference-table entry: hashes, CRC, whirlpool digest, version, and the
// set of child entry ids it contains.
type ArchiveMetadata struct {
	ID         uint32
	NameHash   *int32
	CRC        uint32
	Hash       *int32
	Whirlpool  *[64]byte
	Version    uint32
	EntryCount uint32
	ValidIDs   []uint32
}

// encodeArchiveRef renders r back to its 6-byte on-disk form. Not exercised
// by the read-only core but kept alongside the decoder as the record's
// canonical round-trip, the way sector.go pairs parse with validate.
func encodeArchiveRef(r ArchiveRef) []byte {
	buf := make([]byte, ArchiveRefLen)
	put24(buf[0:3], uint32(r.Length))
	put24(buf[3:6], uint32(r.Sector))
	return buf
}

func put24(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}
