package runefs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ReferenceTableID is the distinguished index id whose archives describe
// the metadata of every other index.
const ReferenceTableID uint8 = 255

// Index is one index's locator table plus, for indices other than the
// reference table itself, the metadata describing its archives.
type Index struct {
	ID          uint8
	ArchiveRefs map[uint32]ArchiveRef
	Metadata    *IndexMetadata
}

// indexFromPath loads an index's locator table from disk, panicking if
// path's idxN extension disagrees with the declared id — that is a
// programmer error (wiring the wrong file to the wrong index), never a
// data-dependent failure.
func indexFromPath(path string, id uint8) (*Index, error) {
	ext := filepath.Ext(path)
	want := fmt.Sprintf(".idx%d", id)
	if ext != want {
		panic(fmt.Sprintf("runefs: index extension mismatch: expected %s but found %s", want, ext))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return indexFromBuffer(id, data)
}

// indexFromBuffer chunks data into ArchiveRefLen-sized locator records;
// record i describes archive i.
func indexFromBuffer(id uint8, data []byte) (*Index, error) {
	if len(data)%ArchiveRefLen != 0 {
		return nil, &ArchiveParseError{ID: uint32(len(data) / ArchiveRefLen)}
	}

	count := len(data) / ArchiveRefLen
	refs := make(map[uint32]ArchiveRef, count)
	for i := 0; i < count; i++ {
		chunk := data[i*ArchiveRefLen : (i+1)*ArchiveRefLen]
		ref, err := parseArchiveRef(chunk, uint32(i), id)
		if err != nil {
			return nil, err
		}
		refs[uint32(i)] = ref
	}
	return &Index{ID: id, ArchiveRefs: refs}, nil
}

// IndexMetadata is an index's archive descriptor table, ordered the same
// way the archives themselves are ordered in the reference table entry it
// was decoded from.
type IndexMetadata struct {
	Archives []ArchiveMetadata
}

// Archive looks up a descriptor by archive id.
func (m IndexMetadata) Archive(id uint32) (ArchiveMetadata, bool) {
	for _, a := range m.Archives {
		if a.ID == id {
			return a, true
		}
	}
	return ArchiveMetadata{}, false
}

// Indices is the full set of loaded indices, always containing the
// reference table under ReferenceTableID.
type Indices struct {
	byID map[uint8]*Index
}

// Open loads every main_file_cache.idxN file in dir (0..=254) plus the
// reference table at idx255, attaching each index's metadata archive from
// the reference table along the way. Directory iteration order does not
// affect the result.
func Open(dir string) (*Indices, error) {
	refTable, err := indexFromPath(filepath.Join(dir, "main_file_cache.idx255"), ReferenceTableID)
	if err != nil {
		return nil, err
	}

	dat2, err := OpenDat2(filepath.Join(dir, "main_file_cache.dat2"))
	if err != nil {
		return nil, err
	}
	defer dat2.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint8]*Index)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := parseIndexFileID(entry.Name())
		if !ok || id == ReferenceTableID {
			continue
		}

		idx, err := indexFromPath(filepath.Join(dir, entry.Name()), id)
		if err != nil {
			return nil, err
		}

		locator, ok := refTable.ArchiveRefs[uint32(id)]
		if !ok {
			return nil, &ArchiveNotFoundError{Index: ReferenceTableID, Archive: uint32(id)}
		}
		if locator.Length > 0 {
			meta, err := dat2.Metadata(locator)
			if err != nil {
				return nil, err
			}
			idx.Metadata = &meta
		}

		byID[id] = idx
	}
	byID[ReferenceTableID] = refTable

	return &Indices{byID: byID}, nil
}

// parseIndexFileID extracts N from a main_file_cache.idxN filename. It
// returns ok=false for anything that isn't an idxN file; an unparseable N
// on a name that IS an idxN file is a directory corruption it panics on,
// the same programmer-error class as indexFromPath's extension check.
func parseIndexFileID(name string) (uint8, bool) {
	const marker = ".idx"
	i := strings.LastIndex(name, marker)
	if i < 0 {
		return 0, false
	}
	numStr := name[i+len(marker):]
	if numStr == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(numStr, 10, 8)
	if err != nil {
		panic(fmt.Sprintf("runefs: unparseable index number in %q: %v", name, err))
	}
	return uint8(n), true
}

// Get looks up a loaded index by id.
func (ix *Indices) Get(id uint8) (*Index, bool) {
	idx, ok := ix.byID[id]
	return idx, ok
}

// Count reports how many indices were loaded, including the reference
// table.
func (ix *Indices) Count() int {
	return len(ix.byID)
}

// IndexEntry pairs an index id with its loaded Index, used by All to
// return a deterministically ordered view without depending on a Go
// version new enough for range-over-func iterators.
type IndexEntry struct {
	ID    uint8
	Index *Index
}

// All returns every loaded index sorted by id.
func (ix *Indices) All() []IndexEntry {
	out := make([]IndexEntry, 0, len(ix.byID))
	for id, idx := range ix.byID {
		out = append(out, IndexEntry{ID: id, Index: idx})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// parseIndexMetadata decodes the reference table's metadata archive for one
// index: a version-gated, bit-packed, delta-encoded descriptor table.
func parseIndexMetadata(data []byte) (IndexMetadata, error) {
	sr := newSmartReader(bytes.NewReader(data))

	protocol, err := sr.byte()
	if err != nil {
		return IndexMetadata{}, err
	}
	if protocol >= 6 {
		if _, err := sr.uint32(); err != nil { // revision, not retained
			return IndexMetadata{}, err
		}
	}

	flags, err := sr.byte()
	if err != nil {
		return IndexMetadata{}, err
	}
	identified := flags&1 != 0
	whirlpool := flags&2 != 0
	codec := flags&4 != 0
	hash := flags&8 != 0

	count32, err := sr.sizedUint32(protocol)
	if err != nil {
		return IndexMetadata{}, err
	}
	n := int(count32)

	ids := make([]uint32, n)
	var idAcc int32
	for i := 0; i < n; i++ {
		delta, err := sr.sizedUint32(protocol)
		if err != nil {
			return IndexMetadata{}, err
		}
		idAcc += int32(delta)
		ids[i] = uint32(idAcc)
	}

	nameHashes := make([]int32, n)
	if identified {
		for i := 0; i < n; i++ {
			v, err := sr.uint32()
			if err != nil {
				return IndexMetadata{}, err
			}
			nameHashes[i] = int32(v)
		}
	}

	crcs := make([]uint32, n)
	for i := 0; i < n; i++ {
		crcs[i], err = sr.uint32()
		if err != nil {
			return IndexMetadata{}, err
		}
	}

	// parse_hashes: an extra i32 hash column, present only when the hash
	// flag is set. Allocated to archive_count, not archive_count*4 — the
	// original mismatched-count fallback was a bug.
	hashes := make([]int32, n)
	if hash {
		for i := 0; i < n; i++ {
			v, err := sr.uint32()
			if err != nil {
				return IndexMetadata{}, err
			}
			hashes[i] = int32(v)
		}
	}

	whirlpools := make([][64]byte, n)
	if whirlpool {
		for i := 0; i < n; i++ {
			for j := 0; j < 64; j++ {
				b, err := sr.byte()
				if err != nil {
					return IndexMetadata{}, err
				}
				whirlpools[i][j] = b
			}
		}
	}

	if codec {
		// Reserved block: skipped without retention, matching the
		// upstream format's never-finished codec column.
		for i := 0; i < n*8; i++ {
			if _, err := sr.byte(); err != nil {
				return IndexMetadata{}, err
			}
		}
	}

	versions := make([]uint32, n)
	for i := 0; i < n; i++ {
		versions[i], err = sr.uint32()
		if err != nil {
			return IndexMetadata{}, err
		}
	}

	entryCounts := make([]uint32, n)
	for i := 0; i < n; i++ {
		entryCounts[i], err = sr.sizedUint32(protocol)
		if err != nil {
			return IndexMetadata{}, err
		}
	}

	validIDs := make([][]uint32, n)
	for i := 0; i < n; i++ {
		ec := int(entryCounts[i])
		entries := make([]uint32, ec)
		var acc uint32
		for j := 0; j < ec; j++ {
			delta, err := sr.sizedUint32(protocol)
			if err != nil {
				return IndexMetadata{}, err
			}
			acc += delta
			entries[j] = acc
		}
		validIDs[i] = entries
	}

	archives := make([]ArchiveMetadata, n)
	for i := 0; i < n; i++ {
		am := ArchiveMetadata{
			ID:         ids[i],
			CRC:        crcs[i],
			Version:    versions[i],
			EntryCount: entryCounts[i],
			ValidIDs:   validIDs[i],
		}
		if identified {
			nh := nameHashes[i]
			am.NameHash = &nh
		}
		if hash {
			h := hashes[i]
			am.Hash = &h
		}
		if whirlpool {
			w := whirlpools[i]
			am.Whirlpool = &w
		}
		archives[i] = am
	}

	return IndexMetadata{Archives: archives}, nil
}
