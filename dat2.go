package runefs

import (
	"bytes"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Dat2 is a read-only, memory-mapped view of a main_file_cache.dat2 file:
// a flat array of 520-byte sector slots shared by every index's archives.
type Dat2 struct {
	file *os.File
	data mmap.MMap
}

// OpenDat2 maps path for the lifetime of the returned Dat2. Callers must
// call Close when done; the backing file must not be truncated while
// mapped.
func OpenDat2(path string) (*Dat2, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Dat2{file: f, data: m}, nil
}

// Close unmaps the backing file and closes the descriptor.
func (d *Dat2) Close() error {
	if err := d.data.Unmap(); err != nil {
		return err
	}
	return d.file.Close()
}

// Read walks ref's sector chain and returns its contents as a fresh
// EncodedBuffer of exactly ref.Length bytes. The walk is bounded by the
// number of chunks ref.Length implies, not by a sector's next pointer
// reaching zero.
func (d *Dat2) Read(ref ArchiveRef) (EncodedBuffer, error) {
	var out bytes.Buffer
	out.Grow(ref.Length)
	if err := d.readInto(ref, &out); err != nil {
		return EncodedBuffer{}, err
	}
	return newEncodedBuffer(out.Bytes()), nil
}

func (d *Dat2) readInto(ref ArchiveRef, w io.Writer) error {
	size := ref.headerSize()
	lens := ref.dataBlockLens()
	sector := ref.Sector

	for chunk, n := range lens {
		offset := sector * SectorSize
		if offset < 0 || offset >= len(d.data) {
			return &SectorError{Sector: sector, Err: &ErrTruncatedFrame{Want: SectorSize, Got: 0}}
		}
		end := offset + SectorSize
		if end > len(d.data) {
			end = len(d.data)
		}

		sec, err := newSector(d.data[offset:end], size)
		if err != nil {
			return &SectorError{Sector: sector, Err: err}
		}
		if err := sec.Header.Validate(ref.ID, chunk, ref.IndexID); err != nil {
			return err
		}
		if len(sec.DataBlock) < n {
			return &SectorError{Sector: sector, Err: &ErrTruncatedFrame{Want: n, Got: len(sec.DataBlock)}}
		}
		if _, err := w.Write(sec.DataBlock[:n]); err != nil {
			return err
		}
		sector = sec.Header.Next
	}
	return nil
}

// Metadata reads ref and decodes it as an index's metadata archive.
func (d *Dat2) Metadata(ref ArchiveRef) (IndexMetadata, error) {
	encoded, err := d.Read(ref)
	if err != nil {
		return IndexMetadata{}, err
	}
	decoded, err := encoded.Decode()
	if err != nil {
		return IndexMetadata{}, err
	}
	return parseIndexMetadata(decoded.Finalize())
}
