package runefs

import "fmt"

// ErrCompressionUnsupported indicates an on-disk compression tag runefs does
// not recognize. The zero value for Compression decoding never produces
// this; it only surfaces for tags outside 0..=3.
type ErrCompressionUnsupported struct {
	Tag byte
}

func (e *ErrCompressionUnsupported) Error() string {
	return fmt.Sprintf("runefs: unsupported compression tag %d", e.Tag)
}

// ErrTruncatedFrame indicates an archive frame ended before the length its
// own header declared.
type ErrTruncatedFrame struct {
	Want, Got int
}

func (e *ErrTruncatedFrame) Error() string {
	return fmt.Sprintf("runefs: truncated archive frame: want %d bytes, got %d", e.Want, e.Got)
}

// ErrMalformedSmartInt indicates a u32_smart value could not be read because
// the buffer ran out before the width its leading bit implied.
type ErrMalformedSmartInt struct{}

func (e *ErrMalformedSmartInt) Error() string {
	return "runefs: malformed smart integer"
}

// SectorError wraps a failure to parse the sector at the given sector number.
type SectorError struct {
	Sector int
	Err    error
}

func (e *SectorError) Error() string {
	return fmt.Sprintf("runefs: malformed sector %d: %v", e.Sector, e.Err)
}

func (e *SectorError) Unwrap() error { return e.Err }

// ArchiveParseError indicates the archive locator record at ID could not be
// parsed out of an index file.
type ArchiveParseError struct {
	ID uint32
}

func (e *ArchiveParseError) Error() string {
	return fmt.Sprintf("runefs: malformed archive locator %d", e.ID)
}

// ArchiveNotFoundError indicates a lookup for (Index, Archive) failed.
type ArchiveNotFoundError struct {
	Index   uint8
	Archive uint32
}

func (e *ArchiveNotFoundError) Error() string {
	return fmt.Sprintf("runefs: archive %d not found in index %d", e.Archive, e.Index)
}

// SectorArchiveMismatchError indicates a sector's archive-id back-pointer
// does not match the archive being read.
type SectorArchiveMismatchError struct {
	Got, Want uint32
}

func (e *SectorArchiveMismatchError) Error() string {
	return fmt.Sprintf("runefs: sector archive id mismatch: got %d, want %d", e.Got, e.Want)
}

// SectorChunkMismatchError indicates a sector's chunk position does not
// match its expected position in the chain.
type SectorChunkMismatchError struct {
	Got, Want int
}

func (e *SectorChunkMismatchError) Error() string {
	return fmt.Sprintf("runefs: sector chunk mismatch: got %d, want %d", e.Got, e.Want)
}

// SectorIndexMismatchError indicates a sector's index-id back-pointer does
// not match the index being read.
type SectorIndexMismatchError struct {
	Got, Want uint8
}

func (e *SectorIndexMismatchError) Error() string {
	return fmt.Sprintf("runefs: sector index id mismatch: got %d, want %d", e.Got, e.Want)
}
