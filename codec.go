package runefs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz/lzma"
)

// Compression identifies which of the four on-disk compression schemes an
// archive frame uses.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionBzip2
	CompressionGzip
	CompressionLzma
)

// compressionFromTag maps an on-disk tag byte to a Compression, failing
// hard on anything outside 0..=3.
func compressionFromTag(tag byte) (Compression, error) {
	switch tag {
	case 0:
		return CompressionNone, nil
	case 1:
		return CompressionBzip2, nil
	case 2:
		return CompressionGzip, nil
	case 3:
		return CompressionLzma, nil
	default:
		return 0, &ErrCompressionUnsupported{Tag: tag}
	}
}

// buffer holds the fields common to both buffer states. A single value is
// never shared: every transition below consumes its receiver and returns a
// fresh value, mirroring the move semantics of the two-state pipeline this
// is adapted from.
type buffer struct {
	bytes       []byte
	compression Compression
	version     *int16
	keys        *XTEAKeys
}

// DecodedBuffer holds a plain, uncompressed archive payload.
type DecodedBuffer struct {
	buffer
}

// EncodedBuffer holds an archive payload in its on-disk frame layout:
// compression tag, lengths, compressed bytes, optional version.
type EncodedBuffer struct {
	buffer
}

// NewDecodedBuffer wraps raw decoded bytes with no compression, no
// version, and no XTEA keys set.
func NewDecodedBuffer(data []byte) DecodedBuffer {
	return DecodedBuffer{buffer{bytes: data, compression: CompressionNone}}
}

// newEncodedBuffer wraps raw on-disk frame bytes as read from a data file.
func newEncodedBuffer(data []byte) EncodedBuffer {
	return EncodedBuffer{buffer{bytes: data, compression: CompressionNone}}
}

// WithCompression returns a copy of b configured to encode with c.
func (b DecodedBuffer) WithCompression(c Compression) DecodedBuffer {
	b.compression = c
	return b
}

// WithVersion returns a copy of b that appends v as the frame's trailing
// version tag on encode.
func (b DecodedBuffer) WithVersion(v int16) DecodedBuffer {
	b.version = &v
	return b
}

// WithXTEAKeys returns a copy of b that enciphers the compressed payload
// with k on encode.
func (b DecodedBuffer) WithXTEAKeys(k XTEAKeys) DecodedBuffer {
	b.keys = &k
	return b
}

// WithXTEAKeys returns a copy of b that deciphers the compressed payload
// with k before Decode dispatches on the compression tag.
func (b EncodedBuffer) WithXTEAKeys(k XTEAKeys) EncodedBuffer {
	b.keys = &k
	return b
}

// Finalize returns the buffer's raw bytes.
func (b DecodedBuffer) Finalize() []byte { return b.bytes }

// Finalize returns the buffer's raw on-disk frame bytes.
func (b EncodedBuffer) Finalize() []byte { return b.bytes }

// Len reports the number of raw bytes currently held.
func (b EncodedBuffer) Len() int { return len(b.bytes) }

// Encode produces the on-disk frame for b: a compression tag, the
// compressed length, the original length (compressed schemes only), the
// compressed bytes (enciphered in place if XTEA keys are set), and an
// optional trailing version.
func (b DecodedBuffer) Encode() (EncodedBuffer, error) {
	var compressed []byte
	var err error

	switch b.compression {
	case CompressionNone:
		compressed = append([]byte(nil), b.bytes...)
	case CompressionBzip2:
		compressed, err = compressBzip2(b.bytes)
	case CompressionGzip:
		compressed, err = compressGzip(b.bytes)
	case CompressionLzma:
		compressed, err = compressLzma(b.bytes)
	default:
		return EncodedBuffer{}, &ErrCompressionUnsupported{Tag: byte(b.compression)}
	}
	if err != nil {
		return EncodedBuffer{}, err
	}

	if b.keys != nil {
		Encipher(compressed, *b.keys)
	}

	var out bytes.Buffer
	out.WriteByte(byte(b.compression))
	writeU32(&out, uint32(len(compressed)))
	if b.compression != CompressionNone {
		writeU32(&out, uint32(len(b.bytes)))
	}
	out.Write(compressed)
	if b.version != nil {
		writeI16(&out, *b.version)
	}

	return EncodedBuffer{buffer{
		bytes:       out.Bytes(),
		compression: b.compression,
		version:     b.version,
		keys:        b.keys,
	}}, nil
}

// Decode reverses Encode: it reads the tag and compressed length, then
// dispatches per scheme, deciphering the compressed bytes in place first
// if XTEA keys are set.
func (b EncodedBuffer) Decode() (DecodedBuffer, error) {
	r := bytes.NewReader(b.bytes)

	tagByte, err := r.ReadByte()
	if err != nil {
		return DecodedBuffer{}, &ErrTruncatedFrame{Want: 1, Got: 0}
	}
	compression, err := compressionFromTag(tagByte)
	if err != nil {
		return DecodedBuffer{}, err
	}

	compressedLen, err := readU32(r)
	if err != nil {
		return DecodedBuffer{}, &ErrTruncatedFrame{Want: 4, Got: r.Len()}
	}

	var decompressedLen uint32
	if compression != CompressionNone {
		decompressedLen, err = readU32(r)
		if err != nil {
			return DecodedBuffer{}, &ErrTruncatedFrame{Want: 4, Got: r.Len()}
		}
	}

	compressedBytes := make([]byte, compressedLen)
	if _, err := io.ReadFull(r, compressedBytes); err != nil {
		return DecodedBuffer{}, &ErrTruncatedFrame{Want: int(compressedLen), Got: r.Len()}
	}

	if b.keys != nil {
		Decipher(compressedBytes, *b.keys)
	}

	var version *int16
	if remaining, err := peekRemaining(r); err == nil && len(remaining) >= 2 {
		v := int16(binary.BigEndian.Uint16(remaining[:2]))
		version = &v
	}

	var payload []byte
	switch compression {
	case CompressionNone:
		payload = compressedBytes
	case CompressionBzip2:
		payload, err = decompressBzip2(compressedBytes, int(decompressedLen))
	case CompressionGzip:
		payload, err = decompressGzip(compressedBytes, int(decompressedLen))
	case CompressionLzma:
		payload, err = decompressLzma(compressedBytes, int(decompressedLen))
	}
	if err != nil {
		return DecodedBuffer{}, err
	}
	if compression != CompressionNone && len(payload) != int(decompressedLen) {
		return DecodedBuffer{}, &ErrTruncatedFrame{Want: int(decompressedLen), Got: len(payload)}
	}

	return DecodedBuffer{buffer{
		bytes:       payload,
		compression: compression,
		version:     version,
		keys:        b.keys,
	}}, nil
}

func peekRemaining(r *bytes.Reader) ([]byte, error) {
	rest := make([]byte, r.Len())
	n, err := r.Read(rest)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return rest[:n], nil
}

func writeU32(w *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.Write(tmp[:])
}

func readU32(r *bytes.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(tmp[:]), nil
}

func writeI16(w *bytes.Buffer, v int16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(v))
	w.Write(tmp[:])
}

// compressBzip2 compresses data at the fast (smallest block size) level
// and strips the 4-byte "BZh1" magic the on-disk format omits.
func compressBzip2(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: 1})
	if err != nil {
		return nil, fmt.Errorf("runefs: bzip2 encode: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("runefs: bzip2 encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("runefs: bzip2 encode: %w", err)
	}
	out := buf.Bytes()
	if len(out) < 4 {
		return nil, &ErrTruncatedFrame{Want: 4, Got: len(out)}
	}
	return out[4:], nil
}

// decompressBzip2 re-prepends the "BZh1" magic (block size 1) the on-disk
// format strips and decompresses the reconstructed stream.
func decompressBzip2(compressed []byte, decompressedLen int) ([]byte, error) {
	full := make([]byte, 0, 4+len(compressed))
	full = append(full, 'B', 'Z', 'h', '1')
	full = append(full, compressed...)

	r, err := bzip2.NewReader(bytes.NewReader(full), nil)
	if err != nil {
		return nil, fmt.Errorf("runefs: bzip2 decode: %w", err)
	}
	defer r.Close()

	out := make([]byte, decompressedLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("runefs: bzip2 decode: %w", err)
	}
	return out, nil
}

// compressGzip compresses data at the best-compression level; unlike
// bzip2, the gzip stream is stored with its header and footer intact.
func compressGzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("runefs: gzip encode: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("runefs: gzip encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("runefs: gzip encode: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressGzip(compressed []byte, decompressedLen int) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("runefs: gzip decode: %w", err)
	}
	defer r.Close()

	out := make([]byte, decompressedLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("runefs: gzip decode: %w", err)
	}
	return out, nil
}

// lzmaAloneHeaderLen is the classic LZMA1 "alone" stream header size: one
// properties byte, a little-endian u32 dictionary size, a little-endian
// u64 uncompressed size (or sentinel).
const lzmaAloneHeaderLen = 13

// lzmaProps is lc=3, lp=0, pb=2, the default properties byte the writer
// below always emits.
const lzmaProps = 0x5D

// lzmaDictCap is the default dictionary capacity the writer below uses
// (lzma.NewWriter's default, not set from this constant) and the value
// written into the header reconstructed on decode; the two must match
// because the decoder reads it straight out of the header.
const lzmaDictCap = 1 << 23

// compressLzma encodes data as a classic LZMA1 stream and strips its
// 13-byte header, the way compressBzip2 strips bzip2's magic: the header's
// fields are either fixed or carried separately in the archive frame, so
// storing them twice would be redundant.
func compressLzma(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("runefs: lzma encode: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("runefs: lzma encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("runefs: lzma encode: %w", err)
	}
	out := buf.Bytes()
	if len(out) < lzmaAloneHeaderLen {
		return nil, &ErrTruncatedFrame{Want: lzmaAloneHeaderLen, Got: len(out)}
	}
	return out[lzmaAloneHeaderLen:], nil
}

// decompressLzma reconstructs the classic LZMA1 header using the
// externally-known decompressed length (the on-disk stream never writes
// its own size) and decodes the stream.
func decompressLzma(compressed []byte, decompressedLen int) ([]byte, error) {
	header := make([]byte, lzmaAloneHeaderLen)
	header[0] = lzmaProps
	binary.LittleEndian.PutUint32(header[1:5], lzmaDictCap)
	binary.LittleEndian.PutUint64(header[5:13], uint64(decompressedLen))

	full := append(header, compressed...)
	r, err := lzma.NewReader(bytes.NewReader(full))
	if err != nil {
		return nil, fmt.Errorf("runefs: lzma decode: %w", err)
	}

	out := make([]byte, decompressedLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("runefs: lzma decode: %w", err)
	}
	return out, nil
}
