package runefs

import (
	"io"

	"github.com/icza/bitio"
)

// smartReader wraps a byte-oriented reader with the cache's variable-width
// smart-integer encoding and the big-endian fixed-width reads the metadata
// format needs.
type smartReader struct {
	r *bitio.Reader
}

func newSmartReader(r io.Reader) *smartReader {
	return &smartReader{r: bitio.NewReader(r)}
}

func (s *smartReader) byte() (uint8, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, err
	}
	return b, nil
}

func (s *smartReader) uint16() (uint16, error) {
	hi, err := s.byte()
	if err != nil {
		return 0, err
	}
	lo, err := s.byte()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (s *smartReader) uint32() (uint32, error) {
	b0, err := s.byte()
	if err != nil {
		return 0, err
	}
	b1, err := s.byte()
	if err != nil {
		return 0, err
	}
	b2, err := s.byte()
	if err != nil {
		return 0, err
	}
	b3, err := s.byte()
	if err != nil {
		return 0, err
	}
	return uint32(b0)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3), nil
}

func (s *smartReader) int16() (int16, error) {
	v, err := s.uint16()
	return int16(v), err
}

// smartUint32 reads a u32_smart value: peek the leading byte, if its top
// bit is clear the value is a plain 16-bit big-endian integer (the peeked
// byte is its high byte); otherwise read a full 32-bit big-endian integer
// and mask off the top bit. This lets small values round-trip in 2 bytes.
func (s *smartReader) smartUint32() (uint32, error) {
	first, err := s.byte()
	if err != nil {
		return 0, &ErrMalformedSmartInt{}
	}
	if first&0x80 == 0 {
		lo, err := s.byte()
		if err != nil {
			return 0, &ErrMalformedSmartInt{}
		}
		return uint32(first)<<8 | uint32(lo), nil
	}

	b1, err := s.byte()
	if err != nil {
		return 0, &ErrMalformedSmartInt{}
	}
	b2, err := s.byte()
	if err != nil {
		return 0, &ErrMalformedSmartInt{}
	}
	b3, err := s.byte()
	if err != nil {
		return 0, &ErrMalformedSmartInt{}
	}
	full := uint32(first)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3)
	return full &^ 0x80000000, nil
}

// sizedUint32 reads either a u32_smart (protocol >= 7) or a plain u16
// (earlier protocols), widening the latter to uint32.
func (s *smartReader) sizedUint32(protocol uint8) (uint32, error) {
	if protocol >= 7 {
		return s.smartUint32()
	}
	v, err := s.uint16()
	return uint32(v), err
}
