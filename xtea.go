package runefs

import (
	"encoding/binary"

	xcrypto "golang.org/x/crypto/xtea"
)

// XTEAKeys is the 128-bit XTEA key as four 32-bit words, matching the
// cache's key format.
type XTEAKeys [4]uint32

func (k XTEAKeys) bytes() []byte {
	b := make([]byte, 16)
	for i, word := range k {
		binary.BigEndian.PutUint32(b[i*4:], word)
	}
	return b
}

// Encipher XTEA-enciphers data in place, 8 bytes at a time, big-endian
// block layout. Trailing bytes that don't fill a full 8-byte block are
// left untouched.
func Encipher(data []byte, key XTEAKeys) {
	block, err := xcrypto.NewCipher(key.bytes())
	if err != nil {
		// NewCipher only fails on a bad key length, which bytes() never
		// produces.
		panic(err)
	}
	for len(data) >= block.BlockSize() {
		block.Encrypt(data, data)
		data = data[block.BlockSize():]
	}
}

// Decipher XTEA-deciphers data in place, the inverse of Encipher.
func Decipher(data []byte, key XTEAKeys) {
	block, err := xcrypto.NewCipher(key.bytes())
	if err != nil {
		panic(err)
	}
	for len(data) >= block.BlockSize() {
		block.Decrypt(data, data)
		data = data[block.BlockSize():]
	}
}
