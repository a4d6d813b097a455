package runefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXTEARoundTrip(t *testing.T) {
	key := XTEAKeys{0x01020304, 0x05060708, 0x090A0B0C, 0x0D0E0F10}
	original := []byte("sixteen byte msg")
	data := append([]byte(nil), original...)

	Encipher(data, key)
	assert.NotEqual(t, original, data)

	Decipher(data, key)
	assert.Equal(t, original, data)
}

func TestXTEALeavesTrailingBytesUntouched(t *testing.T) {
	key := XTEAKeys{1, 2, 3, 4}
	data := []byte("12345678tail")
	tailBefore := append([]byte(nil), data[8:]...)

	Encipher(data, key)
	require.Equal(t, tailBefore, data[8:])
}
