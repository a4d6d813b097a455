package runefs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmartUint32TwoByteForm(t *testing.T) {
	r := newSmartReader(bytes.NewReader([]byte{0x7F, 0xFF}))
	v, err := r.smartUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x7FFF), v)
}

func TestSmartUint32FourByteFormMasksTopBit(t *testing.T) {
	r := newSmartReader(bytes.NewReader([]byte{0x80, 0x00, 0x80, 0x00}))
	v, err := r.smartUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00008000), v)
}

func TestSmartUint32Truncated(t *testing.T) {
	r := newSmartReader(bytes.NewReader([]byte{0x80, 0x00}))
	_, err := r.smartUint32()
	require.Error(t, err)
	var malformed *ErrMalformedSmartInt
	require.ErrorAs(t, err, &malformed)
}

func TestSizedUint32ProtocolGate(t *testing.T) {
	r := newSmartReader(bytes.NewReader([]byte{0x00, 0x2A}))
	v, err := r.sizedUint32(6)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x002A), v)

	r2 := newSmartReader(bytes.NewReader([]byte{0x7F, 0xFF}))
	v2, err := r2.sizedUint32(7)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x7FFF), v2)
}
