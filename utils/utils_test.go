package utils_test

import (
	"testing"

	"github.com/aarsakian/FileRecovery/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinReader(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}
	r := utils.NewBinReader(data)

	assert.Equal(t, 9, r.Len())
	assert.Equal(t, byte(0x03), r.Byte(2))
	assert.Equal(t, uint16(0x0201), r.Uint16(0))
	assert.Equal(t, uint32(0x05040302), r.Uint32(1))
	assert.Equal(t, uint64(0x0807060504030201), r.Uint64(0))
	assert.Equal(t, []byte{0x04, 0x05}, r.Read(3, 2))
	assert.Equal(t, []byte{0x08, 0x09}, r.ReadFrom(7))
}

func TestDecodeUTF16(t *testing.T) {
	decoded, err := utils.DecodeUTF16([]byte{'a', 0x00, 'b', 0x00, 0xe9, 0x00})
	require.Nil(t, err)
	assert.Equal(t, "abé", decoded)
}

func TestStripNulls(t *testing.T) {
	assert.Equal(t, "name", utils.StripNulls("name\x00\x00"))
	assert.Equal(t, "name", utils.StripNulls("name"))
}

func TestHexify(t *testing.T) {
	assert.Equal(t, "ffd8ff", utils.Hexify([]byte{0xff, 0xd8, 0xff}))
}

func TestBytereverse(t *testing.T) {
	assert.Equal(t, []byte{3, 2, 1}, utils.Bytereverse([]byte{1, 2, 3}))
}

func TestGetEntries(t *testing.T) {
	assert.Equal(t, []string{"1", " 2", "3"}, utils.GetEntries("1, 2,3"))
}

func TestHashes(t *testing.T) {
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", utils.GetMD5([]byte("hello")))
	assert.Equal(t, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", utils.GetSHA1([]byte("hello")))
}
