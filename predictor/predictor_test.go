package predictor_test

import (
	"testing"

	"github.com/aarsakian/FileRecovery/predictor"
	"github.com/stretchr/testify/assert"
)

func TestPredict(t *testing.T) {
	cases := []struct {
		name      string
		data      []byte
		extension string
		matched   bool
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}, "jpg", true},
		{"png", []byte{0x89, 0x50, 0x4e, 0x47}, "png", true},
		{"bmp short prefix", []byte{0x42, 0x4d, 0x36, 0x00}, "bmp", true},
		{"tif little endian", []byte{0x49, 0x49, 0x2a, 0x00}, "tif", true},
		{"tif big endian", []byte{0x4d, 0x4d, 0x00, 0x2a}, "tif", true},
		{"pdf", []byte{0x25, 0x50, 0x44, 0x46}, "pdf", true},
		{"zip", []byte{0x50, 0x4b, 0x03, 0x04}, "zip", true},
		{"wav riff", []byte{0x52, 0x49, 0x46, 0x46}, "wav", true},
		{"exe", []byte{0x4d, 0x5a, 0x90, 0x00}, "exe", true},
		{"elf", []byte{0x7f, 0x45, 0x4c, 0x46}, "elf", true},
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00}, "gz", true},
		{"unknown", []byte{0x00, 0x11, 0x22, 0x33}, "bin", false},
		{"empty sector", nil, "bin", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			extension, matched := predictor.Predict(tc.data)
			assert.Equal(t, tc.extension, extension)
			assert.Equal(t, tc.matched, matched)
		})
	}
}

func TestPredictIgnoresBytesBeyondSignature(t *testing.T) {
	sector := make([]byte, 512)
	copy(sector, []byte{0xff, 0xd8, 0xff, 0xe1, 0xde, 0xad})

	extension, matched := predictor.Predict(sector)
	assert.True(t, matched)
	assert.Equal(t, "jpg", extension)
}
