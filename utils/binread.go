package utils

import "encoding/binary"

// BinReader reads little-endian integers out of a byte slice at explicit
// offsets, the layout style used by on-disk filesystem structures.
type BinReader struct {
	data []byte
}

func NewBinReader(data []byte) BinReader {
	return BinReader{data: data}
}

func (r BinReader) Len() int {
	return len(r.data)
}

func (r BinReader) Read(offset, length int) []byte {
	return r.data[offset : offset+length]
}

func (r BinReader) ReadFrom(offset int) []byte {
	return r.data[offset:]
}

func (r BinReader) Byte(offset int) byte {
	return r.data[offset]
}

func (r BinReader) Uint16(offset int) uint16 {
	return binary.LittleEndian.Uint16(r.Read(offset, 2))
}

func (r BinReader) Uint32(offset int) uint32 {
	return binary.LittleEndian.Uint32(r.Read(offset, 4))
}

func (r BinReader) Uint64(offset int) uint64 {
	return binary.LittleEndian.Uint64(r.Read(offset, 8))
}
