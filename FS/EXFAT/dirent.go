package EXFAT

import (
	"strings"

	"github.com/aarsakian/FileRecovery/utils"
)

const (
	DirEntrySize = 32

	EntryTypeEnd    = 0x00
	EntryTypeFile   = 0x05
	EntryTypeStream = 0x40
	EntryTypeName   = 0x41

	InUseBit = 0x80

	FileAttrDirectory = 0x0010

	StreamFlagNoFatChain = 0x02

	NameUnitsPerEntry = 15
)

// FileEntry is the primary record of an entry set.
type FileEntry struct {
	EntryType      uint8  //0
	SecondaryCount uint8  //1
	Attributes     uint16 //4-5
}

// StreamEntry is the stream extension carrying the content location.
type StreamEntry struct {
	EntryType       uint8  //0
	GeneralFlags    uint8  //1
	NameLength      uint8  //3
	ValidDataLength uint64 //8-15
	FirstCluster    uint32 //20-23
	DataLength      uint64 //24-31
}

func ParseFileEntry(data []byte) FileEntry {
	r := utils.NewBinReader(data)
	return FileEntry{
		EntryType:      r.Byte(0),
		SecondaryCount: r.Byte(1),
		Attributes:     r.Uint16(4),
	}
}

func ParseStreamEntry(data []byte) StreamEntry {
	r := utils.NewBinReader(data)
	return StreamEntry{
		EntryType:       r.Byte(0),
		GeneralFlags:    r.Byte(1),
		NameLength:      r.Byte(3),
		ValidDataLength: r.Uint64(8),
		FirstCluster:    r.Uint32(20),
		DataLength:      r.Uint64(24),
	}
}

func (entry FileEntry) IsDirectory() bool {
	return entry.Attributes&FileAttrDirectory != 0
}

func (entry StreamEntry) HasFatChain() bool {
	return entry.GeneralFlags&StreamFlagNoFatChain == 0
}

// EntryTypeCode strips the in-use bit, leaving the type code shared by
// live and deleted records.
func EntryTypeCode(typeByte uint8) uint8 {
	return typeByte & 0x7F
}

func IsInUse(typeByte uint8) bool {
	return typeByte&InUseBit != 0
}

// NamePart decodes the fifteen UTF-16 units of one name record,
// stopping at the first NUL.
func NamePart(data []byte) string {
	r := utils.NewBinReader(data)

	var part strings.Builder
	for i := 0; i < NameUnitsPerEntry; i++ {
		unit := r.Uint16(2 + i*2)
		if unit == 0x0000 {
			break
		}
		part.WriteRune(rune(unit))
	}
	return part.String()
}

// entrySet accumulates one file's records (file entry, stream extension,
// name entries) as the directory walk encounters them.
type entrySet struct {
	longFilename    string
	startingCluster uint32
	fileSize        uint64
	contiguous      bool
	inFileEntry     bool
	isDirectory     bool
	isDeleted       bool
}

func (set *entrySet) reset() {
	*set = entrySet{}
}
