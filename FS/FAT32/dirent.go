package FAT32

import (
	"strings"

	"github.com/aarsakian/FileRecovery/utils"
)

const (
	DirEntrySize = 32

	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeId  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
	AttrLongName  = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeId

	EntryEndMarker     = 0x00
	EntryDeletedMarker = 0xE5
)

// DirectoryEntry is one 32 byte short-name record.
type DirectoryEntry struct {
	Name         []byte //0-10
	Attributes   uint8  //11
	FstClusterHi uint16 //20-21
	FstClusterLo uint16 //26-27
	FileSize     uint32 //28-31
}

func ParseDirectoryEntry(data []byte) DirectoryEntry {
	r := utils.NewBinReader(data)
	return DirectoryEntry{
		Name:         r.Read(0, 11),
		Attributes:   r.Byte(11),
		FstClusterHi: r.Uint16(20),
		FstClusterLo: r.Uint16(26),
		FileSize:     r.Uint32(28),
	}
}

func (entry DirectoryEntry) IsEndMarker() bool {
	return entry.Name[0] == EntryEndMarker
}

func (entry DirectoryEntry) IsDeleted() bool {
	return entry.Name[0] == EntryDeletedMarker
}

func (entry DirectoryEntry) IsLongName() bool {
	return entry.Attributes&AttrLongName == AttrLongName
}

func (entry DirectoryEntry) IsDirectory() bool {
	return entry.Attributes&AttrDirectory != 0
}

func (entry DirectoryEntry) IsVolumeLabel() bool {
	return entry.Attributes&AttrVolumeId != 0 && !entry.IsLongName()
}

func (entry DirectoryEntry) IsDotEntry() bool {
	return entry.Name[0] == '.'
}

func (entry DirectoryEntry) FirstCluster() uint32 {
	return uint32(entry.FstClusterHi)<<16 | uint32(entry.FstClusterLo)
}

// ShortFilename renders the 8.3 name with padding removed. For deleted
// entries the overwritten first character is rendered as '_'.
func (entry DirectoryEntry) ShortFilename() string {
	base := strings.TrimRight(string(entry.Name[0:8]), " ")
	ext := strings.TrimRight(string(entry.Name[8:11]), " ")

	if entry.IsDeleted() && len(base) > 0 {
		base = "_" + base[1:]
	}

	if ext == "" {
		return base
	}
	return base + "." + ext
}

// LongNamePart extracts the UTF-16 units of one long filename record.
// Units are stored in three discontiguous regions of the 32 byte entry.
// Padding units (0x0000, 0xFFFF) and control characters are dropped.
func LongNamePart(data []byte) string {
	r := utils.NewBinReader(data)

	var units []uint16
	for offset := 1; offset <= 9; offset += 2 { // Name1, 5 units
		units = append(units, r.Uint16(offset))
	}
	for offset := 14; offset <= 24; offset += 2 { // Name2, 6 units
		units = append(units, r.Uint16(offset))
	}
	for offset := 28; offset <= 30; offset += 2 { // Name3, 2 units
		units = append(units, r.Uint16(offset))
	}

	var part strings.Builder
	for _, unit := range units {
		if unit == 0x0000 || unit == 0xFFFF || unit < 32 {
			continue
		}
		part.WriteRune(rune(unit))
	}
	return part.String()
}
