package NTFS

import (
	"fmt"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/logger"
	"github.com/aarsakian/FileRecovery/utils"
)

const (
	RecordSignature = "FILE"

	RecordFlagInUse     = 0x0001
	RecordFlagDirectory = 0x0002

	AttrTypeFileName = 0x30
	AttrTypeData     = 0x80
	AttrTypeEnd      = 0xFFFFFFFF

	NamespaceDos = 2
)

// Record is the header of one master file table entry.
type Record struct {
	Signature  string //0-3
	UsaOffset  uint16 //4-5
	UsaSize    uint16 //6-7
	Sequence   uint16 //16-17
	AttrOffset uint16 //20-21
	Flags      uint16 //22-23
	UsedSize   uint32 //24-27
	EntryIndex uint32 //44-47
}

func ParseRecordHeader(data []byte) (Record, error) {
	if len(data) < 48 {
		return Record{}, fmt.Errorf("%w: record header needs 48 bytes, got %d", FS.ErrParse, len(data))
	}

	r := utils.NewBinReader(data)
	record := Record{
		Signature:  string(r.Read(0, 4)),
		UsaOffset:  r.Uint16(4),
		UsaSize:    r.Uint16(6),
		Sequence:   r.Uint16(16),
		AttrOffset: r.Uint16(20),
		Flags:      r.Uint16(22),
		UsedSize:   r.Uint32(24),
		EntryIndex: r.Uint32(44),
	}

	if record.Signature != RecordSignature {
		return Record{}, fmt.Errorf("%w: record signature %q", FS.ErrParse, record.Signature)
	}
	return record, nil
}

func (record Record) IsDeleted() bool {
	return record.Flags&RecordFlagInUse == 0
}

func (record Record) IsDirectory() bool {
	return record.Flags&RecordFlagDirectory != 0
}

// ApplyFixups restores the last two bytes of each sector stride from
// the update sequence array. The stored check value must match in every
// stride, otherwise the record is torn and cannot be trusted.
func ApplyFixups(data []byte, record Record, bytesPerSector uint32) error {
	if record.UsaSize < 2 {
		return nil
	}

	usaEnd := int(record.UsaOffset) + int(record.UsaSize)*2
	if usaEnd > len(data) {
		return fmt.Errorf("%w: update sequence array exceeds record", FS.ErrParse)
	}
	checkValue := data[record.UsaOffset : record.UsaOffset+2]

	for i := 1; i < int(record.UsaSize); i++ {
		strideEnd := i * int(bytesPerSector)
		if strideEnd > len(data) {
			break
		}
		if data[strideEnd-2] != checkValue[0] || data[strideEnd-1] != checkValue[1] {
			return fmt.Errorf("%w: update sequence mismatch at stride %d", FS.ErrParse, i)
		}
		copy(data[strideEnd-2:strideEnd], data[int(record.UsaOffset)+i*2:int(record.UsaOffset)+i*2+2])
	}
	return nil
}

// FilenameAttribute is the decoded content of a resident $FILE_NAME.
type FilenameAttribute struct {
	ParentRef     uint64
	AllocatedSize uint64
	RealSize      uint64
	Flags         uint32
	Namespace     uint8
	Name          string
}

// DataAttribute locates a record's $DATA content, either inline or as
// a run list.
type DataAttribute struct {
	Resident bool
	Content  []byte
	Runs     []FS.DataRun
	RealSize uint64
}

func parseFilenameAttribute(content []byte) (FilenameAttribute, error) {
	if len(content) < 66 {
		return FilenameAttribute{}, fmt.Errorf("%w: filename attribute needs 66 bytes, got %d", FS.ErrParse, len(content))
	}

	r := utils.NewBinReader(content)
	attribute := FilenameAttribute{
		ParentRef:     r.Uint64(0),
		AllocatedSize: r.Uint64(40),
		RealSize:      r.Uint64(48),
		Flags:         r.Uint32(56),
		Namespace:     r.Byte(65),
	}

	nameLength := int(r.Byte(64))
	nameEnd := 66 + nameLength*2
	if nameEnd > len(content) {
		return FilenameAttribute{}, fmt.Errorf("%w: filename overruns attribute", FS.ErrParse)
	}

	name, err := utils.DecodeUTF16(content[66:nameEnd])
	if err != nil {
		return FilenameAttribute{}, fmt.Errorf("%w: filename not decodable: %v", FS.ErrParse, err)
	}
	attribute.Name = name
	return attribute, nil
}

// ParseAttributes walks the attribute list of a fixed-up record,
// returning the preferred filename (long namespaces win over DOS) and
// the unnamed $DATA attribute.
func ParseAttributes(data []byte, record Record) (*FilenameAttribute, *DataAttribute) {
	var filename *FilenameAttribute
	var dataAttr *DataAttribute

	offset := int(record.AttrOffset)
	for offset+16 <= len(data) {
		r := utils.NewBinReader(data[offset:])
		attrType := r.Uint32(0)
		if attrType == AttrTypeEnd {
			break
		}

		attrLength := int(r.Uint32(4))
		if attrLength <= 0 || offset+attrLength > len(data) {
			break
		}

		nonResident := r.Byte(8) != 0
		nameLength := r.Byte(9)

		switch attrType {
		case AttrTypeFileName:
			contentLength := int(r.Uint32(16))
			contentOffset := int(r.Uint16(20))
			if offset+contentOffset+contentLength > len(data) {
				break
			}
			attribute, err := parseFilenameAttribute(data[offset+contentOffset : offset+contentOffset+contentLength])
			if err != nil {
				logger.FileRecoveryLogger.Error(err)
				break
			}
			if filename == nil || (filename.Namespace == NamespaceDos && attribute.Namespace != NamespaceDos) {
				filename = &attribute
			}

		case AttrTypeData:
			if nameLength != 0 {
				break // alternate stream
			}
			if nonResident {
				runOffset := int(r.Uint16(32))
				realSize := r.Uint64(48)
				if offset+runOffset > len(data) {
					break
				}
				dataAttr = &DataAttribute{
					Runs:     ParseRunList(data[offset+runOffset : offset+attrLength]),
					RealSize: realSize,
				}
			} else {
				contentLength := int(r.Uint32(16))
				contentOffset := int(r.Uint16(20))
				if offset+contentOffset+contentLength > len(data) {
					break
				}
				content := make([]byte, contentLength)
				copy(content, data[offset+contentOffset:offset+contentOffset+contentLength])
				dataAttr = &DataAttribute{
					Resident: true,
					Content:  content,
					RealSize: uint64(contentLength),
				}
			}
		}

		offset += attrLength
	}

	return filename, dataAttr
}

// ParseRunList decodes the variable-length run pairs of a non resident
// attribute. Offsets are signed deltas against the previous run's
// cluster. Sparse runs carry no offset and hold no recoverable content,
// so they are skipped.
func ParseRunList(data []byte) []FS.DataRun {
	var runs []FS.DataRun
	currentLcn := int64(0)

	i := 0
	for i < len(data) {
		header := data[i]
		if header == 0 {
			break
		}
		lengthSize := int(header & 0x0F)
		offsetSize := int(header >> 4)
		if i+1+lengthSize+offsetSize > len(data) {
			break
		}

		runLength := uint64(0)
		for j := 0; j < lengthSize; j++ {
			runLength |= uint64(data[i+1+j]) << (8 * j)
		}

		runOffset := int64(0)
		for j := 0; j < offsetSize; j++ {
			runOffset |= int64(data[i+1+lengthSize+j]) << (8 * j)
		}
		if offsetSize > 0 && data[i+1+lengthSize+offsetSize-1]&0x80 != 0 {
			runOffset |= ^((int64(1) << uint(offsetSize*8)) - 1)
		}

		if offsetSize > 0 {
			currentLcn += runOffset
			if currentLcn >= 0 && runLength > 0 {
				runs = append(runs, FS.DataRun{FirstLcn: uint64(currentLcn), LengthClusters: runLength})
			}
		}

		i += 1 + lengthSize + offsetSize
	}
	return runs
}
