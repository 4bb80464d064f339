package NTFS

import (
	"fmt"
	"strings"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/utils"
)

type BootSector struct {
	OemName               string //3-10
	BytesPerSector        uint16 //11-12
	SectorsPerCluster     uint8  //13
	TotalSectors          uint64 //40-47
	MftStartCluster       uint64 //48-55
	MftMirrorCluster      uint64 //56-63
	ClustersPerMftRecord  int8   //64
	ClustersPerIndexBlock int8   //68
	SerialNumber          uint64 //72-79
}

func ParseBootSector(data []byte) (BootSector, error) {
	if len(data) < 80 {
		return BootSector{}, fmt.Errorf("%w: boot sector needs at least 80 bytes, got %d", FS.ErrParse, len(data))
	}

	r := utils.NewBinReader(data)
	bootSector := BootSector{
		OemName:               string(r.Read(3, 8)),
		BytesPerSector:        r.Uint16(11),
		SectorsPerCluster:     r.Byte(13),
		TotalSectors:          r.Uint64(40),
		MftStartCluster:       r.Uint64(48),
		MftMirrorCluster:      r.Uint64(56),
		ClustersPerMftRecord:  int8(r.Byte(64)),
		ClustersPerIndexBlock: int8(r.Byte(68)),
		SerialNumber:          r.Uint64(72),
	}

	if !strings.HasPrefix(bootSector.OemName, "NTFS") {
		return BootSector{}, fmt.Errorf("%w: not an NTFS volume", FS.ErrParse)
	}

	switch bootSector.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		return BootSector{}, fmt.Errorf("%w: invalid sector size %d", FS.ErrParse, bootSector.BytesPerSector)
	}

	if bootSector.SectorsPerCluster == 0 {
		return BootSector{}, fmt.Errorf("%w: zero sectors per cluster", FS.ErrParse)
	}

	return bootSector, nil
}

// MftRecordSize derives the file record length. A negative clusters
// value encodes the size as a power of two, independent of the cluster
// size.
func (bootSector BootSector) MftRecordSize() uint32 {
	if bootSector.ClustersPerMftRecord < 0 {
		return 1 << uint(-bootSector.ClustersPerMftRecord)
	}
	return uint32(bootSector.ClustersPerMftRecord) * uint32(bootSector.SectorsPerCluster) *
		uint32(bootSector.BytesPerSector)
}
