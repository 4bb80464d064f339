package EXFAT

import (
	"fmt"
	"strings"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/utils"
)

type BootSector struct {
	FileSystemName        string //3-10
	PartitionOffset       uint64 //64-71
	VolumeLength          uint64 //72-79
	FatOffset             uint32 //80-83
	FatLength             uint32 //84-87
	ClusterHeapOffset     uint32 //88-91
	ClusterCount          uint32 //92-95
	RootDirectoryCluster  uint32 //96-99
	VolumeFlags           uint16 //106-107
	BytesPerSectorShift   uint8  //108
	SectorsPerClusterShift uint8 //109
	NumberOfFats          uint8  //110
}

func ParseBootSector(data []byte) (BootSector, error) {
	if len(data) < 112 {
		return BootSector{}, fmt.Errorf("%w: boot sector needs at least 112 bytes, got %d", FS.ErrParse, len(data))
	}

	r := utils.NewBinReader(data)
	bootSector := BootSector{
		FileSystemName:         string(r.Read(3, 8)),
		PartitionOffset:        r.Uint64(64),
		VolumeLength:           r.Uint64(72),
		FatOffset:              r.Uint32(80),
		FatLength:              r.Uint32(84),
		ClusterHeapOffset:      r.Uint32(88),
		ClusterCount:           r.Uint32(92),
		RootDirectoryCluster:   r.Uint32(96),
		VolumeFlags:            r.Uint16(106),
		BytesPerSectorShift:    r.Byte(108),
		SectorsPerClusterShift: r.Byte(109),
		NumberOfFats:           r.Byte(110),
	}

	if !strings.HasPrefix(bootSector.FileSystemName, "EXFAT") {
		return BootSector{}, fmt.Errorf("%w: not an exFAT volume", FS.ErrParse)
	}

	if bootSector.BytesPerSectorShift < 9 || bootSector.BytesPerSectorShift > 12 {
		return BootSector{}, fmt.Errorf("%w: bytes per sector shift %d out of range", FS.ErrParse, bootSector.BytesPerSectorShift)
	}

	if bootSector.BytesPerSectorShift+bootSector.SectorsPerClusterShift > 25 {
		return BootSector{}, fmt.Errorf("%w: cluster size shift %d exceeds 32MB limit", FS.ErrParse,
			bootSector.BytesPerSectorShift+bootSector.SectorsPerClusterShift)
	}

	if bootSector.RootDirectoryCluster < FS.MinDataCluster {
		return BootSector{}, fmt.Errorf("%w: root directory cluster %d", FS.ErrParse, bootSector.RootDirectoryCluster)
	}

	return bootSector, nil
}

func (bootSector BootSector) BytesPerSector() uint32 {
	return 1 << bootSector.BytesPerSectorShift
}

func (bootSector BootSector) SectorsPerCluster() uint32 {
	return 1 << bootSector.SectorsPerClusterShift
}
