package FAT32

import (
	"fmt"
	"strings"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/utils"
)

type BootSector struct {
	JmpBoot             []byte //0-2
	OemName             string //3-10
	BytesPerSector      uint16 //11-12
	SectorsPerCluster   uint8  //13
	ReservedSectorCount uint16 //14-15
	NumFats             uint8  //16
	RootEntryCount      uint16 //17-18
	TotalSectors16      uint16 //19-20
	FatSize16           uint16 //22-23
	TotalSectors32      uint32 //32-35
	FatSize32           uint32 //36-39
	RootCluster         uint32 //44-47
	FileSystemType      string //82-89
}

func ParseBootSector(data []byte) (BootSector, error) {
	if len(data) < 90 {
		return BootSector{}, fmt.Errorf("%w: boot sector needs at least 90 bytes, got %d", FS.ErrParse, len(data))
	}

	r := utils.NewBinReader(data)
	bootSector := BootSector{
		JmpBoot:             r.Read(0, 3),
		OemName:             string(r.Read(3, 8)),
		BytesPerSector:      r.Uint16(11),
		SectorsPerCluster:   r.Byte(13),
		ReservedSectorCount: r.Uint16(14),
		NumFats:             r.Byte(16),
		RootEntryCount:      r.Uint16(17),
		TotalSectors16:      r.Uint16(19),
		FatSize16:           r.Uint16(22),
		TotalSectors32:      r.Uint32(32),
		FatSize32:           r.Uint32(36),
		RootCluster:         r.Uint32(44),
		FileSystemType:      string(r.Read(82, 8)),
	}

	if !strings.HasPrefix(bootSector.FileSystemType, "FAT32") {
		return BootSector{}, fmt.Errorf("%w: not a FAT32 volume", FS.ErrParse)
	}

	switch bootSector.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		return BootSector{}, fmt.Errorf("%w: invalid sector size %d", FS.ErrParse, bootSector.BytesPerSector)
	}

	if bootSector.SectorsPerCluster == 0 || bootSector.SectorsPerCluster&(bootSector.SectorsPerCluster-1) != 0 {
		return BootSector{}, fmt.Errorf("%w: sectors per cluster %d is not a power of two", FS.ErrParse, bootSector.SectorsPerCluster)
	}

	return bootSector, nil
}

func (bootSector BootSector) TotalSectors() uint32 {
	if bootSector.TotalSectors32 != 0 {
		return bootSector.TotalSectors32
	}
	return uint32(bootSector.TotalSectors16)
}
