package probe

import (
	"fmt"
	"strings"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/FS/EXFAT"
	"github.com/aarsakian/FileRecovery/FS/FAT32"
	"github.com/aarsakian/FileRecovery/FS/NTFS"
	"github.com/aarsakian/FileRecovery/logger"
	"github.com/aarsakian/FileRecovery/sectorreader"
)

var ErrUnsupported = fmt.Errorf("%w: unsupported filesystem", FS.ErrParse)

type engine interface {
	FS.FileSystem
	Initialize(reader *sectorreader.SectorReader) error
}

// Detect picks the engine for the volume behind the reader. The label
// reported by the operating system is tried first, falling back to the
// boot sector signatures when the label gives nothing usable.
func Detect(reader *sectorreader.SectorReader) (FS.FileSystem, error) {
	label := strings.ToUpper(reader.FilesystemLabel())

	if candidate := engineForLabel(label); candidate != nil {
		if err := candidate.Initialize(reader); err == nil {
			return candidate, nil
		}
		logger.FileRecoveryLogger.Warning(fmt.Sprintf("label %q did not match on-disk structures, probing signatures", label))
	}

	data, err := reader.ReadSector(0, reader.BytesPerSector())
	if err != nil {
		return nil, err
	}

	candidate := engineForSignature(data)
	if candidate == nil {
		return nil, ErrUnsupported
	}

	if err := candidate.Initialize(reader); err != nil {
		return nil, err
	}
	return candidate, nil
}

func engineForLabel(label string) engine {
	switch {
	case strings.Contains(label, "FAT32"):
		return &FAT32.FAT32{}
	case strings.Contains(label, "EXFAT"):
		return &EXFAT.EXFAT{}
	case strings.Contains(label, "NTFS"):
		return &NTFS.NTFS{}
	}
	return nil
}

func engineForSignature(data []byte) engine {
	if len(data) < 90 {
		return nil
	}
	switch {
	case strings.HasPrefix(string(data[3:11]), "EXFAT"):
		return &EXFAT.EXFAT{}
	case strings.HasPrefix(string(data[3:11]), "NTFS"):
		return &NTFS.NTFS{}
	case strings.HasPrefix(string(data[82:90]), "FAT32"):
		return &FAT32.FAT32{}
	}
	return nil
}
