package sectorreader

import (
	"errors"
	"fmt"

	"github.com/aarsakian/FileRecovery/img"
	"github.com/aarsakian/FileRecovery/logger"
)

var ErrClosed = errors.New("sector reader is closed")

// SectorReader exposes fixed-size sector access on top of a DiskReader.
// Transient read failures are retried once before the error is surfaced.
type SectorReader struct {
	handler         img.DiskReader
	bytesPerSector  uint32
	totalMftRecords uint64
	open            bool
}

func New(handler img.DiskReader) *SectorReader {
	bytesPerSector := handler.GetSectorSize()
	if bytesPerSector == 0 {
		bytesPerSector = 512
	}
	return &SectorReader{handler: handler, bytesPerSector: bytesPerSector, open: true}
}

func (sr *SectorReader) ReadSector(sector uint64, size uint32) ([]byte, error) {
	if !sr.open {
		return nil, ErrClosed
	}
	offset := int64(sector) * int64(size)
	data, err := sr.handler.ReadFile(offset, size)
	if err != nil {
		logger.FileRecoveryLogger.Warning(fmt.Sprintf("retrying sector %d: %v", sector, err))
		data, err = sr.handler.ReadFile(offset, size)
	}
	if err != nil {
		return nil, fmt.Errorf("sector %d unreadable: %w", sector, err)
	}
	return data, nil
}

func (sr *SectorReader) BytesPerSector() uint32 {
	return sr.bytesPerSector
}

func (sr *SectorReader) FilesystemLabel() string {
	return sr.handler.GetVolumeLabel()
}

func (sr *SectorReader) DiskSize() int64 {
	return sr.handler.GetDiskSize()
}

// TotalMftRecords returns the record count of the volume's master file
// table, populated by the NTFS engine once the table size is known.
// Zero means not yet determined.
func (sr *SectorReader) TotalMftRecords() uint64 {
	return sr.totalMftRecords
}

func (sr *SectorReader) SetTotalMftRecords(count uint64) {
	sr.totalMftRecords = count
}

func (sr *SectorReader) IsOpen() bool {
	return sr.open
}

func (sr *SectorReader) Reopen() error {
	if sr.open {
		return nil
	}
	if err := sr.handler.CreateHandler(); err != nil {
		return err
	}
	sr.open = true
	return nil
}

func (sr *SectorReader) Close() {
	if sr.open {
		sr.handler.CloseHandler()
		sr.open = false
	}
}
