package img

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrAccessDenied = errors.New("access denied, administrative privileges are required")
	ErrNotFound     = errors.New("drive path not found")
)

// DiskReader provides read-only random access to a volume, either a live
// block device or an evidence image. Implementations must never write to
// the underlying source.
type DiskReader interface {
	CreateHandler() error
	CloseHandler()
	ReadFile(offset int64, length uint32) ([]byte, error)
	GetDiskSize() int64
	GetSectorSize() uint32
	GetVolumeLabel() string
}

func GetHandler(pathToDisk string) (DiskReader, error) {
	dr := newDeviceReader(pathToDisk)
	if err := dr.CreateHandler(); err != nil {
		return nil, err
	}
	return dr, nil
}

func GetEvidenceHandler(pathToEvidence string) (DiskReader, error) {
	var dr DiskReader
	switch strings.ToLower(path.Ext(pathToEvidence)) {
	case ".e01":
		dr = &ImageReader{PathToEvidenceFiles: pathToEvidence}
	case ".vmdk":
		dr = &VMDKReader{PathToEvidenceFiles: pathToEvidence}
	default:
		return nil, fmt.Errorf("unsupported evidence format %s, only EWF (.e01) and VMDK sparse images are supported", path.Ext(pathToEvidence))
	}
	if err := dr.CreateHandler(); err != nil {
		return nil, err
	}
	return dr, nil
}
