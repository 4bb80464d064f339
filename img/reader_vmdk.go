package img

import (
	"fmt"
	"path/filepath"

	extent "github.com/aarsakian/VMDK_Reader/extent"
)

type VMDKReader struct {
	PathToEvidenceFiles string
	fd                  extent.Extents
}

func (imgreader *VMDKReader) CreateHandler() error {
	imgreader.fd = extent.ProcessExtents(imgreader.PathToEvidenceFiles)
	return nil
}

func (imgreader *VMDKReader) CloseHandler() {

}

func (imgreader *VMDKReader) ReadFile(physicalOffset int64, length uint32) ([]byte, error) {
	data := imgreader.fd.RetrieveData(filepath.Dir(imgreader.PathToEvidenceFiles), physicalOffset, int64(length))
	if uint32(len(data)) < length {
		return nil, fmt.Errorf("short read at offset %d: %d of %d bytes", physicalOffset, len(data), length)
	}
	return data, nil
}

func (imgreader *VMDKReader) GetDiskSize() int64 {
	return imgreader.fd.GetHDSize()
}

func (imgreader *VMDKReader) GetSectorSize() uint32 {
	return 512
}

func (imgreader *VMDKReader) GetVolumeLabel() string {
	return "UNKNOWN"
}
