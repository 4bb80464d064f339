package img

import (
	"fmt"

	ewfLib "github.com/aarsakian/EWF_Reader/ewf"

	"github.com/aarsakian/FileRecovery/utils"
)

type ImageReader struct {
	PathToEvidenceFiles string
	fd                  ewfLib.EWF_Image
}

func (imgreader *ImageReader) CreateHandler() error {
	filenames := utils.FindEvidenceFiles(imgreader.PathToEvidenceFiles)
	if len(filenames) == 0 {
		return ErrNotFound
	}

	var ewf_image ewfLib.EWF_Image
	ewf_image.ParseEvidence(filenames)
	imgreader.fd = ewf_image
	return nil
}

func (imgreader *ImageReader) CloseHandler() {

}

func (imgreader *ImageReader) ReadFile(physicalOffset int64, length uint32) ([]byte, error) {
	data := imgreader.fd.RetrieveData(physicalOffset, int64(length))
	if uint32(len(data)) < length {
		return nil, fmt.Errorf("short read at offset %d: %d of %d bytes", physicalOffset, len(data), length)
	}
	return data, nil
}

func (imgreader *ImageReader) GetDiskSize() int64 {
	return int64(imgreader.fd.Chuncksize) * int64(imgreader.fd.NofChunks)
}

func (imgreader *ImageReader) GetSectorSize() uint32 {
	return 512
}

func (imgreader *ImageReader) GetVolumeLabel() string {
	return "UNKNOWN"
}
