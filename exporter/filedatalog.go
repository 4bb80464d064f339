package exporter

import (
	"fmt"
	"path/filepath"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/spf13/afero"
)

const fileDataLogHeader = "Filename,Cluster,Filesize,isExtensionPredicted\n"

// FileDataLog is the per-candidate CSV record of a scan.
type FileDataLog struct {
	file afero.File
}

func CreateFileDataLog(fs afero.Fs, logFolder string, logFile string) (*FileDataLog, error) {
	if err := fs.MkdirAll(logFolder, 0750); err != nil {
		return nil, err
	}

	file, err := fs.Create(filepath.Join(logFolder, logFile))
	if err != nil {
		return nil, err
	}
	if _, err := file.WriteString(fileDataLogHeader); err != nil {
		file.Close()
		return nil, err
	}
	return &FileDataLog{file: file}, nil
}

func (log *FileDataLog) WriteEntry(candidate FS.CandidateFile) error {
	_, err := fmt.Fprintf(log.file, "%s,%d,%d,%t\n",
		candidate.DisplayName, FS.StartCluster(candidate.Location),
		candidate.SizeBytes, candidate.ExtensionWasPredicted)
	return err
}

func (log *FileDataLog) Close() error {
	return log.file.Close()
}
