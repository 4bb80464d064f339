package exporter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aarsakian/FileRecovery/utils"
	"github.com/spf13/afero"
)

// Exporter owns every write target of a run. All output goes through
// the afero filesystem, keeping the source volume untouched and letting
// tests run memory backed.
type Exporter struct {
	Fs       afero.Fs
	Location string
	Hash     string
}

func (exp Exporter) Prepare() error {
	return exp.Fs.MkdirAll(exp.Location, 0750)
}

// ResolvePath returns a path under the output folder that does not
// collide with an existing file, suffixing _1, _2, ... before the
// extension until unique.
func (exp Exporter) ResolvePath(filename string) (string, error) {
	fullPath := filepath.Join(exp.Location, filename)
	exists, err := afero.Exists(exp.Fs, fullPath)
	if err != nil {
		return "", err
	}
	if !exists {
		return fullPath, nil
	}

	extension := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, extension)
	for n := 1; ; n++ {
		fullPath = filepath.Join(exp.Location, fmt.Sprintf("%s_%d%s", stem, n, extension))
		exists, err = afero.Exists(exp.Fs, fullPath)
		if err != nil {
			return "", err
		}
		if !exists {
			return fullPath, nil
		}
	}
}

// CreateFile opens an output file for sector streaming.
func (exp Exporter) CreateFile(fullPath string) (afero.File, error) {
	return exp.Fs.Create(fullPath)
}

func (exp Exporter) WriteFile(fullPath string, data []byte) error {
	return afero.WriteFile(exp.Fs, fullPath, data, 0640)
}

// HashFile digests an already emitted file with the configured hash.
func (exp Exporter) HashFile(fullPath string) (string, error) {
	if exp.Hash != "MD5" && exp.Hash != "SHA1" {
		return "", fmt.Errorf("only MD5 or SHA1 are supported, not %s", exp.Hash)
	}

	data, err := afero.ReadFile(exp.Fs, fullPath)
	if err != nil {
		return "", err
	}
	if exp.Hash == "MD5" {
		return utils.GetMD5(data), nil
	}
	return utils.GetSHA1(data), nil
}
