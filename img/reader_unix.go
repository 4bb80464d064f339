//go:build !windows

package img

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

type UnixReader struct {
	pathToDisk string
	fd         int
}

func newDeviceReader(pathToDisk string) DiskReader {
	return &UnixReader{pathToDisk: pathToDisk}
}

func (unixreader *UnixReader) CreateHandler() error {
	fd, err := unix.Open(unixreader.pathToDisk, unix.O_RDONLY, 0)
	if err != nil {
		if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) {
			return ErrAccessDenied
		}
		if errors.Is(err, unix.ENOENT) {
			return ErrNotFound
		}
		return err
	}
	unixreader.fd = fd
	return nil
}

func (unixreader *UnixReader) ReadFile(offset int64, length uint32) ([]byte, error) {
	buffer := make([]byte, length)

	if _, err := unix.Seek(unixreader.fd, offset, unix.SEEK_SET); err != nil {
		return nil, fmt.Errorf("unable to seek to offset %d: %w", offset, err)
	}
	n, err := unix.Read(unixreader.fd, buffer)
	if err != nil {
		return nil, fmt.Errorf("unable to read %d bytes at offset %d: %w", length, offset, err)
	}
	if uint32(n) != length {
		return nil, fmt.Errorf("short read at offset %d: %d of %d bytes", offset, n, length)
	}
	return buffer, nil
}

func (unixreader *UnixReader) CloseHandler() {
	unix.Close(unixreader.fd)
}

func (unixreader *UnixReader) GetDiskSize() int64 {
	size, err := unix.Seek(unixreader.fd, 0, unix.SEEK_END)
	if err != nil {
		return 0
	}
	return size
}

func (unixreader *UnixReader) GetSectorSize() uint32 {
	return 512
}

// No portable filesystem label query exists here, the probe falls back to
// boot sector signatures.
func (unixreader *UnixReader) GetVolumeLabel() string {
	return "UNKNOWN"
}
