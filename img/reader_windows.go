//go:build windows

package img

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/aarsakian/FileRecovery/utils"
	"golang.org/x/sys/windows"
)

type DISK_GEOMETRY struct {
	Cylinders         int64
	MediaType         int32
	TracksPerCylinder int32
	SectorsPerTrack   int32
	BytesPerSector    int32
}

type WindowsReader struct {
	pathToDisk string
	fd         windows.Handle
}

func newDeviceReader(pathToDisk string) DiskReader {
	return &WindowsReader{pathToDisk: pathToDisk}
}

func (winreader *WindowsReader) CreateHandler() error {
	file_ptr, err := windows.UTF16PtrFromString(winreader.pathToDisk)
	if err != nil {
		return err
	}
	var templateHandle windows.Handle
	fd, err := windows.CreateFile(file_ptr, windows.FILE_READ_DATA,
		windows.FILE_SHARE_READ, nil,
		windows.OPEN_EXISTING, 0, templateHandle)
	if err != nil {
		if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
			return ErrAccessDenied
		}
		if errors.Is(err, windows.ERROR_FILE_NOT_FOUND) || errors.Is(err, windows.ERROR_PATH_NOT_FOUND) {
			return ErrNotFound
		}
		return err
	}
	winreader.fd = fd
	return nil
}

func (winreader *WindowsReader) CloseHandler() {
	windows.Close(winreader.fd)
}

func (winreader *WindowsReader) GetDiskSize() int64 {
	const IOCTL_DISK_GET_DRIVE_GEOMETRY = 0x70000
	const nByte_DISK_GEOMETRY = 24
	disk_geometry := DISK_GEOMETRY{}

	var junk uint32
	var inBuffer *byte
	err := windows.DeviceIoControl(winreader.fd, IOCTL_DISK_GET_DRIVE_GEOMETRY,
		inBuffer, 0, (*byte)(unsafe.Pointer(&disk_geometry)), nByte_DISK_GEOMETRY, &junk, nil)
	if err != nil {
		return 0
	}

	return disk_geometry.Cylinders * int64(disk_geometry.TracksPerCylinder) *
		int64(disk_geometry.SectorsPerTrack) * int64(disk_geometry.BytesPerSector)
}

func (winreader *WindowsReader) GetSectorSize() uint32 {
	const IOCTL_DISK_GET_DRIVE_GEOMETRY = 0x70000
	const nByte_DISK_GEOMETRY = 24
	disk_geometry := DISK_GEOMETRY{}

	var junk uint32
	var inBuffer *byte
	err := windows.DeviceIoControl(winreader.fd, IOCTL_DISK_GET_DRIVE_GEOMETRY,
		inBuffer, 0, (*byte)(unsafe.Pointer(&disk_geometry)), nByte_DISK_GEOMETRY, &junk, nil)
	if err != nil || disk_geometry.BytesPerSector == 0 {
		return 512
	}
	return uint32(disk_geometry.BytesPerSector)
}

// GetVolumeLabel asks the OS for the filesystem name of the volume,
// e.g. "NTFS", "FAT32" or "exFAT".
func (winreader *WindowsReader) GetVolumeLabel() string {
	root := strings.TrimPrefix(winreader.pathToDisk, `\\.\`)
	if !strings.HasSuffix(root, `\`) {
		root += `\`
	}
	root_ptr, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return "UNKNOWN"
	}

	var fsName [windows.MAX_PATH + 1]uint16
	err = windows.GetVolumeInformation(root_ptr, nil, 0, nil, nil, nil,
		&fsName[0], uint32(len(fsName)))
	if err != nil {
		return "UNKNOWN"
	}
	return windows.UTF16ToString(fsName[:])
}

func (winreader *WindowsReader) ReadFile(offset int64, length uint32) ([]byte, error) {
	buffer := make([]byte, length)

	largeInteger := utils.NewLargeInteger(offset)
	var bytesRead uint32

	newLowOffset, err := windows.SetFilePointer(winreader.fd, largeInteger.LowPart,
		&largeInteger.HighPart, windows.FILE_BEGIN)
	largeInteger.LowPart = int32(newLowOffset)
	if err != nil {
		return nil, fmt.Errorf("unable to seek to offset %d: %w", offset, err)
	}

	err = windows.ReadFile(winreader.fd, buffer, &bytesRead, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to read %d bytes at offset %d: %w", length, offset, err)
	}
	if bytesRead != length {
		return nil, fmt.Errorf("short read at offset %d: %d of %d bytes", offset, bytesRead, length)
	}
	return buffer, nil
}
