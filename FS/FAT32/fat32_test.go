package FAT32_test

import (
	"encoding/binary"
	"io"
	"testing"
	"unicode/utf16"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/FS/FAT32"
	"github.com/aarsakian/FileRecovery/sectorreader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisk struct {
	data []byte
}

func (disk *fakeDisk) CreateHandler() error { return nil }
func (disk *fakeDisk) CloseHandler()        {}

func (disk *fakeDisk) ReadFile(offset int64, length uint32) ([]byte, error) {
	end := offset + int64(length)
	if offset < 0 || end > int64(len(disk.data)) {
		return nil, io.ErrUnexpectedEOF
	}
	return disk.data[offset:end], nil
}

func (disk *fakeDisk) GetDiskSize() int64    { return int64(len(disk.data)) }
func (disk *fakeDisk) GetSectorSize() uint32 { return 512 }
func (disk *fakeDisk) GetVolumeLabel() string {
	return "FAT32"
}

// The test volume uses 512 byte sectors, one sector per cluster, 32
// reserved sectors and two single sector allocation tables, placing
// the data region at sector 34. Cluster n maps to sector 34+(n-2).
func buildVolume() []byte {
	image := make([]byte, 64*512)

	bootSector := image[0:512]
	copy(bootSector[3:], "MSDOS5.0")
	binary.LittleEndian.PutUint16(bootSector[11:], 512)
	bootSector[13] = 1
	binary.LittleEndian.PutUint16(bootSector[14:], 32)
	bootSector[16] = 2
	binary.LittleEndian.PutUint32(bootSector[32:], 64)
	binary.LittleEndian.PutUint32(bootSector[36:], 1)
	binary.LittleEndian.PutUint32(bootSector[44:], 2)
	copy(bootSector[82:], "FAT32   ")

	fat := image[32*512 : 33*512]
	putFat := func(cluster uint32, value uint32) {
		binary.LittleEndian.PutUint32(fat[cluster*4:], value)
	}
	putFat(0, 0x0FFFFFF8)
	putFat(1, 0xFFFFFFFF)
	putFat(2, 0x0FFFFFFF)  // root directory
	putFat(3, 0x0FFFFFFF)  // subdirectory
	putFat(10, 11)         // notes.txt chain
	putFat(11, 12)
	putFat(12, 0x0FFFFFFF)
	putFat(20, 0x0FFFFFFF) // extensionless file
	putFat(25, 0x0FFFFFFF) // deleted subdirectory content

	rootDir := image[34*512 : 35*512]
	copy(rootDir[0:], longNameEntry(0x41, "notes.txt"))
	copy(rootDir[32:], shortEntry("\xe5OTES   TXT", 0x20, 10, 1500))
	copy(rootDir[64:], shortEntry("\xe5MAGE      ", 0x20, 20, 100))
	copy(rootDir[96:], shortEntry("SUBDIR     ", 0x10, 3, 0))

	subDir := image[35*512 : 36*512]
	copy(subDir[0:], shortEntry(".          ", 0x10, 3, 0))
	copy(subDir[32:], shortEntry("..         ", 0x10, 0, 0))
	copy(subDir[64:], shortEntry("\xe5LD     DAT", 0x20, 25, 200))

	// cluster 20 holds JPEG content, so the signature scan should
	// resolve the missing extension
	copy(image[52*512:], []byte{0xff, 0xd8, 0xff, 0xe0})

	return image
}

func shortEntry(name string, attributes byte, cluster uint32, size uint32) []byte {
	entry := make([]byte, 32)
	copy(entry[0:11], name)
	entry[11] = attributes
	binary.LittleEndian.PutUint16(entry[20:], uint16(cluster>>16))
	binary.LittleEndian.PutUint16(entry[26:], uint16(cluster&0xFFFF))
	binary.LittleEndian.PutUint32(entry[28:], size)
	return entry
}

func longNameEntry(sequence byte, name string) []byte {
	entry := make([]byte, 32)
	entry[0] = sequence
	entry[11] = 0x0F

	units := utf16.Encode([]rune(name))
	for len(units) < 13 {
		if len(units) == len(name) {
			units = append(units, 0x0000)
			continue
		}
		units = append(units, 0xFFFF)
	}

	offsets := []int{1, 3, 5, 7, 9, 14, 16, 18, 20, 22, 24, 28, 30}
	for i, offset := range offsets {
		binary.LittleEndian.PutUint16(entry[offset:], units[i])
	}
	return entry
}

func newEngine(t *testing.T) *FAT32.FAT32 {
	reader := sectorreader.New(&fakeDisk{data: buildVolume()})
	engine := &FAT32.FAT32{}
	require.Nil(t, engine.Initialize(reader))
	return engine
}

func TestGeometry(t *testing.T) {
	engine := newEngine(t)

	assert.Equal(t, "FAT32", engine.Signature())
	assert.Equal(t, uint32(512), engine.BytesPerSector())
	assert.Equal(t, uint32(1), engine.SectorsPerCluster())
	assert.Equal(t, uint64(512), engine.BytesPerCluster())
	assert.Equal(t, uint64(34), engine.ClusterToSector(2))
	assert.Equal(t, uint64(42), engine.ClusterToSector(10))
}

func TestNextClusterFollowsChain(t *testing.T) {
	engine := newEngine(t)

	assert.Equal(t, uint32(11), engine.NextCluster(10))
	assert.Equal(t, uint32(12), engine.NextCluster(11))
	assert.Equal(t, FS.EndOfChain, engine.NextCluster(12))
}

func TestIsClusterInUse(t *testing.T) {
	engine := newEngine(t)

	assert.True(t, engine.IsClusterInUse(10))
	assert.False(t, engine.IsClusterInUse(40))
}

func TestIsValidCluster(t *testing.T) {
	engine := newEngine(t)

	assert.True(t, engine.IsValidCluster(2))
	assert.True(t, engine.IsValidCluster(10))
	assert.False(t, engine.IsValidCluster(0))
	assert.False(t, engine.IsValidCluster(1))
	assert.False(t, engine.IsValidCluster(FS.BadClusterFat32))
	assert.False(t, engine.IsValidCluster(FS.EndOfChain))
}

func TestDiscoverDeleted(t *testing.T) {
	engine := newEngine(t)

	candidates, err := engine.DiscoverDeleted()
	require.Nil(t, err)
	require.Len(t, candidates, 3)

	notes := candidates[0]
	assert.Equal(t, uint16(1), notes.FileId)
	assert.Equal(t, "notes.txt", notes.DisplayName)
	assert.Equal(t, uint64(1500), notes.SizeBytes)
	assert.False(t, notes.ExtensionWasPredicted)
	assert.Equal(t, FS.FatChain{FirstCluster: 10}, notes.Location)

	image := candidates[1]
	assert.Equal(t, uint16(2), image.FileId)
	assert.Equal(t, "_MAGE.jpg", image.DisplayName)
	assert.Equal(t, uint64(100), image.SizeBytes)
	assert.True(t, image.ExtensionWasPredicted)
	assert.Equal(t, FS.FatChain{FirstCluster: 20}, image.Location)

	old := candidates[2]
	assert.Equal(t, uint16(3), old.FileId)
	assert.Equal(t, "_LD.DAT", old.DisplayName)
	assert.Equal(t, uint64(200), old.SizeBytes)
	assert.False(t, old.ExtensionWasPredicted)
	assert.Equal(t, FS.FatChain{FirstCluster: 25}, old.Location)
}

func TestShortFilenameRendering(t *testing.T) {
	entry := FAT32.ParseDirectoryEntry(shortEntry("\xe5EPORT  DOC", 0x20, 5, 10))
	assert.Equal(t, "_EPORT.DOC", entry.ShortFilename())

	entry = FAT32.ParseDirectoryEntry(shortEntry("README     ", 0x20, 5, 10))
	assert.Equal(t, "README", entry.ShortFilename())
}

func TestLongNamePartReassembly(t *testing.T) {
	part := FAT32.LongNamePart(longNameEntry(0x41, "vacation.jpg"))
	assert.Equal(t, "vacation.jpg", part)
}
