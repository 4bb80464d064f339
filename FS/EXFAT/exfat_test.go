package EXFAT_test

import (
	"encoding/binary"
	"io"
	"testing"
	"unicode/utf16"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/FS/EXFAT"
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

func (disk *fakeDisk) GetDiskSize() int64     { return int64(len(disk.data)) }
func (disk *fakeDisk) GetSectorSize() uint32  { return 512 }
func (disk *fakeDisk) GetVolumeLabel() string { return "EXFAT" }

// The test volume uses 512 byte sectors, one sector per cluster, the
// allocation table at sector 24 and the cluster heap at sector 40, so
// cluster n maps to sector 40+(n-2).
func buildVolume() []byte {
	image := make([]byte, 64*512)

	bootSector := image[0:512]
	copy(bootSector[3:], "EXFAT   ")
	binary.LittleEndian.PutUint64(bootSector[72:], 64)
	binary.LittleEndian.PutUint32(bootSector[80:], 24)
	binary.LittleEndian.PutUint32(bootSector[84:], 1)
	binary.LittleEndian.PutUint32(bootSector[88:], 40)
	binary.LittleEndian.PutUint32(bootSector[92:], 20)
	binary.LittleEndian.PutUint32(bootSector[96:], 2)
	bootSector[108] = 9
	bootSector[109] = 0
	bootSector[110] = 1

	fat := image[24*512 : 25*512]
	putFat := func(cluster uint32, value uint32) {
		binary.LittleEndian.PutUint32(fat[cluster*4:], value)
	}
	putFat(5, 6)
	putFat(6, 0xFFFFFFFF)
	putFat(12, 0xFFFFFFFF)
	putFat(15, 0xFFFFFFFF)

	rootDir := image[40*512 : 41*512]
	// deleted chained file
	copy(rootDir[0:], fileEntryRecord(0x05, 2, 0x20))
	copy(rootDir[32:], streamEntryRecord(0x40, 0x01, "report.pdf", 5, 2000))
	copy(rootDir[64:], nameEntryRecord(0x41, "report.pdf"))
	// deleted contiguous file
	copy(rootDir[96:], fileEntryRecord(0x05, 2, 0x20))
	copy(rootDir[128:], streamEntryRecord(0x40, 0x03, "photo.jpg", 8, 1024))
	copy(rootDir[160:], nameEntryRecord(0x41, "photo.jpg"))
	// live subdirectory
	copy(rootDir[192:], fileEntryRecord(0x85, 2, 0x10))
	copy(rootDir[224:], streamEntryRecord(0xC0, 0x01, "docs", 12, 512))
	copy(rootDir[256:], nameEntryRecord(0xC1, "docs"))

	subDir := image[50*512 : 51*512]
	copy(subDir[0:], fileEntryRecord(0x05, 2, 0x20))
	copy(subDir[32:], streamEntryRecord(0x40, 0x01, "old.txt", 15, 300))
	copy(subDir[64:], nameEntryRecord(0x41, "old.txt"))

	return image
}

func fileEntryRecord(typeByte byte, secondaryCount byte, attributes uint16) []byte {
	record := make([]byte, 32)
	record[0] = typeByte
	record[1] = secondaryCount
	binary.LittleEndian.PutUint16(record[4:], attributes)
	return record
}

func streamEntryRecord(typeByte byte, flags byte, name string, firstCluster uint32, dataLength uint64) []byte {
	record := make([]byte, 32)
	record[0] = typeByte
	record[1] = flags
	record[3] = byte(len(name))
	binary.LittleEndian.PutUint64(record[8:], dataLength)
	binary.LittleEndian.PutUint32(record[20:], firstCluster)
	binary.LittleEndian.PutUint64(record[24:], dataLength)
	return record
}

func nameEntryRecord(typeByte byte, name string) []byte {
	record := make([]byte, 32)
	record[0] = typeByte
	for i, unit := range utf16.Encode([]rune(name)) {
		binary.LittleEndian.PutUint16(record[2+i*2:], unit)
	}
	return record
}

func newEngine(t *testing.T) *EXFAT.EXFAT {
	reader := sectorreader.New(&fakeDisk{data: buildVolume()})
	engine := &EXFAT.EXFAT{}
	require.Nil(t, engine.Initialize(reader))
	return engine
}

func TestGeometry(t *testing.T) {
	engine := newEngine(t)

	assert.Equal(t, "EXFAT", engine.Signature())
	assert.Equal(t, uint32(512), engine.BytesPerSector())
	assert.Equal(t, uint32(1), engine.SectorsPerCluster())
	assert.Equal(t, uint64(512), engine.BytesPerCluster())
	assert.Equal(t, uint64(40), engine.ClusterToSector(2))
	assert.Equal(t, uint64(43), engine.ClusterToSector(5))
}

func TestNextClusterReadsTableRegion(t *testing.T) {
	engine := newEngine(t)

	assert.Equal(t, uint32(6), engine.NextCluster(5))
	assert.Equal(t, FS.EndOfChain, engine.NextCluster(6))
}

func TestIsValidCluster(t *testing.T) {
	engine := newEngine(t)

	assert.True(t, engine.IsValidCluster(2))
	assert.True(t, engine.IsValidCluster(21))
	assert.False(t, engine.IsValidCluster(0))
	assert.False(t, engine.IsValidCluster(22))
}

func TestIsClusterInUse(t *testing.T) {
	engine := newEngine(t)

	assert.True(t, engine.IsClusterInUse(5))
	assert.False(t, engine.IsClusterInUse(9))
}

func TestDiscoverDeleted(t *testing.T) {
	engine := newEngine(t)

	candidates, err := engine.DiscoverDeleted()
	require.Nil(t, err)
	require.Len(t, candidates, 3)

	report := candidates[0]
	assert.Equal(t, uint16(1), report.FileId)
	assert.Equal(t, "report.pdf", report.DisplayName)
	assert.Equal(t, uint64(2000), report.SizeBytes)
	assert.Equal(t, FS.FatChain{FirstCluster: 5}, report.Location)

	photo := candidates[1]
	assert.Equal(t, uint16(2), photo.FileId)
	assert.Equal(t, "photo.jpg", photo.DisplayName)
	assert.Equal(t, uint64(1024), photo.SizeBytes)
	assert.Equal(t, FS.ExfatContiguous{FirstCluster: 8, LengthClusters: 2}, photo.Location)

	old := candidates[2]
	assert.Equal(t, uint16(3), old.FileId)
	assert.Equal(t, "old.txt", old.DisplayName)
	assert.Equal(t, uint64(300), old.SizeBytes)
	assert.Equal(t, FS.FatChain{FirstCluster: 15}, old.Location)
}

func TestParseBootSectorRejectsWrongName(t *testing.T) {
	data := buildVolume()[0:512]
	copy(data[3:], "NTFS    ")
	_, err := EXFAT.ParseBootSector(data)
	assert.ErrorIs(t, err, FS.ErrParse)
}

func TestParseBootSectorRejectsBadShift(t *testing.T) {
	data := buildVolume()[0:512]
	data[108] = 7
	_, err := EXFAT.ParseBootSector(data)
	assert.ErrorIs(t, err, FS.ErrParse)
}

func TestNamePartStopsAtNul(t *testing.T) {
	record := nameEntryRecord(0xC1, "abc")
	assert.Equal(t, "abc", EXFAT.NamePart(record))
}
