package FAT32

import (
	"fmt"
	"strings"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/logger"
	"github.com/aarsakian/FileRecovery/predictor"
	"github.com/aarsakian/FileRecovery/sectorreader"
)

const MaxRecursionDepth = 100

// FAT32 is the recovery engine for FAT32 formatted volumes. Geometry is
// derived once from the boot sector at Initialize time.
type FAT32 struct {
	reader          *sectorreader.SectorReader
	bootSector      BootSector
	fatStartSector  uint64
	dataStartSector uint64
	rootDirCluster  uint32
	maxClusterCount uint32
	nextFileId      uint16
}

func (fat32 *FAT32) Initialize(reader *sectorreader.SectorReader) error {
	fat32.reader = reader

	data, err := reader.ReadSector(0, reader.BytesPerSector())
	if err != nil {
		return err
	}

	bootSector, err := ParseBootSector(data)
	if err != nil {
		return err
	}
	fat32.bootSector = bootSector

	fatSize := uint64(bootSector.FatSize32)
	if fatSize == 0 {
		fatSize = uint64(bootSector.FatSize16)
	}

	fat32.fatStartSector = uint64(bootSector.ReservedSectorCount)
	fat32.dataStartSector = fat32.fatStartSector + uint64(bootSector.NumFats)*fatSize
	fat32.rootDirCluster = bootSector.RootCluster

	rootDirSectors := (uint64(bootSector.RootEntryCount)*32 + uint64(bootSector.BytesPerSector) - 1) /
		uint64(bootSector.BytesPerSector)
	dataSectors := uint64(bootSector.TotalSectors()) - fat32.dataStartSector - rootDirSectors
	fat32.maxClusterCount = uint32(dataSectors / uint64(bootSector.SectorsPerCluster))

	logger.FileRecoveryLogger.Info(fmt.Sprintf("FAT32 volume: %d bytes/sector, %d sectors/cluster, data at sector %d, %d clusters",
		bootSector.BytesPerSector, bootSector.SectorsPerCluster, fat32.dataStartSector, fat32.maxClusterCount))

	return nil
}

func (fat32 FAT32) Signature() string {
	return "FAT32"
}

func (fat32 FAT32) BytesPerSector() uint32 {
	return uint32(fat32.bootSector.BytesPerSector)
}

func (fat32 FAT32) SectorsPerCluster() uint32 {
	return uint32(fat32.bootSector.SectorsPerCluster)
}

func (fat32 FAT32) BytesPerCluster() uint64 {
	return uint64(fat32.bootSector.BytesPerSector) * uint64(fat32.bootSector.SectorsPerCluster)
}

func (fat32 FAT32) ClusterToSector(cluster uint64) uint64 {
	return fat32.dataStartSector + (cluster-FS.MinDataCluster)*uint64(fat32.bootSector.SectorsPerCluster)
}

// NextCluster reads the allocation table entry for the cluster. The top
// four bits of each entry are reserved and masked off. End of chain and
// bad cluster values are normalized to the shared sentinels. A table
// read failure ends the chain.
func (fat32 FAT32) NextCluster(cluster uint32) uint32 {
	bytesPerSector := uint64(fat32.bootSector.BytesPerSector)
	fatOffset := uint64(cluster) * 4
	fatSector := fat32.fatStartSector + fatOffset/bytesPerSector
	entryOffset := fatOffset % bytesPerSector

	data, err := fat32.reader.ReadSector(fatSector, uint32(bytesPerSector))
	if err != nil {
		logger.FileRecoveryLogger.Error(err)
		return FS.EndOfChain
	}

	fatValue := uint32(data[entryOffset]) | uint32(data[entryOffset+1])<<8 |
		uint32(data[entryOffset+2])<<16 | uint32(data[entryOffset+3])<<24
	fatValue &= 0x0FFFFFFF

	if fatValue >= FS.EndOfChainFloor {
		return FS.EndOfChain
	}
	if fatValue == FS.BadClusterFat32 {
		return FS.BadClusterExfat
	}
	return fatValue
}

func (fat32 FAT32) IsValidCluster(cluster uint32) bool {
	return cluster >= FS.MinDataCluster && cluster < FS.BadClusterFat32 &&
		cluster <= fat32.maxClusterCount+1
}

// IsClusterInUse reports whether the allocation table still carries a
// live mapping for the cluster. Free clusters read back zero.
func (fat32 FAT32) IsClusterInUse(cluster uint32) bool {
	bytesPerSector := uint64(fat32.bootSector.BytesPerSector)
	fatOffset := uint64(cluster) * 4
	fatSector := fat32.fatStartSector + fatOffset/bytesPerSector
	entryOffset := fatOffset % bytesPerSector

	data, err := fat32.reader.ReadSector(fatSector, uint32(bytesPerSector))
	if err != nil {
		return false
	}

	fatValue := uint32(data[entryOffset]) | uint32(data[entryOffset+1])<<8 |
		uint32(data[entryOffset+2])<<16 | uint32(data[entryOffset+3])<<24
	return fatValue != 0 && fatValue != 0xF8FFFFFF
}

// DiscoverDeleted walks the directory tree from the root cluster and
// collects every entry marked as removed. Subdirectories are descended
// whether or not they are themselves deleted, since a removed tree keeps
// its structure until the clusters are reclaimed.
func (fat32 *FAT32) DiscoverDeleted() ([]FS.CandidateFile, error) {
	fat32.nextFileId = 1
	return fat32.scanDirectory(fat32.rootDirCluster, 0)
}

func (fat32 *FAT32) scanDirectory(startCluster uint32, depth int) ([]FS.CandidateFile, error) {
	if depth > MaxRecursionDepth {
		logger.FileRecoveryLogger.Warning(fmt.Sprintf("directory recursion limit reached at cluster %d", startCluster))
		return nil, nil
	}

	var candidates []FS.CandidateFile
	var longFilename string

	currentCluster := startCluster
	for fat32.IsValidCluster(currentCluster) {
		firstSector := fat32.ClusterToSector(uint64(currentCluster))

		for sectorIdx := uint64(0); sectorIdx < uint64(fat32.bootSector.SectorsPerCluster); sectorIdx++ {
			data, err := fat32.reader.ReadSector(firstSector+sectorIdx, uint32(fat32.bootSector.BytesPerSector))
			if err != nil {
				logger.FileRecoveryLogger.Error(err)
				continue
			}

			found := fat32.processEntriesInSector(data, depth, &longFilename, &candidates)
			if !found {
				break
			}
		}

		currentCluster = fat32.NextCluster(currentCluster)
	}

	return candidates, nil
}

// processEntriesInSector walks the 32 byte records of one directory
// sector. Returns false once the end marker is seen, stopping the walk
// of the current cluster while the chain scan continues.
func (fat32 *FAT32) processEntriesInSector(data []byte, depth int,
	longFilename *string, candidates *[]FS.CandidateFile) bool {

	for offset := 0; offset+DirEntrySize <= len(data); offset += DirEntrySize {
		record := data[offset : offset+DirEntrySize]

		entry := ParseDirectoryEntry(record)
		if entry.IsEndMarker() {
			return false
		}

		if entry.IsLongName() {
			*longFilename = LongNamePart(record) + *longFilename
			continue
		}

		fat32.processDirectoryEntry(entry, depth, longFilename, candidates)
	}
	return true
}

func (fat32 *FAT32) processDirectoryEntry(entry DirectoryEntry, depth int,
	longFilename *string, candidates *[]FS.CandidateFile) {

	filename := *longFilename
	*longFilename = ""

	if entry.IsVolumeLabel() {
		return
	}

	if entry.IsDirectory() {
		if entry.IsDotEntry() {
			return
		}
		subCluster := fat32.sanitizeCluster(entry.FirstCluster())
		if subCluster == 0 {
			return
		}
		sub, err := fat32.scanDirectory(subCluster, depth+1)
		if err != nil {
			logger.FileRecoveryLogger.Error(err)
			return
		}
		*candidates = append(*candidates, sub...)
		return
	}

	if !entry.IsDeleted() {
		return
	}

	candidate, ok := fat32.parseFileInfo(entry, filename)
	if ok {
		*candidates = append(*candidates, candidate)
	}
}

// parseFileInfo builds the candidate record for one deleted entry. When
// the name carries no usable extension, the first content sector is
// inspected against the signature table.
func (fat32 *FAT32) parseFileInfo(entry DirectoryEntry, longFilename string) (FS.CandidateFile, bool) {
	startCluster := fat32.sanitizeCluster(entry.FirstCluster())
	if startCluster == 0 || entry.FileSize == 0 {
		return FS.CandidateFile{}, false
	}

	filename := longFilename
	if filename == "" {
		filename = entry.ShortFilename()
	}

	displayName, predicted := fat32.resolveExtension(filename, startCluster)

	candidate := FS.CandidateFile{
		FileId:                fat32.nextFileId,
		DisplayName:           displayName,
		SizeBytes:             uint64(entry.FileSize),
		Location:              FS.FatChain{FirstCluster: startCluster},
		ExtensionWasPredicted: predicted,
	}
	fat32.nextFileId++
	return candidate, true
}

// resolveExtension keeps the on-disk extension when it looks intact and
// otherwise predicts one from the file's leading bytes.
func (fat32 *FAT32) resolveExtension(filename string, startCluster uint32) (string, bool) {
	if hasUsableExtension(filename) {
		return filename, false
	}

	sector := fat32.ClusterToSector(uint64(startCluster))
	data, err := fat32.reader.ReadSector(sector, uint32(fat32.bootSector.BytesPerSector))
	if err != nil {
		logger.FileRecoveryLogger.Error(err)
		return filename + "." + predictor.DefaultExtension, true
	}

	extension, _ := predictor.Predict(data)
	name := filename
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[:dot]
	}
	return name + "." + extension, true
}

func hasUsableExtension(filename string) bool {
	dot := strings.LastIndex(filename, ".")
	if dot < 0 || dot == len(filename)-1 {
		return false
	}
	for _, r := range filename[dot+1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// sanitizeCluster rejects cluster numbers that cannot start a data
// chain. Returns zero when rejected.
func (fat32 FAT32) sanitizeCluster(cluster uint32) uint32 {
	if cluster < FS.MinDataCluster || cluster >= FS.BadClusterFat32 {
		return 0
	}
	if fat32.maxClusterCount != 0 && cluster > fat32.maxClusterCount+1 {
		return 0
	}
	return cluster
}
