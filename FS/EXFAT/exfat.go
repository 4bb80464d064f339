package EXFAT

import (
	"fmt"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/logger"
	"github.com/aarsakian/FileRecovery/sectorreader"
)

const MaxRecursionDepth = 100

// EXFAT is the recovery engine for exFAT formatted volumes.
type EXFAT struct {
	reader     *sectorreader.SectorReader
	bootSector BootSector
	nextFileId uint16
}

func (exfat *EXFAT) Initialize(reader *sectorreader.SectorReader) error {
	exfat.reader = reader

	data, err := reader.ReadSector(0, reader.BytesPerSector())
	if err != nil {
		return err
	}

	bootSector, err := ParseBootSector(data)
	if err != nil {
		return err
	}
	exfat.bootSector = bootSector

	logger.FileRecoveryLogger.Info(fmt.Sprintf("exFAT volume: %d bytes/sector, %d sectors/cluster, heap at sector %d, %d clusters",
		bootSector.BytesPerSector(), bootSector.SectorsPerCluster(),
		bootSector.ClusterHeapOffset, bootSector.ClusterCount))

	return nil
}

func (exfat EXFAT) Signature() string {
	return "EXFAT"
}

func (exfat EXFAT) BytesPerSector() uint32 {
	return exfat.bootSector.BytesPerSector()
}

func (exfat EXFAT) SectorsPerCluster() uint32 {
	return exfat.bootSector.SectorsPerCluster()
}

func (exfat EXFAT) BytesPerCluster() uint64 {
	return uint64(exfat.bootSector.BytesPerSector()) * uint64(exfat.bootSector.SectorsPerCluster())
}

func (exfat EXFAT) ClusterToSector(cluster uint64) uint64 {
	return uint64(exfat.bootSector.ClusterHeapOffset) +
		(cluster-FS.MinDataCluster)*uint64(exfat.bootSector.SectorsPerCluster())
}

// NextCluster reads the allocation table entry from the table region at
// FatOffset. Entries are full 32 bit values. A table read failure ends
// the chain.
func (exfat EXFAT) NextCluster(cluster uint32) uint32 {
	bytesPerSector := uint64(exfat.bootSector.BytesPerSector())
	fatOffset := uint64(cluster) * 4
	fatSector := uint64(exfat.bootSector.FatOffset) + fatOffset/bytesPerSector
	entryOffset := fatOffset % bytesPerSector

	data, err := exfat.reader.ReadSector(fatSector, uint32(bytesPerSector))
	if err != nil {
		logger.FileRecoveryLogger.Error(err)
		return FS.EndOfChain
	}

	fatValue := uint32(data[entryOffset]) | uint32(data[entryOffset+1])<<8 |
		uint32(data[entryOffset+2])<<16 | uint32(data[entryOffset+3])<<24

	if fatValue >= 0xFFFFFFF8 {
		return FS.EndOfChain
	}
	return fatValue
}

func (exfat EXFAT) IsValidCluster(cluster uint32) bool {
	return cluster >= FS.MinDataCluster &&
		cluster < FS.MinDataCluster+exfat.bootSector.ClusterCount
}

// IsClusterInUse reports whether the allocation table carries a live
// mapping. Contiguous files leave their table entries zero, so a zero
// entry only proves the cluster is not part of a chained file.
func (exfat EXFAT) IsClusterInUse(cluster uint32) bool {
	bytesPerSector := uint64(exfat.bootSector.BytesPerSector())
	fatOffset := uint64(cluster) * 4
	fatSector := uint64(exfat.bootSector.FatOffset) + fatOffset/bytesPerSector
	entryOffset := fatOffset % bytesPerSector

	data, err := exfat.reader.ReadSector(fatSector, uint32(bytesPerSector))
	if err != nil {
		return false
	}

	fatValue := uint32(data[entryOffset]) | uint32(data[entryOffset+1])<<8 |
		uint32(data[entryOffset+2])<<16 | uint32(data[entryOffset+3])<<24
	return fatValue != 0
}

func (exfat *EXFAT) DiscoverDeleted() ([]FS.CandidateFile, error) {
	exfat.nextFileId = 1
	return exfat.scanDirectory(exfat.bootSector.RootDirectoryCluster, 0, false, 0)
}

// scanDirectory walks one directory's clusters decoding entry sets. A
// directory stored without a table chain is walked as consecutive
// clusters for lengthClusters.
func (exfat *EXFAT) scanDirectory(startCluster uint32, lengthClusters uint64,
	contiguous bool, depth int) ([]FS.CandidateFile, error) {

	if depth > MaxRecursionDepth {
		logger.FileRecoveryLogger.Warning(fmt.Sprintf("directory recursion limit reached at cluster %d", startCluster))
		return nil, nil
	}

	var candidates []FS.CandidateFile
	var pending entrySet

	currentCluster := startCluster
	clustersWalked := uint64(0)

	for exfat.IsValidCluster(currentCluster) {
		if contiguous && lengthClusters > 0 && clustersWalked >= lengthClusters {
			break
		}

		if done := exfat.scanDirectoryCluster(currentCluster, &pending, depth, &candidates); done {
			break
		}

		clustersWalked++
		if contiguous {
			currentCluster++
		} else {
			currentCluster = exfat.NextCluster(currentCluster)
		}
	}

	exfat.finalizeEntrySet(&pending, depth, &candidates)
	return candidates, nil
}

// scanDirectoryCluster decodes the entry records of one directory
// cluster. Returns true once the end marker is seen.
func (exfat *EXFAT) scanDirectoryCluster(cluster uint32, pending *entrySet,
	depth int, candidates *[]FS.CandidateFile) bool {

	firstSector := exfat.ClusterToSector(uint64(cluster))
	bytesPerSector := exfat.bootSector.BytesPerSector()

	for sectorIdx := uint64(0); sectorIdx < uint64(exfat.bootSector.SectorsPerCluster()); sectorIdx++ {
		data, err := exfat.reader.ReadSector(firstSector+sectorIdx, bytesPerSector)
		if err != nil {
			logger.FileRecoveryLogger.Error(err)
			continue
		}

		for offset := 0; offset+DirEntrySize <= len(data); offset += DirEntrySize {
			record := data[offset : offset+DirEntrySize]
			typeByte := record[0]

			if typeByte == EntryTypeEnd {
				return true
			}

			switch EntryTypeCode(typeByte) {
			case EntryTypeFile:
				exfat.finalizeEntrySet(pending, depth, candidates)
				fileEntry := ParseFileEntry(record)
				pending.inFileEntry = true
				pending.isDirectory = fileEntry.IsDirectory()
				pending.isDeleted = !IsInUse(typeByte)

			case EntryTypeStream:
				if !pending.inFileEntry {
					continue
				}
				streamEntry := ParseStreamEntry(record)
				pending.startingCluster = streamEntry.FirstCluster
				pending.fileSize = streamEntry.DataLength
				pending.contiguous = !streamEntry.HasFatChain()

			case EntryTypeName:
				if !pending.inFileEntry {
					continue
				}
				pending.longFilename += NamePart(record)
			}
		}
	}
	return false
}

// finalizeEntrySet turns a completed entry set into a candidate or a
// subdirectory descent, then clears the accumulator.
func (exfat *EXFAT) finalizeEntrySet(pending *entrySet, depth int, candidates *[]FS.CandidateFile) {
	defer pending.reset()

	if !pending.inFileEntry || pending.longFilename == "" {
		return
	}
	if !exfat.IsValidCluster(pending.startingCluster) {
		return
	}

	if pending.isDirectory {
		lengthClusters := exfat.clustersForSize(pending.fileSize)
		sub, err := exfat.scanDirectory(pending.startingCluster, lengthClusters, pending.contiguous, depth+1)
		if err != nil {
			logger.FileRecoveryLogger.Error(err)
			return
		}
		*candidates = append(*candidates, sub...)
		return
	}

	if !pending.isDeleted || !exfat.isValidDeletedEntry(pending) {
		return
	}

	var location FS.Allocation
	if pending.contiguous {
		location = FS.ExfatContiguous{
			FirstCluster:   pending.startingCluster,
			LengthClusters: exfat.clustersForSize(pending.fileSize),
		}
	} else {
		location = FS.FatChain{FirstCluster: pending.startingCluster}
	}

	*candidates = append(*candidates, FS.CandidateFile{
		FileId:      exfat.nextFileId,
		DisplayName: pending.longFilename,
		SizeBytes:   pending.fileSize,
		Location:    location,
	})
	exfat.nextFileId++
}

func (exfat EXFAT) isValidDeletedEntry(pending *entrySet) bool {
	if pending.fileSize == 0 {
		return false
	}
	volumeBytes := pending.fileSize <= exfat.bootSector.VolumeLength*uint64(exfat.bootSector.BytesPerSector())
	return volumeBytes
}

func (exfat EXFAT) clustersForSize(size uint64) uint64 {
	bytesPerCluster := exfat.BytesPerCluster()
	return (size + bytesPerCluster - 1) / bytesPerCluster
}
