package NTFS

import (
	"fmt"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/logger"
	"github.com/aarsakian/FileRecovery/sectorreader"
)

const (
	MftRecordIndex    = 0
	BitmapRecordIndex = 6
)

// NTFS is the recovery engine for NTFS formatted volumes. Content is
// addressed through run lists rather than a cluster chain, so the master
// file table's own runs are resolved once at Initialize time.
type NTFS struct {
	reader       *sectorreader.SectorReader
	bootSector   BootSector
	recordSize   uint32
	mftRuns      []FS.DataRun
	bitmapRuns   []FS.DataRun
	totalRecords uint64
	nextFileId   uint16
}

func (ntfs *NTFS) Initialize(reader *sectorreader.SectorReader) error {
	ntfs.reader = reader

	data, err := reader.ReadSector(0, reader.BytesPerSector())
	if err != nil {
		return err
	}

	bootSector, err := ParseBootSector(data)
	if err != nil {
		return err
	}
	ntfs.bootSector = bootSector
	ntfs.recordSize = bootSector.MftRecordSize()

	if err := ntfs.loadMftRuns(); err != nil {
		return err
	}

	if err := ntfs.loadBitmapRuns(); err != nil {
		logger.FileRecoveryLogger.Warning(fmt.Sprintf("volume bitmap unavailable: %v", err))
	}

	reader.SetTotalMftRecords(ntfs.totalRecords)
	logger.FileRecoveryLogger.Info(fmt.Sprintf("NTFS volume: %d bytes/sector, %d sectors/cluster, %d byte records, %d table entries",
		bootSector.BytesPerSector, bootSector.SectorsPerCluster, ntfs.recordSize, ntfs.totalRecords))

	return nil
}

// loadMftRuns reads the table's first record directly below the boot
// sector's start cluster and resolves its own $DATA extent.
func (ntfs *NTFS) loadMftRuns() error {
	firstSector := ntfs.bootSector.MftStartCluster * uint64(ntfs.bootSector.SectorsPerCluster)
	data, err := ntfs.readRecordAt(firstSector)
	if err != nil {
		return err
	}

	record, err := ParseRecordHeader(data)
	if err != nil {
		return err
	}
	if err := ApplyFixups(data, record, uint32(ntfs.bootSector.BytesPerSector)); err != nil {
		return err
	}

	_, dataAttr := ParseAttributes(data, record)
	if dataAttr == nil || dataAttr.Resident || len(dataAttr.Runs) == 0 {
		return fmt.Errorf("%w: master file table has no run list", FS.ErrParse)
	}

	ntfs.mftRuns = dataAttr.Runs
	ntfs.totalRecords = dataAttr.RealSize / uint64(ntfs.recordSize)
	return nil
}

func (ntfs *NTFS) loadBitmapRuns() error {
	data, err := ntfs.readRecord(BitmapRecordIndex)
	if err != nil {
		return err
	}

	record, err := ParseRecordHeader(data)
	if err != nil {
		return err
	}
	if err := ApplyFixups(data, record, uint32(ntfs.bootSector.BytesPerSector)); err != nil {
		return err
	}

	_, dataAttr := ParseAttributes(data, record)
	if dataAttr == nil || dataAttr.Resident {
		return fmt.Errorf("%w: volume bitmap has no run list", FS.ErrParse)
	}
	ntfs.bitmapRuns = dataAttr.Runs
	return nil
}

func (ntfs NTFS) Signature() string {
	return "NTFS"
}

func (ntfs NTFS) BytesPerSector() uint32 {
	return uint32(ntfs.bootSector.BytesPerSector)
}

func (ntfs NTFS) SectorsPerCluster() uint32 {
	return uint32(ntfs.bootSector.SectorsPerCluster)
}

func (ntfs NTFS) BytesPerCluster() uint64 {
	return uint64(ntfs.bootSector.BytesPerSector) * uint64(ntfs.bootSector.SectorsPerCluster)
}

func (ntfs NTFS) ClusterToSector(cluster uint64) uint64 {
	return cluster * uint64(ntfs.bootSector.SectorsPerCluster)
}

// NextCluster always ends the chain. Content location comes from run
// lists, there is no allocation table to follow.
func (ntfs NTFS) NextCluster(cluster uint32) uint32 {
	return FS.EndOfChain
}

func (ntfs NTFS) IsValidCluster(cluster uint32) bool {
	totalClusters := ntfs.bootSector.TotalSectors / uint64(ntfs.bootSector.SectorsPerCluster)
	return uint64(cluster) < totalClusters
}

// IsClusterInUse consults the volume bitmap. Without a readable bitmap
// every cluster reports free, which only disables overwrite warnings.
func (ntfs NTFS) IsClusterInUse(cluster uint32) bool {
	if len(ntfs.bitmapRuns) == 0 {
		return false
	}

	byteData, err := ntfs.readFromRuns(ntfs.bitmapRuns, uint64(cluster)/8, 1)
	if err != nil {
		return false
	}
	return byteData[0]&(1<<(cluster%8)) != 0
}

// DiscoverDeleted scans every master file table record, keeping the
// files whose in-use flag is clear.
func (ntfs *NTFS) DiscoverDeleted() ([]FS.CandidateFile, error) {
	if len(ntfs.mftRuns) == 0 {
		return nil, fmt.Errorf("%w: master file table runs not loaded", FS.ErrParse)
	}

	ntfs.nextFileId = 1
	var candidates []FS.CandidateFile

	for index := uint64(0); index < ntfs.totalRecords; index++ {
		data, err := ntfs.readRecord(index)
		if err != nil {
			logger.FileRecoveryLogger.Error(err)
			continue
		}

		record, err := ParseRecordHeader(data)
		if err != nil {
			continue // unformatted tail records
		}
		if !record.IsDeleted() || record.IsDirectory() {
			continue
		}
		if err := ApplyFixups(data, record, uint32(ntfs.bootSector.BytesPerSector)); err != nil {
			logger.FileRecoveryLogger.Warning(fmt.Sprintf("record %d torn: %v", index, err))
			continue
		}

		candidate, ok := ntfs.buildCandidate(data, record)
		if ok {
			candidates = append(candidates, candidate)
		}
	}

	return candidates, nil
}

func (ntfs *NTFS) buildCandidate(data []byte, record Record) (FS.CandidateFile, bool) {
	filename, dataAttr := ParseAttributes(data, record)
	if filename == nil || filename.Name == "" || dataAttr == nil {
		return FS.CandidateFile{}, false
	}

	var location FS.Allocation
	var size uint64
	if dataAttr.Resident {
		if len(dataAttr.Content) == 0 {
			return FS.CandidateFile{}, false
		}
		location = FS.NtfsResident{Data: dataAttr.Content}
		size = uint64(len(dataAttr.Content))
	} else {
		if len(dataAttr.Runs) == 0 || dataAttr.RealSize == 0 {
			return FS.CandidateFile{}, false
		}
		totalClusters := ntfs.bootSector.TotalSectors / uint64(ntfs.bootSector.SectorsPerCluster)
		for _, run := range dataAttr.Runs {
			if run.FirstLcn >= totalClusters || run.LengthClusters > totalClusters-run.FirstLcn {
				return FS.CandidateFile{}, false
			}
		}
		location = FS.NtfsNonResident{Runs: dataAttr.Runs}
		size = dataAttr.RealSize
	}

	candidate := FS.CandidateFile{
		FileId:      ntfs.nextFileId,
		DisplayName: filename.Name,
		SizeBytes:   size,
		Location:    location,
	}
	ntfs.nextFileId++
	return candidate, true
}

// readRecord fetches one record through the table's run mapping, so
// fragmented tables resolve correctly.
func (ntfs NTFS) readRecord(index uint64) ([]byte, error) {
	return ntfs.readFromRuns(ntfs.mftRuns, index*uint64(ntfs.recordSize), ntfs.recordSize)
}

// readRecordAt fetches one record from a known sector, used only to
// bootstrap the table's own record.
func (ntfs NTFS) readRecordAt(sector uint64) ([]byte, error) {
	bytesPerSector := uint32(ntfs.bootSector.BytesPerSector)
	record := make([]byte, 0, ntfs.recordSize)
	for read := uint32(0); read < ntfs.recordSize; read += bytesPerSector {
		data, err := ntfs.reader.ReadSector(sector+uint64(read/bytesPerSector), bytesPerSector)
		if err != nil {
			return nil, err
		}
		record = append(record, data...)
	}
	return record[:ntfs.recordSize], nil
}

// readFromRuns reads length bytes at a byte offset inside the content
// addressed by the run list.
func (ntfs NTFS) readFromRuns(runs []FS.DataRun, offset uint64, length uint32) ([]byte, error) {
	bytesPerSector := uint64(ntfs.bootSector.BytesPerSector)
	bytesPerCluster := ntfs.BytesPerCluster()

	out := make([]byte, 0, length)
	for uint32(len(out)) < length {
		vcn := offset / bytesPerCluster
		lcn, ok := lcnForVcn(runs, vcn)
		if !ok {
			return nil, fmt.Errorf("%w: offset %d beyond run list", FS.ErrParse, offset)
		}

		withinCluster := offset % bytesPerCluster
		sector := lcn*uint64(ntfs.bootSector.SectorsPerCluster) + withinCluster/bytesPerSector
		withinSector := withinCluster % bytesPerSector

		data, err := ntfs.reader.ReadSector(sector, uint32(bytesPerSector))
		if err != nil {
			return nil, err
		}

		chunk := data[withinSector:]
		if need := length - uint32(len(out)); uint32(len(chunk)) > need {
			chunk = chunk[:need]
		}
		out = append(out, chunk...)
		offset += uint64(len(chunk))
	}
	return out, nil
}

func lcnForVcn(runs []FS.DataRun, vcn uint64) (uint64, bool) {
	walked := uint64(0)
	for _, run := range runs {
		if vcn < walked+run.LengthClusters {
			return run.FirstLcn + (vcn - walked), true
		}
		walked += run.LengthClusters
	}
	return 0, false
}
