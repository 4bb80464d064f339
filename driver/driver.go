package driver

import (
	"fmt"
	"io"
	"math"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/analyzer"
	"github.com/aarsakian/FileRecovery/config"
	"github.com/aarsakian/FileRecovery/exporter"
	"github.com/aarsakian/FileRecovery/filtermanager"
	"github.com/aarsakian/FileRecovery/filters"
	"github.com/aarsakian/FileRecovery/history"
	"github.com/aarsakian/FileRecovery/logger"
	"github.com/aarsakian/FileRecovery/reporter"
	"github.com/aarsakian/FileRecovery/sectorreader"
)

// RecoveryDriver runs the pipeline: discovery, filtering, selection,
// chain validation, analysis and emission. It owns the allocation
// history; engines never see it.
type RecoveryDriver struct {
	Engine   FS.FileSystem
	Reader   *sectorreader.SectorReader
	Config   config.Config
	Exporter exporter.Exporter
	Reporter reporter.Reporter
	History  *history.AllocationHistory
	Input    io.Reader
}

// Run processes every discovered candidate and returns how many files
// were fully or partially emitted. Per-candidate failures are logged
// and skipped.
func (driver *RecoveryDriver) Run() (int, error) {
	driver.Reporter.ShowVolumeInfo(driver.Engine.Signature(),
		driver.Engine.BytesPerSector(), driver.Engine.SectorsPerCluster())

	candidates, err := driver.Engine.DiscoverDeleted()
	if err != nil {
		return 0, err
	}

	candidates = driver.applyFilters(candidates)

	for _, candidate := range candidates {
		driver.Reporter.ShowCandidate(candidate)
		logger.FileRecoveryLogger.Info(fmt.Sprintf("#%d Filename: \"%s\" (%d bytes)",
			candidate.FileId, candidate.DisplayName, candidate.SizeBytes))
	}

	if err := driver.writeFileDataLog(candidates); err != nil {
		return 0, err
	}

	if !driver.Config.Recover && !driver.Config.Analyze {
		return 0, nil
	}

	if driver.Config.Recover && driver.Config.TargetCluster == 0 && len(candidates) > 0 {
		selection := driver.Reporter.PromptSelection(driver.Input)
		if selection.Quit {
			return 0, nil
		}
		if !selection.All {
			candidates = filters.IdFilter{Ids: selection.Ids}.Execute(candidates)
		}
	}

	recovered := 0
	for _, candidate := range candidates {
		if driver.processCandidate(candidate) {
			recovered++
		}
	}

	driver.Reporter.ShowSummary(recovered, len(candidates))
	return recovered, nil
}

func (driver *RecoveryDriver) applyFilters(candidates []FS.CandidateFile) []FS.CandidateFile {
	var manager filtermanager.FilterManager
	manager.Register(filters.SizeFilter{Min: 1})
	if driver.Config.TargetCluster != 0 {
		manager.Register(filters.TargetFilter{
			Cluster:  driver.Config.TargetCluster,
			FileSize: driver.Config.TargetFileSize,
		})
	}
	return manager.ApplyFilters(candidates)
}

// writeFileDataLog emits the CSV scan record. When the log cannot be
// created the user decides whether the run continues without it.
func (driver *RecoveryDriver) writeFileDataLog(candidates []FS.CandidateFile) error {
	if !driver.Config.CreateFileDataLog {
		return nil
	}

	log, err := exporter.CreateFileDataLog(driver.Exporter.Fs,
		driver.Config.LogFolder, driver.Config.LogFile)
	if err != nil {
		logger.FileRecoveryLogger.Error(err)
		if !driver.confirmContinueWithoutLog() {
			return fmt.Errorf("file data log unavailable: %w", err)
		}
		return nil
	}
	defer log.Close()

	for _, candidate := range candidates {
		if err := log.WriteEntry(candidate); err != nil {
			logger.FileRecoveryLogger.Error(err)
			break
		}
	}
	return nil
}

func (driver *RecoveryDriver) confirmContinueWithoutLog() bool {
	fmt.Fprintf(driver.Reporter.Out, "[-] Could not create file data log. Continue anyway? (y/n): ")
	var answer string
	if _, err := fmt.Fscanln(driver.Input, &answer); err != nil {
		return false
	}
	return answer == "y" || answer == "Y"
}

func (driver *RecoveryDriver) processCandidate(candidate FS.CandidateFile) bool {
	if _, isChain := candidate.Location.(FS.FatChain); isChain && candidate.SizeBytes > math.MaxUint32 {
		logger.FileRecoveryLogger.Error(fmt.Errorf("%w: #%d %q", FS.ErrOverflow,
			candidate.FileId, candidate.DisplayName))
		return false
	}

	bytesPerCluster := driver.Engine.BytesPerCluster()
	expectedClusters := (candidate.SizeBytes + bytesPerCluster - 1) / bytesPerCluster

	status := analyzer.Status{ExpectedClusters: expectedClusters}
	chain := driver.buildChain(candidate, expectedClusters)

	if driver.Config.Analyze {
		driver.analyzeCandidate(candidate, chain, &status)
	}

	if !driver.Config.Recover {
		return false
	}

	outputPath, err := driver.emit(candidate, chain, &status)
	if err != nil {
		logger.FileRecoveryLogger.Error(fmt.Errorf("#%d %q: %w",
			candidate.FileId, candidate.DisplayName, err))
		return false
	}

	driver.Reporter.ShowRecoveryResult(candidate, status, outputPath)

	if driver.Config.Hash != "" {
		digest, err := driver.Exporter.HashFile(outputPath)
		if err != nil {
			logger.FileRecoveryLogger.Error(err)
		} else {
			driver.Reporter.ShowFileHash(driver.Config.Hash, digest)
		}
	}
	return true
}

// buildChain resolves a candidate's allocation to the ordered cluster
// sequence recovery will stream. A broken FAT chain falls back to the
// next consecutive cluster so short chains still reach the expected
// length.
func (driver *RecoveryDriver) buildChain(candidate FS.CandidateFile, expectedClusters uint64) []uint32 {
	switch location := candidate.Location.(type) {
	case FS.FatChain:
		chain := []uint32{location.FirstCluster}
		current := location.FirstCluster
		for uint64(len(chain)) < expectedClusters {
			next := driver.Engine.NextCluster(current)
			if next == current || next < FS.MinDataCluster || next >= FS.EndOfChainFloor {
				next = current + 1
			}
			chain = append(chain, next)
			current = next
		}
		return chain

	case FS.ExfatContiguous:
		length := location.LengthClusters
		if expectedClusters > 0 && expectedClusters < length {
			length = expectedClusters
		}
		chain := make([]uint32, 0, length)
		for i := uint64(0); i < length; i++ {
			chain = append(chain, location.FirstCluster+uint32(i))
		}
		return chain

	case FS.NtfsNonResident:
		seen := make(map[uint32]struct{})
		var chain []uint32
		for _, run := range location.Runs {
			for i := uint64(0); i < run.LengthClusters; i++ {
				cluster := uint32(run.FirstLcn + i)
				if _, duplicate := seen[cluster]; duplicate {
					continue
				}
				seen[cluster] = struct{}{}
				chain = append(chain, cluster)
			}
		}
		return chain
	}

	return nil
}

func (driver *RecoveryDriver) analyzeCandidate(candidate FS.CandidateFile,
	chain []uint32, status *analyzer.Status) {

	analyzer.AnalyzeClusterPattern(chain, status)

	if analyzer.IsFileNameCorrupted(candidate.DisplayName) {
		status.HasInvalidFileName = true
		status.IsCorrupted = true
	}

	for _, cluster := range chain {
		if driver.Engine.IsClusterInUse(cluster) {
			status.HasOverwrittenClusters = true
			status.ProblematicClusters = append(status.ProblematicClusters, cluster)
		}
	}

	if _, isChain := candidate.Location.(FS.FatChain); isChain && driver.History != nil {
		overwrites := analyzer.AnalyzeClusterOverwrites(FS.StartCluster(candidate.Location),
			candidate.SizeBytes, driver.Engine.BytesPerCluster(),
			driver.Engine.NextCluster, driver.History, candidate.FileId)
		if overwrites.HasOverwrite {
			status.HasOverwrittenClusters = true
			status.ProblematicClusters = append(status.ProblematicClusters, overwrites.OverwrittenClusters...)
		}
	}

	driver.Reporter.ShowAnalysis(candidate, *status)
}

// emit streams the candidate's content to a collision-free output path,
// one sector at a time, clipping the final sector to the remaining
// size. Unreadable sectors are skipped after the retry, shortening the
// output rather than aborting it.
func (driver *RecoveryDriver) emit(candidate FS.CandidateFile,
	chain []uint32, status *analyzer.Status) (string, error) {

	outputPath, err := driver.Exporter.ResolvePath(candidate.DisplayName)
	if err != nil {
		return "", err
	}

	if resident, ok := candidate.Location.(FS.NtfsResident); ok {
		data := resident.Data
		if uint64(len(data)) > candidate.SizeBytes {
			data = data[:candidate.SizeBytes]
		}
		if err := driver.Exporter.WriteFile(outputPath, data); err != nil {
			return "", err
		}
		status.RecoveredBytes = uint64(len(data))
		return outputPath, nil
	}

	file, err := driver.Exporter.CreateFile(outputPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	bytesPerSector := driver.Engine.BytesPerSector()
	sectorsPerCluster := driver.Engine.SectorsPerCluster()
	remaining := candidate.SizeBytes

	for clusterIdx, cluster := range chain {
		clusterReadable := true

		firstSector := driver.Engine.ClusterToSector(uint64(cluster))
		for s := uint32(0); s < sectorsPerCluster && remaining > 0; s++ {
			want := uint64(bytesPerSector)
			if remaining < want {
				want = remaining
			}

			data, err := driver.Reader.ReadSector(firstSector+uint64(s), bytesPerSector)
			if err != nil {
				logger.FileRecoveryLogger.Error(err)
				clusterReadable = false
				remaining -= want
				continue
			}

			if _, err := file.Write(data[:want]); err != nil {
				return "", err
			}
			status.RecoveredBytes += want
			remaining -= want
		}

		if clusterReadable {
			status.RecoveredClusters++
		}
		driver.Reporter.ShowProgressPercent(float64(clusterIdx+1) / float64(len(chain)) * 100.0)
	}
	driver.Reporter.EndProgress()

	return outputPath, nil
}
