package analyzer

import (
	"strings"
	"unicode/utf16"

	"github.com/aarsakian/FileRecovery/history"
)

const (
	MinClustersForAnalysis      = 10
	LargeGapThreshold           = 1000
	SuspiciousPatternFraction   = 0.10
	SevereFragmentationFraction = 0.25
	FilenameCorruptionFraction  = 0.50
)

// Status accumulates findings about one candidate during chain
// validation and carries the recovery counters to reporting.
type Status struct {
	IsCorrupted            bool
	HasFragmentedClusters  bool
	Fragmentation          float64
	HasBackJumps           bool
	BackJumps              uint32
	HasRepeatedClusters    bool
	RepeatedClusters       uint32
	HasLargeGaps           bool
	LargeGaps              uint32
	HasOverwrittenClusters bool
	HasInvalidFileName     bool
	HasInvalidExtension    bool
	ExpectedClusters       uint64
	RecoveredClusters      uint64
	RecoveredBytes         uint64
	ProblematicClusters    []uint32
}

// OverwriteAnalysis describes how much of a deleted file's chain was
// claimed by other deleted files processed earlier.
type OverwriteAnalysis struct {
	HasOverwrite        bool
	OverwrittenClusters []uint32
	OverwrittenBy       map[uint32][]uint16
	OverwritePercentage float64
}

// AnalyzeClusterPattern walks consecutive cluster pairs counting repeats,
// backward jumps and large gaps, and derives the fragmentation score.
// Chains below MinClustersForAnalysis are too short for a reliable
// assessment and are left untouched.
func AnalyzeClusterPattern(clusters []uint32, status *Status) {
	if len(clusters) < MinClustersForAnalysis {
		return
	}

	totalAnomalies := uint32(0)

	for i := 1; i < len(clusters); i++ {
		if clusters[i] == clusters[i-1] {
			status.RepeatedClusters++
			totalAnomalies++
			continue
		}

		if clusters[i] < clusters[i-1] {
			status.BackJumps++
			totalAnomalies++
			continue
		}

		gap := clusters[i] - clusters[i-1] - 1
		if gap >= LargeGapThreshold {
			status.LargeGaps++
			totalAnomalies++
		}
	}

	totalPairs := float64(len(clusters) - 1)
	status.Fragmentation = min(1.0, float64(totalAnomalies)/totalPairs)

	status.HasLargeGaps = float64(status.LargeGaps) > totalPairs*SuspiciousPatternFraction
	status.HasBackJumps = float64(status.BackJumps) > totalPairs*SuspiciousPatternFraction
	status.HasFragmentedClusters = status.Fragmentation > SevereFragmentationFraction
	status.HasRepeatedClusters = status.RepeatedClusters > 0

	if status.HasBackJumps || status.HasFragmentedClusters || status.HasLargeGaps || status.HasRepeatedClusters {
		status.IsCorrupted = true
	}
}

// IsFileNameCorrupted flags empty names, names with characters invalid on
// the source filesystems, and names where the majority of UTF-16 code
// units fall outside the printable ASCII range. The count is taken over
// code units, the form names have on disk, so a surrogate pair weighs as
// two.
func IsFileNameCorrupted(filename string) bool {
	if filename == "" {
		return true
	}

	if strings.ContainsAny(filename, `<>:"/\|?*`) {
		return true
	}

	units := utf16.Encode([]rune(filename))
	unusual := 0
	for _, unit := range units {
		if unit < 32 || unit > 127 {
			unusual++
		}
	}
	return float64(unusual) > float64(len(units))*FilenameCorruptionFraction
}

// AnalyzeClusterOverwrites walks the allocation chain from startCluster,
// recording this file's claim on each cluster into the history and
// reporting the clusters that other files have already claimed.
func AnalyzeClusterOverwrites(startCluster uint32, expectedSize uint64, bytesPerCluster uint64,
	nextCluster func(uint32) uint32, clusterHistory *history.AllocationHistory, fileId uint16) OverwriteAnalysis {

	analysis := OverwriteAnalysis{OverwrittenBy: make(map[uint32][]uint16)}

	expectedClusters := (expectedSize + bytesPerCluster - 1) / bytesPerCluster

	currentCluster := startCluster
	currentOffset := uint64(0)

	for currentOffset < expectedSize && currentCluster >= 2 && currentCluster < 0x0FFFFFF8 {
		clusterHistory.Record(currentCluster, fileId, currentOffset)
		overlaps := clusterHistory.OverlappingUsages(currentCluster)

		if len(overlaps) > 0 {
			analysis.HasOverwrite = true
			analysis.OverwrittenClusters = append(analysis.OverwrittenClusters, currentCluster)

			for _, overlap := range overlaps {
				if overlap.Second.FileId == fileId {
					analysis.OverwrittenBy[currentCluster] = append(analysis.OverwrittenBy[currentCluster], overlap.First.FileId)
				}
			}
		}

		currentOffset += bytesPerCluster
		currentCluster = nextCluster(currentCluster)
	}

	if len(analysis.OverwrittenClusters) > 0 && expectedClusters > 0 {
		analysis.OverwritePercentage = float64(len(analysis.OverwrittenClusters)) / float64(expectedClusters) * 100.0
	}

	return analysis
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
