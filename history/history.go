package history

import "time"

// ClusterUsage records that a file's content claimed a cluster at a given
// byte offset within that file.
type ClusterUsage struct {
	Timestamp   time.Time
	FileId      uint16
	WriteOffset uint64
}

// UsagePair is an unordered pair of usages of the same cluster by two
// different files.
type UsagePair struct {
	First  ClusterUsage
	Second ClusterUsage
}

// AllocationHistory maps cluster indices to the ordered list of usages
// observed while processing candidates. Usages are appended, never
// rewritten.
type AllocationHistory struct {
	usages map[uint32][]ClusterUsage
}

func New() *AllocationHistory {
	return &AllocationHistory{usages: make(map[uint32][]ClusterUsage)}
}

func (h *AllocationHistory) Record(cluster uint32, fileId uint16, writeOffset uint64) {
	h.usages[cluster] = append(h.usages[cluster], ClusterUsage{
		Timestamp:   time.Now(),
		FileId:      fileId,
		WriteOffset: writeOffset,
	})
}

// OverlappingUsages returns every unordered pair of usages of the cluster
// whose file ids differ. Quadratic in usages per cluster, which stays
// small because candidates are bounded by directory size.
func (h *AllocationHistory) OverlappingUsages(cluster uint32) []UsagePair {
	usages := h.usages[cluster]
	var pairs []UsagePair
	for i := 0; i < len(usages); i++ {
		for j := i + 1; j < len(usages); j++ {
			if usages[i].FileId != usages[j].FileId {
				pairs = append(pairs, UsagePair{First: usages[i], Second: usages[j]})
			}
		}
	}
	return pairs
}
