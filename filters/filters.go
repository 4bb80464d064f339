package filters

import (
	"strings"

	"github.com/aarsakian/FileRecovery/FS"
)

type Filter interface {
	Execute(candidates []FS.CandidateFile) []FS.CandidateFile
}

// TargetFilter narrows recovery to the one candidate identified by its
// start cluster and size.
type TargetFilter struct {
	Cluster  uint32
	FileSize uint64
}

func (targetFilter TargetFilter) Execute(candidates []FS.CandidateFile) []FS.CandidateFile {
	var kept []FS.CandidateFile
	for _, candidate := range candidates {
		if FS.StartCluster(candidate.Location) == targetFilter.Cluster &&
			candidate.SizeBytes == targetFilter.FileSize {
			kept = append(kept, candidate)
		}
	}
	return kept
}

type NameFilter struct {
	Filenames []string
}

func (nameFilter NameFilter) Execute(candidates []FS.CandidateFile) []FS.CandidateFile {
	var kept []FS.CandidateFile
	for _, candidate := range candidates {
		for _, filename := range nameFilter.Filenames {
			if strings.EqualFold(candidate.DisplayName, filename) {
				kept = append(kept, candidate)
				break
			}
		}
	}
	return kept
}

type ExtensionsFilter struct {
	Extensions []string
}

func (extensionsFilter ExtensionsFilter) Execute(candidates []FS.CandidateFile) []FS.CandidateFile {
	var kept []FS.CandidateFile
	for _, candidate := range candidates {
		for _, extension := range extensionsFilter.Extensions {
			if strings.HasSuffix(strings.ToLower(candidate.DisplayName),
				"."+strings.ToLower(strings.TrimPrefix(extension, "."))) {
				kept = append(kept, candidate)
				break
			}
		}
	}
	return kept
}

// SizeFilter keeps candidates inside an inclusive byte range. Zero Max
// means unbounded.
type SizeFilter struct {
	Min uint64
	Max uint64
}

func (sizeFilter SizeFilter) Execute(candidates []FS.CandidateFile) []FS.CandidateFile {
	var kept []FS.CandidateFile
	for _, candidate := range candidates {
		if candidate.SizeBytes < sizeFilter.Min {
			continue
		}
		if sizeFilter.Max != 0 && candidate.SizeBytes > sizeFilter.Max {
			continue
		}
		kept = append(kept, candidate)
	}
	return kept
}

// IdFilter keeps the candidates whose handle appears in the selection.
type IdFilter struct {
	Ids []uint16
}

func (idFilter IdFilter) Execute(candidates []FS.CandidateFile) []FS.CandidateFile {
	var kept []FS.CandidateFile
	for _, candidate := range candidates {
		for _, id := range idFilter.Ids {
			if candidate.FileId == id {
				kept = append(kept, candidate)
				break
			}
		}
	}
	return kept
}
