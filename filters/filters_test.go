package filters_test

import (
	"testing"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/filters"
	"github.com/stretchr/testify/assert"
)

func candidates() []FS.CandidateFile {
	return []FS.CandidateFile{
		{FileId: 1, DisplayName: "notes.txt", SizeBytes: 1500, Location: FS.FatChain{FirstCluster: 10}},
		{FileId: 2, DisplayName: "photo.JPG", SizeBytes: 1024, Location: FS.ExfatContiguous{FirstCluster: 8, LengthClusters: 2}},
		{FileId: 3, DisplayName: "empty.dat", SizeBytes: 0, Location: FS.FatChain{FirstCluster: 20}},
		{FileId: 4, DisplayName: "budget.xlsx", SizeBytes: 2500,
			Location: FS.NtfsNonResident{Runs: []FS.DataRun{{FirstLcn: 64, LengthClusters: 4}}}},
	}
}

func TestTargetFilter(t *testing.T) {
	kept := filters.TargetFilter{Cluster: 10, FileSize: 1500}.Execute(candidates())
	assert.Equal(t, 1, len(kept))
	assert.Equal(t, "notes.txt", kept[0].DisplayName)

	kept = filters.TargetFilter{Cluster: 10, FileSize: 999}.Execute(candidates())
	assert.Equal(t, 0, len(kept))
}

func TestNameFilterIsCaseInsensitive(t *testing.T) {
	kept := filters.NameFilter{Filenames: []string{"PHOTO.jpg"}}.Execute(candidates())
	assert.Equal(t, 1, len(kept))
	assert.Equal(t, uint16(2), kept[0].FileId)
}

func TestExtensionsFilter(t *testing.T) {
	kept := filters.ExtensionsFilter{Extensions: []string{"jpg", ".txt"}}.Execute(candidates())
	assert.Equal(t, 2, len(kept))
	assert.Equal(t, "notes.txt", kept[0].DisplayName)
	assert.Equal(t, "photo.JPG", kept[1].DisplayName)
}

func TestSizeFilter(t *testing.T) {
	kept := filters.SizeFilter{Min: 1}.Execute(candidates())
	assert.Equal(t, 3, len(kept))

	kept = filters.SizeFilter{Min: 1, Max: 1500}.Execute(candidates())
	assert.Equal(t, 2, len(kept))
	assert.Equal(t, "notes.txt", kept[0].DisplayName)
	assert.Equal(t, "photo.JPG", kept[1].DisplayName)
}

func TestIdFilter(t *testing.T) {
	kept := filters.IdFilter{Ids: []uint16{2, 4}}.Execute(candidates())
	assert.Equal(t, 2, len(kept))
	assert.Equal(t, uint16(2), kept[0].FileId)
	assert.Equal(t, uint16(4), kept[1].FileId)
}
