package filtermanager_test

import (
	"testing"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/filtermanager"
	"github.com/aarsakian/FileRecovery/filters"
	"github.com/stretchr/testify/assert"
)

func TestFiltersApplyInRegistrationOrder(t *testing.T) {
	candidates := []FS.CandidateFile{
		{FileId: 1, DisplayName: "a.txt", SizeBytes: 0, Location: FS.FatChain{FirstCluster: 5}},
		{FileId: 2, DisplayName: "b.txt", SizeBytes: 100, Location: FS.FatChain{FirstCluster: 6}},
		{FileId: 3, DisplayName: "c.jpg", SizeBytes: 200, Location: FS.FatChain{FirstCluster: 7}},
	}

	var manager filtermanager.FilterManager
	manager.Register(filters.SizeFilter{Min: 1})
	manager.Register(filters.ExtensionsFilter{Extensions: []string{"txt"}})

	kept := manager.ApplyFilters(candidates)
	assert.Equal(t, 1, len(kept))
	assert.Equal(t, uint16(2), kept[0].FileId)
}

func TestEmptyManagerKeepsEverything(t *testing.T) {
	candidates := []FS.CandidateFile{
		{FileId: 1, DisplayName: "a.txt", SizeBytes: 10, Location: FS.FatChain{FirstCluster: 5}},
	}

	var manager filtermanager.FilterManager
	assert.Equal(t, candidates, manager.ApplyFilters(candidates))
}
