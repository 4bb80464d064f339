package history_test

import (
	"testing"

	"github.com/aarsakian/FileRecovery/history"
	"github.com/stretchr/testify/assert"
)

func TestUnusedClusterHasNoOverlaps(t *testing.T) {
	h := history.New()
	assert.Empty(t, h.OverlappingUsages(42))
}

func TestSingleUsageYieldsNoPairs(t *testing.T) {
	h := history.New()
	h.Record(10, 1, 0)
	assert.Empty(t, h.OverlappingUsages(10))
}

func TestDistinctFilesPairUp(t *testing.T) {
	h := history.New()
	h.Record(10, 1, 0)
	h.Record(10, 2, 512)

	pairs := h.OverlappingUsages(10)
	assert.Equal(t, 1, len(pairs))
	assert.Equal(t, uint16(1), pairs[0].First.FileId)
	assert.Equal(t, uint16(2), pairs[0].Second.FileId)
	assert.Equal(t, uint64(512), pairs[0].Second.WriteOffset)
}

func TestSameFileUsagesDoNotPair(t *testing.T) {
	h := history.New()
	h.Record(10, 1, 0)
	h.Record(10, 1, 512)
	assert.Empty(t, h.OverlappingUsages(10))
}

func TestThreeFilesYieldAllDistinctPairs(t *testing.T) {
	h := history.New()
	h.Record(10, 1, 0)
	h.Record(10, 2, 0)
	h.Record(10, 3, 0)
	assert.Equal(t, 3, len(h.OverlappingUsages(10)))
}
