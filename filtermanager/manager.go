package filtermanager

import (
	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/filters"
)

type FilterManager struct {
	filters []filters.Filter
}

func (filterManager *FilterManager) Register(filter filters.Filter) {
	filterManager.filters = append(filterManager.filters, filter)
}

func (filterManager FilterManager) ApplyFilters(candidates []FS.CandidateFile) []FS.CandidateFile {
	for _, filter := range filterManager.filters {
		candidates = filter.Execute(candidates)
	}
	return candidates
}
