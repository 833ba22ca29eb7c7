package service

import (
	"context"

	"github.com/ragbase/console/internal/domain"
)

// PipelineService serves the platform-defined enrichment pipeline catalog.
// The catalog is fixed configuration; collections reference its keys.
type PipelineService struct {
	catalog map[string]domain.PipelineCatalogEntry
}

// NewPipelineService creates a pipeline service from the configured catalog
// mapping of pipeline id to display name.
func NewPipelineService(pipelines map[string]string) *PipelineService {
	catalog := make(map[string]domain.PipelineCatalogEntry, len(pipelines))
	for id, name := range pipelines {
		catalog[id] = domain.PipelineCatalogEntry{Name: name}
	}
	return &PipelineService{catalog: catalog}
}

// Catalog returns the pipeline catalog keyed by pipeline id.
func (s *PipelineService) Catalog(ctx context.Context) map[string]domain.PipelineCatalogEntry {
	out := make(map[string]domain.PipelineCatalogEntry, len(s.catalog))
	for id, entry := range s.catalog {
		out[id] = entry
	}
	return out
}

// Exists reports whether a pipeline id is part of the platform catalog.
func (s *PipelineService) Exists(pipelineID string) bool {
	_, ok := s.catalog[pipelineID]
	return ok
}
