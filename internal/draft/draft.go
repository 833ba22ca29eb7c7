// Package draft holds the collection currently being edited. It is the
// single source of truth for every editor view (metadata fields, pipeline
// toggles, sharing list): views read the shared draft and write it back
// through the store, never through copies of their own.
package draft

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/ragbase/console/internal/domain"
)

// Draft is the collection aggregate under edit. It is a value type; the
// store replaces the whole value on every mutation so observers always see
// a consistent snapshot.
type Draft struct {
	CollectionID        string
	Name                string
	Description         string
	VectorStoreKind     string
	EnrichmentPipelines map[string]domain.PipelineConfig
	ShareList           []string
	CreatedDate         time.Time
	UpdatedDate         time.Time
}

// ShareRow is one row of the sharing table, keyed by email.
type ShareRow struct {
	Key string
}

// TemplateOption is one selectable prompt template in the pipeline
// configuration dropdown.
type TemplateOption struct {
	Name string
}

func emptyDraft() Draft {
	return Draft{
		VectorStoreKind:     domain.VectorStoreOpenSearchManaged,
		EnrichmentPipelines: map[string]domain.PipelineConfig{},
		ShareList:           []string{},
	}
}

func fromCollection(c domain.Collection) Draft {
	d := Draft{
		CollectionID:        c.CollectionID,
		Name:                strings.TrimSpace(c.Name),
		Description:         strings.TrimSpace(c.Description),
		VectorStoreKind:     c.VectorDBType,
		EnrichmentPipelines: maps.Clone(c.EnrichmentPipelines),
		ShareList:           slices.Clone(c.SharedWith),
		CreatedDate:         c.CreatedDate,
		UpdatedDate:         c.UpdatedDate,
	}
	if d.VectorStoreKind == "" {
		d.VectorStoreKind = domain.VectorStoreOpenSearchManaged
	}
	if d.EnrichmentPipelines == nil {
		d.EnrichmentPipelines = map[string]domain.PipelineConfig{}
	}
	if d.ShareList == nil {
		d.ShareList = []string{}
	}
	return d
}

func (d Draft) clone() Draft {
	d.EnrichmentPipelines = maps.Clone(d.EnrichmentPipelines)
	d.ShareList = slices.Clone(d.ShareList)
	return d
}

// payload serializes the whole draft into the upsert wire shape.
func (d Draft) payload() domain.CollectionPayload {
	return domain.CollectionPayload{
		CollectionID:        d.CollectionID,
		Name:                d.Name,
		Description:         d.Description,
		VectorDBType:        d.VectorStoreKind,
		SharedWith:          slices.Clone(d.ShareList),
		EnrichmentPipelines: maps.Clone(d.EnrichmentPipelines),
	}
}

// submittable reports whether both required fields are non-empty after
// trimming. Values are stored untrimmed mid-edit.
func (d Draft) submittable() bool {
	return strings.TrimSpace(d.Name) != "" && strings.TrimSpace(d.Description) != ""
}

// TemplateOptions builds the pipeline template catalog from the caller's
// prompt templates. Built-in platform templates are excluded.
func TemplateOptions(templates []domain.PromptTemplate) map[string]TemplateOption {
	options := make(map[string]TemplateOption)
	for i := range templates {
		if templates[i].IsDefault() {
			continue
		}
		options[templates[i].TemplateID] = TemplateOption{Name: templates[i].TemplateName}
	}
	return options
}
