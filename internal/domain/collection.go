package domain

import "time"

// Vector store kinds supported by the platform. Fixed at collection creation.
const (
	VectorStoreOpenSearchManaged    = "opensearch_managed"
	VectorStoreOpenSearchServerless = "opensearch_serverless"
	VectorStoreShared               = "shared"
)

// TemplateNone is the sentinel for "no prompt template selected" on an
// enrichment pipeline.
const TemplateNone = "none"

// Collection represents a document collection feeding the vector store.
type Collection struct {
	CollectionID        string                    `json:"collection_id"`
	Name                string                    `json:"collection_name"`
	Description         string                    `json:"description"`
	VectorDBType        string                    `json:"vector_db_type"`
	SharedWith          []string                  `json:"shared_with"`
	EnrichmentPipelines map[string]PipelineConfig `json:"enrichment_pipelines"`
	OwnerID             string                    `json:"user_id,omitempty"`
	CreatedDate         time.Time                 `json:"created_date"`
	UpdatedDate         time.Time                 `json:"updated_date"`
}

// PipelineConfig is the per-collection configuration of one enrichment
// pipeline. TemplateIDSelected and TemplateNameSelected are always written
// together from a catalog lookup, never independently.
type PipelineConfig struct {
	PipelineID           string `json:"pipelineId"`
	Name                 string `json:"name"`
	Enabled              bool   `json:"enabled"`
	TemplateIDSelected   string `json:"templateIdSelected"`
	TemplateNameSelected string `json:"templateNameSelected"`
}

// PipelineCatalogEntry describes one platform-defined enrichment pipeline.
type PipelineCatalogEntry struct {
	Name string `json:"name"`
}

// CollectionPayload is the wire shape of a collection in an upsert request.
// collection_id is empty on create.
type CollectionPayload struct {
	CollectionID        string                    `json:"collection_id,omitempty"`
	Name                string                    `json:"collection_name" binding:"required"`
	Description         string                    `json:"description" binding:"required"`
	VectorDBType        string                    `json:"vector_db_type"`
	SharedWith          []string                  `json:"shared_with"`
	EnrichmentPipelines map[string]PipelineConfig `json:"enrichment_pipelines"`
}

// UpsertCollectionRequest is the body of POST /document_collections.
type UpsertCollectionRequest struct {
	DocumentCollection CollectionPayload `json:"document_collection" binding:"required"`
}

// DeleteCollectionRequest is the body of DELETE /document_collections.
type DeleteCollectionRequest struct {
	CollectionID string `json:"collection_id" binding:"required"`
}

// ShareRequest is the body of POST /sharing.
type ShareRequest struct {
	CollectionID   string `json:"collection_id" binding:"required"`
	ShareWithEmail string `json:"share_with_email" binding:"required"`
}
