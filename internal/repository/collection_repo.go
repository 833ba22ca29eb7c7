package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ragbase/console/internal/domain"
)

// CollectionRepository handles collection persistence
type CollectionRepository struct {
	db *DB
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Create creates a new collection
func (r *CollectionRepository) Create(collection *domain.Collection) error {
	if collection.CollectionID == "" {
		collection.CollectionID = uuid.New().String()
	}
	now := time.Now()
	collection.CreatedDate = now
	collection.UpdatedDate = now

	sharedJSON, _ := json.Marshal(collection.SharedWith)
	pipelinesJSON, _ := json.Marshal(collection.EnrichmentPipelines)

	_, err := r.db.Exec(`
		INSERT INTO collections (id, owner_id, name, description, vector_db_type, shared_with, enrichment_pipelines, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, collection.CollectionID, collection.OwnerID, collection.Name, collection.Description,
		collection.VectorDBType, string(sharedJSON), string(pipelinesJSON),
		collection.CreatedDate, collection.UpdatedDate)

	return err
}

// Get retrieves a collection by ID
func (r *CollectionRepository) Get(id string) (*domain.Collection, error) {
	collection := &domain.Collection{}
	var sharedJSON, pipelinesJSON sql.NullString

	err := r.db.QueryRow(`
		SELECT id, owner_id, name, description, vector_db_type, shared_with, enrichment_pipelines, created_at, updated_at
		FROM collections WHERE id = ?
	`, id).Scan(&collection.CollectionID, &collection.OwnerID, &collection.Name,
		&collection.Description, &collection.VectorDBType, &sharedJSON, &pipelinesJSON,
		&collection.CreatedDate, &collection.UpdatedDate)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	unmarshalCollectionColumns(collection, sharedJSON, pipelinesJSON)

	return collection, nil
}

// ListVisible retrieves collections owned by the user plus collections
// shared with the user's email, newest first.
func (r *CollectionRepository) ListVisible(ownerID, email string) ([]*domain.Collection, error) {
	rows, err := r.db.Query(`
		SELECT id, owner_id, name, description, vector_db_type, shared_with, enrichment_pipelines, created_at, updated_at
		FROM collections
		WHERE owner_id = ? OR shared_with LIKE ?
		ORDER BY created_at DESC
	`, ownerID, `%"`+email+`"%`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []*domain.Collection
	for rows.Next() {
		collection := &domain.Collection{}
		var sharedJSON, pipelinesJSON sql.NullString

		if err := rows.Scan(&collection.CollectionID, &collection.OwnerID, &collection.Name,
			&collection.Description, &collection.VectorDBType, &sharedJSON, &pipelinesJSON,
			&collection.CreatedDate, &collection.UpdatedDate); err != nil {
			return nil, err
		}

		unmarshalCollectionColumns(collection, sharedJSON, pipelinesJSON)
		collections = append(collections, collection)
	}

	return collections, rows.Err()
}

// Update updates a collection
func (r *CollectionRepository) Update(collection *domain.Collection) error {
	collection.UpdatedDate = time.Now()
	sharedJSON, _ := json.Marshal(collection.SharedWith)
	pipelinesJSON, _ := json.Marshal(collection.EnrichmentPipelines)

	result, err := r.db.Exec(`
		UPDATE collections SET name = ?, description = ?, shared_with = ?, enrichment_pipelines = ?, updated_at = ?
		WHERE id = ?
	`, collection.Name, collection.Description, string(sharedJSON), string(pipelinesJSON),
		collection.UpdatedDate, collection.CollectionID)

	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("collection not found: %s", collection.CollectionID)
	}

	return nil
}

// Delete deletes a collection
func (r *CollectionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("collection not found: %s", id)
	}

	return nil
}

// Count returns the total number of collections
func (r *CollectionRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM collections`).Scan(&count)
	return count, err
}

func unmarshalCollectionColumns(collection *domain.Collection, sharedJSON, pipelinesJSON sql.NullString) {
	collection.SharedWith = []string{}
	if sharedJSON.Valid && sharedJSON.String != "" {
		json.Unmarshal([]byte(sharedJSON.String), &collection.SharedWith)
	}
	collection.EnrichmentPipelines = map[string]domain.PipelineConfig{}
	if pipelinesJSON.Valid && pipelinesJSON.String != "" {
		json.Unmarshal([]byte(pipelinesJSON.String), &collection.EnrichmentPipelines)
	}
}
