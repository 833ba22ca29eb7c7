package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ragbase/console/internal/domain"
)

// TemplateRepository handles prompt template persistence
type TemplateRepository struct {
	db *DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create creates a new prompt template
func (r *TemplateRepository) Create(template *domain.PromptTemplate) error {
	if template.TemplateID == "" {
		template.TemplateID = uuid.New().String()
	}
	now := time.Now()
	template.CreatedDate = now
	template.UpdatedDate = now

	modelIDsJSON, _ := json.Marshal(template.ModelIDs)
	stopJSON, _ := json.Marshal(template.StopSequences)

	_, err := r.db.Exec(`
		INSERT INTO prompt_templates (id, owner_id, name, text, model_ids, stop_sequences, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, template.TemplateID, template.OwnerID, template.TemplateName, template.TemplateText,
		string(modelIDsJSON), string(stopJSON), template.CreatedDate, template.UpdatedDate)

	return err
}

// Get retrieves a prompt template by ID
func (r *TemplateRepository) Get(id string) (*domain.PromptTemplate, error) {
	template := &domain.PromptTemplate{}
	var modelIDsJSON string
	var stopJSON sql.NullString

	err := r.db.QueryRow(`
		SELECT id, owner_id, name, text, model_ids, stop_sequences, created_at, updated_at
		FROM prompt_templates WHERE id = ?
	`, id).Scan(&template.TemplateID, &template.OwnerID, &template.TemplateName,
		&template.TemplateText, &modelIDsJSON, &stopJSON,
		&template.CreatedDate, &template.UpdatedDate)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(modelIDsJSON), &template.ModelIDs)
	if stopJSON.Valid && stopJSON.String != "" {
		json.Unmarshal([]byte(stopJSON.String), &template.StopSequences)
	}

	return template, nil
}

// ListForUser retrieves all prompt templates owned by a user, by name.
func (r *TemplateRepository) ListForUser(ownerID string) ([]*domain.PromptTemplate, error) {
	rows, err := r.db.Query(`
		SELECT id, owner_id, name, text, model_ids, stop_sequences, created_at, updated_at
		FROM prompt_templates WHERE owner_id = ?
		ORDER BY name ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*domain.PromptTemplate
	for rows.Next() {
		template := &domain.PromptTemplate{}
		var modelIDsJSON string
		var stopJSON sql.NullString

		if err := rows.Scan(&template.TemplateID, &template.OwnerID, &template.TemplateName,
			&template.TemplateText, &modelIDsJSON, &stopJSON,
			&template.CreatedDate, &template.UpdatedDate); err != nil {
			return nil, err
		}

		json.Unmarshal([]byte(modelIDsJSON), &template.ModelIDs)
		if stopJSON.Valid && stopJSON.String != "" {
			json.Unmarshal([]byte(stopJSON.String), &template.StopSequences)
		}
		templates = append(templates, template)
	}

	return templates, rows.Err()
}

// Update updates a prompt template
func (r *TemplateRepository) Update(template *domain.PromptTemplate) error {
	template.UpdatedDate = time.Now()
	modelIDsJSON, _ := json.Marshal(template.ModelIDs)
	stopJSON, _ := json.Marshal(template.StopSequences)

	result, err := r.db.Exec(`
		UPDATE prompt_templates SET name = ?, text = ?, model_ids = ?, stop_sequences = ?, updated_at = ?
		WHERE id = ?
	`, template.TemplateName, template.TemplateText, string(modelIDsJSON), string(stopJSON),
		template.UpdatedDate, template.TemplateID)

	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("prompt template not found: %s", template.TemplateID)
	}

	return nil
}

// Delete deletes a prompt template
func (r *TemplateRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM prompt_templates WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("prompt template not found: %s", id)
	}

	return nil
}

// Count returns the total number of prompt templates
func (r *TemplateRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM prompt_templates`).Scan(&count)
	return count, err
}
