package domain

import (
	"strings"
	"time"
)

// PromptTemplate is a reusable prompt bound to specific model ids.
type PromptTemplate struct {
	TemplateID    string    `json:"template_id"`
	TemplateName  string    `json:"template_name"`
	TemplateText  string    `json:"template_text"`
	ModelIDs      []string  `json:"model_ids"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
	OwnerID       string    `json:"user_id,omitempty"`
	CreatedDate   time.Time `json:"created_date"`
	UpdatedDate   time.Time `json:"updated_date"`
}

// IsDefault reports whether this is one of the built-in platform templates,
// which are excluded from enrichment-pipeline template options.
func (t *PromptTemplate) IsDefault() bool {
	return strings.HasPrefix(t.TemplateID, "default_")
}

// PromptTemplatePayload is the wire shape of a template in an upsert request.
type PromptTemplatePayload struct {
	TemplateID    string   `json:"template_id,omitempty"`
	TemplateName  string   `json:"template_name" binding:"required"`
	TemplateText  string   `json:"template_text" binding:"required"`
	ModelIDs      []string `json:"model_ids" binding:"required"`
	StopSequences []string `json:"stop_sequences,omitempty"`
}

// UpsertPromptTemplateRequest is the body of POST /prompt_templates.
type UpsertPromptTemplateRequest struct {
	PromptTemplate PromptTemplatePayload `json:"prompt_template" binding:"required"`
}

// DeletePromptTemplateRequest is the body of DELETE /prompt_templates.
type DeletePromptTemplateRequest struct {
	PromptTemplate struct {
		TemplateID string `json:"template_id" binding:"required"`
	} `json:"prompt_template" binding:"required"`
}
