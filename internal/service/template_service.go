package service

import (
	"context"
	"strings"

	"github.com/ragbase/console/internal/domain"
	"github.com/ragbase/console/internal/repository"
)

// TemplateService handles prompt template operations
type TemplateService struct {
	templateRepo *repository.TemplateRepository
}

// NewTemplateService creates a new template service
func NewTemplateService(templateRepo *repository.TemplateRepository) *TemplateService {
	return &TemplateService{templateRepo: templateRepo}
}

// Upsert creates the template when the payload has no id, otherwise updates
// it. Only the owner may update.
func (s *TemplateService) Upsert(ctx context.Context, ownerID string, payload domain.PromptTemplatePayload) (*domain.PromptTemplate, error) {
	if payload.TemplateID == "" {
		template := &domain.PromptTemplate{
			OwnerID:       ownerID,
			TemplateName:  strings.TrimSpace(payload.TemplateName),
			TemplateText:  payload.TemplateText,
			ModelIDs:      payload.ModelIDs,
			StopSequences: payload.StopSequences,
		}
		if template.TemplateName == "" || template.TemplateText == "" || len(template.ModelIDs) == 0 {
			return nil, domain.ErrInvalidRequest
		}
		if err := s.templateRepo.Create(template); err != nil {
			return nil, err
		}
		return template, nil
	}

	template, err := s.templateRepo.Get(payload.TemplateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, domain.ErrNotFound
	}
	if template.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}

	if name := strings.TrimSpace(payload.TemplateName); name != "" {
		template.TemplateName = name
	}
	if payload.TemplateText != "" {
		template.TemplateText = payload.TemplateText
	}
	if payload.ModelIDs != nil {
		template.ModelIDs = payload.ModelIDs
	}
	if payload.StopSequences != nil {
		template.StopSequences = payload.StopSequences
	}

	if err := s.templateRepo.Update(template); err != nil {
		return nil, err
	}
	return template, nil
}

// Get retrieves a template owned by the caller.
func (s *TemplateService) Get(ctx context.Context, ownerID, id string) (*domain.PromptTemplate, error) {
	template, err := s.templateRepo.Get(id)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, nil
	}
	if template.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return template, nil
}

// List retrieves the caller's templates.
func (s *TemplateService) List(ctx context.Context, ownerID string) ([]*domain.PromptTemplate, error) {
	return s.templateRepo.ListForUser(ownerID)
}

// Delete removes a template owned by the caller.
func (s *TemplateService) Delete(ctx context.Context, ownerID, id string) error {
	template, err := s.templateRepo.Get(id)
	if err != nil {
		return err
	}
	if template == nil {
		return domain.ErrNotFound
	}
	if template.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	return s.templateRepo.Delete(id)
}
