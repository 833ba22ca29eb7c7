package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"slices"
	"strings"

	"github.com/ragbase/console/internal/config"
	"github.com/ragbase/console/internal/domain"
	"github.com/ragbase/console/internal/repository"
	"github.com/ragbase/console/internal/storage"
)

// CollectionService handles document collection operations: upsert, listing,
// deletion, sharing, and the files stored under each collection's prefix.
type CollectionService struct {
	collectionRepo *repository.CollectionRepository
	userRepo       *repository.UserRepository
	files          *storage.FileStore
	sharing        config.SharingConfig
}

// NewCollectionService creates a new collection service
func NewCollectionService(
	collectionRepo *repository.CollectionRepository,
	userRepo *repository.UserRepository,
	files *storage.FileStore,
	sharing config.SharingConfig,
) *CollectionService {
	return &CollectionService{
		collectionRepo: collectionRepo,
		userRepo:       userRepo,
		files:          files,
		sharing:        sharing,
	}
}

// Upsert creates the collection when the payload has no id, otherwise
// updates it. The collection name and vector store kind are fixed at
// creation; later payloads cannot change them.
func (s *CollectionService) Upsert(ctx context.Context, ownerID, ownerEmail string, payload domain.CollectionPayload) (*domain.Collection, error) {
	if payload.CollectionID == "" {
		vectorDBType := payload.VectorDBType
		if vectorDBType == "" {
			vectorDBType = domain.VectorStoreOpenSearchManaged
		}
		collection := &domain.Collection{
			OwnerID:             ownerID,
			Name:                strings.TrimSpace(payload.Name),
			Description:         strings.TrimSpace(payload.Description),
			VectorDBType:        vectorDBType,
			SharedWith:          s.filterAllowedDomains(payload.SharedWith),
			EnrichmentPipelines: normalizePipelines(payload.EnrichmentPipelines),
		}
		if collection.Name == "" || collection.Description == "" {
			return nil, domain.ErrInvalidRequest
		}
		if err := s.collectionRepo.Create(collection); err != nil {
			return nil, err
		}
		return collection, nil
	}

	collection, err := s.collectionRepo.Get(payload.CollectionID)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, domain.ErrNotFound
	}
	if collection.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}

	if desc := strings.TrimSpace(payload.Description); desc != "" {
		collection.Description = desc
	}
	collection.SharedWith = s.filterAllowedDomains(payload.SharedWith)
	collection.EnrichmentPipelines = normalizePipelines(payload.EnrichmentPipelines)

	if err := s.collectionRepo.Update(collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// Get retrieves a collection visible to the caller.
func (s *CollectionService) Get(ctx context.Context, userID, email, id string) (*domain.Collection, error) {
	collection, err := s.collectionRepo.Get(id)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, nil
	}
	if !visible(collection, userID, email) {
		return nil, domain.ErrForbidden
	}
	return collection, nil
}

// ListVisible retrieves collections owned by or shared with the caller.
func (s *CollectionService) ListVisible(ctx context.Context, userID, email string) ([]*domain.Collection, error) {
	return s.collectionRepo.ListVisible(userID, email)
}

// Delete removes a collection and every file stored under it.
func (s *CollectionService) Delete(ctx context.Context, ownerID, id string) error {
	collection, err := s.collectionRepo.Get(id)
	if err != nil {
		return err
	}
	if collection == nil {
		return domain.ErrNotFound
	}
	if collection.OwnerID != ownerID {
		return domain.ErrForbidden
	}

	if err := s.collectionRepo.Delete(id); err != nil {
		return err
	}
	if s.files != nil {
		if err := s.files.DeleteAll(ctx, id); err != nil {
			return fmt.Errorf("collection deleted but file cleanup failed: %w", err)
		}
	}
	return nil
}

// Share adds an email to the collection's share list and returns the
// updated list. The server is authoritative; callers replace their local
// copy with the returned list.
func (s *CollectionService) Share(ctx context.Context, ownerID, collectionID, email string) ([]string, error) {
	collection, err := s.collectionRepo.Get(collectionID)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, domain.ErrNotFound
	}
	if collection.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	if !s.domainAllowed(email) {
		return nil, fmt.Errorf("%w: email domain not allowed", domain.ErrInvalidRequest)
	}

	if !slices.Contains(collection.SharedWith, email) {
		collection.SharedWith = append(collection.SharedWith, email)
		if err := s.collectionRepo.Update(collection); err != nil {
			return nil, err
		}
	}
	return collection.SharedWith, nil
}

// Unshare removes an email from the collection's share list and returns the
// updated list.
func (s *CollectionService) Unshare(ctx context.Context, ownerID, collectionID, email string) ([]string, error) {
	collection, err := s.collectionRepo.Get(collectionID)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, domain.ErrNotFound
	}
	if collection.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}

	updated := slices.DeleteFunc(slices.Clone(collection.SharedWith), func(e string) bool {
		return e == email
	})
	if len(updated) != len(collection.SharedWith) {
		collection.SharedWith = updated
		if err := s.collectionRepo.Update(collection); err != nil {
			return nil, err
		}
	}
	return collection.SharedWith, nil
}

// UserLookup searches the user directory by email prefix for the sharing
// autocomplete. The prefix must meet the configured minimum length.
func (s *CollectionService) UserLookup(ctx context.Context, ownerID, collectionID, prefix string, limit int, lastEvalKey string) (*domain.UserLookupResponse, error) {
	if len(prefix) < s.sharing.LookupMinPrefix {
		return nil, fmt.Errorf("%w: prefix must be at least %d characters", domain.ErrInvalidRequest, s.sharing.LookupMinPrefix)
	}
	collection, err := s.collectionRepo.Get(collectionID)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, domain.ErrNotFound
	}
	if collection.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}

	users, err := s.userRepo.LookupByPrefix(prefix, limit, lastEvalKey)
	if err != nil {
		return nil, err
	}

	resp := &domain.UserLookupResponse{Users: users}
	if resp.Users == nil {
		resp.Users = []domain.User{}
	}
	if len(users) == limit {
		resp.LastEvalKey = users[len(users)-1].Email
	}
	return resp, nil
}

// UploadFile stores one uploaded file under the collection's prefix.
func (s *CollectionService) UploadFile(ctx context.Context, ownerID, collectionID string, fh *multipart.FileHeader) (*domain.FileRecord, error) {
	collection, err := s.collectionRepo.Get(collectionID)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, domain.ErrNotFound
	}
	if collection.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if err := s.files.Upload(ctx, collectionID, fh.Filename, f, fh.Size, contentType); err != nil {
		return nil, err
	}

	return &domain.FileRecord{FileName: fh.Filename, Size: fh.Size}, nil
}

// ListFiles returns a page of files stored under a visible collection.
func (s *CollectionService) ListFiles(ctx context.Context, userID, email, collectionID string, limit int, lastEvalKey string) (*domain.FileListResponse, error) {
	collection, err := s.collectionRepo.Get(collectionID)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, domain.ErrNotFound
	}
	if !visible(collection, userID, email) {
		return nil, domain.ErrForbidden
	}

	return s.files.List(ctx, collectionID, limit, lastEvalKey)
}

// DeleteFile removes one file from the collection's prefix.
func (s *CollectionService) DeleteFile(ctx context.Context, ownerID, collectionID, fileName string) error {
	collection, err := s.collectionRepo.Get(collectionID)
	if err != nil {
		return err
	}
	if collection == nil {
		return domain.ErrNotFound
	}
	if collection.OwnerID != ownerID {
		return domain.ErrForbidden
	}

	return s.files.Delete(ctx, collectionID, fileName)
}

func (s *CollectionService) domainAllowed(email string) bool {
	for _, d := range s.sharing.AllowedEmailDomains {
		if d == "*" || strings.HasSuffix(email, d) {
			return true
		}
	}
	return false
}

func (s *CollectionService) filterAllowedDomains(emails []string) []string {
	checked := []string{}
	for _, email := range emails {
		if s.domainAllowed(email) {
			checked = append(checked, email)
		}
	}
	return checked
}

func visible(c *domain.Collection, userID, email string) bool {
	return c.OwnerID == userID || slices.Contains(c.SharedWith, email)
}

// normalizePipelines makes the stored pipeline map self-consistent: every
// entry carries its own map key as PipelineID and the "none" sentinel
// instead of empty template fields.
func normalizePipelines(pipelines map[string]domain.PipelineConfig) map[string]domain.PipelineConfig {
	normalized := map[string]domain.PipelineConfig{}
	for id, cfg := range pipelines {
		cfg.PipelineID = id
		if cfg.TemplateIDSelected == "" {
			cfg.TemplateIDSelected = domain.TemplateNone
		}
		if cfg.TemplateNameSelected == "" {
			cfg.TemplateNameSelected = domain.TemplateNone
		}
		normalized[id] = cfg
	}
	return normalized
}
