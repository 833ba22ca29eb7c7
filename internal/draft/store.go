package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ragbase/console/internal/domain"
)

// Store errors. Transport failures from the backend propagate as-is;
// these cover the store's own rules.
var (
	ErrStaleLoad       = errors.New("load superseded by a newer load")
	ErrUnknownField    = errors.New("field is not editable")
	ErrImmutableField  = errors.New("collection name is fixed after creation")
	ErrUnknownTemplate = errors.New("template id not present in catalog")
	ErrSubmitInFlight  = errors.New("a submit is already in flight")
	ErrSubmitDisabled  = errors.New("name and description are required")
	ErrNoCollection    = errors.New("draft has not been saved yet")
)

// Backend is the slice of the console API the store drives. *client.Client
// satisfies it.
type Backend interface {
	ListCollections(ctx context.Context) ([]domain.Collection, error)
	UpsertCollection(ctx context.Context, payload domain.CollectionPayload) (*domain.Collection, error)
	ShareCollection(ctx context.Context, collectionID, email string) ([]string, error)
	UnshareCollection(ctx context.Context, collectionID, email string) ([]string, error)
}

// Store owns the draft for one open editor. Every mutation replaces the
// whole draft value, so a snapshot handed to a view never changes under it.
//
// Loads race: a view can request collection B while collection A's fetch is
// still outstanding. The generation counter makes this last-requested-wins;
// a response for a superseded load is discarded.
type Store struct {
	backend Backend

	mu         sync.Mutex
	gen        uint64
	draft      Draft
	loaded     bool
	submitting bool
	canSubmit  bool
}

// NewStore creates a store with an empty, unloaded draft.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend, draft: emptyDraft()}
}

// Load hydrates the draft. An empty collectionID starts a fresh create
// draft. Otherwise the caller's collection list is fetched and scanned for
// the id; a miss installs an empty draft and reports domain.ErrNotFound so
// the view can render a distinct not-found state. If a newer Load was
// issued while this one was fetching, the result is dropped and
// ErrStaleLoad is returned with the currently active draft.
func (s *Store) Load(ctx context.Context, collectionID string) (Draft, error) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	if collectionID == "" {
		return s.install(gen, emptyDraft(), nil)
	}

	collections, err := s.backend.ListCollections(ctx)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return s.draft.clone(), ErrStaleLoad
		}
		return s.draft.clone(), fmt.Errorf("failed to load collections: %w", err)
	}

	for i := range collections {
		if collections[i].CollectionID == collectionID {
			return s.install(gen, fromCollection(collections[i]), nil)
		}
	}
	return s.install(gen, emptyDraft(), domain.ErrNotFound)
}

// install makes d the active draft unless a newer Load has superseded gen.
func (s *Store) install(gen uint64, d Draft, loadErr error) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return s.draft.clone(), ErrStaleLoad
	}
	s.draft = d
	s.loaded = loadErr == nil
	s.canSubmit = d.submittable()
	return s.draft.clone(), loadErr
}

// UpdateField sets one editable top-level field. Only name and description
// are editable here, and name only before the first successful save.
// Submit enablement is recomputed on every call.
func (s *Store) UpdateField(field, value string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.draft.clone()
	switch field {
	case "name":
		if d.CollectionID != "" {
			return s.draft.clone(), ErrImmutableField
		}
		d.Name = value
	case "description":
		d.Description = value
	default:
		return s.draft.clone(), fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	s.draft = d
	s.canSubmit = d.submittable()
	return s.draft.clone(), nil
}

// SetPipelineEnabled writes one pipeline row into the draft from the table
// row's snapshot. Re-applying the current state is a no-op in effect but
// still produces a new draft value.
func (s *Store) SetPipelineEnabled(pipelineID string, enabled bool, row domain.PipelineConfig) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := row
	entry.PipelineID = pipelineID
	entry.Enabled = enabled
	if entry.TemplateIDSelected == "" {
		entry.TemplateIDSelected = domain.TemplateNone
	}
	if entry.TemplateNameSelected == "" {
		entry.TemplateNameSelected = domain.TemplateNone
	}

	d := s.draft.clone()
	d.EnrichmentPipelines[pipelineID] = entry
	s.draft = d
	return s.draft.clone()
}

// SetPipelineTemplate binds a pipeline to a prompt template. The id and the
// denormalized display name are always written together from the catalog
// lookup; an id missing from the catalog is rejected and the draft is left
// unchanged. Selecting a concrete template also enables the pipeline.
func (s *Store) SetPipelineTemplate(pipelineID, templateID string, catalog map[string]TemplateOption) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.draft.clone()
	entry := d.EnrichmentPipelines[pipelineID]
	entry.PipelineID = pipelineID

	if templateID == domain.TemplateNone {
		entry.TemplateIDSelected = domain.TemplateNone
		entry.TemplateNameSelected = domain.TemplateNone
	} else {
		option, ok := catalog[templateID]
		if !ok {
			return s.draft.clone(), fmt.Errorf("%w: %q", ErrUnknownTemplate, templateID)
		}
		entry.TemplateIDSelected = templateID
		entry.TemplateNameSelected = option.Name
		entry.Enabled = true
	}

	d.EnrichmentPipelines[pipelineID] = entry
	s.draft = d
	return s.draft.clone(), nil
}

// Submit sends the whole draft in one upsert and replaces it with the
// server's canonical record. A failed upsert leaves the draft exactly as it
// was. Only one submit may be outstanding at a time; submit is refused
// while name or description is empty.
func (s *Store) Submit(ctx context.Context) (Draft, error) {
	s.mu.Lock()
	if s.submitting {
		d := s.draft.clone()
		s.mu.Unlock()
		return d, ErrSubmitInFlight
	}
	if !s.canSubmit {
		d := s.draft.clone()
		s.mu.Unlock()
		return d, ErrSubmitDisabled
	}
	s.submitting = true
	payload := s.draft.payload()
	priorID := s.draft.CollectionID
	s.mu.Unlock()

	collection, err := s.backend.UpsertCollection(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		return s.draft.clone(), fmt.Errorf("failed to save collection: %w", err)
	}

	d := fromCollection(*collection)
	if priorID != "" {
		// The id is assigned once, on first create.
		d.CollectionID = priorID
	}
	s.draft = d
	s.loaded = true
	s.canSubmit = d.submittable()
	return s.draft.clone(), nil
}

// DeletePipeline removes one pipeline entry. For a saved collection the
// trimmed draft is upserted and replaced with the server's canonical
// record; an unsaved draft is edited locally.
func (s *Store) DeletePipeline(ctx context.Context, pipelineID string) (Draft, error) {
	s.mu.Lock()
	d := s.draft.clone()
	delete(d.EnrichmentPipelines, pipelineID)

	if d.CollectionID == "" {
		s.draft = d
		out := s.draft.clone()
		s.mu.Unlock()
		return out, nil
	}
	payload := d.payload()
	priorID := d.CollectionID
	s.mu.Unlock()

	collection, err := s.backend.UpsertCollection(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		return s.draft.clone(), fmt.Errorf("failed to remove pipeline: %w", err)
	}
	next := fromCollection(*collection)
	next.CollectionID = priorID
	s.draft = next
	s.canSubmit = next.submittable()
	return s.draft.clone(), nil
}

// AddShareUser grants email access to the saved collection and replaces
// the local share list with the server's. The server list is authoritative;
// there is no optimistic local merge.
func (s *Store) AddShareUser(ctx context.Context, email string) (Draft, error) {
	return s.updateShareList(ctx, email, s.backend.ShareCollection)
}

// RemoveShareUser revokes email's access and replaces the local share list
// with the server's.
func (s *Store) RemoveShareUser(ctx context.Context, email string) (Draft, error) {
	return s.updateShareList(ctx, email, s.backend.UnshareCollection)
}

func (s *Store) updateShareList(ctx context.Context, email string, call func(context.Context, string, string) ([]string, error)) (Draft, error) {
	s.mu.Lock()
	collectionID := s.draft.CollectionID
	s.mu.Unlock()
	if collectionID == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.draft.clone(), ErrNoCollection
	}

	shareList, err := call(ctx, collectionID, email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		return s.draft.clone(), fmt.Errorf("failed to update sharing for %s: %w", email, err)
	}
	if shareList == nil {
		shareList = []string{}
	}
	d := s.draft.clone()
	d.ShareList = shareList
	s.draft = d
	return s.draft.clone(), nil
}

// Current returns a snapshot of the active draft.
func (s *Store) Current() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.clone()
}

// Loaded reports whether the draft was successfully hydrated.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// CanSubmit reports the submit-enablement state, recomputed after every
// field update and every full draft replacement.
func (s *Store) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmit
}

// ShareRows returns the sharing table's flattened view of the share list.
func (s *Store) ShareRows() []ShareRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]ShareRow, 0, len(s.draft.ShareList))
	for _, email := range s.draft.ShareList {
		rows = append(rows, ShareRow{Key: email})
	}
	return rows
}
