package draft_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ragbase/console/internal/domain"
	"github.com/ragbase/console/internal/draft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	collections []domain.Collection
	shareLists  map[string][]string

	listErr   error
	upsertErr error
	shareErr  error

	lastPayload *domain.CollectionPayload
}

func newFakeBackend(collections ...domain.Collection) *fakeBackend {
	return &fakeBackend{collections: collections, shareLists: map[string][]string{}}
}

func (b *fakeBackend) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.collections, nil
}

func (b *fakeBackend) UpsertCollection(ctx context.Context, payload domain.CollectionPayload) (*domain.Collection, error) {
	if b.upsertErr != nil {
		return nil, b.upsertErr
	}
	b.lastPayload = &payload

	c := domain.Collection{
		CollectionID:        payload.CollectionID,
		Name:                payload.Name,
		Description:         payload.Description,
		VectorDBType:        payload.VectorDBType,
		SharedWith:          payload.SharedWith,
		EnrichmentPipelines: payload.EnrichmentPipelines,
	}
	if c.CollectionID == "" {
		c.CollectionID = "col-new"
	}
	return &c, nil
}

func (b *fakeBackend) ShareCollection(ctx context.Context, collectionID, email string) ([]string, error) {
	if b.shareErr != nil {
		return nil, b.shareErr
	}
	b.shareLists[collectionID] = append(b.shareLists[collectionID], email)
	return b.shareLists[collectionID], nil
}

func (b *fakeBackend) UnshareCollection(ctx context.Context, collectionID, email string) ([]string, error) {
	if b.shareErr != nil {
		return nil, b.shareErr
	}
	var kept []string
	for _, e := range b.shareLists[collectionID] {
		if e != email {
			kept = append(kept, e)
		}
	}
	b.shareLists[collectionID] = kept
	return kept, nil
}

func invoices() domain.Collection {
	return domain.Collection{
		CollectionID: "col-1",
		Name:         "Invoices",
		Description:  "Scanned invoices",
		VectorDBType: domain.VectorStoreOpenSearchManaged,
		SharedWith:   []string{"ana@example.com", "bob@example.com"},
		EnrichmentPipelines: map[string]domain.PipelineConfig{
			"entity_extraction": {
				PipelineID:           "entity_extraction",
				Name:                 "Entity Extraction",
				Enabled:              true,
				TemplateIDSelected:   "tmpl_1",
				TemplateNameSelected: "Extract People",
			},
		},
	}
}

func TestLoadEmptyIDStartsFreshDraft(t *testing.T) {
	s := draft.NewStore(newFakeBackend())

	d, err := s.Load(context.Background(), "")
	require.NoError(t, err)

	assert.Empty(t, d.CollectionID)
	assert.Empty(t, d.Name)
	assert.Empty(t, d.Description)
	assert.Empty(t, d.EnrichmentPipelines)
	assert.Empty(t, d.ShareList)
	assert.Equal(t, domain.VectorStoreOpenSearchManaged, d.VectorStoreKind)
	assert.True(t, s.Loaded())
	assert.False(t, s.CanSubmit())
}

func TestLoadHydratesFromList(t *testing.T) {
	s := draft.NewStore(newFakeBackend(invoices()))

	d, err := s.Load(context.Background(), "col-1")
	require.NoError(t, err)

	assert.Equal(t, "col-1", d.CollectionID)
	assert.Equal(t, "Invoices", d.Name)
	assert.Equal(t, "Scanned invoices", d.Description)
	assert.Equal(t, []string{"ana@example.com", "bob@example.com"}, d.ShareList)
	assert.Equal(t, "Extract People", d.EnrichmentPipelines["entity_extraction"].TemplateNameSelected)
	assert.True(t, s.CanSubmit())

	rows := s.ShareRows()
	require.Len(t, rows, 2)
	assert.Equal(t, "ana@example.com", rows[0].Key)
	assert.Equal(t, "bob@example.com", rows[1].Key)
}

func TestLoadMissingIDReportsNotFound(t *testing.T) {
	s := draft.NewStore(newFakeBackend(invoices()))

	d, err := s.Load(context.Background(), "col-missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, d.CollectionID)
	assert.False(t, s.Loaded())
}

func TestLoadTransportErrorLeavesDraft(t *testing.T) {
	b := newFakeBackend(invoices())
	s := draft.NewStore(b)

	_, err := s.Load(context.Background(), "col-1")
	require.NoError(t, err)

	b.listErr = errors.New("connection refused")
	d, err := s.Load(context.Background(), "col-1")
	require.Error(t, err)
	assert.Equal(t, "col-1", d.CollectionID)
	assert.Equal(t, "Invoices", s.Current().Name)
}

func TestSubmitEnablement(t *testing.T) {
	tests := []struct {
		name        string
		draftName   string
		description string
		want        bool
	}{
		{"both set", "Invoices", "Scanned invoices", true},
		{"empty name", "", "Scanned invoices", false},
		{"empty description", "Invoices", "", false},
		{"whitespace name", "   ", "Scanned invoices", false},
		{"whitespace description", "Invoices", "\t\n", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := draft.NewStore(newFakeBackend())
			_, err := s.Load(context.Background(), "")
			require.NoError(t, err)

			_, err = s.UpdateField("name", tt.draftName)
			require.NoError(t, err)
			_, err = s.UpdateField("description", tt.description)
			require.NoError(t, err)

			assert.Equal(t, tt.want, s.CanSubmit())
		})
	}
}

func TestSubmitEnablementTracksLatestValues(t *testing.T) {
	s := draft.NewStore(newFakeBackend())
	_, err := s.Load(context.Background(), "")
	require.NoError(t, err)

	s.UpdateField("name", "Invoices")
	s.UpdateField("description", "Scanned invoices")
	assert.True(t, s.CanSubmit())

	s.UpdateField("description", "  ")
	assert.False(t, s.CanSubmit())

	s.UpdateField("description", "again")
	assert.True(t, s.CanSubmit())
}

func TestUpdateFieldRejectsUnknownField(t *testing.T) {
	s := draft.NewStore(newFakeBackend())

	_, err := s.UpdateField("vector_db_type", "shared")
	assert.ErrorIs(t, err, draft.ErrUnknownField)
}

func TestUpdateFieldNameImmutableAfterSave(t *testing.T) {
	s := draft.NewStore(newFakeBackend(invoices()))
	_, err := s.Load(context.Background(), "col-1")
	require.NoError(t, err)

	_, err = s.UpdateField("name", "Renamed")
	assert.ErrorIs(t, err, draft.ErrImmutableField)
	assert.Equal(t, "Invoices", s.Current().Name)

	_, err = s.UpdateField("description", "Updated description")
	require.NoError(t, err)
	assert.Equal(t, "Updated description", s.Current().Description)
}

func TestSetPipelineEnabledIdempotent(t *testing.T) {
	s := draft.NewStore(newFakeBackend())
	_, err := s.Load(context.Background(), "")
	require.NoError(t, err)

	row := domain.PipelineConfig{
		Name:                 "Entity Extraction",
		TemplateIDSelected:   "none",
		TemplateNameSelected: "none",
	}
	first := s.SetPipelineEnabled("entity_extraction", true, row)
	second := s.SetPipelineEnabled("entity_extraction", true, row)

	assert.Equal(t, first.EnrichmentPipelines["entity_extraction"], second.EnrichmentPipelines["entity_extraction"])
}

func TestSetPipelineEnabledFillsSentinels(t *testing.T) {
	s := draft.NewStore(newFakeBackend())

	d := s.SetPipelineEnabled("entity_extraction", true, domain.PipelineConfig{Name: "Entity Extraction"})
	entry := d.EnrichmentPipelines["entity_extraction"]
	assert.Equal(t, "entity_extraction", entry.PipelineID)
	assert.Equal(t, domain.TemplateNone, entry.TemplateIDSelected)
	assert.Equal(t, domain.TemplateNone, entry.TemplateNameSelected)
}

func TestSetPipelineTemplateScenario(t *testing.T) {
	s := draft.NewStore(newFakeBackend())
	_, err := s.Load(context.Background(), "")
	require.NoError(t, err)

	s.SetPipelineEnabled("entity_extraction", true, domain.PipelineConfig{
		Name:                 "Entity Extraction",
		TemplateIDSelected:   "none",
		TemplateNameSelected: "none",
	})

	catalog := map[string]draft.TemplateOption{"tmpl_42": {Name: "Extract People"}}
	d, err := s.SetPipelineTemplate("entity_extraction", "tmpl_42", catalog)
	require.NoError(t, err)

	assert.Equal(t, domain.PipelineConfig{
		PipelineID:           "entity_extraction",
		Name:                 "Entity Extraction",
		Enabled:              true,
		TemplateIDSelected:   "tmpl_42",
		TemplateNameSelected: "Extract People",
	}, d.EnrichmentPipelines["entity_extraction"])
}

func TestSetPipelineTemplateEnablesDisabledPipeline(t *testing.T) {
	s := draft.NewStore(newFakeBackend())

	s.SetPipelineEnabled("entity_extraction", false, domain.PipelineConfig{Name: "Entity Extraction"})

	catalog := map[string]draft.TemplateOption{"tmpl_42": {Name: "Extract People"}}
	d, err := s.SetPipelineTemplate("entity_extraction", "tmpl_42", catalog)
	require.NoError(t, err)

	assert.True(t, d.EnrichmentPipelines["entity_extraction"].Enabled)
	assert.Equal(t, "Extract People", d.EnrichmentPipelines["entity_extraction"].TemplateNameSelected)
}

func TestSetPipelineTemplateUnknownIDLeavesDraft(t *testing.T) {
	s := draft.NewStore(newFakeBackend())
	s.SetPipelineEnabled("entity_extraction", true, domain.PipelineConfig{Name: "Entity Extraction"})
	before := s.Current()

	_, err := s.SetPipelineTemplate("entity_extraction", "tmpl_missing", map[string]draft.TemplateOption{})
	require.ErrorIs(t, err, draft.ErrUnknownTemplate)
	assert.Equal(t, before, s.Current())
}

func TestSetPipelineTemplateNoneResetsSelection(t *testing.T) {
	s := draft.NewStore(newFakeBackend())
	catalog := map[string]draft.TemplateOption{"tmpl_42": {Name: "Extract People"}}

	s.SetPipelineEnabled("entity_extraction", true, domain.PipelineConfig{Name: "Entity Extraction"})
	_, err := s.SetPipelineTemplate("entity_extraction", "tmpl_42", catalog)
	require.NoError(t, err)

	d, err := s.SetPipelineTemplate("entity_extraction", domain.TemplateNone, catalog)
	require.NoError(t, err)

	entry := d.EnrichmentPipelines["entity_extraction"]
	assert.Equal(t, domain.TemplateNone, entry.TemplateIDSelected)
	assert.Equal(t, domain.TemplateNone, entry.TemplateNameSelected)
	assert.True(t, entry.Enabled)
}

func TestSubmitCreateScenario(t *testing.T) {
	b := newFakeBackend()
	s := draft.NewStore(b)

	_, err := s.Load(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, s.CanSubmit())

	_, err = s.UpdateField("name", "Invoices")
	require.NoError(t, err)
	_, err = s.UpdateField("description", "Scanned invoices")
	require.NoError(t, err)
	assert.True(t, s.CanSubmit())

	d, err := s.Submit(context.Background())
	require.NoError(t, err)

	require.NotNil(t, b.lastPayload)
	assert.Empty(t, b.lastPayload.CollectionID)
	assert.Equal(t, "Invoices", b.lastPayload.Name)
	assert.Equal(t, "Scanned invoices", b.lastPayload.Description)
	assert.Equal(t, "col-new", d.CollectionID)
	assert.Equal(t, "col-new", s.Current().CollectionID)
}

func TestSubmitRoundTripSendsHydratedValues(t *testing.T) {
	b := newFakeBackend(invoices())
	s := draft.NewStore(b)

	loaded, err := s.Load(context.Background(), "col-1")
	require.NoError(t, err)

	_, err = s.Submit(context.Background())
	require.NoError(t, err)

	require.NotNil(t, b.lastPayload)
	assert.Equal(t, loaded.CollectionID, b.lastPayload.CollectionID)
	assert.Equal(t, loaded.Name, b.lastPayload.Name)
	assert.Equal(t, loaded.Description, b.lastPayload.Description)
	assert.Equal(t, loaded.VectorStoreKind, b.lastPayload.VectorDBType)
	assert.Equal(t, loaded.ShareList, b.lastPayload.SharedWith)
	assert.Equal(t, loaded.EnrichmentPipelines, b.lastPayload.EnrichmentPipelines)
}

func TestSubmitFailureLeavesDraftUntouched(t *testing.T) {
	b := newFakeBackend(invoices())
	s := draft.NewStore(b)

	_, err := s.Load(context.Background(), "col-1")
	require.NoError(t, err)
	before := s.Current()

	b.upsertErr = errors.New("gateway timeout")
	_, err = s.Submit(context.Background())
	require.Error(t, err)

	assert.Equal(t, before, s.Current())
	assert.True(t, s.CanSubmit())

	b.upsertErr = nil
	_, err = s.Submit(context.Background())
	require.NoError(t, err)
}

func TestSubmitRefusedWhileDisabled(t *testing.T) {
	s := draft.NewStore(newFakeBackend())
	_, err := s.Load(context.Background(), "")
	require.NoError(t, err)

	_, err = s.Submit(context.Background())
	assert.ErrorIs(t, err, draft.ErrSubmitDisabled)
}

func TestSubmitKeepsAssignedID(t *testing.T) {
	s := draft.NewStore(newFakeBackend(invoices()))
	_, err := s.Load(context.Background(), "col-1")
	require.NoError(t, err)

	d, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "col-1", d.CollectionID)
}

func TestAddAndRemoveShareUserReplaceWithServerList(t *testing.T) {
	b := newFakeBackend(invoices())
	b.shareLists["col-1"] = []string{"ana@example.com"}
	s := draft.NewStore(b)

	_, err := s.Load(context.Background(), "col-1")
	require.NoError(t, err)

	d, err := s.AddShareUser(context.Background(), "carol@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com", "carol@example.com"}, d.ShareList)

	d, err = s.RemoveShareUser(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol@example.com"}, d.ShareList)
}

func TestShareUserFailureLeavesDraft(t *testing.T) {
	b := newFakeBackend(invoices())
	s := draft.NewStore(b)

	_, err := s.Load(context.Background(), "col-1")
	require.NoError(t, err)
	before := s.Current()

	b.shareErr = errors.New("connection reset")
	_, err = s.AddShareUser(context.Background(), "carol@example.com")
	require.Error(t, err)
	assert.Equal(t, before, s.Current())
}

func TestShareUserRequiresSavedCollection(t *testing.T) {
	s := draft.NewStore(newFakeBackend())
	_, err := s.Load(context.Background(), "")
	require.NoError(t, err)

	_, err = s.AddShareUser(context.Background(), "carol@example.com")
	assert.ErrorIs(t, err, draft.ErrNoCollection)
}

func TestDeletePipelineUnsavedDraft(t *testing.T) {
	s := draft.NewStore(newFakeBackend())
	s.SetPipelineEnabled("entity_extraction", true, domain.PipelineConfig{Name: "Entity Extraction"})

	d, err := s.DeletePipeline(context.Background(), "entity_extraction")
	require.NoError(t, err)
	assert.NotContains(t, d.EnrichmentPipelines, "entity_extraction")
}

func TestDeletePipelineSavedCollectionUpserts(t *testing.T) {
	b := newFakeBackend(invoices())
	s := draft.NewStore(b)

	_, err := s.Load(context.Background(), "col-1")
	require.NoError(t, err)

	d, err := s.DeletePipeline(context.Background(), "entity_extraction")
	require.NoError(t, err)

	require.NotNil(t, b.lastPayload)
	assert.NotContains(t, b.lastPayload.EnrichmentPipelines, "entity_extraction")
	assert.NotContains(t, d.EnrichmentPipelines, "entity_extraction")
	assert.Equal(t, "col-1", d.CollectionID)
}

func TestSnapshotsAreIsolated(t *testing.T) {
	s := draft.NewStore(newFakeBackend(invoices()))
	_, err := s.Load(context.Background(), "col-1")
	require.NoError(t, err)

	snap := s.Current()
	snap.EnrichmentPipelines["entity_extraction"] = domain.PipelineConfig{PipelineID: "entity_extraction"}
	snap.ShareList[0] = "mutated@example.com"

	current := s.Current()
	assert.Equal(t, "Extract People", current.EnrichmentPipelines["entity_extraction"].TemplateNameSelected)
	assert.Equal(t, "ana@example.com", current.ShareList[0])
}

func TestTemplateOptionsExcludeBuiltins(t *testing.T) {
	options := draft.TemplateOptions([]domain.PromptTemplate{
		{TemplateID: "tmpl_42", TemplateName: "Extract People"},
		{TemplateID: "default_summary", TemplateName: "Summarize"},
	})

	assert.Contains(t, options, "tmpl_42")
	assert.NotContains(t, options, "default_summary")
	assert.Equal(t, "Extract People", options["tmpl_42"].Name)
}
