package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ragbase/console/internal/api"
	"github.com/ragbase/console/internal/client"
	"github.com/ragbase/console/internal/config"
	"github.com/ragbase/console/internal/domain"
	"github.com/ragbase/console/internal/draft"
	"github.com/ragbase/console/internal/modelparams"
	"github.com/ragbase/console/internal/repository"
	"github.com/ragbase/console/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testEnv struct {
	server   *httptest.Server
	userRepo *repository.UserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "console.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	collectionRepo := repository.NewCollectionRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	userRepo := repository.NewUserRepository(db)

	sharing := config.SharingConfig{AllowedEmailDomains: []string{"*"}, LookupMinPrefix: 4}
	collectionService := service.NewCollectionService(collectionRepo, userRepo, nil, sharing)
	templateService := service.NewTemplateService(templateRepo)
	pipelineService := service.NewPipelineService(map[string]string{"entity_extraction": "Entity Extraction"})
	statsService := service.NewStatsService(collectionRepo, templateRepo, userRepo)

	generationService, err := service.NewGenerationService(
		config.LLMConfig{BaseURL: "http://localhost:11434", DefaultModel: "qwen2.5:7b"},
		templateRepo,
		modelparams.DefaultRegistry(),
	)
	require.NoError(t, err)

	router := api.SetupRouter(
		collectionService, templateService, pipelineService, generationService, statsService,
		userRepo,
		api.RouterConfig{JWTSecret: "", AllowOrigins: []string{"*"}},
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testEnv{server: server, userRepo: userRepo}
}

func (e *testEnv) client(userID, email string) *client.Client {
	return client.NewClient(e.server.URL, client.WithIdentity(userID, email))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestsWithoutIdentityRejected(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/document_collections")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCollectionEditingEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	c := env.client("user-1", "me@example.com")
	ctx := context.Background()

	// Create through the draft store, as the editor views do.
	store := draft.NewStore(c)
	_, err := store.Load(ctx, "")
	require.NoError(t, err)

	_, err = store.UpdateField("name", "Invoices")
	require.NoError(t, err)
	_, err = store.UpdateField("description", "Scanned invoices")
	require.NoError(t, err)

	store.SetPipelineEnabled("entity_extraction", true, domain.PipelineConfig{
		Name:                 "Entity Extraction",
		TemplateIDSelected:   "none",
		TemplateNameSelected: "none",
	})

	require.True(t, store.CanSubmit())
	d, err := store.Submit(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, d.CollectionID)

	// The saved collection is visible in the list and hydrates a new store.
	collections, err := c.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, "Invoices", collections[0].Name)
	assert.True(t, collections[0].EnrichmentPipelines["entity_extraction"].Enabled)

	second := draft.NewStore(c)
	reloaded, err := second.Load(ctx, d.CollectionID)
	require.NoError(t, err)
	assert.Equal(t, "Scanned invoices", reloaded.Description)
	assert.Equal(t, "Entity Extraction", reloaded.EnrichmentPipelines["entity_extraction"].Name)

	// Delete returns the refreshed (now empty) list.
	remaining, err := c.DeleteCollection(ctx, d.CollectionID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestSharingEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	c := env.client("user-1", "me@example.com")
	ctx := context.Background()

	require.NoError(t, env.userRepo.Upsert(&domain.User{UserID: "u2", Email: "ana@example.com"}))

	created, err := c.UpsertCollection(ctx, domain.CollectionPayload{
		Name:        "Invoices",
		Description: "Scanned invoices",
	})
	require.NoError(t, err)

	store := draft.NewStore(c)
	_, err = store.Load(ctx, created.CollectionID)
	require.NoError(t, err)

	d, err := store.AddShareUser(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com"}, d.ShareList)

	rows := store.ShareRows()
	require.Len(t, rows, 1)
	assert.Equal(t, "ana@example.com", rows[0].Key)

	// Autocomplete hits the user directory.
	lookup, err := c.UserLookup(ctx, created.CollectionID, "ana@", 10, "")
	require.NoError(t, err)
	require.Len(t, lookup.Users, 1)
	assert.Equal(t, "u2", lookup.Users[0].UserID)

	// Prefix below the minimum is rejected.
	_, err = c.UserLookup(ctx, created.CollectionID, "an", 10, "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	d, err = store.RemoveShareUser(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Empty(t, d.ShareList)

	// The shared collection is visible to the grantee while shared.
	_, err = store.AddShareUser(ctx, "ana@example.com")
	require.NoError(t, err)
	theirList, err := env.client("u2", "ana@example.com").ListCollections(ctx)
	require.NoError(t, err)
	assert.Len(t, theirList, 1)
}

func TestPromptTemplatesEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	c := env.client("user-1", "me@example.com")
	ctx := context.Background()

	created, err := c.UpsertPromptTemplate(ctx, domain.PromptTemplatePayload{
		TemplateName: "Extract People",
		TemplateText: "Extract every person from: {user_input}",
		ModelIDs:     []string{"qwen2.5:7b"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.TemplateID)

	got, err := c.GetPromptTemplate(ctx, created.TemplateID)
	require.NoError(t, err)
	assert.Equal(t, "Extract People", got.TemplateName)

	// Another user cannot read it.
	_, err = env.client("u2", "ana@example.com").GetPromptTemplate(ctx, created.TemplateID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	templates, err := c.ListPromptTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)

	options := draft.TemplateOptions(templates)
	assert.Equal(t, "Extract People", options[created.TemplateID].Name)

	remaining, err := c.DeletePromptTemplate(ctx, created.TemplateID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestEnrichmentPipelineCatalog(t *testing.T) {
	env := newTestEnv(t)
	c := env.client("user-1", "me@example.com")

	catalog, err := c.ListEnrichmentPipelines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Entity Extraction", catalog["entity_extraction"].Name)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	c := env.client("user-1", "me@example.com")
	ctx := context.Background()

	_, err := c.UpsertCollection(ctx, domain.CollectionPayload{Name: "Invoices", Description: "d"})
	require.NoError(t, err)

	stats, err := c.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCollections)
	// The auth middleware records the caller in the user directory.
	assert.Equal(t, 1, stats.TotalUsers)
}
