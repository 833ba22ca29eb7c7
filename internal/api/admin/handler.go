package admin

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ragbase/console/internal/api/middleware"
	"github.com/ragbase/console/internal/domain"
	"github.com/ragbase/console/internal/service"
)

// Handler handles console API requests
type Handler struct {
	collections *service.CollectionService
	templates   *service.TemplateService
	pipelines   *service.PipelineService
	generation  *service.GenerationService
	stats       *service.StatsService
}

// NewHandler creates a new console handler
func NewHandler(
	collections *service.CollectionService,
	templates *service.TemplateService,
	pipelines *service.PipelineService,
	generation *service.GenerationService,
	stats *service.StatsService,
) *Handler {
	return &Handler{
		collections: collections,
		templates:   templates,
		pipelines:   pipelines,
		generation:  generation,
		stats:       stats,
	}
}

// RegisterRoutes registers console routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	collections := r.Group("/document_collections")
	{
		collections.GET("", h.ListCollections)
		collections.POST("", h.UpsertCollection)
		collections.DELETE("", h.DeleteCollection)
		collections.POST("/:id/documents", h.UploadFile)
		collections.GET("/:id/:limit/*lastEvalKey", h.ListFiles)
		collections.DELETE("/:id/:fileName", h.DeleteFile)
	}

	r.GET("/enrichment_pipelines", h.ListEnrichmentPipelines)

	templates := r.Group("/prompt_templates")
	{
		templates.GET("", h.ListPromptTemplates)
		templates.GET("/:id", h.GetPromptTemplate)
		templates.POST("", h.UpsertPromptTemplate)
		templates.DELETE("", h.DeletePromptTemplate)
	}

	sharing := r.Group("/sharing")
	{
		sharing.POST("", h.ShareCollection)
		sharing.DELETE("/:collectionId/:email", h.UnshareCollection)
		sharing.GET("/:collectionId/:prefix/:limit/*lastEvalKey", h.UserLookup)
	}

	r.POST("/generation", h.Generate)
	r.GET("/stats", h.GetStats)
}

func identity(c *gin.Context) (string, string) {
	return c.GetString(middleware.ContextUserID), c.GetString(middleware.ContextUserEmail)
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// pageToken strips the leading slash a trailing wildcard route segment
// carries.
func pageToken(c *gin.Context, name string) string {
	return strings.TrimPrefix(c.Param(name), "/")
}

func pageLimit(c *gin.Context, name string) int {
	limit, _ := strconv.Atoi(c.Param(name))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return limit
}

// Collection handlers

func (h *Handler) ListCollections(c *gin.Context) {
	userID, email := identity(c)
	collections, err := h.collections.ListVisible(c.Request.Context(), userID, email)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	if collections == nil {
		collections = []*domain.Collection{}
	}

	c.JSON(http.StatusOK, collections)
}

func (h *Handler) UpsertCollection(c *gin.Context) {
	var req domain.UpsertCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, email := identity(c)
	creating := req.DocumentCollection.CollectionID == ""
	collection, err := h.collections.Upsert(c.Request.Context(), userID, email, req.DocumentCollection)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	if creating {
		c.JSON(http.StatusCreated, collection)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func (h *Handler) DeleteCollection(c *gin.Context) {
	var req domain.DeleteCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, email := identity(c)
	if err := h.collections.Delete(c.Request.Context(), userID, req.CollectionID); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	collections, err := h.collections.ListVisible(c.Request.Context(), userID, email)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	if collections == nil {
		collections = []*domain.Collection{}
	}

	c.JSON(http.StatusOK, collections)
}

// File handlers

func (h *Handler) UploadFile(c *gin.Context) {
	collectionID := c.Param("id")

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	userID, _ := identity(c)
	record, err := h.collections.UploadFile(c.Request.Context(), userID, collectionID, fh)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *Handler) ListFiles(c *gin.Context) {
	userID, email := identity(c)
	result, err := h.collections.ListFiles(c.Request.Context(), userID, email,
		c.Param("id"), pageLimit(c, "limit"), pageToken(c, "lastEvalKey"))
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) DeleteFile(c *gin.Context) {
	userID, _ := identity(c)
	if err := h.collections.DeleteFile(c.Request.Context(), userID, c.Param("id"), c.Param("fileName")); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}

// Enrichment pipeline handlers

func (h *Handler) ListEnrichmentPipelines(c *gin.Context) {
	c.JSON(http.StatusOK, h.pipelines.Catalog(c.Request.Context()))
}

// Prompt template handlers

func (h *Handler) ListPromptTemplates(c *gin.Context) {
	userID, _ := identity(c)
	templates, err := h.templates.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	if templates == nil {
		templates = []*domain.PromptTemplate{}
	}

	c.JSON(http.StatusOK, templates)
}

func (h *Handler) GetPromptTemplate(c *gin.Context) {
	userID, _ := identity(c)
	template, err := h.templates.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	if template == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "prompt template not found"})
		return
	}

	c.JSON(http.StatusOK, template)
}

func (h *Handler) UpsertPromptTemplate(c *gin.Context) {
	var req domain.UpsertPromptTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := identity(c)
	creating := req.PromptTemplate.TemplateID == ""
	template, err := h.templates.Upsert(c.Request.Context(), userID, req.PromptTemplate)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	if creating {
		c.JSON(http.StatusCreated, template)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (h *Handler) DeletePromptTemplate(c *gin.Context) {
	var req domain.DeletePromptTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := identity(c)
	if err := h.templates.Delete(c.Request.Context(), userID, req.PromptTemplate.TemplateID); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	templates, err := h.templates.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	if templates == nil {
		templates = []*domain.PromptTemplate{}
	}

	c.JSON(http.StatusOK, templates)
}

// Sharing handlers

func (h *Handler) ShareCollection(c *gin.Context) {
	var req domain.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := identity(c)
	sharedWith, err := h.collections.Share(c.Request.Context(), userID, req.CollectionID, req.ShareWithEmail)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sharedWith)
}

func (h *Handler) UnshareCollection(c *gin.Context) {
	userID, _ := identity(c)
	sharedWith, err := h.collections.Unshare(c.Request.Context(), userID, c.Param("collectionId"), c.Param("email"))
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	if sharedWith == nil {
		sharedWith = []string{}
	}

	c.JSON(http.StatusOK, sharedWith)
}

func (h *Handler) UserLookup(c *gin.Context) {
	userID, _ := identity(c)
	result, err := h.collections.UserLookup(c.Request.Context(), userID,
		c.Param("collectionId"), c.Param("prefix"), pageLimit(c, "limit"), pageToken(c, "lastEvalKey"))
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Generation handler

func (h *Handler) Generate(c *gin.Context) {
	var req domain.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := identity(c)
	result, err := h.generation.Generate(c.Request.Context(), userID, req.MessageObj)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Stats handler

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
