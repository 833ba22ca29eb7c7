// Package client is a Go client for the console REST API. The draft
// package drives collection editing through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ragbase/console/internal/domain"
)

// APIError is a non-2xx response from the console API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Is maps API statuses onto the domain sentinels so callers can use
// errors.Is without inspecting status codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrForbidden:
		return e.Status == http.StatusForbidden
	case domain.ErrInvalidRequest:
		return e.Status == http.StatusBadRequest
	case domain.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// Client calls the console REST API.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	userID  string
	email   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithIdentity sets the dev-mode identity headers sent on every request.
func WithIdentity(userID, email string) Option {
	return func(c *Client) {
		c.userID = userID
		c.email = email
	}
}

// NewClient creates a client for the console API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setIdentity(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setIdentity(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userID != "" {
		req.Header.Set("X-User-Id", c.userID)
	}
	if c.email != "" {
		req.Header.Set("X-User-Email", c.email)
	}
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error}
}

// pagePath builds a list path with limit and page token segments. The token
// segment is always present, empty on the first page.
func pagePath(parts []string, limit int, lastEvalKey string) string {
	escaped := make([]string, 0, len(parts)+2)
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	escaped = append(escaped, strconv.Itoa(limit), url.PathEscape(lastEvalKey))
	return "/" + strings.Join(escaped, "/")
}

// ListCollections retrieves every collection visible to the caller.
func (c *Client) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	var out []domain.Collection
	if err := c.do(ctx, http.MethodGet, "/document_collections", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertCollection creates or updates a collection from the full payload and
// returns the server's canonical record.
func (c *Client) UpsertCollection(ctx context.Context, payload domain.CollectionPayload) (*domain.Collection, error) {
	var out domain.Collection
	req := domain.UpsertCollectionRequest{DocumentCollection: payload}
	if err := c.do(ctx, http.MethodPost, "/document_collections", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCollection removes a collection and returns the refreshed list.
func (c *Client) DeleteCollection(ctx context.Context, collectionID string) ([]domain.Collection, error) {
	var out []domain.Collection
	req := domain.DeleteCollectionRequest{CollectionID: collectionID}
	if err := c.do(ctx, http.MethodDelete, "/document_collections", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadFile uploads one file into a collection.
func (c *Client) UploadFile(ctx context.Context, collectionID, fileName string, data io.Reader) (*domain.FileRecord, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	path := "/document_collections/" + url.PathEscape(collectionID) + "/documents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setIdentity(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp)
	}
	var out domain.FileRecord
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListFiles retrieves a page of files stored under a collection.
func (c *Client) ListFiles(ctx context.Context, collectionID string, limit int, lastEvalKey string) (*domain.FileListResponse, error) {
	var out domain.FileListResponse
	path := pagePath([]string{"document_collections", collectionID}, limit, lastEvalKey)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteFile removes one file from a collection.
func (c *Client) DeleteFile(ctx context.Context, collectionID, fileName string) error {
	path := "/document_collections/" + url.PathEscape(collectionID) + "/" + url.PathEscape(fileName)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ListEnrichmentPipelines retrieves the platform pipeline catalog.
func (c *Client) ListEnrichmentPipelines(ctx context.Context) (map[string]domain.PipelineCatalogEntry, error) {
	var out map[string]domain.PipelineCatalogEntry
	if err := c.do(ctx, http.MethodGet, "/enrichment_pipelines", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPromptTemplates retrieves the caller's prompt templates.
func (c *Client) ListPromptTemplates(ctx context.Context) ([]domain.PromptTemplate, error) {
	var out []domain.PromptTemplate
	if err := c.do(ctx, http.MethodGet, "/prompt_templates", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPromptTemplate retrieves one prompt template by id.
func (c *Client) GetPromptTemplate(ctx context.Context, templateID string) (*domain.PromptTemplate, error) {
	var out domain.PromptTemplate
	if err := c.do(ctx, http.MethodGet, "/prompt_templates/"+url.PathEscape(templateID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpsertPromptTemplate creates or updates a prompt template.
func (c *Client) UpsertPromptTemplate(ctx context.Context, payload domain.PromptTemplatePayload) (*domain.PromptTemplate, error) {
	var out domain.PromptTemplate
	req := domain.UpsertPromptTemplateRequest{PromptTemplate: payload}
	if err := c.do(ctx, http.MethodPost, "/prompt_templates", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePromptTemplate removes a prompt template and returns the refreshed
// list.
func (c *Client) DeletePromptTemplate(ctx context.Context, templateID string) ([]domain.PromptTemplate, error) {
	var req domain.DeletePromptTemplateRequest
	req.PromptTemplate.TemplateID = templateID

	var out []domain.PromptTemplate
	if err := c.do(ctx, http.MethodDelete, "/prompt_templates", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ShareCollection grants a user access to a collection and returns the
// server's updated share list.
func (c *Client) ShareCollection(ctx context.Context, collectionID, email string) ([]string, error) {
	var out []string
	req := domain.ShareRequest{CollectionID: collectionID, ShareWithEmail: email}
	if err := c.do(ctx, http.MethodPost, "/sharing", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnshareCollection revokes a user's access and returns the server's updated
// share list.
func (c *Client) UnshareCollection(ctx context.Context, collectionID, email string) ([]string, error) {
	var out []string
	path := "/sharing/" + url.PathEscape(collectionID) + "/" + url.PathEscape(email)
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserLookup searches the user directory by email prefix.
func (c *Client) UserLookup(ctx context.Context, collectionID, prefix string, limit int, lastEvalKey string) (*domain.UserLookupResponse, error) {
	var out domain.UserLookupResponse
	path := pagePath([]string{"sharing", collectionID, prefix}, limit, lastEvalKey)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Generate runs one chat generation and returns the model's response.
func (c *Client) Generate(ctx context.Context, msg domain.ChatMessage) (*domain.GenerationResponse, error) {
	var out domain.GenerationResponse
	req := domain.GenerationRequest{MessageObj: msg}
	if err := c.do(ctx, http.MethodPost, "/generation", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStats retrieves platform-wide counters.
func (c *Client) GetStats(ctx context.Context) (*domain.Stats, error) {
	var out domain.Stats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
