package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ragbase/console/internal/config"
	"github.com/ragbase/console/internal/domain"
	"github.com/ragbase/console/internal/modelparams"
	"github.com/ragbase/console/internal/repository"
)

// placeholder replaced by the user's message when a prompt template is
// applied; templates without it get the message appended.
const userInputPlaceholder = "{user_input}"

// GenerationService handles chat playground generation requests: prompt
// template resolution, model argument validation, and the model call.
type GenerationService struct {
	cfg          config.LLMConfig
	templateRepo *repository.TemplateRepository
	registry     *modelparams.Registry
	llm          *api.Client
}

// NewGenerationService creates a new generation service
func NewGenerationService(cfg config.LLMConfig, templateRepo *repository.TemplateRepository, registry *modelparams.Registry) (*GenerationService, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid llm base url: %w", err)
	}
	return &GenerationService{
		cfg:          cfg,
		templateRepo: templateRepo,
		registry:     registry,
		llm:          api.NewClient(base, http.DefaultClient),
	}, nil
}

// Generate resolves the prompt template, validates model args against the
// model family's descriptors, and returns the model's text response.
func (s *GenerationService) Generate(ctx context.Context, ownerID string, msg domain.ChatMessage) (*domain.GenerationResponse, error) {
	req, err := s.buildChatRequest(ownerID, msg)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	err = s.llm.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	return &domain.GenerationResponse{Response: sb.String()}, nil
}

// buildChatRequest assembles the model call from the normalized parameter
// descriptors. json_mode and system are request-level and are lifted out of
// the options map.
func (s *GenerationService) buildChatRequest(ownerID string, msg domain.ChatMessage) (*api.ChatRequest, error) {
	modelID := msg.Model.ModelID
	if modelID == "" {
		modelID = s.cfg.DefaultModel
	}

	params, err := s.registry.Assemble(modelID, msg.Model.ModelArgs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	prompt := msg.HumanMessage
	if msg.PromptTemplate != "" && msg.PromptTemplate != domain.TemplateNone {
		template, err := s.templateRepo.Get(msg.PromptTemplate)
		if err != nil {
			return nil, err
		}
		if template == nil {
			return nil, domain.ErrNotFound
		}
		if template.OwnerID != ownerID {
			return nil, domain.ErrForbidden
		}
		prompt = renderPrompt(template.TemplateText, msg.HumanMessage)
		if len(template.StopSequences) > 0 {
			params["stop"] = template.StopSequences
		}
	}

	req := &api.ChatRequest{
		Model:  modelID,
		Stream: new(bool),
	}

	if jsonMode, _ := params["json_mode"].(bool); jsonMode {
		req.Format = json.RawMessage(`"json"`)
	}
	delete(params, "json_mode")

	if system, _ := params["system"].(string); system != "" {
		req.Messages = append(req.Messages, api.Message{Role: "system", Content: system})
	}
	delete(params, "system")

	req.Messages = append(req.Messages, api.Message{Role: "user", Content: prompt})
	req.Options = params

	return req, nil
}

func renderPrompt(templateText, humanMessage string) string {
	if strings.Contains(templateText, userInputPlaceholder) {
		return strings.ReplaceAll(templateText, userInputPlaceholder, humanMessage)
	}
	return templateText + "\n\n" + humanMessage
}
