package domain

// ModelSpec identifies a model and its generation arguments for one request.
// ModelArgs keys are validated against the model family's parameter
// descriptors before the request is assembled.
type ModelSpec struct {
	ModelID   string         `json:"model_id"`
	ModelArgs map[string]any `json:"model_args,omitempty"`
}

// ChatMessage is one turn sent to the generation endpoint.
type ChatMessage struct {
	UserChatID          string    `json:"user_chat_id,omitempty"`
	MessageID           string    `json:"message_id,omitempty"`
	HumanMessage        string    `json:"human_message" binding:"required"`
	Model               ModelSpec `json:"model" binding:"required"`
	PromptTemplate      string    `json:"prompt_template,omitempty"`
	DocumentCollections []string  `json:"document_collections,omitempty"`
}

// GenerationRequest is the body of POST /generation.
type GenerationRequest struct {
	MessageObj ChatMessage `json:"messageObj" binding:"required"`
}

// GenerationResponse is the model's text response.
type GenerationResponse struct {
	Response string `json:"response"`
}

// Stats represents system statistics.
type Stats struct {
	TotalCollections int `json:"total_collections"`
	TotalTemplates   int `json:"total_templates"`
	TotalUsers       int `json:"total_users"`
}
