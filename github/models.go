package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Conversation roles understood by the completion API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

// functionCallNone forces the model to answer in plain text.
const functionCallNone = "none"

// ModelsClient talks to an OpenAI-compatible chat completions endpoint.
type ModelsClient struct {
	url         string
	token       string
	model       string
	temperature float64
	httpClient  *http.Client
}

type Message struct {
	Role         string        `json:"role"`
	Content      string        `json:"content"`
	Name         string        `json:"name,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// IsFunctionCall reports whether the model asked for a function to be run
// instead of answering.
func (m *Message) IsFunctionCall() bool {
	return m.FunctionCall != nil && m.FunctionCall.Name != ""
}

// FunctionCall is the model's request to run a named function. Arguments is
// a JSON object encoded as a string.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Function describes a callable function advertised to the model.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Parameters is the JSON-schema object describing a function's arguments.
type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// CompleteOptions controls function calling for a single request.
type CompleteOptions struct {
	Functions []Function
	// SuppressFunctionCall sets function_call to "none".
	SuppressFunctionCall bool
}

type chatRequest struct {
	Model        string     `json:"model"`
	Messages     []Message  `json:"messages"`
	Functions    []Function `json:"functions,omitempty"`
	FunctionCall string     `json:"function_call,omitempty"`
	Temperature  float64    `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewModelsClient(url, token, model string, temperature float64) *ModelsClient {
	return &ModelsClient{
		url:         url,
		token:       token,
		model:       model,
		temperature: temperature,
		httpClient:  &http.Client{},
	}
}

// Complete sends the conversation and returns the top choice's message.
func (m *ModelsClient) Complete(ctx context.Context, messages []Message, opts CompleteOptions) (*Message, error) {
	reqBody := chatRequest{
		Model:       m.model,
		Messages:    messages,
		Functions:   opts.Functions,
		Temperature: m.temperature,
	}
	if opts.SuppressFunctionCall {
		reqBody.FunctionCall = functionCallNone
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.token)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to completion API failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion API returned %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("completion API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("completion API returned no choices")
	}

	reply := chatResp.Choices[0].Message
	log.WithFields(log.Fields{
		"model":         m.model,
		"function_call": reply.IsFunctionCall(),
	}).Debug("completion received")
	return &reply, nil
}
