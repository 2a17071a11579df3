package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"spendwise/internal/domain"
	"spendwise/internal/metrics"
)

const (
	defaultHTTPTimeout = 120 * time.Second
	defaultMaxTokens   = 1024
)

// OpenAI implements domain.Gateway against any OpenAI-compatible
// chat-completions API. The finance store is consulted only to build the
// system prompt (category list, profile snapshot, active budgets and goals).
type OpenAI struct {
	apiKey      string
	apiBase     string
	model       string
	temperature float64
	client      *http.Client
	store       domain.FinanceStore
	logger      *slog.Logger
}

type OpenAIConfig struct {
	APIKey      string
	APIBase     string
	Model       string
	Temperature float64
	Store       domain.FinanceStore
	Logger      *slog.Logger
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.2
	}
	return &OpenAI{
		apiKey:      cfg.APIKey,
		apiBase:     cfg.APIBase,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: defaultHTTPTimeout},
		store:       cfg.Store,
		logger:      cfg.Logger,
	}
}

type oaiRequest struct {
	Model       string       `json:"model"`
	Messages    []oaiMessage `json:"messages"`
	Tools       []oaiTool    `json:"tools,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
	Stream      bool         `json:"stream"`
}

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiTool struct {
	Type     string      `json:"type"`
	Function oaiFunction `json:"function"`
}

type oaiFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type oaiToolCall struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Function oaiToolCallFn `json:"function"`
}

type oaiToolCallFn struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type oaiResponse struct {
	Choices []oaiChoice `json:"choices"`
}

type oaiChoice struct {
	Message struct {
		Content   string        `json:"content"`
		ToolCalls []oaiToolCall `json:"tool_calls,omitempty"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// Complete classifies user text against the published intent schemas.
// History exchanges are replayed verbatim, in order, before the new message.
func (o *OpenAI) Complete(ctx context.Context, userID, text string, history []domain.Exchange) (*domain.Intent, error) {
	system, err := o.buildSystemPrompt(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("build system prompt: %w", err)
	}

	msgs := make([]oaiMessage, 0, 2*len(history)+2)
	msgs = append(msgs, oaiMessage{Role: "system", Content: system})
	for _, ex := range history {
		if ex.UserMessage != "" {
			msgs = append(msgs, oaiMessage{Role: "user", Content: ex.UserMessage})
		}
		if ex.BotMessage != "" {
			msgs = append(msgs, oaiMessage{Role: "assistant", Content: ex.BotMessage})
		}
	}
	msgs = append(msgs, oaiMessage{Role: "user", Content: text})

	resp, err := o.chat(ctx, msgs, intentTools())
	if err != nil {
		return nil, err
	}

	if len(resp.Message.ToolCalls) > 0 {
		tc := resp.Message.ToolCalls[0]
		params, err := decodeArguments(tc.Function.Arguments)
		if err != nil {
			return nil, fmt.Errorf("decode tool arguments for %s: %w", tc.Function.Name, err)
		}
		o.logger.Debug("structured call", "intent", tc.Function.Name)
		return &domain.Intent{Call: &domain.StructuredCall{
			Name:       tc.Function.Name,
			Parameters: params,
		}}, nil
	}

	reply := resp.Message.Content
	if reply == "" {
		reply = "I'm unable to process your request at this time."
	}
	return &domain.Intent{Reply: reply}, nil
}

// Refine runs a plain completion over a single query with no tools attached.
func (o *OpenAI) Refine(ctx context.Context, query string) (string, error) {
	resp, err := o.chat(ctx, []oaiMessage{
		{Role: "system", Content: refinePrompt},
		{Role: "user", Content: query},
	}, nil)
	if err != nil {
		return "", err
	}
	if resp.Message.Content == "" {
		return "I'm unable to process your request at this time.", nil
	}
	return resp.Message.Content, nil
}

// chat performs one completion request and returns the first choice.
func (o *OpenAI) chat(ctx context.Context, msgs []oaiMessage, tools []oaiTool) (*oaiChoice, error) {
	metrics.GatewayRequests.Inc()

	body := oaiRequest{
		Model:       o.model,
		Messages:    msgs,
		Tools:       tools,
		MaxTokens:   defaultMaxTokens,
		Temperature: &o.temperature,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.apiBase+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed oaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("gateway returned no choices")
	}
	return &parsed.Choices[0], nil
}

// decodeArguments parses the tool-call argument JSON preserving numeric
// precision (amounts must survive as written, not as float64).
func decodeArguments(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var params map[string]any
	if err := dec.Decode(&params); err != nil {
		return nil, err
	}
	if params == nil {
		params = make(map[string]any)
	}
	return params, nil
}
