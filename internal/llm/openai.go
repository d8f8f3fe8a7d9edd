package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAIClient talks to any OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
}

// wire format (OpenAI chat completions with tool calling)
type chatMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type wireTool struct {
	Type     string      `json:"type"`
	Function wireToolDef `json:"function"`
}

type wireToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatCompletionsRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	Tools       []wireTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
	Message      chatMessage `json:"message"`
}

type chatCompletionsResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

// NewOpenAIClient constructs a client. baseURL may be empty for the default
// OpenAI endpoint; point it at any compatible vendor otherwise.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAIClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
	}
}

// Complete performs one chat completion. The reply is either plain text or
// carries a single structured tool call; when the engine returns several
// tool calls only the first is kept, one action per turn being the contract
// with the turn processor.
func (c *OpenAIClient) Complete(ctx context.Context, r Request) (Reply, error) {
	if c.APIKey == "" {
		return Reply{}, &CompletionError{Err: fmt.Errorf("api key missing")}
	}

	msgs := make([]chatMessage, 0, len(r.Messages))
	for _, m := range r.Messages {
		msgs = append(msgs, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	body := chatCompletionsRequest{
		Model:       r.Model,
		Messages:    msgs,
		Temperature: r.Temperature,
	}
	for _, t := range r.Tools {
		body.Tools = append(body.Tools, wireTool{Type: "function", Function: wireToolDef{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		}})
	}
	if len(body.Tools) > 0 {
		body.ToolChoice = "auto"
	}

	reqBody, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return Reply{}, &CompletionError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Reply{}, &CompletionError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return Reply{}, &CompletionError{Err: fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))}
	}

	var cr chatCompletionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Reply{}, &CompletionError{Err: err}
	}
	if len(cr.Choices) == 0 {
		return Reply{}, &CompletionError{Err: fmt.Errorf("empty choices")}
	}

	msg := cr.Choices[0].Message
	out := Reply{Text: strings.TrimSpace(msg.Content)}
	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		out.ToolCall = &ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments}
	}
	return out, nil
}
