// Package ai proxies chat requests to an OpenAI-compatible completions
// endpoint.  The backend holds the API key; clients never talk to the
// provider directly.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/config"
)

// ErrTimeout is returned when the upstream does not answer in time.
var ErrTimeout = errors.New("ai: upstream timed out")

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("ai: assistant is not configured")

// systemPrompt frames the assistant for the complaint portal.
const systemPrompt = "You are the ASTU Smart Complaints assistant. Help students and staff " +
	"of Adama Science and Technology University with submitting complaints, " +
	"understanding complaint statuses (open, in progress, resolved, closed, reopened), " +
	"and navigating the portal. Be concise and friendly. If asked about something " +
	"unrelated to the university or the complaint system, politely redirect the " +
	"conversation back to how you can help with complaints."

// historyLimit caps how much prior conversation is forwarded upstream.
const historyLimit = 10

const requestTimeout = 30 * time.Second

// Message is one turn of the conversation, in the upstream wire shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client calls the chat-completions API.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// NewClient builds a Client from the loaded configuration.
func NewClient(cfg config.Config) *Client {
	return &Client{
		apiKey:  cfg.OpenAIKey,
		baseURL: strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		model:   cfg.OpenAIModel,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Reply sends the user message plus the tail of the conversation history
// and returns the assistant's answer.
func (c *Client) Reply(ctx context.Context, userMessage string, history []Message) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: "system", Content: systemPrompt})
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: "user", Content: userMessage})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", ErrTimeout
		}
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("ai: upstream error: %s", out.Error.Message)
		}
		return "", fmt.Errorf("ai: upstream status %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("ai: empty response")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
