// Package model calls an OpenAI-compatible text endpoint to second-guess the
// rule engine. The contract is deliberately rigid: the reply must be exactly
// two lines, "Label: <green|yellow|red>" and "Rewrite: <text>"; anything else
// degrades to an unknown label so the verdict never depends on model whims.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/postcheck/internal/engine"
	"github.com/hyperifyio/postcheck/internal/rulebook"
)

// ChatClient mirrors the subset we need from the OpenAI client for testability.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// DefaultTimeout bounds one review call.
const DefaultTimeout = 2500 * time.Millisecond

// Review is the model's contribution to a verdict.
type Review struct {
	Name    string `json:"name"`
	Label   string `json:"label,omitempty"`
	Rewrite string `json:"rewrite,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Reviewer asks the model to label the post and propose a rewrite.
type Reviewer struct {
	Client  ChatClient
	Model   string
	Timeout time.Duration
}

// NewClient builds an OpenAI-compatible client against baseURL.
func NewClient(baseURL, apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

const systemMessage = "You are a marketplace content policy reviewer. Given a policy rulebook as JSON and the text of a post, respond with EXACTLY two lines and nothing else:\nLabel: <green|yellow|red>\nRewrite: <a compliant rewrite of the post text>"

// Review performs one bounded chat call and parses the two-line contract.
// Transport errors surface in Review.Error; parse deviations yield label
// "unknown" with no rewrite. Neither ever fails the request.
func (r *Reviewer) Review(ctx context.Context, rb *rulebook.Rulebook, text string) Review {
	out := Review{Name: r.Model}
	if r.Client == nil || strings.TrimSpace(r.Model) == "" {
		out.Error = "model not configured"
		return out
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rbJSON, err := json.Marshal(rb)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	user := "Rulebook:\n" + string(rbJSON) + "\n\nPost text:\n" + text

	resp, err := r.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
		N:           1,
	})
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if len(resp.Choices) == 0 {
		out.Error = errors.New("no choices").Error()
		return out
	}

	label, rewriteText := parseReply(resp.Choices[0].Message.Content)
	out.Label = label
	out.Rewrite = rewriteText
	return out
}

// parseReply enforces the two-line contract. Any deviation yields
// ("unknown", "").
func parseReply(content string) (label, rewriteText string) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) != 2 {
		return "unknown", ""
	}
	first := strings.TrimSpace(lines[0])
	second := strings.TrimSpace(lines[1])
	if !strings.HasPrefix(first, "Label:") || !strings.HasPrefix(second, "Rewrite:") {
		return "unknown", ""
	}
	raw := strings.TrimSpace(strings.TrimPrefix(first, "Label:"))
	if _, ok := engine.ParseLevel(raw); !ok {
		return "unknown", ""
	}
	return strings.ToLower(raw), strings.TrimSpace(strings.TrimPrefix(second, "Rewrite:"))
}
