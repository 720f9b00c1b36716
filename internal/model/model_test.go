package model

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/postcheck/internal/rulebook"
)

type fakeChat struct {
	content string
	err     error
	delay   time.Duration
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return openai.ChatCompletionResponse{}, ctx.Err()
		}
	}
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func TestReview_ParsesContract(t *testing.T) {
	r := &Reviewer{
		Client: &fakeChat{content: "Label: yellow\nRewrite: A calmer caption"},
		Model:  "test-model",
	}
	got := r.Review(context.Background(), &rulebook.Rulebook{Platform: "demo"}, "some text")
	if got.Label != "yellow" || got.Rewrite != "A calmer caption" || got.Error != "" {
		t.Fatalf("got %+v", got)
	}
	if got.Name != "test-model" {
		t.Fatalf("review must carry the model name, got %q", got.Name)
	}
}

func TestReview_DeviationIsUnknown(t *testing.T) {
	for _, content := range []string{
		"sure! here is my analysis...",
		"Label: purple\nRewrite: x",
		"Label: green",
		"Label: green\nRewrite: ok\nextra line",
		"Rewrite: ok\nLabel: green",
	} {
		r := &Reviewer{Client: &fakeChat{content: content}, Model: "m"}
		got := r.Review(context.Background(), nil, "text")
		if got.Label != "unknown" || got.Rewrite != "" {
			t.Fatalf("content %q: got %+v, want unknown label", content, got)
		}
	}
}

func TestReview_TransportErrorSurfaced(t *testing.T) {
	r := &Reviewer{Client: &fakeChat{err: errors.New("connection refused")}, Model: "m"}
	got := r.Review(context.Background(), nil, "text")
	if got.Error == "" || got.Label != "" {
		t.Fatalf("transport errors must surface in Error only, got %+v", got)
	}
}

func TestReview_Timeout(t *testing.T) {
	r := &Reviewer{
		Client:  &fakeChat{content: "Label: green\nRewrite: x", delay: time.Second},
		Model:   "m",
		Timeout: 20 * time.Millisecond,
	}
	start := time.Now()
	got := r.Review(context.Background(), nil, "text")
	if got.Error == "" {
		t.Fatalf("expected a timeout error, got %+v", got)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("timeout did not bound the call")
	}
}

func TestReview_Unconfigured(t *testing.T) {
	r := &Reviewer{}
	if got := r.Review(context.Background(), nil, "text"); got.Error == "" {
		t.Fatalf("unconfigured reviewer must report an error, got %+v", got)
	}
}
