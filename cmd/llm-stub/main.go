// Command llm-stub is a deterministic OpenAI-compatible chat stub for local
// testing. It understands the reviewer contract and answers with the
// two-line "Label:"/"Rewrite:" form, labelling by keyword so integration
// tests can steer the verdict without a real model.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "stub-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		sys, user := "", ""
		if len(req.Messages) > 0 {
			sys = req.Messages[0].Content
		}
		if len(req.Messages) >= 2 {
			user = req.Messages[1].Content
		}
		if !strings.Contains(sys, "content policy reviewer") {
			http.Error(w, "unexpected system", http.StatusBadRequest)
			return
		}
		content := reply(user)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})

	log.Printf("llm-stub listening on %s (model=%s)", addr, model)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

// reply labels by keyword. "BADLINE" exercises the malformed-reply path,
// "red"/"yellow" force those labels, everything else is green with a bland
// rewrite so callers can assert the rewrite flowed through.
func reply(user string) string {
	lower := strings.ToLower(user)
	switch {
	case strings.Contains(lower, "badline"):
		return "I cannot help with that."
	case strings.Contains(lower, "red"):
		return "Label: red\nRewrite: this product is intended for general lifestyle use"
	case strings.Contains(lower, "yellow"):
		return "Label: yellow\nRewrite: designed to support overall wellness"
	default:
		return "Label: green\nRewrite: supports your daily routine"
	}
}
