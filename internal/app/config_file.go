package app

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the optional single-file YAML configuration. Precedence is
// flag > env > file > default; only set members override.
type FileConfig struct {
	Addr string `yaml:"addr"`

	Rulebooks string `yaml:"rulebooks"`
	Receipts  string `yaml:"receipts"`

	LLM struct {
		BaseURL string `yaml:"base"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"key"`
	} `yaml:"llm"`

	Image struct {
		MinWidth            int    `yaml:"minWidth"`
		MinHeight           int    `yaml:"minHeight"`
		MinBytes            int    `yaml:"minBytes"`
		CounterfeitSeverity string `yaml:"counterfeitSeverity"`
	} `yaml:"image"`

	Verbose *bool `yaml:"verbose"`
}

// LoadFileConfig reads and parses path. A missing path is the caller's
// decision; this returns errors for unreadable or malformed files.
func LoadFileConfig(path string) (*FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &fc, nil
}

// Apply overlays the file values onto cfg, skipping unset members.
func (fc *FileConfig) Apply(cfg *Config) {
	if fc == nil {
		return
	}
	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.Rulebooks != "" {
		cfg.RulebookDir = fc.Rulebooks
	}
	if fc.Receipts != "" {
		cfg.ReceiptPath = fc.Receipts
	}
	if fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if fc.Image.MinWidth > 0 {
		cfg.ImageMinWidth = fc.Image.MinWidth
	}
	if fc.Image.MinHeight > 0 {
		cfg.ImageMinHeight = fc.Image.MinHeight
	}
	if fc.Image.MinBytes > 0 {
		cfg.ImageMinBytes = fc.Image.MinBytes
	}
	if fc.Image.CounterfeitSeverity != "" {
		cfg.CounterfeitSeverity = fc.Image.CounterfeitSeverity
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
}
