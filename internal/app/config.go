package app

// Config holds runtime configuration for the service.
type Config struct {
	// HTTP
	Addr string

	// Rules and receipts
	RulebookDir string
	ReceiptPath string

	// LLM (optional; empty model disables the reviewer)
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Image heuristics
	ImageMinWidth       int
	ImageMinHeight      int
	ImageMinBytes       int
	CounterfeitSeverity string

	// Behavior
	Verbose bool
}

// Default returns the shipped configuration.
func Default() Config {
	return Config{
		Addr:                ":8080",
		RulebookDir:         "rulebooks",
		ReceiptPath:         "receipts.jsonl",
		ImageMinWidth:       200,
		ImageMinHeight:      200,
		ImageMinBytes:       1024,
		CounterfeitSeverity: "high",
	}
}
