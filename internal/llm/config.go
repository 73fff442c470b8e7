// Package llm provides the embedding provider abstraction and its Gemini
// implementation.
package llm

// Provider represents an embedding provider
type Provider string

// Provider constants define supported embedding providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is the OpenAI provider (future)
	ProviderOpenAI Provider = "openai"
)

// Config holds the embedding model configuration
type Config struct {
	Provider       Provider
	EmbeddingModel string
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderGemini,
		EmbeddingModel: "text-embedding-004",
	}
}
