package domain

// Provider is a closed set of model backends.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Providers lists all backends in display order.
var Providers = []Provider{ProviderOllama, ProviderOpenAI, ProviderAnthropic}

// ExampleModel returns an illustrative model string shown next to the
// provider when the user is asked to type a model name.
func (p Provider) ExampleModel() string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-haiku-4-5"
	default:
		return "gemma3:12b"
	}
}

// Valid reports whether p is one of the known backends.
func (p Provider) Valid() bool {
	switch p {
	case ProviderOllama, ProviderOpenAI, ProviderAnthropic:
		return true
	}
	return false
}

// Purpose separates the two independent model selections a user keeps.
type Purpose string

const (
	PurposeDigest   Purpose = "digest"
	PurposeDocument Purpose = "document"
)

// ModelChoice is a user's active (provider, model) pair for one purpose.
type ModelChoice struct {
	Provider Provider
	Model    string
}
