package embed

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ProviderType represents an embedding provider.
type ProviderType string

const (
	// ProviderStatic uses hash-based embeddings. It is the only backend
	// this package ships a concrete implementation for; the others are
	// kept as named values so config/CLI parsing has somewhere to point
	// when an external collaborator registers itself.
	ProviderStatic ProviderType = "static"

	// ProviderOllama and ProviderMLX name external embedding backends.
	// Neither has a concrete implementation in this package.
	ProviderOllama ProviderType = "ollama"
	ProviderMLX    ProviderType = "mlx"
)

// NewEmbedder creates an embedder for provider. Only ProviderStatic has a
// concrete implementation; the zero value selects it too, and any other
// value returns an error.
func NewEmbedder(ctx context.Context, provider ProviderType, model string) (Embedder, error) {
	var embedder Embedder
	switch provider {
	case ProviderStatic, "":
		embedder = NewStaticEmbedder()
	default:
		return nil, fmt.Errorf("embed: provider %q has no backend in this build, use %q", provider, ProviderStatic)
	}

	embedder = NewRetryingEmbedder(embedder, DefaultRetryConfig())

	if !isCacheDisabled() {
		embedder = NewCachedEmbedderWithDefaults(embedder)
	}

	return embedder, nil
}

// isCacheDisabled checks if embedding cache is disabled via environment.
func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("AMANMCP_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

// NewDefaultEmbedder creates the default embedder (static, StaticDimensions dims).
func NewDefaultEmbedder(ctx context.Context) (Embedder, error) {
	return NewEmbedder(ctx, ProviderStatic, "")
}

// ParseProvider converts a string to ProviderType, defaulting to static
// for anything unrecognized since it's the only backend available.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(s) {
	case "mlx":
		return ProviderMLX
	case "ollama", "llama":
		return ProviderOllama
	default:
		return ProviderStatic
	}
}

// String returns the string representation of ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// ValidProviders returns all known provider names, whether or not this
// build has a concrete backend for them.
func ValidProviders() []string {
	return []string{
		string(ProviderStatic),
		string(ProviderOllama),
		string(ProviderMLX),
	}
}

// IsValidProvider checks if a provider name is valid.
func IsValidProvider(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range ValidProviders() {
		if lower == p {
			return true
		}
	}
	return false
}

// EmbedderInfo contains information about an embedder.
type EmbedderInfo struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	Available  bool
}

// GetInfo returns information about an embedder.
func GetInfo(ctx context.Context, embedder Embedder) EmbedderInfo {
	info := EmbedderInfo{
		Model:      embedder.ModelName(),
		Dimensions: embedder.Dimensions(),
		Available:  embedder.Available(ctx),
	}

	info.Provider = ProviderStatic
	return info
}

// MustNewEmbedder creates an embedder and panics on failure. Use only in
// tests or initialization code where failure is fatal.
func MustNewEmbedder(ctx context.Context, provider ProviderType, model string) Embedder {
	embedder, err := NewEmbedder(ctx, provider, model)
	if err != nil {
		panic(fmt.Sprintf("failed to create embedder: %v", err))
	}
	return embedder
}

