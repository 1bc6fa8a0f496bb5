package embed

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
)

// ErrEmptyText is returned when there is nothing to embed.
var ErrEmptyText = errors.New("embed: empty text")

// normalize scales vec to unit L2 norm in place. Stored vectors must be
// unit length so cosine similarity reduces to a dot product. Returns false
// for a zero vector, which has no direction to preserve.
func normalize(vec []float64) bool {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return false
	}
	for i := range vec {
		vec[i] /= norm
	}
	return true
}

// Client produces a fixed-dimension vector representation of a text.
type Client interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// NewClient picks an embedding backend from the provider name.
// Supported providers: "ollama", "local". When the provider is empty, an
// Ollama URL selects "ollama" and anything else falls back to "local".
func NewClient(provider, ollamaURL, model string) Client {
	provider = strings.ToLower(provider)
	if provider == "" {
		if ollamaURL != "" {
			provider = "ollama"
		} else {
			provider = "local"
		}
	}

	switch provider {
	case "ollama":
		if ollamaURL == "" {
			slog.Warn("embedding provider is ollama but no URL configured, using local embedder")
			return NewLocalClient(defaultDimensions)
		}
		slog.Info("using ollama embedding client", "model", model)
		return NewOllamaClient(ollamaURL, model)
	default:
		slog.Info("using local embedding client")
		return NewLocalClient(defaultDimensions)
	}
}
