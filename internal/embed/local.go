package embed

import (
	"context"
	"hash/fnv"
	"strings"
)

const defaultDimensions = 256

// LocalClient is a deterministic, dependency-free embedder. It hashes word
// trigrams into a fixed-size vector and L2-normalizes the result, so equal
// texts always embed identically and cosine scores stay in [-1, 1]. Good
// enough for development and for tests; not a substitute for a real model.
type LocalClient struct {
	dims int
}

func NewLocalClient(dims int) *LocalClient {
	if dims <= 0 {
		dims = defaultDimensions
	}
	return &LocalClient{dims: dims}
}

func (c *LocalClient) Embed(_ context.Context, text string) ([]float64, error) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return nil, ErrEmptyText
	}

	vec := make([]float64, c.dims)
	for i := range words {
		end := i + 3
		if end > len(words) {
			end = len(words)
		}
		for j := i; j < end; j++ {
			gram := strings.Join(words[i:j+1], " ")
			h := fnv.New64a()
			h.Write([]byte(gram))
			sum := h.Sum64()
			idx := int(sum % uint64(c.dims))
			// low bit of the hash decides sign so buckets cancel
			// rather than saturate
			if sum&1 == 0 {
				vec[idx]++
			} else {
				vec[idx]--
			}
		}
	}

	if !normalize(vec) {
		vec[0] = 1
	}
	return vec, nil
}
