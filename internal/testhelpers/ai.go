package testhelpers

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// FakeAI is a scripted stand-in for the ai.Client capabilities so that tests
// never touch the network. Unset funcs fall back to deterministic defaults.
type FakeAI struct {
	CompleteFunc   func(ctx context.Context, system, user string) (string, error)
	StructuredFunc func(ctx context.Context, system, user, schemaName string, out any) error
	EmbedFunc      func(ctx context.Context, text string) ([]float32, error)
}

func (f *FakeAI) Complete(ctx context.Context, system, user string) (string, error) {
	if f.CompleteFunc != nil {
		return f.CompleteFunc(ctx, system, user)
	}
	return "I have nothing more to say.", nil
}

func (f *FakeAI) CompleteStructured(ctx context.Context, system, user, schemaName string, out any) error {
	if f.StructuredFunc != nil {
		return f.StructuredFunc(ctx, system, user, schemaName, out)
	}
	return nil
}

func (f *FakeAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.EmbedFunc != nil {
		return f.EmbedFunc(ctx, text)
	}
	return HashEmbedding(text), nil
}

const hashEmbeddingDims = 64

// HashEmbedding maps text to a bag-of-words vector by hashing each word into
// a fixed number of dimensions. Texts sharing words get higher cosine
// similarity, which is enough to exercise ranking deterministically.
func HashEmbedding(text string) []float32 {
	vec := make([]float32, hashEmbeddingDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?\"'")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%hashEmbeddingDims]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
