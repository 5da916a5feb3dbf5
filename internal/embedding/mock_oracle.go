package embedding

import (
	"context"
	"math"

	"github.com/shopsage/shopsage/pkg/utils"
)

// MockOracle is a deterministic Oracle for tests and deterministic-mode
// routing. The same text (or image bytes) always maps to the same vector, so
// candidate rankings are reproducible across runs.
type MockOracle struct {
	dimensions int
}

// NewMockOracle returns an Oracle that produces deterministic embeddings of
// the given dimensions.
func NewMockOracle(dimensions int) *MockOracle {
	if dimensions <= 0 {
		dimensions = 1024
	}
	return &MockOracle{dimensions: dimensions}
}

// EmbedText returns a deterministic embedding derived from the text hash.
func (o *MockOracle) EmbedText(_ context.Context, text string) ([]float32, error) {
	return o.embedSeed(HashString(text)), nil
}

// EmbedImage returns a deterministic embedding derived from the image bytes.
// Real vision embedding is out of scope for the mock; the byte content is
// hashed the same way text is, which is enough to keep candidate-product
// images distinguishable in tests.
func (o *MockOracle) EmbedImage(_ context.Context, imageBytes []byte) ([]float32, error) {
	h := 0
	for _, b := range imageBytes {
		h = 31*h + int(b)
	}
	if h < 0 {
		h = -h
	}
	return o.embedSeed(h), nil
}

func (o *MockOracle) embedSeed(h int) []float32 {
	emb := make([]float32, o.dimensions)
	for i := 0; i < o.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb
}

// Dimensions returns the embedding dimension.
func (o *MockOracle) Dimensions() int { return o.dimensions }

// Close is a no-op for MockOracle.
func (o *MockOracle) Close() error { return nil }
