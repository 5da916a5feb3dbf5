// Package embedding provides the Embedding Oracle (spec §3 L1): text and
// image vectors backed by either a local ONNX model or a deterministic mock.
package embedding

import "context"

// Oracle produces vector embeddings for text and images. Implementations are
// expected to return vectors of the same Dimensions() regardless of input
// modality, so downstream cosine similarity never has to special-case either.
type Oracle interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, imageBytes []byte) ([]float32, error)
	Dimensions() int
	Close() error
}
