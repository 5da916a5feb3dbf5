//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"
)

// ONNXOracle stub type when built without CGO (see onnx_oracle.go for the real implementation).
type ONNXOracle struct{}

// NewONNXOracle returns an error when built without CGO (ONNX not available).
func NewONNXOracle(_ string, _, _, _ int) (*ONNXOracle, error) {
	return nil, errors.New("ONNX oracle requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

// EmbedText is unreachable without CGO since NewONNXOracle always errors.
func (o *ONNXOracle) EmbedText(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("ONNX oracle requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

// EmbedImage is unreachable without CGO since NewONNXOracle always errors.
func (o *ONNXOracle) EmbedImage(_ context.Context, _ []byte) ([]float32, error) {
	return nil, errors.New("ONNX oracle requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

// Dimensions is unreachable without CGO since NewONNXOracle always errors.
func (o *ONNXOracle) Dimensions() int { return 0 }

// Close is unreachable without CGO since NewONNXOracle always errors.
func (o *ONNXOracle) Close() error { return nil }
