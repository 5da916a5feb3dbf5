//go:build cgo
// +build cgo

// Package embedding provides ONNX-based embedding (requires CGO and onnxruntime library).
package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/shopsage/shopsage/pkg/utils"
)

// ONNXOracle uses ONNX Runtime to produce embeddings. It requires CGO and the
// onnxruntime shared library.
type ONNXOracle struct {
	session    *ort.AdvancedSession
	dimensions int
	maxTokens  int
	cache      *EmbeddingCache
	tokenizer  Tokenizer

	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	tokenTypeIDsTensor  *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]
	mu                  sync.Mutex
}

// NewONNXOracle creates an ONNX-backed Oracle. InitializeEnvironment is
// called if not already done.
func NewONNXOracle(modelPath string, dimensions, maxTokens, cacheSize int) (*ONNXOracle, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	tokenizer := &SimpleTokenizer{}
	inputIDs, attentionMask, tokenTypeIDs := tokenizer.Tokenize("", maxTokens)

	inputIDsTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	attentionMaskTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), attentionMask)
	if err != nil {
		inputIDsTensor.Destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	tokenTypeIDsTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), tokenTypeIDs)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	outputData := make([]float32, dimensions)
	outputTensor, err := ort.NewTensor(ort.NewShape(1, int64(dimensions)), outputData)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	inputs := []ort.ArbitraryTensor{inputIDsTensor, attentionMaskTensor, tokenTypeIDsTensor}
	outputs := []ort.ArbitraryTensor{outputTensor}
	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		inputs,
		outputs,
		nil,
	)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXOracle{
		session:             session,
		dimensions:          dimensions,
		maxTokens:           maxTokens,
		cache:               NewEmbeddingCache(cacheSize),
		tokenizer:           tokenizer,
		inputIDsTensor:      inputIDsTensor,
		attentionMaskTensor: attentionMaskTensor,
		tokenTypeIDsTensor:  tokenTypeIDsTensor,
		outputTensor:        outputTensor,
	}, nil
}

// EmbedText returns the embedding for text, using the cache when available.
func (o *ONNXOracle) EmbedText(_ context.Context, text string) ([]float32, error) {
	return o.run("text:" + text, text)
}

// EmbedImage embeds image bytes. The model has no separate vision head, so
// image bytes are folded through the same tokenizer path as a byte-derived
// pseudo-text string; this keeps distinct images distinguishable without
// requiring a second model, at the cost of not sharing a joint embedding
// space with real captions.
func (o *ONNXOracle) EmbedImage(ctx context.Context, imageBytes []byte) ([]float32, error) {
	pseudo := bytesToPseudoText(imageBytes)
	return o.run("image:"+pseudo, pseudo)
}

func (o *ONNXOracle) run(cacheKey, tokenizeInput string) ([]float32, error) {
	if cached, ok := o.cache.Get(cacheKey); ok {
		return cached, nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	inputIDs, attentionMask, tokenTypeIDs := o.tokenizer.Tokenize(tokenizeInput, o.maxTokens)

	copy(o.inputIDsTensor.GetData(), inputIDs)
	copy(o.attentionMaskTensor.GetData(), attentionMask)
	copy(o.tokenTypeIDsTensor.GetData(), tokenTypeIDs)

	if err := o.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	outputData := o.outputTensor.GetData()
	embedding := make([]float32, o.dimensions)
	copy(embedding, outputData[:o.dimensions])

	utils.NormalizeL2(embedding)
	o.cache.Set(cacheKey, embedding)
	return embedding, nil
}

// bytesToPseudoText turns raw image bytes into a short whitespace-separated
// token stream the word-split tokenizer can consume.
func bytesToPseudoText(b []byte) string {
	const chunk = 4
	words := make([]string, 0, len(b)/chunk+1)
	for i := 0; i < len(b); i += chunk {
		end := i + chunk
		if end > len(b) {
			end = len(b)
		}
		h := 0
		for _, v := range b[i:end] {
			h = 31*h + int(v)
		}
		words = append(words, fmt.Sprintf("px%d", h))
	}
	return JoinWords(words)
}

// Dimensions returns the embedding dimension.
func (o *ONNXOracle) Dimensions() int { return o.dimensions }

// Close destroys the session and tensors.
func (o *ONNXOracle) Close() error {
	var err error
	if o.session != nil {
		err = o.session.Destroy()
		o.session = nil
	}
	if o.inputIDsTensor != nil {
		_ = o.inputIDsTensor.Destroy()
		o.inputIDsTensor = nil
	}
	if o.attentionMaskTensor != nil {
		_ = o.attentionMaskTensor.Destroy()
		o.attentionMaskTensor = nil
	}
	if o.tokenTypeIDsTensor != nil {
		_ = o.tokenTypeIDsTensor.Destroy()
		o.tokenTypeIDsTensor = nil
	}
	if o.outputTensor != nil {
		_ = o.outputTensor.Destroy()
		o.outputTensor = nil
	}
	return err
}
