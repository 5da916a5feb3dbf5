package embedding

import (
	"context"
	"math"
	"testing"
)

func TestMockOracle_Deterministic(t *testing.T) {
	o := NewMockOracle(16)
	a, err := o.EmbedText(context.Background(), "running shoes")
	if err != nil {
		t.Fatal(err)
	}
	b, err := o.EmbedText(context.Background(), "running shoes")
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same text produced different embeddings at index %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestMockOracle_UnitNormalized(t *testing.T) {
	o := NewMockOracle(32)
	v, err := o.EmbedText(context.Background(), "trail running shoes for wide feet")
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, x := range v {
		sum += float64(x * x)
	}
	norm := math.Sqrt(sum)
	if math.Abs(norm-1.0) > 1e-4 {
		t.Errorf("expected unit-norm vector, got norm %f", norm)
	}
}

func TestMockOracle_DistinctTextsDiffer(t *testing.T) {
	o := NewMockOracle(16)
	a, _ := o.EmbedText(context.Background(), "running shoes")
	b, _ := o.EmbedText(context.Background(), "yoga mat")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("expected different texts to produce different embeddings")
	}
}

func TestMockOracle_Image(t *testing.T) {
	o := NewMockOracle(16)
	v, err := o.EmbedImage(context.Background(), []byte{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 16 {
		t.Fatalf("expected dimensions 16, got %d", len(v))
	}
}

func TestMockOracle_DefaultDimensions(t *testing.T) {
	o := NewMockOracle(0)
	if o.Dimensions() != 1024 {
		t.Errorf("default dimensions: got %d, want 1024", o.Dimensions())
	}
}
