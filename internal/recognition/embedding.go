// Package recognition turns face embeddings into identity verdicts.
//
// Embeddings come from an external extractor (see EmbeddingClient); this
// package only stores enrolled embeddings and compares probes against them.
package recognition

import (
	"context"
	"math"
)

// Embedding is a fixed-length face descriptor produced by the extractor.
type Embedding []float32

// Identity is one enrolled (name, embedding) pair.  A name may appear once
// per enrollment photo.
type Identity struct {
	Name      string
	Embedding Embedding
}

// Extractor yields one embedding per detected face.  Zero faces is a valid
// result, not an error.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]Embedding, error)
}

// Distance is the Euclidean distance between a and b.  ok is false when the
// dimensions differ.
func Distance(a, b Embedding) (d float64, ok bool) {
	if len(a) != len(b) {
		return 0, false
	}
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum), true
}
