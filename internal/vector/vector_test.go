package vector

import (
	"math"
	"testing"
)

func TestCosineDistance_IdenticalDirection(t *testing.T) {
	t.Parallel()

	d := CosineDistance([]float32{1, 2, 3}, []float32{2, 4, 6})
	if math.Abs(d) > 1e-9 {
		t.Errorf("distance between parallel vectors: got %v, want 0", d)
	}
}

func TestCosineDistance_Orthogonal(t *testing.T) {
	t.Parallel()

	d := CosineDistance([]float32{1, 0}, []float32{0, 1})
	if math.Abs(d-1) > 1e-9 {
		t.Errorf("distance between orthogonal vectors: got %v, want 1", d)
	}
}

func TestCosineDistance_Opposite(t *testing.T) {
	t.Parallel()

	d := CosineDistance([]float32{1, 0}, []float32{-1, 0})
	if math.Abs(d-2) > 1e-9 {
		t.Errorf("distance between opposite vectors: got %v, want 2", d)
	}
}

func TestCosineDistance_DegenerateInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b []float32
	}{
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}},
		{"both empty", nil, nil},
		{"zero magnitude", []float32{0, 0}, []float32{1, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if d := CosineDistance(tc.a, tc.b); d != 1 {
				t.Errorf("got %v, want 1", d)
			}
		})
	}
}

func TestSimilarity_InverseOfDistance(t *testing.T) {
	t.Parallel()

	a := []float32{0.5, 0.25, 0.8}
	b := []float32{0.4, 0.3, 0.75}

	d := CosineDistance(a, b)
	s := Similarity(d)
	if math.Abs(s-(1-d)) > 1e-12 {
		t.Errorf("similarity: got %v, want %v", s, 1-d)
	}
	if s < -1 || s > 1 {
		t.Errorf("similarity out of range: %v", s)
	}
}
