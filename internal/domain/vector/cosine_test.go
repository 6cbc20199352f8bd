package vector

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
		{"length mismatch", []float32{1, 2, 3}, []float32{1, 2}, 0},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"both empty", nil, nil, 0},
		{"45 degrees", []float32{1, 0}, []float32{1, 1}, 1 / math.Sqrt2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosine_Symmetric(t *testing.T) {
	a := []float32{0.3, -1.2, 4.5, 0.01}
	b := []float32{2.2, 0.4, -0.7, 9.1}
	if math.Abs(Cosine(a, b)-Cosine(b, a)) > eps {
		t.Error("cosine must be symmetric")
	}
}

func TestCosine_Range(t *testing.T) {
	vecs := [][]float32{
		{1e-20, 1e-20}, {3.4e38, 1}, {-5, 7}, {0.1, 0.1}, {1, -1},
	}
	for _, a := range vecs {
		for _, b := range vecs {
			if s := Cosine(a, b); s < -1 || s > 1 || math.IsNaN(s) {
				t.Errorf("Cosine(%v, %v) = %v out of range", a, b, s)
			}
		}
	}
}

func TestNorm(t *testing.T) {
	if got := Norm([]float32{3, 4}); math.Abs(got-5) > eps {
		t.Errorf("Norm() = %v, want 5", got)
	}
}
