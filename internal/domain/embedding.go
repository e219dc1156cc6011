package domain

import (
	"math"

	"github.com/DRSN-tech/image-search/pkg/e"
)

// Embedding представляет вектор признаков одного изображения.
// Векторы нормируются до единичной длины в момент создания,
// поэтому косинусная близость сводится к скалярному произведению.
type Embedding []float32

// NewEmbedding создает эмбеддинг из сырого вектора модели, нормируя его до единичной длины.
func NewEmbedding(vector []float32) (Embedding, error) {
	if len(vector) == 0 {
		return nil, e.ErrEmptyVector
	}

	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}

	norm := math.Sqrt(sum)
	if norm == 0 {
		return nil, e.ErrZeroVector
	}

	normalized := make(Embedding, len(vector))
	for i, v := range vector {
		normalized[i] = float32(float64(v) / norm)
	}

	return normalized, nil
}

// Dot возвращает скалярное произведение двух векторов.
// Для единичных векторов совпадает с косинусной близостью.
// При несовпадении размерностей возвращает 0.
func (em Embedding) Dot(other Embedding) float64 {
	if len(em) != len(other) || len(em) == 0 {
		return 0
	}

	var sum float64
	for i := range em {
		sum += float64(em[i]) * float64(other[i])
	}

	return sum
}

// Norm возвращает длину (L2-норму) вектора.
func (em Embedding) Norm() float64 {
	var sum float64
	for _, v := range em {
		sum += float64(v) * float64(v)
	}

	return math.Sqrt(sum)
}
