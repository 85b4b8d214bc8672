package rag

import (
	"math"
	"sort"
)

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// topK sorts docs by score, highest first, and keeps at most k of them.
func topK(docs []VectorDoc, k int) []VectorDoc {
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })
	if k >= 0 && len(docs) > k {
		docs = docs[:k]
	}
	return docs
}
