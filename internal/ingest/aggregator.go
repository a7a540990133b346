package ingest

import "github.com/minjaelee/vigil/internal/model"

// Merge combines candidate streams into one deduplicated slice.
// Later streams win on symbol collision (last-writer-wins in call
// order), while output order follows first appearance of each symbol.
// Merge is pure: inputs are never mutated and repeated calls with the
// same arguments yield the same result.
func Merge(streams ...[]model.Candidate) []model.Candidate {
	index := make(map[string]int)
	out := make([]model.Candidate, 0)

	for _, stream := range streams {
		for _, c := range stream {
			if i, ok := index[c.Symbol]; ok {
				out[i] = c
				continue
			}
			index[c.Symbol] = len(out)
			out = append(out, c)
		}
	}

	return out
}
