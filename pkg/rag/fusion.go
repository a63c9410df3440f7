package rag

import (
	"encoding/json"
	"hash/fnv"
	"sort"

	"github.com/ntria/backend/pkg/vector"
)

// Fuse merges the two retrieval channels into one ranked, deduplicated
// list truncated to topK.
//
// Vector results keep their native scores. Graph results get a synthetic
// score of 0.5 - 0.05*i by position, which biases passage text above node
// dumps of equal nominal rank. The two scales are knowingly heterogeneous
// and are preserved as-is.
func Fuse(graphResults []GraphHit, vectorResults []vector.Document, topK int) []FusedResult {
	fused := make([]FusedResult, 0, len(graphResults)+len(vectorResults))

	for _, vr := range vectorResults {
		fused = append(fused, FusedResult{
			Source:   "vector",
			Score:    vr.Score,
			Content:  vr.Text,
			Metadata: vr.Metadata,
		})
	}

	for i, gr := range graphResults {
		content, err := json.Marshal(gr)
		if err != nil {
			continue
		}
		fused = append(fused, FusedResult{
			Source:  "graph",
			Score:   0.5 - 0.05*float64(i),
			Content: string(content),
		})
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	// Dedupe on the first 100 characters of content, keeping the
	// highest-scored occurrence.
	unique := fused[:0]
	seen := map[uint64]bool{}
	for _, result := range fused {
		key := contentKey(result.Content)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, result)
	}

	if len(unique) > topK {
		unique = unique[:topK]
	}
	return unique
}

func contentKey(content string) uint64 {
	if len(content) > 100 {
		content = content[:100]
	}
	h := fnv.New64a()
	h.Write([]byte(content))
	return h.Sum64()
}
