package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

type chunk struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

type chunksFile struct {
	Chunks []chunk `json:"chunks"`
}

// Local is a file-backed index that scores passages by keyword overlap
// with the query instead of embedding similarity. It exists so the
// pipeline runs with zero external services; scores are in [0, 1].
type Local struct {
	chunks []chunk
}

// OpenLocal loads passages from the chunks JSON file at path. A missing
// file yields an empty index.
func OpenLocal(path string) (*Local, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Local{}, nil
		}
		return nil, fmt.Errorf("failed to read chunks file: %w", err)
	}

	var file chunksFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse chunks file: %w", err)
	}

	return &Local{chunks: file.Chunks}, nil
}

func (l *Local) Name() string {
	return BackendLocal
}

// Len returns the number of stored passages.
func (l *Local) Len() int {
	return len(l.chunks)
}

// Search scores every passage by the fraction of query words it contains
// and returns the topK best, best first. Passages sharing no words with
// the query are omitted.
func (l *Local) Search(ctx context.Context, query string, topK int) ([]Document, error) {
	queryWords := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(query)) {
		queryWords[w] = true
	}
	if len(queryWords) == 0 {
		return nil, nil
	}

	var results []Document
	for i, c := range l.chunks {
		overlap := 0
		seen := map[string]bool{}
		for _, w := range strings.Fields(strings.ToLower(c.Text)) {
			if queryWords[w] && !seen[w] {
				seen[w] = true
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}

		id := c.ID
		if id == "" {
			id = fmt.Sprintf("chunk-%d", i)
		}

		results = append(results, Document{
			ID:       id,
			Score:    float64(overlap) / float64(len(queryWords)),
			Text:     c.Text,
			Metadata: c.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
