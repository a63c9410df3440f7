package graph

import (
	"encoding/json"
	"sort"
	"strings"
)

// Search returns nodes with at least one string property containing the
// query, case-insensitively. When nodeTypes is non-empty only nodes of
// those types are considered.
func (s *Store) Search(query string, nodeTypes ...string) []*Node {
	queryLower := strings.ToLower(query)
	var results []*Node

	for _, id := range s.ids {
		node := s.nodes[id]
		if len(nodeTypes) > 0 && !contains(nodeTypes, node.Type) {
			continue
		}

		for _, value := range node.Properties {
			str, ok := value.(string)
			if ok && strings.Contains(strings.ToLower(str), queryLower) {
				results = append(results, node)
				break
			}
		}
	}

	return results
}

// RelatedEntities walks relationships outward from nodeID up to maxDepth
// hops, following edges in either direction. Each discovered neighbor is
// reported once, paired with the edge that reached it. When relTypes is
// non-empty only edges of those types are followed.
func (s *Store) RelatedEntities(nodeID string, maxDepth int, relTypes ...string) []Related {
	visited := map[string]bool{}
	var results []Related

	var traverse func(currentID string, depth int)
	traverse = func(currentID string, depth int) {
		if depth > maxDepth || visited[currentID] {
			return
		}
		visited[currentID] = true

		for _, rel := range s.edges {
			if len(relTypes) > 0 && !contains(relTypes, rel.Type) {
				continue
			}

			var nextID string
			switch currentID {
			case rel.Source:
				nextID = rel.Target
			case rel.Target:
				nextID = rel.Source
			default:
				continue
			}

			next := s.nodes[nextID]
			if next == nil || visited[nextID] {
				continue
			}

			results = append(results, Related{
				Node:         next,
				Relationship: rel,
				Depth:        depth,
			})
			traverse(nextID, depth+1)
		}
	}

	traverse(nodeID, 1)
	return results
}

// Retrieve finds the nodes most relevant to a free-text query. Each query
// keyword of three or more characters is matched against node properties,
// and the merged candidates are ranked by how many of the query's keywords
// their properties mention.
func (s *Store) Retrieve(query string, topK int) []*Node {
	keywords := strings.Fields(strings.ToLower(query))

	var results []*Node
	seen := map[string]bool{}

	for _, keyword := range keywords {
		if len(keyword) < 3 {
			continue
		}

		for _, match := range s.Search(keyword) {
			if !seen[match.ID] {
				seen[match.ID] = true
				results = append(results, match)
			}
		}
	}

	score := func(node *Node) int {
		props, err := json.Marshal(node.Properties)
		if err != nil {
			return 0
		}
		text := strings.ToLower(string(props))

		n := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				n++
			}
		}
		return n
	}

	sort.SliceStable(results, func(i, j int) bool {
		return score(results[i]) > score(results[j])
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
