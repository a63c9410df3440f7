package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Node is a single entity in the knowledge graph.
type Node struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Edge is a directed relationship between two nodes.
type Edge struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Related pairs a neighboring node with the edge that reached it and the
// traversal depth at which it was found.
type Related struct {
	Node         *Node `json:"node"`
	Relationship Edge  `json:"relationship"`
	Depth        int   `json:"depth"`
}

// Stats summarizes the loaded graph for the status endpoint.
type Stats struct {
	TotalNodes         int            `json:"total_nodes"`
	TotalRelationships int            `json:"total_relationships"`
	NodeTypes          map[string]int `json:"node_types"`
	RelationshipTypes  map[string]int `json:"relationship_types"`
}

type graphFile struct {
	Nodes         map[string]*Node `json:"nodes"`
	Relationships []Edge           `json:"relationships"`
}

// Store holds an immutable knowledge graph loaded from a JSON file. All
// lookups iterate nodes in sorted ID order so results are deterministic
// across runs.
//
// A Store should be created using Load.
type Store struct {
	nodes map[string]*Node
	ids   []string
	edges []Edge
}

// Load reads a knowledge graph from the JSON file at path. A missing or
// unreadable file yields an empty graph rather than an error, so the
// pipeline can run vector-only.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty(), nil
		}
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	var file graphFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse graph file: %w", err)
	}

	if file.Nodes == nil {
		file.Nodes = map[string]*Node{}
	}

	ids := make([]string, 0, len(file.Nodes))
	for id, node := range file.Nodes {
		if node.ID == "" {
			node.ID = id
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return &Store{
		nodes: file.Nodes,
		ids:   ids,
		edges: file.Relationships,
	}, nil
}

func empty() *Store {
	return &Store{
		nodes: map[string]*Node{},
		ids:   []string{},
		edges: []Edge{},
	}
}

// Node returns the node with the given ID, or nil when absent.
func (s *Store) Node(id string) *Node {
	return s.nodes[id]
}

// NodesByType returns all nodes of the given type in ID order.
func (s *Store) NodesByType(nodeType string) []*Node {
	var out []*Node
	for _, id := range s.ids {
		if s.nodes[id].Type == nodeType {
			out = append(out, s.nodes[id])
		}
	}
	return out
}

// Relationships returns edges, optionally filtered to those incident to
// nodeID (either direction) and to the given relationship type.
func (s *Store) Relationships(nodeID string, relType string) []Edge {
	var out []Edge
	for _, e := range s.edges {
		if nodeID != "" && e.Source != nodeID && e.Target != nodeID {
			continue
		}
		if relType != "" && e.Type != relType {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Stats returns node and relationship counts grouped by type.
func (s *Store) Stats() Stats {
	nodeTypes := map[string]int{}
	for _, id := range s.ids {
		nodeTypes[s.nodes[id].Type]++
	}

	relTypes := map[string]int{}
	for _, e := range s.edges {
		relTypes[e.Type]++
	}

	return Stats{
		TotalNodes:         len(s.nodes),
		TotalRelationships: len(s.edges),
		NodeTypes:          nodeTypes,
		RelationshipTypes:  relTypes,
	}
}
