package graph

import (
	"os"
	"path/filepath"
	"testing"
)

const fixtureJSON = `{
  "nodes": {
    "vat": {"type": "Tax", "properties": {"name": "Value Added Tax", "rate": "7.5%"}},
    "cit": {"type": "Tax", "properties": {"name": "Company Income Tax", "rate": "30%"}},
    "firs": {"type": "Agency", "properties": {"name": "Federal Inland Revenue Service"}},
    "sme": {"type": "Entity", "properties": {"name": "Small Business", "description": "Exempt from company income tax"}}
  },
  "relationships": [
    {"source": "firs", "target": "vat", "type": "ADMINISTERS", "properties": {}},
    {"source": "firs", "target": "cit", "type": "ADMINISTERS", "properties": {}},
    {"source": "sme", "target": "cit", "type": "EXEMPT_FROM", "properties": {}}
  ]
}`

func loadFixture(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "knowledge_graph.json")
	if err := os.WriteFile(path, []byte(fixtureJSON), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return store
}

func TestLoad(t *testing.T) {
	store := loadFixture(t)

	stats := store.Stats()
	if stats.TotalNodes != 4 {
		t.Fatalf("TotalNodes = %d, want 4", stats.TotalNodes)
	}
	if stats.TotalRelationships != 3 {
		t.Fatalf("TotalRelationships = %d, want 3", stats.TotalRelationships)
	}
	if stats.NodeTypes["Tax"] != 2 {
		t.Fatalf("NodeTypes[Tax] = %d, want 2", stats.NodeTypes["Tax"])
	}
	if stats.RelationshipTypes["ADMINISTERS"] != 2 {
		t.Fatalf("RelationshipTypes[ADMINISTERS] = %d, want 2", stats.RelationshipTypes["ADMINISTERS"])
	}

	node := store.Node("vat")
	if node == nil {
		t.Fatalf("Node(vat) = nil")
	}
	if node.ID != "vat" {
		t.Fatalf("node ID not backfilled from map key: %q", node.ID)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "does_not_exist.json"))
	if err != nil {
		t.Fatalf("Load() error = %v, want empty graph", err)
	}
	if store.Stats().TotalNodes != 0 {
		t.Fatalf("missing file should load as an empty graph")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{nodes:"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("Load() expected error for malformed JSON")
	}
}

func TestSearch(t *testing.T) {
	store := loadFixture(t)

	tests := []struct {
		name    string
		query   string
		types   []string
		wantIDs []string
	}{
		{name: "case insensitive match", query: "VALUE ADDED", wantIDs: []string{"vat"}},
		{name: "substring across nodes", query: "income tax", wantIDs: []string{"cit", "sme"}},
		{name: "type filter", query: "income tax", types: []string{"Tax"}, wantIDs: []string{"cit"}},
		{name: "no match", query: "petroleum", wantIDs: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := store.Search(tc.query, tc.types...)
			if len(got) != len(tc.wantIDs) {
				t.Fatalf("Search(%q) returned %d nodes, want %d", tc.query, len(got), len(tc.wantIDs))
			}
			for i, node := range got {
				if node.ID != tc.wantIDs[i] {
					t.Fatalf("Search(%q)[%d] = %q, want %q", tc.query, i, node.ID, tc.wantIDs[i])
				}
			}
		})
	}
}

func TestRelatedEntities(t *testing.T) {
	store := loadFixture(t)

	// Depth 1 from vat reaches firs over the reversed ADMINISTERS edge;
	// depth 2 continues to cit. sme sits three hops out and stays excluded.
	related := store.RelatedEntities("vat", 2)

	byID := map[string]Related{}
	for _, r := range related {
		byID[r.Node.ID] = r
	}

	if len(related) != 2 {
		t.Fatalf("RelatedEntities() returned %d results, want 2: %+v", len(related), related)
	}
	if byID["firs"].Depth != 1 {
		t.Fatalf("firs depth = %d, want 1", byID["firs"].Depth)
	}
	if byID["cit"].Depth != 2 {
		t.Fatalf("cit depth = %d, want 2", byID["cit"].Depth)
	}
	if byID["firs"].Relationship.Type != "ADMINISTERS" {
		t.Fatalf("firs relationship = %q, want ADMINISTERS", byID["firs"].Relationship.Type)
	}
}

func TestRelatedEntities_DepthLimit(t *testing.T) {
	store := loadFixture(t)

	related := store.RelatedEntities("vat", 1)
	if len(related) != 1 || related[0].Node.ID != "firs" {
		t.Fatalf("RelatedEntities(depth 1) = %+v, want only firs", related)
	}
}

func TestRelatedEntities_TypeFilter(t *testing.T) {
	store := loadFixture(t)

	related := store.RelatedEntities("cit", 2, "EXEMPT_FROM")
	if len(related) != 1 || related[0].Node.ID != "sme" {
		t.Fatalf("RelatedEntities(EXEMPT_FROM) = %+v, want only sme", related)
	}
}

func TestRelationships(t *testing.T) {
	store := loadFixture(t)

	incident := store.Relationships("cit", "")
	if len(incident) != 2 {
		t.Fatalf("Relationships(cit) = %d edges, want 2", len(incident))
	}

	typed := store.Relationships("cit", "EXEMPT_FROM")
	if len(typed) != 1 || typed[0].Source != "sme" {
		t.Fatalf("Relationships(cit, EXEMPT_FROM) = %+v", typed)
	}
}

func TestRetrieve(t *testing.T) {
	store := loadFixture(t)

	results := store.Retrieve("company income tax exempt", 10)
	if len(results) == 0 {
		t.Fatalf("Retrieve() returned no results")
	}
	// sme mentions three keywords (company, income, exempt via its
	// description), cit two.
	if results[0].ID != "sme" {
		t.Fatalf("Retrieve() top result = %q, want sme", results[0].ID)
	}

	seen := map[string]bool{}
	for _, node := range results {
		if seen[node.ID] {
			t.Fatalf("Retrieve() returned duplicate node %q", node.ID)
		}
		seen[node.ID] = true
	}
}

func TestRetrieve_TopK(t *testing.T) {
	store := loadFixture(t)

	results := store.Retrieve("tax", 1)
	if len(results) > 1 {
		t.Fatalf("Retrieve(topK=1) returned %d results", len(results))
	}
}
