package dag

import (
	"github.com/maxkimambo/barista/internal/errors"
)

// Vertex is a node in the dependency graph. Incoming holds shared references to
// the vertices that have an edge pointing at this one.
type Vertex struct {
	Name          string
	Incoming      map[string]*Vertex
	IncomingNames []string
	HasOutgoing   bool
}

func newVertex(name string) *Vertex {
	return &Vertex{
		Name:     name,
		Incoming: make(map[string]*Vertex),
	}
}

// Edge is a directed edge between two named vertices.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is a mutable directed acyclic graph over task names.
// Every edge insertion is checked for cycles before it is committed, so a
// Graph is never observably cyclic.
//
// Graph is not safe for concurrent mutation; readers may share it once built.
type Graph struct {
	nodes    []string
	vertices map[string]*Vertex
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		vertices: make(map[string]*Vertex),
	}
}

// AddNode returns the vertex for name, creating it when it does not exist yet
func (g *Graph) AddNode(name string) *Vertex {
	if vertex, exists := g.vertices[name]; exists {
		return vertex
	}

	vertex := newVertex(name)
	g.vertices[name] = vertex
	g.nodes = append(g.nodes, name)

	return vertex
}

// AddEdge adds a directed edge from -> to, meaning "to" waits on "from".
// Self edges and already present edges are ignored. An edge that would close
// a cycle is rejected with a *errors.CyclicDependencyError and the graph is
// left untouched.
func (g *Graph) AddEdge(from, to string) error {
	if from == to {
		return nil
	}

	fromVertex, fromExists := g.vertices[from]
	toVertex, toExists := g.vertices[to]

	// A cycle needs both ends to already be part of the graph.
	if fromExists && toExists {
		if _, linked := toVertex.Incoming[from]; linked {
			return nil
		}

		if path, found := findAncestor(fromVertex, to); found {
			return &errors.CyclicDependencyError{Node: to, Path: path}
		}
	}

	fromVertex = g.AddNode(from)
	toVertex = g.AddNode(to)

	fromVertex.HasOutgoing = true
	toVertex.Incoming[from] = fromVertex
	toVertex.IncomingNames = append(toVertex.IncomingNames, from)

	return nil
}

// findAncestor walks the incoming chain of start depth first, visiting each
// vertex once, and reports the path that led to target.
func findAncestor(start *Vertex, target string) ([]string, bool) {
	visited := make(map[string]bool)
	var path []string

	var visit func(v *Vertex) bool
	visit = func(v *Vertex) bool {
		if visited[v.Name] {
			return false
		}
		visited[v.Name] = true
		path = append(path, v.Name)

		if v.Name == target {
			return true
		}

		for _, name := range v.IncomingNames {
			if visit(v.Incoming[name]) {
				return true
			}
		}

		path = path[:len(path)-1]
		return false
	}

	if visit(start) {
		return path, true
	}
	return nil, false
}

// Filter returns the given names together with every transitive ancestor of
// them. Input names come first, discovered ancestors follow in breadth-first
// order; each name appears once. Names unknown to the graph are returned as
// given without expansion.
func (g *Graph) Filter(names ...string) []string {
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))

	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	for i := 0; i < len(result); i++ {
		vertex, exists := g.vertices[result[i]]
		if !exists {
			continue
		}
		for _, incoming := range vertex.IncomingNames {
			if !seen[incoming] {
				seen[incoming] = true
				result = append(result, incoming)
			}
		}
	}

	return result
}

// Nodes returns all node names in first-seen order
func (g *Graph) Nodes() []string {
	nodes := make([]string, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// Vertex returns the vertex for name
func (g *Graph) Vertex(name string) (*Vertex, bool) {
	vertex, exists := g.vertices[name]
	return vertex, exists
}

// Has reports whether name is a node of the graph
func (g *Graph) Has(name string) bool {
	_, exists := g.vertices[name]
	return exists
}

// Len returns the number of nodes in the graph
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Edges returns every edge, grouped by target in node order and by source in
// insertion order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, name := range g.nodes {
		for _, from := range g.vertices[name].IncomingNames {
			edges = append(edges, Edge{From: from, To: name})
		}
	}
	return edges
}
