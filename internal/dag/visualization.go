package dag

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NodeStatus is the run-time state of a node, used only for rendering
type NodeStatus string

const (
	StatusPending   NodeStatus = "pending"
	StatusRunning   NodeStatus = "running"
	StatusCompleted NodeStatus = "completed"
	StatusFailed    NodeStatus = "failed"
)

// Visualization renders a graph, optionally coloured by node status
type Visualization struct {
	graph  *Graph
	status map[string]NodeStatus
}

// NewVisualization creates a new visualization helper. status may be nil.
func NewVisualization(graph *Graph, status map[string]NodeStatus) *Visualization {
	if status == nil {
		status = make(map[string]NodeStatus)
	}
	return &Visualization{
		graph:  graph,
		status: status,
	}
}

// NodeInfo contains information about a node for visualization
type NodeInfo struct {
	ID           string     `json:"id"`
	Status       NodeStatus `json:"status,omitempty"`
	Dependencies []string   `json:"dependencies"`
}

// GraphInfo contains the full graph structure for visualization
type GraphInfo struct {
	Nodes []NodeInfo `json:"nodes"`
	Edges []Edge     `json:"edges"`
	Stats GraphStats `json:"stats"`
}

// GraphStats counts nodes per status
type GraphStats struct {
	TotalNodes     int `json:"totalNodes"`
	CompletedNodes int `json:"completedNodes"`
	FailedNodes    int `json:"failedNodes"`
	RunningNodes   int `json:"runningNodes"`
	PendingNodes   int `json:"pendingNodes"`
}

// GenerateGraphInfo creates a representation of the graph for visualization
func (v *Visualization) GenerateGraphInfo() *GraphInfo {
	names := v.graph.Nodes()
	nodes := make([]NodeInfo, 0, len(names))
	stats := GraphStats{TotalNodes: len(names)}

	for _, name := range names {
		vertex, _ := v.graph.Vertex(name)
		status := v.status[name]

		deps := make([]string, len(vertex.IncomingNames))
		copy(deps, vertex.IncomingNames)

		nodes = append(nodes, NodeInfo{
			ID:           name,
			Status:       status,
			Dependencies: deps,
		})

		switch status {
		case StatusCompleted:
			stats.CompletedNodes++
		case StatusFailed:
			stats.FailedNodes++
		case StatusRunning:
			stats.RunningNodes++
		default:
			stats.PendingNodes++
		}
	}

	edges := v.graph.Edges()
	if edges == nil {
		edges = []Edge{}
	}

	return &GraphInfo{
		Nodes: nodes,
		Edges: edges,
		Stats: stats,
	}
}

// JSON returns the indented JSON form of the graph
func (v *Visualization) JSON() ([]byte, error) {
	return json.MarshalIndent(v.GenerateGraphInfo(), "", "  ")
}

// DOT creates a DOT format graph for visualization with Graphviz
func (v *Visualization) DOT(title string) string {
	info := v.GenerateGraphInfo()

	var sb strings.Builder
	sb.WriteString("digraph BuildGraph {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=filled];\n")
	if title != "" {
		sb.WriteString(fmt.Sprintf("  label=%q;\n", title))
		sb.WriteString("  labelloc=\"t\";\n")
	}
	sb.WriteString("\n")

	for _, node := range info.Nodes {
		sb.WriteString(fmt.Sprintf("  %q [fillcolor=%q];\n", node.ID, statusColor(node.Status)))
	}

	if len(info.Edges) > 0 {
		sb.WriteString("\n")
	}
	for _, edge := range info.Edges {
		sb.WriteString(fmt.Sprintf("  %q -> %q;\n", edge.From, edge.To))
	}

	sb.WriteString("}\n")
	return sb.String()
}

func statusColor(status NodeStatus) string {
	switch status {
	case StatusRunning:
		return "lightblue"
	case StatusCompleted:
		return "lightgreen"
	case StatusFailed:
		return "salmon"
	default:
		return "lightgrey"
	}
}

// TextSummary creates a human-readable summary of node states
func (v *Visualization) TextSummary() string {
	info := v.GenerateGraphInfo()

	var sb strings.Builder
	sb.WriteString("=== Build Graph Summary ===\n\n")
	sb.WriteString(fmt.Sprintf("  Total Tasks: %d\n", info.Stats.TotalNodes))
	sb.WriteString(fmt.Sprintf("  Completed: %d\n", info.Stats.CompletedNodes))
	sb.WriteString(fmt.Sprintf("  Failed: %d\n", info.Stats.FailedNodes))
	sb.WriteString(fmt.Sprintf("  Running: %d\n", info.Stats.RunningNodes))
	sb.WriteString(fmt.Sprintf("  Pending: %d\n", info.Stats.PendingNodes))

	if info.Stats.TotalNodes > 0 {
		progress := float64(info.Stats.CompletedNodes) / float64(info.Stats.TotalNodes) * 100
		sb.WriteString(fmt.Sprintf("  Progress: %.1f%%\n", progress))
	}

	return sb.String()
}
