package dag

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVisualization(t *testing.T) {
	g := NewGraph()
	viz := NewVisualization(g, nil)

	assert.NotNil(t, viz)
	assert.Equal(t, g, viz.graph)
	assert.NotNil(t, viz.status)
}

func TestVisualization_GenerateGraphInfo(t *testing.T) {
	g := buildGraph(t, [2]string{"one", "three"}, [2]string{"two", "three"})

	viz := NewVisualization(g, map[string]NodeStatus{
		"one":   StatusCompleted,
		"two":   StatusFailed,
		"three": StatusRunning,
	})
	info := viz.GenerateGraphInfo()

	require.Len(t, info.Nodes, 3)
	assert.Equal(t, "one", info.Nodes[0].ID)
	assert.Equal(t, []string{"one", "two"}, info.Nodes[1].Dependencies)
	assert.Len(t, info.Edges, 2)

	assert.Equal(t, 3, info.Stats.TotalNodes)
	assert.Equal(t, 1, info.Stats.CompletedNodes)
	assert.Equal(t, 1, info.Stats.FailedNodes)
	assert.Equal(t, 1, info.Stats.RunningNodes)
	assert.Equal(t, 0, info.Stats.PendingNodes)
}

func TestVisualization_JSON(t *testing.T) {
	g := buildGraph(t, [2]string{"a", "b"})

	data, err := NewVisualization(g, nil).JSON()
	require.NoError(t, err)

	var info GraphInfo
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, []Edge{{From: "a", To: "b"}}, info.Edges)
	assert.Equal(t, 2, info.Stats.PendingNodes)
}

func TestVisualization_JSONEmptyGraph(t *testing.T) {
	data, err := NewVisualization(NewGraph(), nil).JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"edges": []`)
}

func TestVisualization_DOT(t *testing.T) {
	g := buildGraph(t, [2]string{"a", "b"}, [2]string{"a", "c"})

	dot := NewVisualization(g, map[string]NodeStatus{"a": StatusCompleted}).DOT("demo")

	assert.True(t, strings.HasPrefix(dot, "digraph BuildGraph {\n"))
	assert.True(t, strings.HasSuffix(dot, "}\n"))
	assert.Contains(t, dot, `label="demo";`)
	assert.Contains(t, dot, `"a" [fillcolor="lightgreen"];`)
	assert.Contains(t, dot, `"b" [fillcolor="lightgrey"];`)
	assert.Contains(t, dot, `"a" -> "b";`)
	assert.Contains(t, dot, `"a" -> "c";`)
}

func TestVisualization_DOTWithoutTitle(t *testing.T) {
	dot := NewVisualization(NewGraph(), nil).DOT("")
	assert.NotContains(t, dot, "label=")
}

func TestVisualization_TextSummary(t *testing.T) {
	g := buildGraph(t, [2]string{"a", "b"})

	summary := NewVisualization(g, map[string]NodeStatus{"a": StatusCompleted}).TextSummary()

	assert.Contains(t, summary, "Total Tasks: 2")
	assert.Contains(t, summary, "Completed: 1")
	assert.Contains(t, summary, "Progress: 50.0%")
}
