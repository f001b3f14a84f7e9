package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maxkimambo/barista/internal/config"
	"github.com/maxkimambo/barista/internal/dag"
	"github.com/maxkimambo/barista/internal/errors"
	"github.com/maxkimambo/barista/internal/utils"
)

var (
	graphFormat    string
	graphInvert    bool
	graphAncestors string
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show the dependency graph of a project",
	Long: `Prints the tasks of a project and their dependencies as a table, a Graphviz
DOT document or JSON. Gems are not fetched; only the tasks of the project file
itself are shown.

Example:
barista graph
barista graph --format dot | dot -Tsvg > graph.svg
barista graph --invert --ancestors compile
`,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().StringVarP(&projectFile, "file", "f", config.DefaultFile, "Project file, or a directory containing "+config.DefaultFile)
	graphCmd.Flags().StringVar(&graphFormat, "format", "table", "Output format: table, dot or json")
	graphCmd.Flags().BoolVar(&graphInvert, "invert", false, "Point edges from a task to the tasks depending on it")
	graphCmd.Flags().StringVar(&graphAncestors, "ancestors", "", "Only show this task and the tasks it depends on (its dependents with --invert)")
}

func runGraph(cmd *cobra.Command, args []string) error {
	project, err := config.Load(projectFile)
	if err != nil {
		return err
	}

	reg := project.Registry
	if graphInvert {
		reg = reg.Invert()
	}

	graph, err := reg.DAG(nil)
	if err != nil {
		return err
	}

	if graphAncestors != "" {
		if !graph.Has(graphAncestors) {
			return errors.NewUnknownTaskError(graphAncestors, "Graph rendering")
		}
		graph = subgraph(graph, graph.Filter(graphAncestors))
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(graphFormat) {
	case "table":
		fmt.Fprint(out, graphTable(graph, graphInvert))
	case "dot":
		fmt.Fprintln(out, dag.NewVisualization(graph, nil).DOT(project.Name))
	case "json":
		data, err := dag.NewVisualization(graph, nil).JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	default:
		return fmt.Errorf("unsupported format %q: expected table, dot or json", graphFormat)
	}
	return nil
}

// subgraph copies the nodes in names and the edges between them, keeping graph order
func subgraph(graph *dag.Graph, names []string) *dag.Graph {
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		keep[name] = true
	}

	result := dag.NewGraph()
	for _, name := range graph.Nodes() {
		if keep[name] {
			result.AddNode(name)
		}
	}
	for _, edge := range graph.Edges() {
		if keep[edge.From] && keep[edge.To] {
			// a subgraph of an acyclic graph is acyclic
			_ = result.AddEdge(edge.From, edge.To)
		}
	}
	return result
}

func graphTable(graph *dag.Graph, inverted bool) string {
	header := "DEPENDS ON"
	if inverted {
		header = "NEEDED BY"
	}

	table := utils.NewTableFormatter("TASK", header)
	for _, name := range graph.Nodes() {
		vertex, _ := graph.Vertex(name)
		table.AddRow(name, strings.Join(vertex.IncomingNames, ", "))
	}
	return table.String()
}
