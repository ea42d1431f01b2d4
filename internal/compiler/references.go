package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/rowmodel/internal/field"
	"github.com/roach88/rowmodel/internal/schema"
)

// CycleWarning reports a foreign key cycle between models.
//
// Cycles are warnings, not errors: BDCR suspends foreign key enforcement, so
// mutually referencing tables still synchronize. Rows of a cycle cannot all
// be inserted through pre-checked commits unless one side is nullable.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// referenceGraph maps a table to the tables its foreign keys reference.
type referenceGraph map[string][]string

func buildReferenceGraph(schemas []*schema.Schema) referenceGraph {
	graph := make(referenceGraph)
	for _, s := range schemas {
		if graph[s.Table()] == nil {
			graph[s.Table()] = []string{}
		}
		for _, fk := range s.Constraints(field.KindForeignKey) {
			ref, _ := fk.References()
			graph[s.Table()] = append(graph[s.Table()], ref)
		}
	}
	return graph
}

// AnalyzeCycles detects foreign key cycles with Tarjan's algorithm. A table
// referencing itself (a tree of rows) is reported at info level.
func AnalyzeCycles(schemas []*schema.Schema) []CycleWarning {
	graph := buildReferenceGraph(schemas)

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph) {
		switch {
		case len(scc) > 1:
			path := reconstructCyclePath(scc, graph)
			warnings = append(warnings, CycleWarning{
				Path:    path,
				Message: fmt.Sprintf("foreign key cycle: %s", strings.Join(path, " → ")),
				Level:   "warning",
			})
		case hasSelfLoop(scc[0], graph):
			warnings = append(warnings, CycleWarning{
				Path:    []string{scc[0], scc[0]},
				Message: fmt.Sprintf("self-referencing table: %s", scc[0]),
				Level:   "info",
			})
		}
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Path[0] < warnings[j].Path[0] })
	return warnings
}

// SyncOrder orders schemas so that referenced tables come before the tables
// referencing them. Members of a cycle keep their declaration order.
func SyncOrder(schemas []*schema.Schema) []*schema.Schema {
	graph := buildReferenceGraph(schemas)
	byTable := make(map[string]*schema.Schema, len(schemas))
	for _, s := range schemas {
		byTable[s.Table()] = s
	}

	var (
		out     []*schema.Schema
		done    = make(map[string]bool)
		visited = make(map[string]bool)
	)
	var visit func(string)
	visit = func(table string) {
		if visited[table] {
			return
		}
		visited[table] = true
		for _, ref := range graph[table] {
			visit(ref)
		}
		if s := byTable[table]; s != nil && !done[table] {
			done[table] = true
			out = append(out, s)
		}
	}
	for _, s := range schemas {
		visit(s.Table())
	}
	return out
}

func hasSelfLoop(node string, graph referenceGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components. Nodes are visited in
// sorted order so results are deterministic.
func tarjanSCC(graph referenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath walks SCC members from the alphabetically first one
// until it returns to the start.
func reconstructCyclePath(scc []string, graph referenceGraph) []string {
	members := append([]string(nil), scc...)
	sort.Strings(members)
	inSCC := make(map[string]bool, len(members))
	for _, node := range members {
		inSCC[node] = true
	}

	start := members[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true
		var next string
		for _, neighbor := range graph[current] {
			if inSCC[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
