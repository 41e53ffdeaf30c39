package compiler

import (
	"sort"
	"strings"

	"github.com/roach88/formic/internal/config"
)

// AnalyzeCycles performs static cycle detection on the dependentIds
// graph.
//
// The engine's closure traversal visits each element at most once, so
// a cycle cannot hang it at runtime. But a cycle still means the
// configuration's reverse edges feed back into themselves, which is
// never intentional for derived form attributes, so it is reported as
// a fatal configuration error here rather than left for an operator to
// puzzle over from runtime behavior.
//
// The algorithm builds the element dependency graph and finds strongly
// connected components with Tarjan's algorithm. Every SCC with more
// than one node, and every self-loop, is a cycle.
func AnalyzeCycles(cfg *config.Config) []ConfigError {
	idx := cfg.BuildIndex()

	graph := make(map[config.ElementID][]config.ElementID)
	for _, id := range idx.Elements() {
		comp := idx.Component(id)
		// Copy the edge list; nodes with no edges still appear in the graph
		graph[id] = append([]config.ElementID(nil), comp.DependentIDs...)
	}

	var errs []ConfigError
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			errs = append(errs, errf(ErrDependencyCycle, "dependentIds",
				"dependency cycle: %s", formatCycle(scc)))
		}
	}
	return errs
}

func hasSelfLoop(node config.ElementID, graph map[config.ElementID][]config.ElementID) bool {
	for _, n := range graph[node] {
		if n == node {
			return true
		}
	}
	return false
}

func formatCycle(scc []config.ElementID) string {
	parts := make([]string, 0, len(scc)+1)
	for _, id := range scc {
		parts = append(parts, string(id))
	}
	sort.Strings(parts)
	parts = append(parts, parts[0])
	return strings.Join(parts, " -> ")
}

// tarjanSCC finds strongly connected components. Nodes are visited in
// sorted order so the output is deterministic for error reporting.
func tarjanSCC(graph map[config.ElementID][]config.ElementID) [][]config.ElementID {
	var (
		index   = 0
		stack   []config.ElementID
		indices = make(map[config.ElementID]int)
		lowlink = make(map[config.ElementID]int)
		onStack = make(map[config.ElementID]bool)
		sccs    [][]config.ElementID
	)

	var strongConnect func(v config.ElementID)
	strongConnect = func(v config.ElementID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, seen := indices[w]; !seen {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var scc []config.ElementID
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

	nodes := make([]config.ElementID, 0, len(graph))
	for n := range graph {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(a, b int) bool { return nodes[a] < nodes[b] })

	for _, n := range nodes {
		if _, seen := indices[n]; !seen {
			strongConnect(n)
		}
	}
	return sccs
}
