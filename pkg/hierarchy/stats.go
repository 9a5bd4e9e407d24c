package hierarchy

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TreeStats summarizes the currently displayed subtree for the status bar.
type TreeStats struct {
	Items         int     // nodes materialized under (and including) the base
	Containers    int     // nodes that currently hold children
	MaxDepth      int     // deepest node, base = 0
	MeanBranching float64 // mean child count over nodes with children
	P90Subtree    int     // 90th percentile subtree size (node + descendants)
}

// Stats computes display statistics over the upper tree.
func (e *Engine) Stats() TreeStats {
	root := e.upper.Root()
	if root == nil {
		return TreeStats{}
	}

	var branching []float64
	var subtrees []float64
	maxDepth := 0
	items := 0

	var walk func(n *Node) int
	walk = func(n *Node) int {
		items++
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
		size := 1
		for _, c := range n.Children {
			size += walk(c)
		}
		if len(n.Children) > 0 {
			branching = append(branching, float64(len(n.Children)))
		}
		subtrees = append(subtrees, float64(size))
		return size
	}
	walk(root)

	s := TreeStats{
		Items:      items,
		Containers: len(branching),
		MaxDepth:   maxDepth,
	}
	if len(branching) > 0 {
		s.MeanBranching = stat.Mean(branching, nil)
	}
	if len(subtrees) > 0 {
		sort.Float64s(subtrees)
		s.P90Subtree = int(stat.Quantile(0.9, stat.Empirical, subtrees, nil))
	}
	return s
}
