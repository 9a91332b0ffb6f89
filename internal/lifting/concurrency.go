// Package lifting implements the change of dimension: lifting results
// computed on the reduced net back to the initial net by token
// propagation over the Token Flow Graph.
package lifting

import (
	"github.com/kong-analysis/internal/matrix"
	"github.com/kong-analysis/internal/tfg"
)

// ConcurrencyMatrix lifts the concurrency matrix of the reduced net to
// the initial net. The complete flag selects between the exact algorithm
// and the partial-information one.
func ConcurrencyMatrix(g *tfg.TFG, reduced matrix.Matrix, complete bool) matrix.Matrix {
	g.Reset()

	fill := matrix.Zero
	if !complete {
		fill = matrix.Unknown
	}
	m := matrix.New(g.InitialNet.NumberPlaces(), fill)

	// Propagate non-dead roots: their successors always carry a token.
	for _, root := range g.NonDeadRoots {
		tokenPropagation(g, root, matrix.One, m, complete, true)
	}

	// Partial relation: propagate the dead root.
	if !complete {
		tokenPropagation(g, g.DeadRoot, matrix.Zero, m, complete, true)
	}

	// Propagate the diagonal values of the reduced net roots.
	for i := 0; i < g.ReducedNet.NumberPlaces() && i < len(reduced); i++ {
		root := g.GetNode(g.ReducedNet.Places[i])
		value := reduced[i][i]

		if value == matrix.One {
			tokenPropagation(g, root, value, m, complete, true)
			// A live root is concurrent with every non-dead root.
			for _, nonDeadRoot := range g.NonDeadRoots {
				product(g, nonDeadRoot.Successors, root.Successors, matrix.One, m)
			}
		}

		if !complete && value != matrix.One {
			tokenPropagation(g, root, value, m, complete, true)
		}
	}

	// Non-dead roots are pairwise concurrent.
	for i, root1 := range g.NonDeadRoots {
		for _, root2 := range g.NonDeadRoots[i+1:] {
			product(g, root1.Successors, root2.Successors, matrix.One, m)
		}
	}

	// Propagate the off-diagonal concurrency relation of the reduced net.
	for i := 0; i < len(reduced) && i < g.ReducedNet.NumberPlaces(); i++ {
		if reduced[i][i] == matrix.Zero {
			// Dead root: nothing to relate.
			continue
		}

		for j := 0; j < i; j++ {
			concurrency := reduced[i][j]
			root1 := g.GetNode(g.ReducedNet.Places[i])
			root2 := g.GetNode(g.ReducedNet.Places[j])

			if concurrency == matrix.One {
				product(g, root1.Successors, root2.Successors, matrix.One, m)
			}

			if !complete && concurrency == matrix.Zero {
				root1.SetIndependent(root2)
			}
		}
	}

	// Partial relation: close the independence relation over the graph.
	if !complete {
		independenceClosure(g, m)
	}

	// Dead places are independent from every other place.
	clearDeadColumns(m)

	return m
}

// tokenPropagation pushes a semantic value down the subtree rooted at
// node, learning concurrent pairs along redundant arcs, and returns the
// non-additional successors visited. Roots memoise their successor list.
func tokenPropagation(g *tfg.TFG, node *tfg.Node, value matrix.Value, m matrix.Matrix, complete bool, memoize bool) []*tfg.Node {
	var successors []*tfg.Node

	// Partial relation: once every parent was propagated the node
	// inherits their predecessors, and parents sharing a redundant
	// child are pairwise independent.
	if !complete && allPropagated(node.Parents) {
		node.Propagated = true

		for i, parent1 := range node.Parents {
			for _, parent2 := range node.Parents[i+1:] {
				parent1.SetIndependent(parent2)
			}
		}

		node.Predecessors = nil
		for _, parent := range node.Parents {
			node.Predecessors = append(node.Predecessors, parent.Predecessors...)
		}
	}

	// Partial relation: a dead value only flows through nodes whose
	// parents are all dead; otherwise the information degrades.
	if !complete && value == matrix.Zero {
		if allDead(node.Parents) {
			node.Dead = true
		} else {
			value = matrix.Unknown
		}
	}

	if !node.Additional {
		if value != matrix.Unknown {
			if order, ok := g.InitialNet.Order(node.ID); ok {
				writeCell(m, order, order, value)
			}
		}
		successors = append(successors, node)
		node.Predecessors = append(node.Predecessors, node)
	}

	// Siblings under an agglomeration split disjoint token sets.
	for i, agg1 := range node.Agglomerated {
		for _, agg2 := range node.Agglomerated[i+1:] {
			agg1.SetIndependent(agg2)
		}
	}

	for _, agglomerated := range node.Agglomerated {
		successors = append(successors, tokenPropagation(g, agglomerated, value, m, complete, false)...)
	}

	for _, redundant := range node.Redundant {
		redundantSuccessors := tokenPropagation(g, redundant, value, m, complete, false)
		// A marked redundant child is marked together with the
		// successors accumulated so far.
		if value == matrix.One {
			product(g, redundantSuccessors, successors, matrix.One, m)
		}
		successors = append(successors, redundantSuccessors...)
	}

	if memoize {
		node.Successors = successors
	}

	return successors
}

// independenceClosure walks the graph from the roots in arc-following
// order, intersecting the independence sets of the non-dead parents, and
// projects the learned pairs into the matrix.
func independenceClosure(g *tfg.TFG, m matrix.Matrix) {
	var queue []*tfg.Node
	queue = append(queue, g.NonDeadRoots...)
	for _, place := range g.ReducedNet.Places {
		queue = append(queue, g.GetNode(place))
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		// Intersect the independence sets of the non-dead parents.
		var sets []map[*tfg.Node]struct{}
		for _, parent := range node.Parents {
			if !parent.Dead {
				sets = append(sets, parent.Independent)
			}
		}
		if len(sets) > 0 {
			for candidate := range sets[0] {
				inAll := true
				for _, set := range sets[1:] {
					if _, ok := set[candidate]; !ok {
						inAll = false
						break
					}
				}
				if inAll {
					node.SetIndependent(candidate)
				}
			}
		}

		// Project the relation into the matrix for initial places.
		if !node.Additional {
			var targets []*tfg.Node
			for independent := range node.Independent {
				if !independent.Additional {
					targets = append(targets, independent)
				}
			}
			product(g, []*tfg.Node{node}, targets, matrix.Zero, m)
		}

		queue = append(queue, node.Children()...)
	}
}

// clearDeadColumns zeroes the row and column of every place whose
// diagonal says dead.
func clearDeadColumns(m matrix.Matrix) {
	var deadColumns []int
	for i, row := range m {
		if row[i] == matrix.Zero {
			for j := range row {
				row[j] = matrix.Zero
			}
			deadColumns = append(deadColumns, i)
		} else {
			for _, column := range deadColumns {
				row[column] = matrix.Zero
			}
		}
	}
}

// product writes the cartesian product of two successor lists into the
// matrix.
func product(g *tfg.TFG, places1, places2 []*tfg.Node, value matrix.Value, m matrix.Matrix) {
	for _, place1 := range places1 {
		order1, ok1 := g.InitialNet.Order(place1.ID)
		if !ok1 {
			continue
		}
		for _, place2 := range places2 {
			order2, ok2 := g.InitialNet.Order(place2.ID)
			if !ok2 {
				continue
			}
			writeCell(m, order1, order2, value)
		}
	}
}

// writeCell writes a cell honouring the value precedence 1 > 0 > `.`:
// a learned concurrency is final.
func writeCell(m matrix.Matrix, i, j int, value matrix.Value) {
	if value == matrix.Zero && m.Get(i, j) == matrix.One {
		return
	}
	m.Set(i, j, value)
}

// allPropagated reports whether every node of the list is propagated.
// It is vacuously true for roots.
func allPropagated(nodes []*tfg.Node) bool {
	for _, node := range nodes {
		if !node.Propagated {
			return false
		}
	}
	return true
}

// allDead reports whether every node of the list is dead. It is
// vacuously true for roots.
func allDead(nodes []*tfg.Node) bool {
	for _, node := range nodes {
		if !node.Dead {
			return false
		}
	}
	return true
}
