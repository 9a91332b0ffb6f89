package lifting

import (
	"github.com/kong-analysis/internal/matrix"
	"github.com/kong-analysis/internal/tfg"
)

// DeadPlacesVector lifts the dead places vector of the reduced net to
// the initial net. In the vector, 1 means dead and 0 alive, the
// opposite polarity from the matrix diagonal.
func DeadPlacesVector(g *tfg.TFG, reduced matrix.Vector, complete bool) matrix.Vector {
	g.Reset()

	fill := matrix.One
	if !complete {
		fill = matrix.Unknown
	}
	v := matrix.NewVector(g.InitialNet.NumberPlaces(), fill)

	// Successors of non-dead roots are alive.
	for _, root := range g.NonDeadRoots {
		lazyTokenPropagation(g, root, matrix.Zero, v, complete)
	}

	// Partial relation: propagate the dead root.
	if !complete {
		lazyTokenPropagation(g, g.DeadRoot, matrix.One, v, complete)
	}

	// Propagate the reduced vector values.
	for i := 0; i < g.ReducedNet.NumberPlaces() && i < len(reduced); i++ {
		root := g.GetNode(g.ReducedNet.Places[i])
		value := reduced[i]

		if value == matrix.Zero {
			lazyTokenPropagation(g, root, value, v, complete)
		}

		if !complete && value == matrix.One {
			lazyTokenPropagation(g, root, value, v, complete)
		}
	}

	return v
}

// lazyTokenPropagation is the diagonal-only variant of token
// propagation: no products, no independence learning.
func lazyTokenPropagation(g *tfg.TFG, node *tfg.Node, value matrix.Value, v matrix.Vector, complete bool) {
	if !complete && allPropagated(node.Parents) {
		node.Propagated = true

		node.Predecessors = nil
		for _, parent := range node.Parents {
			node.Predecessors = append(node.Predecessors, parent.Predecessors...)
		}
	}

	// A dead value degrades to unknown unless every parent is dead.
	if !complete && value == matrix.One {
		if allDead(node.Parents) {
			node.Dead = true
		} else {
			value = matrix.Unknown
		}
	}

	if !node.Additional {
		if value != matrix.Unknown {
			if order, ok := g.InitialNet.Order(node.ID); ok {
				writeVectorCell(v, order, value)
			}
		}
		node.Predecessors = append(node.Predecessors, node)
	}

	for _, agglomerated := range node.Agglomerated {
		lazyTokenPropagation(g, agglomerated, value, v, complete)
	}
	for _, redundant := range node.Redundant {
		lazyTokenPropagation(g, redundant, value, v, complete)
	}
}

// writeVectorCell honours the vector polarity: 0 (alive) is the final
// value, 1 (dead) never overwrites it.
func writeVectorCell(v matrix.Vector, i int, value matrix.Value) {
	if value == matrix.One && v[i] == matrix.Zero {
		return
	}
	v[i] = value
}
