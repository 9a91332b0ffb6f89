package lifting

import (
	"strconv"
	"strings"

	"github.com/kong-analysis/internal/petri"
	"github.com/kong-analysis/internal/tfg"
)

// ProjectMarking projects a target marking of the initial net into an
// equivalent target marking on the reduced net. The second return value
// is false when the equations prove the marking unreachable: some
// well-definedness check failed, no oracle consultation is needed.
func ProjectMarking(g *tfg.TFG, marking petri.Marking) (petri.Marking, bool) {
	g.Reset()

	// Initial configuration: the target marking on initial places, k on
	// every non-dead root k#i, zero on the dead root. Every other node
	// defaults to zero.
	configuration := make(map[*tfg.Node]int)
	for _, place := range g.InitialNet.Places {
		configuration[g.GetNode(place)] = marking[place]
	}
	for _, root := range g.NonDeadRoots {
		configuration[root] = rootConstant(root)
	}
	configuration[g.DeadRoot] = 0

	// Bottom-up propagation from every root.
	roots := make([]*tfg.Node, 0, g.ReducedNet.NumberPlaces()+1+len(g.NonDeadRoots))
	for _, place := range g.ReducedNet.Places {
		roots = append(roots, g.GetNode(place))
	}
	roots = append(roots, g.DeadRoot)
	roots = append(roots, g.NonDeadRoots...)

	for _, root := range roots {
		if !bottomUpTokenPropagation(root, configuration) {
			return nil, false
		}
	}

	// Restrict the configuration to the reduced net.
	projected := make(petri.Marking, g.ReducedNet.NumberPlaces())
	for _, place := range g.ReducedNet.Places {
		projected[place] = configuration[g.GetNode(place)]
	}
	return projected, true
}

// bottomUpTokenPropagation fills the configuration of a subtree from its
// leaves and verifies the well-definedness of every redundancy whose
// parents are all known. Returns false on a violated check.
func bottomUpTokenPropagation(node *tfg.Node, configuration map[*tfg.Node]int) bool {
	for _, succ := range node.Children() {
		if !bottomUpTokenPropagation(succ, configuration) {
			return false
		}
	}

	// An agglomeration carries the sum of its children.
	if len(node.Agglomerated) > 0 {
		sum := 0
		for _, agglomerated := range node.Agglomerated {
			sum += configuration[agglomerated]
		}
		configuration[node] = sum
	}

	node.Propagated = true

	// Check the redundancy equations of the children once every parent
	// contributed. An interval parent relaxes equality to covering.
	for _, redundant := range node.Redundant {
		if !allPropagated(redundant.Parents) {
			continue
		}

		sum := 0
		interval := false
		for _, parent := range redundant.Parents {
			sum += configuration[parent]
			if parent.Interval {
				interval = true
			}
		}

		if interval {
			if sum < configuration[redundant] {
				return false
			}
		} else if sum != configuration[redundant] {
			return false
		}
	}

	return true
}

// rootConstant extracts k from a non-dead root id k#i.
func rootConstant(root *tfg.Node) int {
	id := root.ID
	if hash := strings.IndexByte(id, '#'); hash >= 0 {
		id = id[:hash]
	}
	k, _ := strconv.Atoi(id)
	return k
}
