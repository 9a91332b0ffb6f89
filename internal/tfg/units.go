package tfg

import (
	"sort"

	"github.com/kong-analysis/internal/petri"
)

// ProjectUnits transfers the NUPN decomposition of the initial net onto
// the reduced net, so the oracle can exploit it. Each reduced place is
// assigned to the minimal units covering the initial places it
// represents.
func (t *TFG) ProjectUnits() {
	if t.InitialNet.NUPN == nil {
		return
	}

	// Compute the optimal units for every place of the reduced net.
	minimalUnits := make(map[string][]*petri.Unit)
	for _, place := range t.ReducedNet.Places {
		leaves := make(map[string]struct{})
		t.exploreLeaves(t.GetNode(place), leaves, make(map[*Node]struct{}))

		var units []*petri.Unit
		t.InitialNet.NUPN.Root.MinimalUnits(leaves, &units)
		minimalUnits[place] = units
	}

	// Transfer the NUPN from the initial net to the reduced net.
	t.ReducedNet.NUPN, t.InitialNet.NUPN = t.InitialNet.NUPN, nil
	t.ReducedNet.NUPN.Root.ClearPlaces()

	// Fill the units, most constrained places first.
	places := append([]string(nil), t.ReducedNet.Places...)
	sort.SliceStable(places, func(i, j int) bool {
		return len(minimalUnits[places[i]]) < len(minimalUnits[places[j]])
	})
	for _, place := range places {
		t.ReducedNet.NUPN.AddPlace(place, minimalUnits[place])
	}
}

// exploreLeaves collects the non-additional nodes reachable downstream,
// the initial places the subtree represents.
func (t *TFG) exploreLeaves(node *Node, leaves map[string]struct{}, visited map[*Node]struct{}) {
	if _, ok := visited[node]; ok {
		return
	}
	visited[node] = struct{}{}

	if !node.Additional {
		leaves[node.ID] = struct{}{}
	}

	for _, succ := range node.Children() {
		t.exploreLeaves(succ, leaves, visited)
	}
}
