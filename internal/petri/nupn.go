package petri

import (
	"fmt"
	"os"
	"sort"
	"strings"

	apperrors "github.com/kong-analysis/pkg/errors"
)

// creatorVersion is written to the !creator pragma of exported files.
const creatorVersion = "1.0.0"

// NUPN is a hierarchical decomposition of the places into nested units.
type NUPN struct {
	// UnitSafe carries the unit-safe pragma of the source file.
	UnitSafe bool

	// Root of the unit tree.
	Root *Unit

	// Units maps unit ids to units.
	Units map[string]*Unit

	// Order assigns each unit its output index once Simplify ran.
	Order map[string]int

	unitOrder []string
}

// NewNUPN creates an empty decomposition.
func NewNUPN(unitSafe bool) *NUPN {
	return &NUPN{
		UnitSafe: unitSafe,
		Units:    make(map[string]*Unit),
		Order:    make(map[string]int),
	}
}

// GetUnit returns the unit with the given id, creating it on first use.
func (n *NUPN) GetUnit(id string) *Unit {
	if unit, ok := n.Units[id]; ok {
		return unit
	}

	unit := &Unit{ID: id}
	n.Units[id] = unit
	n.unitOrder = append(n.unitOrder, id)
	return unit
}

// orderedUnits returns the live units in insertion order.
func (n *NUPN) orderedUnits() []*Unit {
	units := make([]*Unit, 0, len(n.Units))
	for _, id := range n.unitOrder {
		if unit, ok := n.Units[id]; ok {
			units = append(units, unit)
		}
	}
	return units
}

// String renders the decomposition in the diagnostic form used by
// --show-nupns.
func (n *NUPN) String() string {
	var sb strings.Builder
	sb.WriteString("# NUPN\n")
	fmt.Fprintf(&sb, "# Unit-safe: %v\n", n.UnitSafe)
	fmt.Fprintf(&sb, "# Root: %s\n", n.Root.ID)

	lines := make([]string, 0, len(n.Units))
	for _, unit := range n.orderedUnits() {
		lines = append(lines, unit.String())
	}
	sb.WriteString(strings.Join(lines, "\n"))

	return sb.String()
}

// AddPlace puts a place into the best unit among the candidates: the one
// leaving the fewest places outside its descendant subtree.
func (n *NUPN) AddPlace(place string, candidates []*Unit) {
	if len(candidates) == 0 {
		return
	}
	if len(candidates) == 1 {
		candidates[0].Places = append(candidates[0].Places, place)
		return
	}

	var best *Unit
	bestCost := -1
	for _, candidate := range candidates {
		cost := 0
		for _, unit := range n.orderedUnits() {
			if !candidate.HasDescendant(unit) {
				cost += len(unit.Places)
			}
		}
		if best == nil || cost < bestCost {
			best = candidate
			bestCost = cost
		}
	}
	best.Places = append(best.Places, place)
}

// Simplify merges units with a single subunit and deletes units without
// places, then assigns the output order: units in the order they were first
// registered, places contiguous within their unit. Returns the place order.
func (n *NUPN) Simplify() map[string]int {
	queue := []*Unit{n.Root}

	for len(queue) > 0 {
		unit := queue[0]
		queue = queue[1:]
		changed := false

		// A unit with a single subunit absorbs it.
		if len(unit.Subunits) == 1 {
			subunit := unit.Subunits[0]
			delete(n.Units, subunit.ID)
			unit.Places = append(unit.Places, subunit.Places...)
			unit.Subunits = subunit.Subunits
			changed = true
		}

		// A subunit without places dissolves into its parent.
		kept := unit.Subunits[:0]
		var adopted []*Unit
		for _, subunit := range unit.Subunits {
			if len(subunit.Places) == 0 {
				delete(n.Units, subunit.ID)
				adopted = append(adopted, subunit.Subunits...)
				changed = true
			} else {
				kept = append(kept, subunit)
			}
		}
		unit.Subunits = append(kept, adopted...)

		if changed {
			queue = append(queue, unit)
		} else {
			queue = append(queue, unit.Subunits...)
		}
	}

	placesOrder := make(map[string]int)
	counter := 0
	n.Order = make(map[string]int)
	for index, unit := range n.orderedUnits() {
		n.Order[unit.ID] = index
		for _, place := range unit.Places {
			placesOrder[place] = counter
			counter++
		}
	}

	return placesOrder
}

// Unit is a node of the NUPN tree: it owns places and nests subunits.
type Unit struct {
	ID       string
	Places   []string
	Subunits []*Unit

	descendants map[*Unit]struct{}
}

// String renders the unit in the diagnostic form.
func (u *Unit) String() string {
	subunits := make([]string, len(u.Subunits))
	for i, subunit := range u.Subunits {
		subunits[i] = subunit.ID
	}
	return fmt.Sprintf("# %s: [%s] - [%s]", u.ID, strings.Join(u.Places, " "), strings.Join(subunits, " "))
}

// AddSubunit attaches a subunit, ignoring duplicates.
func (u *Unit) AddSubunit(subunit *Unit) {
	for _, existing := range u.Subunits {
		if existing == subunit {
			return
		}
	}
	u.Subunits = append(u.Subunits, subunit)
}

// ComputeDescendants fills the descendant sets of the subtree. Each set
// includes the unit itself.
func (u *Unit) ComputeDescendants() map[*Unit]struct{} {
	u.descendants = map[*Unit]struct{}{u: {}}
	for _, subunit := range u.Subunits {
		for d := range subunit.ComputeDescendants() {
			u.descendants[d] = struct{}{}
		}
	}
	return u.descendants
}

// HasDescendant reports whether other belongs to the unit's subtree.
func (u *Unit) HasDescendant(other *Unit) bool {
	_, ok := u.descendants[other]
	return ok
}

// ClearPlaces removes the owned places of the whole subtree.
func (u *Unit) ClearPlaces() {
	u.Places = nil
	for _, subunit := range u.Subunits {
		subunit.ClearPlaces()
	}
}

// MinimalUnits collects the highest units whose owned places intersect
// the leaf set, without descending below a hit.
func (u *Unit) MinimalUnits(leaves map[string]struct{}, out *[]*Unit) {
	for _, place := range u.Places {
		if _, ok := leaves[place]; ok {
			*out = append(*out, u)
			return
		}
	}

	for _, subunit := range u.Subunits {
		subunit.MinimalUnits(leaves, out)
	}
}

// ExportNUPN writes the net in the .nupn format the oracle consumes.
// When a NUPN decomposition is attached it is simplified first and the
// place order is updated so that places of a unit are contiguous;
// otherwise a trivial one-place-per-unit decomposition is emitted.
func (n *PetriNet) ExportNUPN(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeIO, "cannot create nupn file", err)
	}
	defer f.Close()

	var sb strings.Builder
	fmt.Fprintf(&sb, "!creator kong %s\n", creatorVersion)

	if n.NUPN != nil {
		placesOrder := n.NUPN.Simplify()
		ordered := append([]string(nil), n.Places...)
		sort.SliceStable(ordered, func(i, j int) bool {
			return placesOrder[ordered[i]] < placesOrder[ordered[j]]
		})
		n.SetOrder(ordered)

		if n.NUPN.UnitSafe {
			sb.WriteString("!unit_safe unknown/tool\n")
		}
	}

	total := n.NumberPlaces()
	fmt.Fprintf(&sb, "places #%d 0...%d\n", total, total-1)

	initial := make([]string, len(n.InitialPlaces))
	for i, pl := range n.InitialPlaces {
		order, _ := n.Order(pl)
		initial[i] = fmt.Sprintf("%d", order)
	}
	if len(initial) > 0 {
		fmt.Fprintf(&sb, "initial places #%d %s\n", len(initial), strings.Join(initial, " "))
	} else {
		fmt.Fprintf(&sb, "initial places #0\n")
	}

	if n.NUPN != nil {
		units := n.NUPN.orderedUnits()
		fmt.Fprintf(&sb, "units #%d 0...%d\n", len(units), len(units)-1)
		fmt.Fprintf(&sb, "root unit %d\n", n.NUPN.Order[n.NUPN.Root.ID])

		for _, unit := range units {
			start, end := 1, 0
			if len(unit.Places) > 0 {
				start, _ = n.Order(unit.Places[0])
				end, _ = n.Order(unit.Places[len(unit.Places)-1])
			}

			subunits := ""
			if len(unit.Subunits) > 0 {
				indices := make([]string, len(unit.Subunits))
				for i, subunit := range unit.Subunits {
					indices[i] = fmt.Sprintf("%d", n.NUPN.Order[subunit.ID])
				}
				subunits = " " + strings.Join(indices, " ")
			}

			fmt.Fprintf(&sb, "U%d #%d %d...%d #%d%s\n",
				n.NUPN.Order[unit.ID], len(unit.Places), start, end, len(unit.Subunits), subunits)
		}
	} else {
		fmt.Fprintf(&sb, "units #%d 0...%d\n", total+1, total)
		fmt.Fprintf(&sb, "root unit 0\n")
		children := make([]string, total)
		for i := range children {
			children[i] = fmt.Sprintf("%d", i+1)
		}
		fmt.Fprintf(&sb, "U0 #0 1...0 #%d %s\n", total, strings.Join(children, " "))
		for _, place := range n.Places {
			order, _ := n.Order(place)
			fmt.Fprintf(&sb, "U%d #1 %d...%d #0\n", order+1, order, order)
		}
	}

	start, end := 1, 0
	if len(n.Transitions) > 0 {
		start, end = 0, len(n.Transitions)-1
	}
	fmt.Fprintf(&sb, "transitions #%d %d...%d\n", len(n.Transitions), start, end)

	for index, transition := range n.Transitions {
		sb.WriteString(fmt.Sprintf("T%d", index))
		for _, arcs := range [][]string{n.Pre[transition], n.Post[transition]} {
			fmt.Fprintf(&sb, " #%d", len(arcs))
			for _, place := range arcs {
				order, _ := n.Order(place)
				fmt.Fprintf(&sb, " %d", order)
			}
		}
		sb.WriteByte('\n')
	}

	if _, err := f.WriteString(sb.String()); err != nil {
		return apperrors.Wrap(apperrors.CodeIO, "cannot write nupn file", err)
	}
	return nil
}
