// Package petri provides the Petri net model and the parsers for the
// .pnml and .net input formats, together with the NUPN unit decomposition
// and the .nupn export consumed by the base oracle.
package petri

import (
	"path/filepath"
	"strings"

	apperrors "github.com/kong-analysis/pkg/errors"
)

// LoadOptions configures net loading.
type LoadOptions struct {
	// InitialNet marks the net as the initial (non-reduced) one. The
	// initial net keeps its place identifiers authoritative and gets its
	// .pnml rewritten so that every place carries a name/text element
	// equal to its id, which the reducer preserves.
	InitialNet bool

	// NoUnits skips reading the NUPN decomposition.
	NoUnits bool
}

// PetriNet is an ordered-place view of a Petri net. The place insertion
// order is the matrix index order.
type PetriNet struct {
	// Filename is the file the net was loaded from. For an initial
	// .pnml net this is the rewritten temporary copy.
	Filename string

	// Places in insertion order.
	Places []string

	// InitialPlaces holds the initially marked places.
	InitialPlaces []string

	// IsInitial reports whether this is the initial net.
	IsInitial bool

	// Pre and Post map each transition to its input and output places.
	Pre  map[string][]string
	Post map[string][]string

	// Transitions in insertion order.
	Transitions []string

	// NUPN is the hierarchical unit decomposition, when one is known.
	NUPN *NUPN

	order map[string]int
}

func newPetriNet(filename string, initial bool) *PetriNet {
	return &PetriNet{
		Filename:  filename,
		IsInitial: initial,
		Pre:       make(map[string][]string),
		Post:      make(map[string][]string),
		order:     make(map[string]int),
	}
}

// NewNet creates an in-memory net with the given ordered places.
func NewNet(places ...string) *PetriNet {
	net := newPetriNet("", false)
	for _, place := range places {
		net.addPlace(place)
	}
	return net
}

// Load reads a Petri net from a .pnml or .net file.
func Load(path string, opts *LoadOptions) (*PetriNet, error) {
	if opts == nil {
		opts = &LoadOptions{}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pnml":
		return parsePNML(path, opts)
	case ".net":
		return parseNet(path, opts)
	default:
		return nil, apperrors.Newf(apperrors.CodeMalformedNet,
			"unsupported net format %q", filepath.Ext(path))
	}
}

// addPlace registers a place, keeping the first insertion order.
func (n *PetriNet) addPlace(place string) {
	if _, ok := n.order[place]; ok {
		return
	}
	n.order[place] = len(n.Places)
	n.Places = append(n.Places, place)
}

// Order returns the matrix index of a place.
func (n *PetriNet) Order(place string) (int, bool) {
	i, ok := n.order[place]
	return i, ok
}

// NumberPlaces returns the number of places.
func (n *PetriNet) NumberPlaces() int {
	return len(n.Places)
}

// SetOrder replaces the place order. The given list must be a
// permutation of the current places.
func (n *PetriNet) SetOrder(places []string) {
	n.Places = places
	n.order = make(map[string]int, len(places))
	for i, pl := range places {
		n.order[pl] = i
	}
}

// String renders the ordered place list.
func (n *PetriNet) String() string {
	return strings.Join(n.Places, " ")
}

// stripBraces removes the optional {...} wrapper of a .net identifier.
func stripBraces(s string) string {
	return strings.NewReplacer("{", "", "}", "").Replace(s)
}
