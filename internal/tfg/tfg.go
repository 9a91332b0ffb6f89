// Package tfg materialises the Token Flow Graph: the DAG over places of
// the initial net, places of the reduced net and auxiliary variables,
// whose arcs encode the reduction equations.
package tfg

import (
	"fmt"

	"github.com/kong-analysis/internal/equation"
	"github.com/kong-analysis/internal/petri"
)

// Node is a place or an additional variable of the Token Flow Graph.
type Node struct {
	// ID of the node. Non-dead roots are named k#i.
	ID string

	// Additional is true for variables that are not places of the
	// initial net.
	Additional bool

	// Interval is true when the node is the parent of an inequation.
	Interval bool

	// Parents holds the incoming arcs.
	Parents []*Node

	// Redundant and Agglomerated hold the outgoing arcs, in insertion
	// order. Agglomerated children are visited before redundant ones.
	Redundant    []*Node
	Agglomerated []*Node

	// Lifting state, reset before every change of dimension.

	// Propagated is set once all parents of the node were propagated.
	Propagated bool

	// Dead is set when every parent of the node is dead.
	Dead bool

	// Successors memoises the non-additional nodes reachable downstream.
	Successors []*Node

	// Predecessors holds the non-additional nodes reachable upstream.
	Predecessors []*Node

	// Independent collects nodes known to never be marked together with
	// this one.
	Independent map[*Node]struct{}
}

func newNode(id string, additional bool) *Node {
	return &Node{
		ID:          id,
		Additional:  additional,
		Independent: make(map[*Node]struct{}),
	}
}

// Children returns the outgoing arcs, agglomerated first.
func (n *Node) Children() []*Node {
	children := make([]*Node, 0, len(n.Agglomerated)+len(n.Redundant))
	children = append(children, n.Agglomerated...)
	children = append(children, n.Redundant...)
	return children
}

// SetIndependent records the pair {n, other} as independent.
func (n *Node) SetIndependent(other *Node) {
	n.Independent[other] = struct{}{}
	other.Independent[n] = struct{}{}
}

// resetLifting clears the per-lift state.
func (n *Node) resetLifting() {
	n.Propagated = false
	n.Dead = false
	n.Successors = nil
	n.Predecessors = nil
	n.Independent = make(map[*Node]struct{})
}

// TFG is the Token Flow Graph. It owns its nodes; the graph is mutated
// only during construction and lifting, and is read-only in between.
type TFG struct {
	// InitialNet and ReducedNet are the two dimensions the graph
	// relates.
	InitialNet *petri.PetriNet
	ReducedNet *petri.PetriNet

	// Nodes maps ids to nodes.
	Nodes map[string]*Node

	// NonDeadRoots holds the k#i roots in appearance order.
	NonDeadRoots []*Node

	// DeadRoot is the unique sink for zero-valued variables.
	DeadRoot *Node

	counterNonDeadRoots int
}

// New creates the graph skeleton: one node per place of the initial net
// and the dead root.
func New(initialNet, reducedNet *petri.PetriNet) *TFG {
	t := &TFG{
		InitialNet: initialNet,
		ReducedNet: reducedNet,
		Nodes:      make(map[string]*Node),
	}

	for _, place := range initialNet.Places {
		t.Nodes[place] = newNode(place, false)
	}

	t.DeadRoot = t.getNode("0")

	return t
}

// Build wires the graph from the equation stream. Equations are applied
// in order; the reducer guarantees the result is acyclic.
func (t *TFG) Build(equations []equation.Equation) error {
	for _, eq := range equations {
		if err := t.apply(eq); err != nil {
			return err
		}
	}
	return nil
}

// apply adds the arcs of a single equation.
func (t *TFG) apply(eq equation.Equation) error {
	switch eq.Kind {
	case equation.KindRedundancy, equation.KindInequation:
		// The left-hand variable is redundantly expressed in terms of
		// the right-hand parents.
		child := t.getNode(eq.Left)
		for _, token := range eq.Right {
			parent := t.getNode(token)
			parent.Redundant = append(parent.Redundant, child)
			if eq.Interval {
				parent.Interval = true
			}
			child.Parents = append(child.Parents, parent)
		}
	case equation.KindAgglomeration:
		// The left-hand variable is the sum of the right-hand children.
		parent := t.getNode(eq.Left)
		for _, token := range eq.Right {
			child := t.getNode(token)
			parent.Agglomerated = append(parent.Agglomerated, child)
			child.Parents = append(child.Parents, parent)
		}
	default:
		return fmt.Errorf("invalid reduction equation kind %q", eq.Kind)
	}
	return nil
}

// getNode returns the node for an identifier, creating additional
// variables on first use. A positive integer literal creates a fresh
// non-dead root on every encounter; the literal 0 resolves to the dead
// root.
func (t *TFG) getNode(id string) *Node {
	if isPositiveInteger(id) {
		t.counterNonDeadRoots++
		root := newNode(fmt.Sprintf("%s#%d", id, t.counterNonDeadRoots), true)
		t.Nodes[root.ID] = root
		t.NonDeadRoots = append(t.NonDeadRoots, root)
		return root
	}

	if node, ok := t.Nodes[id]; ok {
		return node
	}

	node := newNode(id, true)
	t.Nodes[id] = node
	return node
}

// GetNode returns the node for an identifier, materialising it if the
// reduced net mentions a place the equations never did.
func (t *TFG) GetNode(id string) *Node {
	return t.getNode(id)
}

// Reset clears the lifting state of every node, making the graph ready
// for another change of dimension.
func (t *TFG) Reset() {
	for _, node := range t.Nodes {
		node.resetLifting()
	}
}

// isPositiveInteger reports whether the id is an integer literal > 0.
func isPositiveInteger(id string) bool {
	if id == "" || id == "0" {
		return false
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
