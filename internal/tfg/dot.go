package tfg

import (
	"fmt"
	"io"
	"sort"
)

// WriteDot renders the graph in Graphviz DOT format. Redundant arcs get
// a dot arrowhead, agglomerated arcs an open-dot tail.
func (t *TFG) WriteDot(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "graph TFG {"); err != nil {
		return err
	}
	fmt.Fprintln(w, "\tnode [shape=circle fixedsize=true]")

	ids := make([]string, 0, len(t.Nodes))
	for id := range t.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		fmt.Fprintf(w, "\t%q\n", id)
	}

	for _, id := range ids {
		node := t.Nodes[id]
		for _, redundant := range node.Redundant {
			fmt.Fprintf(w, "\t%q -- %q [dir=both arrowhead=dotnormal arrowtail=none]\n",
				node.ID, redundant.ID)
		}
		for _, agglomerated := range node.Agglomerated {
			fmt.Fprintf(w, "\t%q -- %q [dir=both arrowhead=normal arrowtail=odot]\n",
				node.ID, agglomerated.ID)
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}
