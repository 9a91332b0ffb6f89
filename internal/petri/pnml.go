package petri

import (
	"encoding/xml"
	"os"
	"strings"

	apperrors "github.com/kong-analysis/pkg/errors"
)

// xmlNode is a generic element tree, enough to read PNML and to write a
// normalised copy back out.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []*xmlNode `xml:",any"`
}

// attr returns the value of a named attribute.
func (n *xmlNode) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// child returns the first child with the given local name.
func (n *xmlNode) child(name string) *xmlNode {
	for _, c := range n.Children {
		if c.XMLName.Local == name {
			return c
		}
	}
	return nil
}

// find returns the first descendant along a local-name path.
func (n *xmlNode) find(path ...string) *xmlNode {
	cur := n
	for _, name := range path {
		cur = cur.child(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// walk visits every descendant with the given local name, in document
// order.
func (n *xmlNode) walk(name string, visit func(*xmlNode)) {
	for _, c := range n.Children {
		if c.XMLName.Local == name {
			visit(c)
		}
		c.walk(name, visit)
	}
}

// clearNamespace strips namespace bookkeeping so the tree marshals as
// plain elements under the root's xmlns attribute.
func (n *xmlNode) clearNamespace() {
	n.XMLName.Space = ""
	attrs := n.Attrs[:0]
	for _, a := range n.Attrs {
		if a.Name.Space != "xmlns" {
			attrs = append(attrs, a)
		}
	}
	n.Attrs = attrs
	for _, c := range n.Children {
		c.clearNamespace()
	}
}

// parsePNML reads a net in PNML format. For the initial net, every place
// gets a name/text element set to its id and the rewritten document is
// saved to a temporary file that downstream tools consume; for a reduced
// net the name/text element is authoritative instead, since the reducer
// stores the original ids there.
func parsePNML(path string, opts *LoadOptions) (*PetriNet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIO, "cannot read pnml file", err)
	}

	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMalformedNet, "cannot parse pnml", err)
	}

	net := newPetriNet(path, opts.InitialNet)

	root.walk("place", func(place *xmlNode) {
		var id string
		if opts.InitialNet {
			id = place.attr("id")
			if text := place.find("name", "text"); text != nil {
				text.Text = id
			} else {
				place.Children = append(place.Children, &xmlNode{
					XMLName: xml.Name{Local: "name"},
					Children: []*xmlNode{{
						XMLName: xml.Name{Local: "text"},
						Text:    id,
					}},
				})
			}
		} else {
			if text := place.find("name", "text"); text != nil {
				id = strings.TrimSpace(text.Text)
			} else {
				id = place.attr("id")
			}
		}
		net.addPlace(id)

		if marking := place.find("initialMarking", "text"); marking != nil {
			if strings.TrimSpace(marking.Text) != "0" && strings.TrimSpace(marking.Text) != "" {
				net.InitialPlaces = append(net.InitialPlaces, id)
			}
		}
	})

	if opts.InitialNet {
		rewritten, err := writeRewrittenPNML(&root)
		if err != nil {
			return nil, err
		}
		net.Filename = rewritten

		if !opts.NoUnits {
			if err := net.readNUPN(&root); err != nil {
				return nil, err
			}
		}
	}

	return net, nil
}

// writeRewrittenPNML saves the normalised document to a temporary file.
func writeRewrittenPNML(root *xmlNode) (string, error) {
	root.clearNamespace()

	f, err := os.CreateTemp("", "kong-*.pnml")
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeIO, "cannot create temporary pnml", err)
	}
	defer f.Close()

	if _, err := f.WriteString(xml.Header); err != nil {
		return "", apperrors.Wrap(apperrors.CodeIO, "cannot write temporary pnml", err)
	}
	enc := xml.NewEncoder(f)
	if err := enc.Encode(root); err != nil {
		return "", apperrors.Wrap(apperrors.CodeIO, "cannot write temporary pnml", err)
	}

	return f.Name(), nil
}

// readNUPN extracts the NUPN decomposition from the toolspecific
// structure element, when present. A missing decomposition is not an
// error; the pipeline degrades gracefully.
func (n *PetriNet) readNUPN(root *xmlNode) error {
	var structure *xmlNode
	root.walk("structure", func(node *xmlNode) {
		if structure == nil {
			structure = node
		}
	})
	if structure == nil {
		return nil
	}

	nupn := NewNUPN(structure.attr("safe") == "true")
	nupn.Root = nupn.GetUnit(structure.attr("root"))

	for _, unitNode := range structure.Children {
		if unitNode.XMLName.Local != "unit" {
			continue
		}

		unit := nupn.GetUnit(unitNode.attr("id"))
		if placesNode := unitNode.child("places"); placesNode != nil {
			unit.Places = append(unit.Places, strings.Fields(placesNode.Text)...)
		}
		if subunitsNode := unitNode.child("subunits"); subunitsNode != nil {
			for _, sub := range strings.Fields(subunitsNode.Text) {
				unit.AddSubunit(nupn.GetUnit(sub))
			}
		}
	}

	nupn.Root.ComputeDescendants()
	n.NUPN = nupn
	return nil
}
