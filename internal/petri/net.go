package petri

import (
	"bufio"
	"os"
	"strings"

	apperrors "github.com/kong-analysis/pkg/errors"
)

// parseNet reads a net in the Tina textual .net format. Only the pl and
// tr lines matter; everything else (notes, equations block) is skipped.
func parseNet(path string, opts *LoadOptions) (*PetriNet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIO, "cannot open net file", err)
	}
	defer f.Close()

	net := newPetriNet(path, opts.InitialNet)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "tr":
			net.parseTransition(fields[1:])
		case "pl":
			net.parsePlace(fields[1:])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIO, "cannot read net file", err)
	}

	return net, nil
}

// parseTransition reads a `tr NAME [: LABEL] PRE... -> POST...` line.
func (n *PetriNet) parseTransition(fields []string) {
	if len(fields) == 0 {
		return
	}

	transition := stripBraces(fields[0])
	fields = skipLabel(fields[1:])

	arrow := -1
	for i, tok := range fields {
		if tok == "->" {
			arrow = i
			break
		}
	}
	if arrow < 0 {
		return
	}

	pre := make([]string, 0, arrow)
	for _, arc := range fields[:arrow] {
		pre = append(pre, n.parseArc(arc))
	}
	post := make([]string, 0, len(fields)-arrow-1)
	for _, arc := range fields[arrow+1:] {
		post = append(post, n.parseArc(arc))
	}

	if _, seen := n.Pre[transition]; !seen {
		n.Transitions = append(n.Transitions, transition)
	}
	n.Pre[transition] = pre
	n.Post[transition] = post
}

// parseArc reads a `PLACE` or `PLACE*WEIGHT` arc token, registering the
// place on the way.
func (n *PetriNet) parseArc(token string) string {
	place := token
	if star := strings.IndexByte(token, '*'); star >= 0 {
		place = token[:star]
	}
	place = stripBraces(place)
	n.addPlace(place)
	return place
}

// parsePlace reads a `pl NAME [(MARKING)]` line.
func (n *PetriNet) parsePlace(fields []string) {
	if len(fields) == 0 {
		return
	}

	place := stripBraces(fields[0])
	n.addPlace(place)

	if len(fields) > 1 && fields[1] == "(1)" {
		n.InitialPlaces = append(n.InitialPlaces, place)
	}
}

// skipLabel drops the optional `: LABEL` part of a transition line.
// A label is one token, or several when wrapped in braces.
func skipLabel(fields []string) []string {
	if len(fields) == 0 || fields[0] != ":" {
		return fields
	}

	if len(fields) < 2 {
		return nil
	}
	skipped := !strings.HasPrefix(fields[1], "{")
	index := 2
	for !skipped && index <= len(fields) {
		skipped = strings.HasSuffix(fields[index-1], "}")
		if !skipped {
			index++
		}
	}
	if index > len(fields) {
		return nil
	}
	return fields[index:]
}
