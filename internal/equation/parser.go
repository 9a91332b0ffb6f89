package equation

import (
	"bufio"
	"io"
	"os"
	"strings"

	apperrors "github.com/kong-analysis/pkg/errors"
)

// header opens the equation block inside a reduced .net file.
const header = "# generated equations"

// ParseFile extracts and parses the equation block of a reduced net
// file. A file without a block yields an empty stream: the net was not
// reducible at all, or was already reduced.
func ParseFile(path string) ([]Equation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIO, "cannot open reduced net", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads the `# generated equations` block of the stream and
// returns the equations in emission order. The block ends at the first
// blank line; the TFG builder is order-sensitive, so the order is
// preserved.
func Parse(r io.Reader) ([]Equation, error) {
	var equations []Equation
	inBlock := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if !inBlock {
			if strings.TrimSpace(line) == header {
				inBlock = true
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			break
		}

		eq, skip, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		if !skip {
			equations = append(equations, eq)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIO, "cannot read equations", err)
	}

	return equations, nil
}

// parseLine classifies one equation line. The syntactic sugar (comment
// marker, |- separator, operators, + signs, braces) is stripped first,
// leaving the kind and the flat list of terms.
func parseLine(line string) (Equation, bool, error) {
	interval := strings.Contains(line, "<=")

	cleaned := strings.NewReplacer(
		"# ", "",
		" |- ", " ",
		" <= ", " ",
		" = ", " ",
		" + ", " ",
		"{", "",
		"}", "",
	).Replace(line)

	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return Equation{}, true, nil
	}

	// The reducer emits a trailing comment on the net bound; skip it.
	if fields[0] == "net" {
		return Equation{}, true, nil
	}

	if len(fields) < 3 {
		return Equation{}, false, apperrors.Newf(apperrors.CodeMalformedEquation,
			"cannot classify equation %q", line)
	}

	var kind Kind
	switch fields[0] {
	case "R":
		kind = KindRedundancy
	case "A":
		kind = KindAgglomeration
	case "I":
		kind = KindInequation
	default:
		return Equation{}, false, apperrors.Newf(apperrors.CodeMalformedEquation,
			"unknown equation kind %q in %q", fields[0], line)
	}

	if kind == KindAgglomeration && interval {
		return Equation{}, false, apperrors.Newf(apperrors.CodeMalformedEquation,
			"agglomeration cannot be an inequation: %q", line)
	}

	eq := Equation{
		Kind:     kind,
		Interval: interval || kind == KindInequation,
		Left:     fields[1],
		Right:    fields[2:],
		Raw:      line,
	}
	eq.classify()

	return eq, false, nil
}
