package matrix

import (
	"strings"

	apperrors "github.com/kong-analysis/pkg/errors"
)

// alphabet normalises the extended caesar.bdd output alphabet. The
// relational symbols denote refinements of "not concurrent" and the
// bracketed ones refinements of "unknown"; the lifting only needs the
// three-valued projection.
var alphabet = map[byte]Value{
	'1': One,
	'0': Zero,
	'=': Zero,
	'<': Zero,
	'>': Zero,
	'.': Unknown,
	'~': Unknown,
	'[': Unknown,
	']': Unknown,
}

// Decode parses the oracle's textual half-matrix output. It expands
// run-length groups `v(n)` and normalises the extended alphabet. The
// returned flag is true iff no Unknown cell remains after normalisation.
func Decode(s string) (Matrix, bool, error) {
	m := Matrix{}
	complete := true

	for lineno, line := range strings.Split(s, "\n") {
		if len(line) == 0 {
			break
		}

		row := make([]Value, 0, len(line))
		var last Value
		haveLast := false
		inRun := false
		run := ""

		for i := 0; i < len(line); i++ {
			c := line[i]
			switch {
			case c == '(':
				if inRun || !haveLast {
					return nil, false, apperrors.Newf(apperrors.CodeMalformedMatrix,
						"line %d: misplaced run-length group", lineno+1)
				}
				inRun = true
			case c == ')':
				if !inRun || run == "" {
					return nil, false, apperrors.Newf(apperrors.CodeMalformedMatrix,
						"line %d: malformed run-length group", lineno+1)
				}
				n := 0
				for _, d := range run {
					n = n*10 + int(d-'0')
				}
				for k := 1; k < n; k++ {
					row = append(row, last)
				}
				inRun = false
				run = ""
			case inRun:
				if c < '0' || c > '9' {
					return nil, false, apperrors.Newf(apperrors.CodeMalformedMatrix,
						"line %d: non-digit %q in run-length group", lineno+1, c)
				}
				run += string(c)
			default:
				v, ok := alphabet[c]
				if !ok {
					return nil, false, apperrors.Newf(apperrors.CodeMalformedMatrix,
						"line %d: unexpected character %q", lineno+1, c)
				}
				if v == Unknown {
					complete = false
				}
				row = append(row, v)
				last = v
				haveLast = true
			}
		}

		if inRun {
			return nil, false, apperrors.Newf(apperrors.CodeMalformedMatrix,
				"line %d: unterminated run-length group", lineno+1)
		}

		m = append(m, row)
	}

	return m, complete, nil
}

// DecodeVector parses a single-line oracle output into a dead places
// vector.
func DecodeVector(s string) (Vector, bool, error) {
	m, complete, err := Decode(s)
	if err != nil {
		return nil, false, err
	}
	if len(m) == 0 {
		return Vector{}, complete, nil
	}
	return Vector(m[0]), complete, nil
}
