package matrix

import (
	"fmt"
	"io"
	"strings"
)

// PrintOptions controls the textual rendering of matrices and vectors.
type PrintOptions struct {
	// NoRLE emits every cell individually instead of run-length groups.
	NoRLE bool
	// PlaceNames prefixes each row with the left-padded place name.
	PlaceNames bool
	// Prefix is prepended to every line. The reduced results use "# ".
	Prefix string
}

// Fprint renders the rows against the ordered place list. Vectors print as
// a single row.
func Fprint(w io.Writer, rows [][]Value, places []string, opts PrintOptions) error {
	if len(places) == 0 {
		return nil
	}

	maxLen := 0
	if opts.PlaceNames {
		for _, pl := range places {
			if len(pl) > maxLen {
				maxLen = len(pl)
			}
		}
	}

	for i, row := range rows {
		if i >= len(places) {
			break
		}

		var sb strings.Builder
		sb.WriteString(opts.Prefix)
		if opts.PlaceNames {
			pl := places[i]
			sb.WriteString(pl)
			sb.WriteString(strings.Repeat(" ", maxLen-len(pl)+2))
		}

		if opts.NoRLE {
			for _, v := range row {
				sb.WriteByte(byte(v))
			}
		} else {
			encodeRuns(&sb, row)
		}

		if _, err := fmt.Fprintln(w, sb.String()); err != nil {
			return err
		}
	}

	return nil
}

// FprintVector renders a vector as a single row.
func FprintVector(w io.Writer, v Vector, places []string, opts PrintOptions) error {
	return Fprint(w, [][]Value{v}, places, opts)
}

// encodeRuns writes the row using run-length groups for runs of length 4
// or more.
func encodeRuns(sb *strings.Builder, row []Value) {
	if len(row) == 0 {
		return
	}

	previous := row[0]
	counter := 1
	for _, v := range row[1:] {
		if v != previous {
			writeRun(sb, previous, counter)
			previous = v
			counter = 1
		} else {
			counter++
		}
	}
	writeRun(sb, previous, counter)
}

func writeRun(sb *strings.Builder, v Value, counter int) {
	if counter < 4 {
		for i := 0; i < counter; i++ {
			sb.WriteByte(byte(v))
		}
	} else {
		fmt.Fprintf(sb, "%c(%d)", v, counter)
	}
}
