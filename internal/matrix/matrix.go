// Package matrix provides the half-matrix model of the concurrency relation
// and the run-length codec used to exchange it with the base oracle.
package matrix

// Value is a single cell of the concurrency relation.
type Value byte

const (
	// Zero marks a pair of places as provably non-concurrent,
	// or a dead place on the diagonal.
	Zero Value = '0'
	// One marks a pair of places as provably concurrent,
	// or a live place on the diagonal.
	One Value = '1'
	// Unknown marks a cell the oracle could not decide.
	Unknown Value = '.'
)

// Matrix is a lower-triangular half-matrix with diagonal: row i holds
// the cells C[i][0..i].
type Matrix [][]Value

// Vector is a flat row of values, used for the dead places vector.
type Vector []Value

// New creates an n-row lower-triangular matrix filled with v.
func New(n int, v Value) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]Value, i+1)
		for j := range m[i] {
			m[i][j] = v
		}
	}
	return m
}

// NewVector creates an n-cell vector filled with v.
func NewVector(n int, v Value) Vector {
	row := make(Vector, n)
	for i := range row {
		row[i] = v
	}
	return row
}

// Get returns the cell for the unordered pair {i, j}.
func (m Matrix) Get(i, j int) Value {
	if i < j {
		i, j = j, i
	}
	return m[i][j]
}

// Set writes the cell for the unordered pair {i, j}.
func (m Matrix) Set(i, j int, v Value) {
	if i < j {
		i, j = j, i
	}
	m[i][j] = v
}

// Full expands the half form into a full square matrix. The result is
// symmetric by construction.
func (m Matrix) Full() [][]Value {
	n := len(m)
	full := make([][]Value, n)
	for i := range full {
		full[i] = make([]Value, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			full[i][j] = m[i][j]
			full[j][i] = m[i][j]
		}
	}
	return full
}

// Complete reports whether the matrix holds no Unknown cell.
func (m Matrix) Complete() bool {
	for _, row := range m {
		for _, v := range row {
			if v == Unknown {
				return false
			}
		}
	}
	return true
}
