package matrix

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kong-analysis/pkg/errors"
)

func TestDecode_Basic(t *testing.T) {
	m, complete, err := Decode("1\n01\n111\n")
	require.NoError(t, err)
	assert.True(t, complete)
	require.Len(t, m, 3)
	assert.Equal(t, []Value{One}, m[0])
	assert.Equal(t, []Value{Zero, One}, m[1])
	assert.Equal(t, []Value{One, One, One}, m[2])
}

func TestDecode_RunLength(t *testing.T) {
	m, complete, err := Decode("1(4)\n0(3)10\n")
	require.NoError(t, err)
	assert.True(t, complete)
	require.Len(t, m, 2)
	assert.Equal(t, []Value{One, One, One, One}, m[0])
	assert.Equal(t, []Value{Zero, Zero, Zero, One, Zero}, m[1])
}

func TestDecode_ExtendedAlphabet(t *testing.T) {
	m, complete, err := Decode("=<>\n~[]\n")
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Equal(t, []Value{Zero, Zero, Zero}, m[0])
	assert.Equal(t, []Value{Unknown, Unknown, Unknown}, m[1])
}

func TestDecode_PartialFlag(t *testing.T) {
	_, complete, err := Decode("1\n.1\n")
	require.NoError(t, err)
	assert.False(t, complete)
}

func TestDecode_Empty(t *testing.T) {
	m, complete, err := Decode("")
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Empty(t, m)
}

func TestDecode_StopsAtBlankLine(t *testing.T) {
	m, _, err := Decode("1\n01\n\n# trailing noise")
	require.NoError(t, err)
	assert.Len(t, m, 2)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown character", "1x1\n"},
		{"run without value", "(3)\n"},
		{"nested run", "1((3)\n"},
		{"empty run", "1()\n"},
		{"non-digit multiplier", "1(a)\n"},
		{"unterminated run", "1(3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.input)
			require.Error(t, err)
			assert.True(t, apperrors.IsMalformedMatrix(err))
		})
	}
}

func TestDecodeVector(t *testing.T) {
	v, complete, err := DecodeVector("0(5)1\n")
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, Vector{Zero, Zero, Zero, Zero, Zero, One}, v)
}

func TestDecodeVector_Empty(t *testing.T) {
	v, complete, err := DecodeVector("")
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Empty(t, v)
}

func TestRoundTrip(t *testing.T) {
	// decode(encode(m)) must be the identity for any matrix over {0,1,.}.
	cases := []Matrix{
		New(1, One),
		New(5, Zero),
		{
			{One},
			{Zero, One},
			{Unknown, Zero, One},
			{One, One, One, One},
			{Zero, Zero, Zero, Zero, Zero},
		},
	}

	for _, m := range cases {
		for _, noRLE := range []bool{false, true} {
			var buf bytes.Buffer
			err := Fprint(&buf, m, testPlaces(len(m)), PrintOptions{NoRLE: noRLE})
			require.NoError(t, err)

			decoded, _, err := Decode(buf.String())
			require.NoError(t, err)
			assert.Equal(t, m, decoded)
		}
	}
}
