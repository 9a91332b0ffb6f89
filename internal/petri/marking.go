package petri

import (
	"strconv"
	"strings"

	apperrors "github.com/kong-analysis/pkg/errors"
)

// Marking maps places to token counts.
type Marking map[string]int

// ParseMarking reads a whitespace-separated list of PLACE or PLACE*COUNT
// tokens. A bare place name counts one token.
func ParseMarking(s string) (Marking, error) {
	marking := make(Marking)

	for _, token := range strings.Fields(s) {
		place := token
		tokens := 1

		if star := strings.IndexByte(token, '*'); star >= 0 {
			place = token[:star]
			count, err := strconv.Atoi(token[star+1:])
			if err != nil {
				return nil, apperrors.Newf(apperrors.CodeInvalidMarking,
					"bad token count in %q", token)
			}
			if count < 0 {
				return nil, apperrors.Newf(apperrors.CodeInvalidMarking,
					"negative token count in %q", token)
			}
			tokens = count
		}

		if place == "" {
			return nil, apperrors.Newf(apperrors.CodeInvalidMarking,
				"empty place name in %q", token)
		}
		marking[place] = tokens
	}

	return marking, nil
}
