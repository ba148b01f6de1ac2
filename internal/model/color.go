package model

import (
	"strconv"
	"strings"

	"fleetd.sh/internal/simerrors"
)

// Color is an RGBA color with components normalized to [0, 1].
type Color struct {
	R, G, B, A float64
}

// ParseColor parses a comma/space separated textual color of the form
// "r g b" or "r, g, b, a". Three tokens default alpha to 1.0. An empty
// or absent string yields no color and no error.
func ParseColor(raw string) (*Color, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	tokens := splitColorTokens(raw)
	if len(tokens) != 3 && len(tokens) != 4 {
		return nil, simerrors.Newf(simerrors.ErrInvalidColor, "color %q: expected 3 or 4 components, got %d", raw, len(tokens))
	}

	values := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, simerrors.Wrapf(err, simerrors.ErrInvalidColor, "color %q: component %q is not a number", raw, tok)
		}
		values[i] = v
	}

	c := &Color{R: values[0], G: values[1], B: values[2], A: 1.0}
	if len(values) == 4 {
		c.A = values[3]
	}
	return c, nil
}

// splitColorTokens splits on any run of commas and/or spaces.
func splitColorTokens(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
