package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is an upstream numeric field. The feed mixes JSON numbers, numeric
// strings, null and placeholder strings such as "NA", so decoding never fails;
// the outcome is recorded in Present and Invalid instead.
type Number struct {
	Value   float64
	Present bool
	Invalid bool
}

// Num returns a present Number.
func Num(v float64) Number { return Number{Value: v, Present: true} }

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			n.Invalid = true
			return nil
		}
		n.parseString(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		v, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			n.Invalid = true
			return nil
		}
		n.Value, n.Present = v, true
	default:
		n.Invalid = true
	}
	return nil
}

func (n *Number) parseString(s string) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "NA", "N/A", "-", "NULL", "NAN":
		return
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		n.Invalid = true
		return
	}
	n.Value, n.Present = v, true
}

// OK reports whether the field carries a usable value.
func (n Number) OK() bool { return n.Present && !n.Invalid }
