package xtal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Vec is a 3-vector of fractional or Cartesian coordinates.
type Vec [3]float64

// Mat3 is a 3x3 matrix. Lattices store their cell vectors as rows, so
// fractional coordinates convert to Cartesian by row-vector
// multiplication (see FracToCart).
type Mat3 [3][3]float64

// SymOp is an affine symmetry operation, p -> Rot*p + Trans.
type SymOp struct {
	Rot   Mat3
	Trans Vec
}

// Apply returns the image of p under o.
func (o SymOp) Apply(p Vec) Vec {
	var out Vec
	for i := 0; i < 3; i++ {
		out[i] = o.Trans[i]
		for j := 0; j < 3; j++ {
			out[i] += o.Rot[i][j] * p[j]
		}
	}
	return out
}

// RotationIsZero reports whether the rotational part of o vanishes,
// meaning the operation maps every point to the same fixed position
// and carries no positional degree of freedom.
func (o SymOp) RotationIsZero() bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(o.Rot[i][j]) > 1e-8 {
				return false
			}
		}
	}
	return true
}

// Identity returns the identity operation.
func Identity() SymOp {
	return SymOp{Rot: Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

var axes = map[byte]int{'x': 0, 'y': 1, 'z': 2}

// ParseOp parses a crystallographic coordinate triplet such as
// "x,y,z", "-y,x-y,z+1/2", or "1/2,0,3/4" into a SymOp. Coefficients
// may be integers, decimals, or fractions, optionally multiplying one
// of x, y, or z.
func ParseOp(s string) (SymOp, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return SymOp{}, fmt.Errorf("triplet %q: want 3 components, got %d",
			s, len(parts))
	}
	var op SymOp
	for i, part := range parts {
		row, trans, err := parseComponent(part)
		if err != nil {
			return SymOp{}, fmt.Errorf("triplet %q: %w", s, err)
		}
		op.Rot[i] = row
		op.Trans[i] = trans
	}
	return op, nil
}

// parseComponent parses one component of a triplet, e.g. "x-y+1/2",
// into a rotation row and a translation.
func parseComponent(s string) (row [3]float64, trans float64, err error) {
	s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
	if s == "" {
		return row, 0, fmt.Errorf("empty component")
	}
	sign := 1.0
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '+':
			sign = 1
			i++
		case c == '-':
			sign = -1
			i++
		case c == 'x' || c == 'y' || c == 'z':
			row[axes[c]] += sign
			sign = 1
			i++
		case c >= '0' && c <= '9' || c == '.':
			val, n, err := parseNumber(s[i:])
			if err != nil {
				return row, 0, err
			}
			i += n
			if i < len(s) && (s[i] == 'x' || s[i] == 'y' || s[i] == 'z') {
				row[axes[s[i]]] += sign * val
				i++
			} else {
				trans += sign * val
			}
			sign = 1
		default:
			return row, 0, fmt.Errorf("unexpected %q in component %q",
				string(c), s)
		}
	}
	return row, trans, nil
}

// parseNumber reads a decimal or fraction from the front of s and
// returns its value and the number of bytes consumed.
func parseNumber(s string) (float64, int, error) {
	n := 0
	for n < len(s) && (s[n] >= '0' && s[n] <= '9' || s[n] == '.') {
		n++
	}
	num, err := strconv.ParseFloat(s[:n], 64)
	if err != nil {
		return 0, 0, err
	}
	if n < len(s) && s[n] == '/' {
		m := n + 1
		for m < len(s) && s[m] >= '0' && s[m] <= '9' {
			m++
		}
		den, err := strconv.ParseFloat(s[n+1:m], 64)
		if err != nil || den == 0 {
			return 0, 0, fmt.Errorf("bad fraction %q", s[:m])
		}
		return num / den, m, nil
	}
	return num, n, nil
}

// String formats o as a coordinate triplet, using fractions for the
// common crystallographic translations.
func (o SymOp) String() string {
	var parts [3]string
	for i := 0; i < 3; i++ {
		var b strings.Builder
		for j, name := range []string{"x", "y", "z"} {
			c := o.Rot[i][j]
			switch {
			case math.Abs(c) < 1e-8:
				continue
			case math.Abs(c-1) < 1e-8:
				if b.Len() > 0 {
					b.WriteByte('+')
				}
				b.WriteString(name)
			case math.Abs(c+1) < 1e-8:
				b.WriteByte('-')
				b.WriteString(name)
			default:
				if c > 0 && b.Len() > 0 {
					b.WriteByte('+')
				}
				fmt.Fprintf(&b, "%g%s", c, name)
			}
		}
		if t := o.Trans[i]; math.Abs(t) > 1e-8 {
			if t > 0 && b.Len() > 0 {
				b.WriteByte('+')
			}
			b.WriteString(formatFrac(t))
		}
		if b.Len() == 0 {
			b.WriteByte('0')
		}
		parts[i] = b.String()
	}
	return parts[0] + "," + parts[1] + "," + parts[2]
}

// formatFrac writes v as a small-denominator fraction when one fits.
func formatFrac(v float64) string {
	for _, den := range []int{2, 3, 4, 6, 8, 12} {
		num := v * float64(den)
		if math.Abs(num-math.Round(num)) < 1e-6 {
			n := int(math.Round(num))
			if n%den == 0 {
				return strconv.Itoa(n / den)
			}
			return fmt.Sprintf("%d/%d", n, den)
		}
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
