package pdf

import (
	"github.com/ledongthuc/pdf"
)

// defaultPageHeight is US Letter in points, used when no MediaBox is found.
const defaultPageHeight = 792.0

// matrix is a PDF affine transform [a b c d e f].
type matrix [6]float64

func identity() matrix {
	return matrix{1, 0, 0, 1, 0, 0}
}

// mult returns m x n.
func (m matrix) mult(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// top returns the highest y of the unit square mapped through m.
func (m matrix) top() float64 {
	y := m[5]
	for _, c := range []float64{m[5] + m[3], m[5] + m[1], m[5] + m[1] + m[3]} {
		if c > y {
			y = c
		}
	}
	return y
}

// imagePositions walks the page content streams and returns, for each image
// XObject drawn with Do, the distance from the top of the page to the top
// edge of its first placement. Form XObjects are not descended into.
func imagePositions(page pdf.Page) (positions map[string]float64) {
	positions = make(map[string]float64)

	defer func() {
		// Malformed content streams keep whatever was found so far
		_ = recover()
	}()

	xobjects := page.V.Key("Resources").Key("XObject")
	if xobjects.Kind() != pdf.Dict {
		return positions
	}
	height := pageHeight(page.V)

	state := identity()
	var stack []matrix

	handle := func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "q":
			stack = append(stack, state)
		case "Q":
			if len(stack) > 0 {
				state = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
		case "cm":
			if len(args) == 6 {
				var m matrix
				for i := range m {
					m[i] = args[i].Float64()
				}
				state = m.mult(state)
			}
		case "Do":
			if len(args) != 1 {
				return
			}
			name := args[0].Name()
			if _, seen := positions[name]; seen {
				return
			}
			if xobjects.Key(name).Key("Subtype").Name() != "Image" {
				return
			}
			positions[name] = height - state.top()
		}
	}

	contents := page.V.Key("Contents")
	if contents.Kind() == pdf.Array {
		for i := 0; i < contents.Len(); i++ {
			pdf.Interpret(contents.Index(i), handle)
		}
	} else if !contents.IsNull() {
		pdf.Interpret(contents, handle)
	}

	return positions
}

// pageHeight reads the MediaBox height, following the Parent chain for
// inherited boxes.
func pageHeight(v pdf.Value) float64 {
	for depth := 0; !v.IsNull() && depth < 32; depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
		v = v.Key("Parent")
	}
	return defaultPageHeight
}
