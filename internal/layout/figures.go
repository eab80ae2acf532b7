// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import "github.com/pdiddy/pdf-extract/pkg/types"

type xobjectKind int

const (
	xobjectOther xobjectKind = iota
	xobjectImage
	xobjectForm
)

// xobject is the subset of an XObject dictionary needed to place it.
type xobject struct {
	kind   xobjectKind
	bbox   types.Rect   // form space bounding box (forms only)
	matrix types.Matrix // form matrix (forms only)
}

// graphicsTracker follows the graphics state operators of a content stream
// and records the regions painted by XObjects and rectangles.
type graphicsTracker struct {
	ctm     types.Matrix
	stack   []types.Matrix
	lookup  func(name string) (xobject, bool)
	pending []types.Rect
	objs    []Element
}

func newGraphicsTracker(lookup func(name string) (xobject, bool)) *graphicsTracker {
	return &graphicsTracker{ctm: types.Identity(), lookup: lookup}
}

// save handles "q".
func (t *graphicsTracker) save() {
	t.stack = append(t.stack, t.ctm)
}

// restore handles "Q". An unbalanced Q is ignored.
func (t *graphicsTracker) restore() {
	if len(t.stack) == 0 {
		return
	}
	t.ctm = t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
}

// concat handles "cm".
func (t *graphicsTracker) concat(m types.Matrix) {
	t.ctm = m.Multiply(t.ctm)
}

// paintXObject handles "Do". Image XObjects occupy the unit square mapped by
// the CTM; forms occupy their /BBox mapped by /Matrix and the CTM.
func (t *graphicsTracker) paintXObject(name string) {
	x, ok := t.lookup(name)
	if !ok {
		return
	}
	switch x.kind {
	case xobjectImage:
		box := types.Rect{X0: 0, Y0: 0, X1: 1, Y1: 1}.Transform(t.ctm)
		t.objs = append(t.objs, &Figure{Name: name, Box: box})
	case xobjectForm:
		box := x.bbox.Transform(x.matrix.Multiply(t.ctm))
		t.objs = append(t.objs, &Figure{Name: name, Box: box})
	}
}

// rect handles "re"; the rectangle only becomes an element when the path is
// painted.
func (t *graphicsTracker) rect(x, y, w, h float64) {
	t.pending = append(t.pending, types.NewRect(x, y, x+w, y+h).Transform(t.ctm))
}

// paintPath handles the stroke and fill operators.
func (t *graphicsTracker) paintPath() {
	for _, r := range t.pending {
		t.objs = append(t.objs, &Other{Box: r})
	}
	t.pending = t.pending[:0]
}

// discardPath handles "n", which ends a path without painting it.
func (t *graphicsTracker) discardPath() {
	t.pending = t.pending[:0]
}

// elements returns the painted figures and rectangles in paint order.
func (t *graphicsTracker) elements() []Element {
	return t.objs
}

// isPaintOperator reports whether op paints the current path.
func isPaintOperator(op string) bool {
	switch op {
	case "S", "s", "f", "F", "f*", "B", "B*", "b", "b*":
		return true
	}
	return false
}
