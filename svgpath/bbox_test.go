package svgpath

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/math/fixed"
)

func randPoint(offsetx, offsety int) fixed.Point26_6 {
	x, y := rand.Intn(1100), rand.Intn(1000)
	return fixed.Point26_6{X: fixed.Int26_6(x + offsetx), Y: fixed.Int26_6(y + offsety)}
}

func generateCurve(order int, offsetx, offsety int) bezier {
	a := randPoint(offsetx, offsety)
	b := randPoint(offsetx, offsety)
	switch order {
	case 1:
		return line{a, b}
	case 2:
		c := randPoint(offsetx, offsety)
		return quadBezier{a, b, c}
	default:
		c := randPoint(offsetx, offsety)
		d := randPoint(offsetx, offsety)
		return cubicBezier{a, b, c, d}
	}
}

func TestBoundingBoxContainsCurve(t *testing.T) {
	const tolerance = 1. / 32
	for i := range [10]int{} {
		for j := range [10]int{} {
			curve := generateCurve(1+rand.Intn(3), i<<10+500, j<<10+500)
			rect := computeBoundingBox(curve)
			xmin, ymin := FixedToF(rect.Min)
			xmax, ymax := FixedToF(rect.Max)
			for k := 0; k <= 50; k++ {
				x, y := curve.evaluateCurve(float64(k) / 50)
				assert.True(t, x >= xmin-tolerance && x <= xmax+tolerance, "x=%f outside [%f %f]", x, xmin, xmax)
				assert.True(t, y >= ymin-tolerance && y <= ymax+tolerance, "y=%f outside [%f %f]", y, ymin, ymax)
			}
		}
	}
}

func TestAggregateBoxes(t *testing.T) {
	r1 := Rect{X: 0, Y: 10, W: 5, H: 5}
	r2 := Rect{X: -5, Y: 12, W: 5, H: 10}
	assert.Equal(t, Rect{X: -5, Y: 10, W: 10, H: 12}, r1.Union(r2))
}

func TestPathBounds(t *testing.T) {
	segs, err := ParsePathData("M10,10 C10,0 30,0 30,10 L30,40 z")
	assert.NoError(t, err)
	box, ok := segs.ToPath().Bounds()
	assert.True(t, ok)
	assert.InDelta(t, 10, box.X, 0.05)
	assert.InDelta(t, 2.5, box.Y, 0.05) // curve extremum, not the control points
	assert.InDelta(t, 20, box.W, 0.05)
	assert.InDelta(t, 37.5, box.H, 0.05)

	_, ok = Path{}.Bounds()
	assert.False(t, ok)
}

func TestPathBoundsFlatSegments(t *testing.T) {
	segs, err := ParsePathData("M0,0 L10,0 L10,50")
	assert.NoError(t, err)
	box, ok := segs.ToPath().Bounds()
	assert.True(t, ok)
	assert.Equal(t, Rect{X: 0, Y: 0, W: 10, H: 50}, box)

	segs, err = ParsePathData("M5,5 L5,20")
	assert.NoError(t, err)
	box, ok = segs.ToPath().Bounds()
	assert.True(t, ok)
	assert.Equal(t, Rect{X: 5, Y: 5, W: 0, H: 15}, box)
}

func TestRectTransform(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 10, H: 20}
	got := r.Transform(Identity.Translate(5, 5).Scale(2, 2))
	assert.Equal(t, Rect{X: 5, Y: 5, W: 20, H: 40}, got)
}
