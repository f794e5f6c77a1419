package svgpath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertPathRelative(t *testing.T) {
	for _, tc := range []struct {
		in, rel, abs string
	}{
		{"M10,10 L20,20", "m10,10l10,10", "M10,10L20,20"},
		{"M10 10 H30 V40 Z", "m10,10l20,0l0,30z", "M10,10L30,10L30,40z"},
		{"m10 10 20 0 0 20z", "m10,10l20,0l0,20z", "M10,10L30,10L30,30z"},
		{"M0,0 C1,2 3,4 5,6 S9,9 10,10", "m0,0c1,2 3,4 5,6s4,3 5,4", "M0,0C1,2 3,4 5,6S9,9 10,10"},
		{"M0,0 Q5,5 10,0 T20,0", "m0,0q5,5 10,0t10,0", "M0,0Q5,5 10,0T20,0"},
		{"M0,0 A5,5 0 0 1 10,0", "m0,0a5,5 0 0 1 10,0", "M0,0A5,5 0 0 1 10,0"},
		{"M0,0a5,5 30 1110,10", "m0,0a5,5 30 1 1 10,10", "M0,0A5,5 30 1 1 10,10"},
		{"M0.123456789,-.5e1", "m0.12346,-5", "M0.12346,-5"},
	} {
		got, err := ConvertPathData(tc.in, true, 5)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.rel, got, tc.in)

		got, err = ConvertPathData(tc.in, false, 5)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.abs, got, tc.in)
	}
}

func TestConvertPathAfterClose(t *testing.T) {
	// the current point after z is the start of the subpath
	got, err := ConvertPathData("M10,10 L20,10 Z L10,20", true, 5)
	require.NoError(t, err)
	assert.Equal(t, "m10,10l10,0zl0,10", got)
}

func TestParsePathErrors(t *testing.T) {
	for _, d := range []string{"10,10", "M10", "M0,0 A5,5 0 2 1 10,10", "M0,0 z 5"} {
		_, err := ParsePathData(d)
		assert.Error(t, err, d)
	}
	segs, err := ParsePathData("")
	assert.NoError(t, err)
	assert.Empty(t, segs)
}

func TestSmoothReflection(t *testing.T) {
	segs, err := ParsePathData("M0,0 C0,10 10,10 10,0 S20,-10 20,0")
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, 10., segs[2].X1)
	assert.Equal(t, -10., segs[2].Y1)
}

func TestEllipsePath(t *testing.T) {
	var p Path
	p.AddEllipse(50, 50, 20, 10)
	box, ok := p.Bounds()
	require.True(t, ok)
	assert.InDelta(t, 30, box.X, 0.1)
	assert.InDelta(t, 40, box.Y, 0.1)
	assert.InDelta(t, 40, box.W, 0.1)
	assert.InDelta(t, 20, box.H, 0.1)
}

func TestParseTransform(t *testing.T) {
	m, err := ParseTransform(Identity, "translate(10,20) scale(2)")
	require.NoError(t, err)
	x, y := m.Transform(1, 1)
	assert.Equal(t, 12., x)
	assert.Equal(t, 22., y)

	m, err = ParseTransform(Identity, "rotate(90, 10, 10)")
	require.NoError(t, err)
	x, y = m.Transform(20, 10)
	assert.InDelta(t, 10, x, 1e-9)
	assert.InDelta(t, 20, y, 1e-9)

	_, err = ParseTransform(Identity, "scale(1,2,3)")
	assert.Error(t, err)

	inv := m.Invert()
	x, y = inv.Mult(m).Transform(3, 4)
	assert.InDelta(t, 3, x, 1e-9)
	assert.InDelta(t, 4, y, 1e-9)
}

func TestUnits(t *testing.T) {
	assert.Equal(t, "1.5", ShortFloat(1.500000001, 5))
	assert.Equal(t, "0", ShortFloat(-0.000001, 5))
	assert.Equal(t, "100", ShortFloat(100, 5))
	assert.Equal(t, "0.33333", ShortFloat(1./3, 5))

	assert.Equal(t, "1", ConvertUnit(96, "in", 5))
	assert.Equal(t, "72", ConvertUnit(96, "pt", 5))

	v, err := ConvertToNum("width", "50%", 200, 100)
	require.NoError(t, err)
	assert.Equal(t, 100., v)
	v, err = ConvertToNum("r", "100%", 3, 4)
	require.NoError(t, err)
	assert.InDelta(t, 5/math.Sqrt2, v, 1e-9)
	v, err = ConvertToNum("height", "2in", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 192., v)
	_, err = ConvertToNum("height", "2zz", 0, 0)
	assert.Error(t, err)

	assert.True(t, IsNumeric("-1.5e3"))
	assert.False(t, IsNumeric("Infinity"))
	assert.False(t, IsNumeric("10px"))
}
