package svgpath

import (
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2/strconv"
)

// Segment is one command of a path `d` attribute,
// with every coordinate resolved to absolute user space.
// For 'S' and 'T', (X1, Y1) holds the implicit reflected control point;
// for 'H', 'V' and 'Z' the end point is completed from the current point.
type Segment struct {
	Command         byte // upper case letter
	X, Y            float64
	X1, Y1, X2, Y2  float64
	R1, R2, Angle   float64
	LargeArc, Sweep bool
}

// Segments is the parsed form of path data.
type Segments []Segment

func argCount(cmd byte) int {
	switch cmd {
	case 'M', 'L', 'T':
		return 2
	case 'H', 'V':
		return 1
	case 'C':
		return 6
	case 'S', 'Q':
		return 4
	case 'A':
		return 7
	}
	return 0
}

func isCommand(c byte) bool {
	return strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) >= 0
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// readFlag reads an arc flag, which may not be followed by a separator
func readFlag(b []byte, i int) (bool, int, error) {
	i = skipSeparators(b, i)
	if i >= len(b) || (b[i] != '0' && b[i] != '1') {
		return false, i, fmt.Errorf("svgpath: invalid arc flag at offset %d", i)
	}
	return b[i] == '1', i + 1, nil
}

func readArgs(b []byte, i int, cmd byte) ([]float64, int, error) {
	n := argCount(cmd)
	args := make([]float64, n)
	for k := 0; k < n; k++ {
		if cmd == 'A' && (k == 3 || k == 4) {
			flag, next, err := readFlag(b, i)
			if err != nil {
				return nil, i, err
			}
			if flag {
				args[k] = 1
			}
			i = next
			continue
		}
		i = skipSeparators(b, i)
		f, read := strconv.ParseFloat(b[i:])
		if read == 0 {
			return nil, i, fmt.Errorf("svgpath: expected %d arguments for %c at offset %d", n, cmd, i)
		}
		args[k] = f
		i += read
	}
	return args, i, nil
}

// ParsePathData parses the content of a `d` attribute.
func ParsePathData(d string) (Segments, error) {
	var (
		out          Segments
		cmd          byte
		curX, curY   float64
		startX       float64
		startY       float64
		lastCubicX   float64 // second control point of the previous C or S
		lastCubicY   float64
		lastQuadX    float64 // control point of the previous Q or T
		lastQuadY    float64
		prevCommand  byte
		b            = []byte(d)
		i            int
		explicitNext bool
	)
	for {
		i = skipSeparators(b, i)
		if i >= len(b) {
			break
		}
		c := b[i]
		explicitNext = false
		if isCommand(c) {
			cmd = c
			i++
			explicitNext = true
		} else if cmd == 0 {
			return nil, fmt.Errorf("svgpath: path data must start with a command, got %q", c)
		}

		up := upper(cmd)
		if up == 'Z' {
			if !explicitNext {
				return nil, fmt.Errorf("svgpath: unexpected number after closepath at offset %d", i)
			}
			out = append(out, Segment{Command: 'Z', X: startX, Y: startY})
			curX, curY = startX, startY
			prevCommand = 'Z'
			continue
		}

		args, next, err := readArgs(b, i, up)
		if err != nil {
			return nil, err
		}
		i = next
		rel := cmd != up
		var offX, offY float64
		if rel {
			offX, offY = curX, curY
		}

		seg := Segment{Command: up}
		switch up {
		case 'M', 'L':
			seg.X, seg.Y = args[0]+offX, args[1]+offY
		case 'H':
			seg.X, seg.Y = args[0]+offX, curY
		case 'V':
			seg.X, seg.Y = curX, args[0]+offY
		case 'C':
			seg.X1, seg.Y1 = args[0]+offX, args[1]+offY
			seg.X2, seg.Y2 = args[2]+offX, args[3]+offY
			seg.X, seg.Y = args[4]+offX, args[5]+offY
		case 'S':
			seg.X1, seg.Y1 = curX, curY
			if prevCommand == 'C' || prevCommand == 'S' {
				seg.X1, seg.Y1 = 2*curX-lastCubicX, 2*curY-lastCubicY
			}
			seg.X2, seg.Y2 = args[0]+offX, args[1]+offY
			seg.X, seg.Y = args[2]+offX, args[3]+offY
		case 'Q':
			seg.X1, seg.Y1 = args[0]+offX, args[1]+offY
			seg.X, seg.Y = args[2]+offX, args[3]+offY
		case 'T':
			seg.X1, seg.Y1 = curX, curY
			if prevCommand == 'Q' || prevCommand == 'T' {
				seg.X1, seg.Y1 = 2*curX-lastQuadX, 2*curY-lastQuadY
			}
			seg.X, seg.Y = args[0]+offX, args[1]+offY
		case 'A':
			seg.R1, seg.R2, seg.Angle = args[0], args[1], args[2]
			seg.LargeArc, seg.Sweep = args[3] != 0, args[4] != 0
			seg.X, seg.Y = args[5]+offX, args[6]+offY
		}
		out = append(out, seg)

		switch up {
		case 'C', 'S':
			lastCubicX, lastCubicY = seg.X2, seg.Y2
		case 'Q', 'T':
			lastQuadX, lastQuadY = seg.X1, seg.Y1
		}
		curX, curY = seg.X, seg.Y
		if up == 'M' {
			startX, startY = curX, curY
			// subsequent pairs are implicit lineto commands
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		}
		prevCommand = up
	}
	return out, nil
}

// String returns the canonical text of the path data : every segment is written
// with the given letter case (relative or absolute coordinates),
// horizontal and vertical lines are written as plain lines,
// and every number is shortened to `digits` decimals.
func (s Segments) String(relative bool, digits int) string {
	var (
		sb             strings.Builder
		curX, curY     float64
		startX, startY float64
	)
	point := func(x, y float64) string {
		return ShortFloat(x, digits) + "," + ShortFloat(y, digits)
	}
	letter := func(c byte) byte {
		if relative {
			return c - 'A' + 'a'
		}
		return c
	}
	for _, seg := range s {
		offX, offY := 0., 0.
		if relative {
			offX, offY = curX, curY
		}
		switch seg.Command {
		case 'Z':
			sb.WriteByte('z')
			curX, curY = startX, startY
			continue
		case 'H', 'V', 'L':
			sb.WriteByte(letter('L'))
			sb.WriteString(point(seg.X-offX, seg.Y-offY))
		case 'M', 'T':
			sb.WriteByte(letter(seg.Command))
			sb.WriteString(point(seg.X-offX, seg.Y-offY))
		case 'C':
			sb.WriteByte(letter('C'))
			sb.WriteString(point(seg.X1-offX, seg.Y1-offY) + " " + point(seg.X2-offX, seg.Y2-offY) + " " + point(seg.X-offX, seg.Y-offY))
		case 'S':
			sb.WriteByte(letter('S'))
			sb.WriteString(point(seg.X2-offX, seg.Y2-offY) + " " + point(seg.X-offX, seg.Y-offY))
		case 'Q':
			sb.WriteByte(letter('Q'))
			sb.WriteString(point(seg.X1-offX, seg.Y1-offY) + " " + point(seg.X-offX, seg.Y-offY))
		case 'A':
			large, sweep := "0", "0"
			if seg.LargeArc {
				large = "1"
			}
			if seg.Sweep {
				sweep = "1"
			}
			sb.WriteByte(letter('A'))
			sb.WriteString(point(seg.R1, seg.R2) + " " + ShortFloat(seg.Angle, digits) + " " + large + " " + sweep + " " + point(seg.X-offX, seg.Y-offY))
		}
		curX, curY = seg.X, seg.Y
		if seg.Command == 'M' {
			startX, startY = curX, curY
		}
	}
	return sb.String()
}

// ToPath flattens the segments into drawing operations,
// approximating arcs with cubic beziers.
func (s Segments) ToPath() Path {
	var (
		p          Path
		curX, curY float64
	)
	for _, seg := range s {
		switch seg.Command {
		case 'M':
			p.Start(ToFixedP(seg.X, seg.Y))
		case 'L', 'H', 'V':
			p.Line(ToFixedP(seg.X, seg.Y))
		case 'C', 'S':
			p.CubeBezier(ToFixedP(seg.X1, seg.Y1), ToFixedP(seg.X2, seg.Y2), ToFixedP(seg.X, seg.Y))
		case 'Q', 'T':
			p.QuadBezier(ToFixedP(seg.X1, seg.Y1), ToFixedP(seg.X, seg.Y))
		case 'A':
			var large, sweep float64
			if seg.LargeArc {
				large = 1
			}
			if seg.Sweep {
				sweep = 1
			}
			p.AddArcTo([7]float64{seg.R1, seg.R2, seg.Angle, large, sweep, seg.X, seg.Y}, curX, curY)
		case 'Z':
			p.Stop(true)
		}
		curX, curY = seg.X, seg.Y
	}
	return p
}

// ConvertPathData re-serializes the path data `d`, in relative
// or absolute form.
func ConvertPathData(d string, relative bool, digits int) (string, error) {
	segs, err := ParsePathData(d)
	if err != nil {
		return "", err
	}
	return segs.String(relative, digits), nil
}
