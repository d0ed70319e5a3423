package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type align int

const (
	alignCenter align = iota
	alignLeft
	alignRight
)

// The Go fonts cover Latin, Greek and Cyrillic. CJK and other scripts have
// no glyphs and fall back to the notdef box.
var (
	regularFont = mustParseFont(goregular.TTF)
	boldFont    = mustParseFont(gobold.TTF)
)

func mustParseFont(ttf []byte) *opentype.Font {
	f, err := opentype.Parse(ttf)
	if err != nil {
		panic(fmt.Sprintf("render: parse embedded font: %v", err))
	}
	return f
}

type faceKey struct {
	bold bool
	size float64
}

// faces hands out font faces for a single render. opentype faces are not
// safe for concurrent use, so every Render gets its own set.
type faces struct {
	cache map[faceKey]font.Face
}

func newFaces() *faces {
	return &faces{cache: make(map[faceKey]font.Face)}
}

// get returns the face for the given weight and pixel size
func (f *faces) get(bold bool, size float64) font.Face {
	key := faceKey{bold: bold, size: size}
	if face, ok := f.cache[key]; ok {
		return face
	}

	src := regularFont
	if bold {
		src = boldFont
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// Only fails for a non-positive size
		panic(fmt.Sprintf("render: new face: %v", err))
	}

	f.cache[key] = face
	return face
}

func (f *faces) Close() {
	for _, face := range f.cache {
		face.Close()
	}
}

// fit returns the largest size, stepping down from preferred, at which s fits maxWidth
func (f *faces) fit(s string, bold bool, preferred, minimum float64, maxWidth int) font.Face {
	size := preferred
	for ; size > minimum; size -= 2 {
		if font.MeasureString(f.get(bold, size), s).Ceil() <= maxWidth {
			break
		}
	}
	if size < minimum {
		size = minimum
	}
	return f.get(bold, size)
}

// missingGlyphs returns the runes of s that face has no glyph for
func missingGlyphs(face font.Face, s string) []rune {
	var missing []rune
	for _, r := range s {
		if r == ' ' {
			continue
		}
		if _, ok := face.GlyphAdvance(r); !ok {
			missing = append(missing, r)
		}
	}
	return missing
}

// drawText renders s with its baseline at y. x is the anchor for the given alignment.
func drawText(dst draw.Image, face font.Face, s string, x, y int, c color.Color, a align) image.Rectangle {
	if s == "" {
		return image.Rectangle{}
	}

	w := font.MeasureString(face, s).Ceil()
	left := x
	switch a {
	case alignCenter:
		left = x - w/2
	case alignRight:
		left = x - w
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(left, y),
	}
	d.DrawString(s)

	m := face.Metrics()
	return image.Rect(left, y-m.Ascent.Ceil(), left+w, y+m.Descent.Ceil())
}

// FormatDate renders an ISO date or RFC3339 timestamp as "January 2, 2006".
// Anything else is returned unchanged.
func FormatDate(date string) string {
	date = strings.TrimSpace(date)
	if t, err := time.Parse(time.DateOnly, date); err == nil {
		return t.Format("January 2, 2006")
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.Format("January 2, 2006")
	}
	return date
}

// truncate shortens s to n runes followed by "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
