package render

import (
	"image"
	"image/color"
	"image/draw"
)

var (
	colorBackgroundEdge = color.RGBA{0x0a, 0x0a, 0x0f, 0xff}
	colorBackgroundMid  = color.RGBA{0x0d, 0x11, 0x17, 0xff}
	colorAccent         = color.RGBA{0x00, 0xff, 0x41, 0xff}
	colorWhite          = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorMuted          = color.RGBA{0xa0, 0xa0, 0xa0, 0xff}
)

// withAlpha returns c with alpha a, premultiplied
func withAlpha(c color.RGBA, a uint8) color.RGBA {
	return color.RGBA{
		R: uint8(uint16(c.R) * uint16(a) / 0xff),
		G: uint8(uint16(c.G) * uint16(a) / 0xff),
		B: uint8(uint16(c.B) * uint16(a) / 0xff),
		A: a,
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{lerp(a.R, b.R, t), lerp(a.G, b.G, t), lerp(a.B, b.B, t), 0xff}
}

// fillGradient paints a three stop diagonal gradient from the top-left corner
func fillGradient(img *image.RGBA) {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	span := w*w + h*h

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			t := (float64(x)*w + float64(y)*h) / span
			var c color.RGBA
			if t < 0.5 {
				c = lerpColor(colorBackgroundEdge, colorBackgroundMid, t*2)
			} else {
				c = lerpColor(colorBackgroundMid, colorBackgroundEdge, (t-0.5)*2)
			}
			img.SetRGBA(x, y, c)
		}
	}
}

func fillRect(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// hline draws a horizontal line of the given width centered on y
func hline(img draw.Image, x0, x1, y, width int, c color.Color) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	top := y - width/2
	fillRect(img, image.Rect(x0, top, x1, top+width), c)
}

// vline draws a vertical line of the given width centered on x
func vline(img draw.Image, x, y0, y1, width int, c color.Color) {
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	left := x - width/2
	fillRect(img, image.Rect(left, y0, left+width, y1), c)
}

func strokeRect(img draw.Image, r image.Rectangle, width int, c color.Color) {
	hline(img, r.Min.X, r.Max.X, r.Min.Y, width, c)
	hline(img, r.Min.X, r.Max.X, r.Max.Y, width, c)
	vline(img, r.Min.X, r.Min.Y, r.Max.Y, width, c)
	vline(img, r.Max.X, r.Min.Y, r.Max.Y, width, c)
}

// circle is an alpha mask for a filled disc
type circle struct {
	center image.Point
	radius int
}

func (c *circle) ColorModel() color.Model { return color.AlphaModel }

func (c *circle) Bounds() image.Rectangle {
	return image.Rect(c.center.X-c.radius, c.center.Y-c.radius, c.center.X+c.radius+1, c.center.Y+c.radius+1)
}

func (c *circle) At(x, y int) color.Color {
	dx, dy := x-c.center.X, y-c.center.Y
	if dx*dx+dy*dy <= c.radius*c.radius {
		return color.Alpha{A: 0xff}
	}
	return color.Alpha{}
}

func fillCircle(img draw.Image, center image.Point, radius int, c color.Color) {
	mask := &circle{center: center, radius: radius}
	draw.DrawMask(img, mask.Bounds(), image.NewUniform(c), image.Point{}, mask, mask.Bounds().Min, draw.Over)
}

// drawCorner draws an L shaped mark whose arms point along dirX and dirY
func drawCorner(img draw.Image, x, y, size, dirX, dirY int) {
	hline(img, x, x+size*dirX, y, 2, colorAccent)
	vline(img, x, y, y+size*dirY, 2, colorAccent)
}

// drawCircuit draws the faint grid with node dots used as side decoration
func drawCircuit(img draw.Image, x, y, width, height int) {
	line := withAlpha(colorAccent, 0x33)
	node := withAlpha(colorAccent, 0x4d)

	for i := 0; i < 5; i++ {
		lineY := y + i*height/4
		hline(img, x, x+width, lineY, 1, line)
		if i%2 == 0 {
			fillCircle(img, image.Pt(x+width/2, lineY), 3, node)
		}
	}

	for i := 0; i < 3; i++ {
		vline(img, x+i*width/2, y, y+height, 1, line)
	}
}
