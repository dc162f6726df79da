package simulator

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	frameWidth  = 640
	frameHeight = 480
	jpegQuality = 85
)

var frameBackground = color.RGBA{R: 150, G: 100, B: 50, A: 255}

// FrameParams are the inputs that affect a rendered test frame
type FrameParams struct {
	DeviceID   string
	Time       time.Time
	Brightness int
	Contrast   int
	Grayscale  bool
}

// RenderFrame draws the test card and encodes it as JPEG
func RenderFrame(p FrameParams) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, frameWidth, frameHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(frameBackground), image.Point{}, draw.Src)

	drawText(img, "Camera Feed", 50, 60, 4)
	drawText(img, p.Time.Format("2006-01-02 15:04:05"), 50, 170, 2)
	drawText(img, "ID: "+p.DeviceID, 50, 220, 2)

	if p.Grayscale {
		toGray(img)
	}
	scaleLevels(img, 1+float64(p.Contrast)*0.1, float64(p.Brightness)*10)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawText renders text with the 7x13 bitmap face and scales it up by an
// integer factor with its top-left corner at (x, y).
func drawText(dst *image.RGBA, text string, x, y, scale int) {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	w := d.MeasureString(text).Ceil()
	h := face.Metrics().Height.Ceil()

	glyphs := image.NewRGBA(image.Rect(0, 0, w, h))
	d.Dst = glyphs
	d.Src = image.NewUniform(color.White)
	d.Dot = fixed.P(0, face.Metrics().Ascent.Ceil())
	d.DrawString(text)

	target := image.Rect(x, y, x+w*scale, y+h*scale)
	draw.NearestNeighbor.Scale(dst, target, glyphs, glyphs.Bounds(), draw.Over, nil)
}

func toGray(img *image.RGBA) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		r, g, b := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
		y := uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b)) / 1000)
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = y, y, y
	}
}

// scaleLevels applies |alpha*v + beta| saturated to 0..255 on every channel
func scaleLevels(img *image.RGBA, alpha, beta float64) {
	if alpha == 1 && beta == 0 {
		return
	}
	for i := 0; i+3 < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := math.Abs(alpha*float64(img.Pix[i+c]) + beta)
			img.Pix[i+c] = uint8(math.Min(255, math.Round(v)))
		}
	}
}
