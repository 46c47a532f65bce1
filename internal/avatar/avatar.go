// Package avatar renders initials avatars for accounts that have no photo.
package avatar

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const dataURIPrefix = "data:image/png;base64,"

// Generator renders square PNG avatars.
type Generator struct {
	Size       int
	Background color.Color
	Foreground color.Color
	// TextHeight is the rendered height of the initials in pixels.
	TextHeight int
}

// Default matches the avatars the web client generates: 100px, orange
// background, white initials.
var Default = Generator{
	Size:       100,
	Background: color.RGBA{R: 0xF3, G: 0x9C, B: 0x12, A: 0xFF},
	Foreground: color.White,
	TextHeight: 40,
}

// InitialsImage renders name's initials with the Default generator and
// returns a data URI. It returns "" only if encoding fails.
func InitialsImage(name string) string {
	uri, err := Default.DataURI(name)
	if err != nil {
		return ""
	}
	return uri
}

// Initials returns the uppercased first letter of the first word and, when
// there is more than one word, of the last word.
func Initials(name string) string {
	words := strings.FieldsFunc(name, unicode.IsSpace)
	if len(words) == 0 {
		return ""
	}
	first, _ := utf8.DecodeRuneInString(words[0])
	initials := string(first)
	if len(words) > 1 {
		last, _ := utf8.DecodeRuneInString(words[len(words)-1])
		initials += string(last)
	}
	return strings.ToUpper(initials)
}

// DataURI renders name and encodes the result as a PNG data URI.
func (g Generator) DataURI(name string) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, g.Render(name)); err != nil {
		return "", fmt.Errorf("failed to encode avatar: %w", err)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Render draws the avatar for name.
func (g Generator) Render(name string) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, g.Size, g.Size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(g.Background), image.Point{}, draw.Src)

	text := Initials(name)
	if text == "" {
		return dst
	}

	// basicfont only ships a 7x13 face, so the initials are drawn at that
	// size and scaled up.
	face := basicfont.Face7x13
	d := &font.Drawer{
		Src:  image.NewUniform(g.Foreground),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	glyphs := image.NewRGBA(image.Rect(0, 0, width, height))
	d.Dst = glyphs
	d.Dot = fixed.Point26_6{X: 0, Y: metrics.Ascent}
	d.DrawString(text)

	scale := float64(g.TextHeight) / float64(height)
	sw := int(float64(width) * scale)
	sh := int(float64(height) * scale)
	if sw > g.Size {
		sw, sh = g.Size, g.Size*height/width
	}
	x0 := (g.Size - sw) / 2
	y0 := (g.Size - sh) / 2
	target := image.Rect(x0, y0, x0+sw, y0+sh)

	draw.ApproxBiLinear.Scale(dst, target, glyphs, glyphs.Bounds(), draw.Over, nil)
	return dst
}
