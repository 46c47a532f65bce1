package avatar

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "Ada Lovelace", want: "AL"},
		{name: "ada", want: "A"},
		{name: "  grace   brewster murray hopper ", want: "GH"},
		{name: "", want: ""},
		{name: "   ", want: ""},
		{name: "émile zola", want: "ÉZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Initials(tt.name))
		})
	}
}

func decode(t *testing.T, uri string) (width, height int, img func(x, y int) color.Color) {
	t.Helper()
	require.True(t, strings.HasPrefix(uri, dataURIPrefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, dataURIPrefix))
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	b := decoded.Bounds()
	return b.Dx(), b.Dy(), decoded.At
}

func TestInitialsImage(t *testing.T) {
	uri := InitialsImage("Ada Lovelace")
	require.NotEmpty(t, uri)

	w, h, at := decode(t, uri)
	assert.Equal(t, 100, w)
	assert.Equal(t, 100, h)

	// Corners keep the background colour.
	r, g, b, _ := at(0, 0).RGBA()
	assert.Equal(t, uint32(0xF3), r>>8)
	assert.Equal(t, uint32(0x9C), g>>8)
	assert.Equal(t, uint32(0x12), b>>8)

	// The initials lighten part of the centre; the background's blue is 0x12.
	found := false
	for y := 30; y < 70 && !found; y++ {
		for x := 20; x < 80; x++ {
			_, _, b, _ := at(x, y).RGBA()
			if b>>8 > 0x80 {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "expected white initials in the centre")
}

func TestInitialsImage_Deterministic(t *testing.T) {
	assert.Equal(t, InitialsImage("Ada Lovelace"), InitialsImage("ada  lovelace"))
	assert.NotEqual(t, InitialsImage("Ada Lovelace"), InitialsImage("Grace Hopper"))
}

func TestInitialsImage_EmptyName(t *testing.T) {
	uri := InitialsImage("")
	require.NotEmpty(t, uri)

	_, _, at := decode(t, uri)
	r, g, b, _ := at(50, 50).RGBA()
	assert.Equal(t, uint32(0xF3), r>>8)
	assert.Equal(t, uint32(0x9C), g>>8)
	assert.Equal(t, uint32(0x12), b>>8)
}

func TestGenerator_CustomSize(t *testing.T) {
	g := Default
	g.Size = 48
	g.TextHeight = 20

	uri, err := g.DataURI("Ada Lovelace")
	require.NoError(t, err)

	w, h, _ := decode(t, uri)
	assert.Equal(t, 48, w)
	assert.Equal(t, 48, h)
}
