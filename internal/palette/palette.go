// Package palette holds the client's colors: the CGA 16-color palette the
// map is styled with, and helpers for owner colors sent by the server.
package palette

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// CGA 16-color palette indices.
const (
	Black        = 0
	Blue         = 1
	Green        = 2
	Cyan         = 3
	Red          = 4
	Magenta      = 5
	Brown        = 6
	LightGray    = 7
	DarkGray     = 8
	LightBlue    = 9
	LightGreen   = 10
	LightCyan    = 11
	LightRed     = 12
	LightMagenta = 13
	Yellow       = 14
	White        = 15
)

// CGA contains the classic CGA 16-color palette.
var CGA = [16]color.RGBA{
	{0, 0, 0, 255},       // 0: Black
	{0, 0, 170, 255},     // 1: Blue
	{0, 170, 0, 255},     // 2: Green
	{0, 170, 170, 255},   // 3: Cyan
	{170, 0, 0, 255},     // 4: Red
	{170, 0, 170, 255},   // 5: Magenta
	{170, 85, 0, 255},    // 6: Brown
	{170, 170, 170, 255}, // 7: Light Gray
	{85, 85, 85, 255},    // 8: Dark Gray
	{85, 85, 255, 255},   // 9: Light Blue
	{85, 255, 85, 255},   // 10: Light Green
	{85, 255, 255, 255},  // 11: Light Cyan
	{255, 85, 85, 255},   // 12: Light Red
	{255, 85, 255, 255},  // 13: Light Magenta
	{255, 255, 85, 255},  // 14: Yellow
	{255, 255, 255, 255}, // 15: White
}

// Fallback is used for owner colors that fail to parse.
var Fallback = CGA[LightGray]

// ParseHex parses "#rrggbb", "rrggbb" or "#rgb".
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Hex parses s and falls back to Fallback.
func Hex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		return Fallback
	}
	return c
}

// Alpha returns c with its alpha replaced, premultiplied the way
// image/color expects.
func Alpha(c color.RGBA, a uint8) color.RGBA {
	scale := func(v uint8) uint8 { return uint8(uint16(v) * uint16(a) / 255) }
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: a}
}

// Key renders c as "#rrggbb", the form used for cache keys.
func Key(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
