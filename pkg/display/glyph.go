package display

import (
	"strings"
)

// Glyphs are drawn as 5 rows of 5 pixels, '#' for on.
var glyphs = map[rune]string{
	'F': "#####/#..../####./#..../#....",
	'E': "#####/#..../####./#..../#####",
	'A': ".###./#...#/#####/#...#/#...#",
	'G': ".###./#..../#.###/#...#/.###.",
	'I': "#####/..#../..#../..#../#####",
	'♥': ".#.#./#####/#####/.###./..#..",
	'✓': "...../....#/...#./#.#../.#...",
	'↑': "..#../.###./#.#.#/..#../..#..",
	' ': "...../...../...../...../.....",
}

// Banner is the text shown at boot.
const Banner = "FEAGI"

// Glyph returns the brightness buffer of a character.
func Glyph(r rune) ([Size]byte, bool) {
	var buf [Size]byte
	pattern, ok := glyphs[r]
	if !ok {
		return buf, false
	}
	for y, row := range strings.Split(pattern, "/") {
		for x, c := range row {
			if c == '#' {
				buf[y*Width+x] = Full
			}
		}
	}
	return buf, true
}
