// Package avatar draws the fallback baby portrait used when image generation
// is not available.
package avatar

import (
	"image/color"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iamvkosarev/ai-baby-bot/internal/model"
)

const Size = 512

type palette struct {
	background color.NRGBA
	skin       color.NRGBA
	cheeks     color.NRGBA
	ink        color.NRGBA
}

var palettes = map[model.Gender]palette{
	model.GenderBoy: {
		background: color.NRGBA{R: 0xBF, G: 0xDB, B: 0xFE, A: 0xFF},
		skin:       color.NRGBA{R: 0xFD, G: 0xE6, B: 0xD0, A: 0xFF},
		cheeks:     color.NRGBA{R: 0xFC, G: 0xA5, B: 0xA5, A: 0xFF},
		ink:        color.NRGBA{R: 0x1E, G: 0x3A, B: 0x8A, A: 0xFF},
	},
	model.GenderGirl: {
		background: color.NRGBA{R: 0xFB, G: 0xCF, B: 0xE8, A: 0xFF},
		skin:       color.NRGBA{R: 0xFD, G: 0xE6, B: 0xD0, A: 0xFF},
		cheeks:     color.NRGBA{R: 0xF9, G: 0xA8, B: 0xD4, A: 0xFF},
		ink:        color.NRGBA{R: 0x83, G: 0x18, B: 0x43, A: 0xFF},
	},
	model.GenderNeutral: {
		background: color.NRGBA{R: 0xD9, G: 0xF9, B: 0x9D, A: 0xFF},
		skin:       color.NRGBA{R: 0xFD, G: 0xE6, B: 0xD0, A: 0xFF},
		cheeks:     color.NRGBA{R: 0xFD, G: 0xBA, B: 0x74, A: 0xFF},
		ink:        color.NRGBA{R: 0x36, G: 0x53, B: 0x14, A: 0xFF},
	},
}

func paletteFor(gender model.Gender) palette {
	if p, ok := palettes[gender]; ok {
		return p
	}
	return palettes[model.GenderNeutral]
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return "?"
	}
	return string(unicode.ToUpper(r))
}
