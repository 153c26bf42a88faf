package font

import (
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// BuiltinName is the name of the font that is always available.
const BuiltinName = "basic7x13"

func init() {
	builtin := FromFace(BuiltinName, basicfont.Face7x13)
	builtin.Priority = 10
	Register(builtin)
}

// FromFace rasterizes code points 0-255 of a basicfont face into a Font. Each
// glyph cell is face.Advance pixels wide and face.Height pixels tall. Code
// points outside the face ranges are left blank, so a font built from
// basicfont.Face7x13 only draws printable ASCII (0x20-0x7e).
func FromFace(name string, face *basicfont.Face) *Font {
	var (
		width       = uint32(face.Advance)
		height      = uint32(face.Height)
		bytesPerRow = (width + 7) >> 3
		charSize    = bytesPerRow * height
		glyphCount  = uint32(MaxCodePoint + 1)
		data        = make([]byte, glyphCount*charSize)
		dot         = fixed.P(0, face.Ascent)
	)

	for code := uint32(0); code < glyphCount; code++ {
		r := rune(code)
		if !covers(face, r) {
			continue
		}

		dr, mask, maskp, _, ok := face.Glyph(dot, r)
		if !ok {
			continue
		}

		glyph := data[code*charSize : (code+1)*charSize]
		for y := dr.Min.Y; y < dr.Max.Y; y++ {
			if y < 0 || uint32(y) >= height {
				continue
			}

			for x := dr.Min.X; x < dr.Max.X; x++ {
				if x < 0 || uint32(x) >= width {
					continue
				}

				_, _, _, a := mask.At(maskp.X+x-dr.Min.X, maskp.Y+y-dr.Min.Y).RGBA()
				if a < 0x8000 {
					continue
				}

				glyph[uint32(y)*bytesPerRow+uint32(x)>>3] |= 0x80 >> (uint32(x) & 7)
			}
		}
	}

	return &Font{
		Name:              name,
		GlyphWidth:        width,
		GlyphHeight:       height,
		RecommendedWidth:  width * recommendedCols,
		RecommendedHeight: height * recommendedRows,
		BytesPerRow:       bytesPerRow,
		GlyphCount:        glyphCount,
		CharSize:          charSize,
		Data:              data,
	}
}

// covers reports whether r belongs to one of the face ranges. The face itself
// substitutes a replacement glyph for missing runes.
func covers(face *basicfont.Face, r rune) bool {
	for _, rr := range face.Ranges {
		if rr.Low <= r && r < rr.High {
			return true
		}
	}
	return false
}
