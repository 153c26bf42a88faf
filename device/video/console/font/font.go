// Package font implements the bitmap font format used by the framebuffer
// console and keeps track of the fonts that are available to it.
package font

import (
	"encoding/binary"
	"fmt"

	"github.com/onish-cmd/Vibe-OS/kernel"
)

var (
	// ErrInvalidFormat is returned by Parse when the supplied binary is not
	// a well-formed font.
	ErrInvalidFormat = &kernel.Error{Module: "font", Message: "invalid font format"}

	// ErrOutOfRange is returned by Glyph when the requested code point is
	// not present in the font.
	ErrOutOfRange = &kernel.Error{Module: "font", Message: "code point out of range"}

	// The list of available fonts.
	availableFonts []*Font
)

// Magic identifies a font binary. It is the PSF2 magic number.
var Magic = [4]byte{0x72, 0xb5, 0x4a, 0x86}

const (
	// HeaderSize is the size of the fixed font header.
	HeaderSize = 32

	// MaxCodePoint is the highest code point that the format can index.
	MaxCodePoint = 255

	// Consoles are sized for this many text columns and rows when deriving
	// the recommended resolution of a parsed font.
	recommendedCols = 80
	recommendedRows = 25
)

// Font describes a bitmap font that can be used by a console device.
type Font struct {
	// The name of the font
	Name string

	// Version and Flags are carried over from the font header.
	Version uint32
	Flags   uint32

	// The width of each glyph in pixels.
	GlyphWidth uint32

	// The height of each glyph in pixels.
	GlyphHeight uint32

	// The recommended console resolution for this font.
	RecommendedWidth  uint32
	RecommendedHeight uint32

	// Font priority (lower is better). When auto-detecting a font to use, the font with
	// the lowest priority will be preferred
	Priority uint32

	// The number of bytes describing a row in a glyph.
	BytesPerRow uint32

	// The number of glyphs in Data and the size of each one in bytes.
	// CharSize is at least BytesPerRow * GlyphHeight.
	GlyphCount uint32
	CharSize   uint32

	// The font bitmap. Each glyph occupies CharSize bytes, laid out as
	// GlyphHeight rows of BytesPerRow bytes. Within a row the most
	// significant bit of the first byte is the leftmost pixel; a set bit
	// selects the foreground color.
	Data []byte
}

// Parse decodes a font binary. The returned font references data without
// copying it, so data must not be modified while the font is in use.
//
// Parse returns ErrInvalidFormat if the binary is shorter than the header,
// carries the wrong magic, declares inconsistent glyph metrics or cannot hold
// at least one glyph. Glyph counts that exceed the binary are clamped to the
// number of glyphs actually present.
func Parse(data []byte) (*Font, *kernel.Error) {
	if len(data) < HeaderSize || [4]byte{data[0], data[1], data[2], data[3]} != Magic {
		return nil, ErrInvalidFormat
	}

	var (
		version    = binary.LittleEndian.Uint32(data[4:])
		headerSize = binary.LittleEndian.Uint32(data[8:])
		flags      = binary.LittleEndian.Uint32(data[12:])
		glyphCount = binary.LittleEndian.Uint32(data[16:])
		charSize   = binary.LittleEndian.Uint32(data[20:])
		height     = binary.LittleEndian.Uint32(data[24:])
		width      = binary.LittleEndian.Uint32(data[28:])
	)

	if headerSize < HeaderSize || width == 0 || height == 0 || glyphCount == 0 {
		return nil, ErrInvalidFormat
	}

	bytesPerRow := (width + 7) >> 3
	if charSize == 0 || uint64(charSize) < uint64(bytesPerRow)*uint64(height) {
		return nil, ErrInvalidFormat
	}

	if uint64(len(data)) < uint64(headerSize)+uint64(charSize) {
		return nil, ErrInvalidFormat
	}

	if available := (uint64(len(data)) - uint64(headerSize)) / uint64(charSize); uint64(glyphCount) > available {
		glyphCount = uint32(available)
	}

	return &Font{
		Name:              fmt.Sprintf("psf%dx%d", width, height),
		Version:           version,
		Flags:             flags,
		GlyphWidth:        width,
		GlyphHeight:       height,
		RecommendedWidth:  width * recommendedCols,
		RecommendedHeight: height * recommendedRows,
		BytesPerRow:       bytesPerRow,
		GlyphCount:        glyphCount,
		CharSize:          charSize,
		Data:              data[headerSize : headerSize+glyphCount*charSize],
	}, nil
}

// Glyph returns the CharSize bytes describing the glyph for the supplied code
// point. It returns ErrOutOfRange if the code point exceeds MaxCodePoint or
// the glyph table.
func (f *Font) Glyph(code uint32) ([]byte, *kernel.Error) {
	if code > MaxCodePoint || code >= f.GlyphCount {
		return nil, ErrOutOfRange
	}

	offset := code * f.CharSize
	return f.Data[offset : offset+f.CharSize], nil
}

// Register adds f to the list of available fonts. A previously registered
// font with the same name is replaced.
func Register(f *Font) {
	if f == nil {
		return
	}

	for index, existing := range availableFonts {
		if existing.Name == f.Name {
			availableFonts[index] = f
			return
		}
	}

	availableFonts = append(availableFonts, f)
}

// FindByName looks up a font instance by name. If the font is not found then
// the function returns nil.
func FindByName(name string) *Font {
	for _, f := range availableFonts {
		if f.Name == name {
			return f
		}
	}

	return nil
}

// BestFit returns the best font from the available font list given the
// specified console dimensions. If multiple fonts match the dimension criteria
// then their priority attribute is used to select one.
//
// The algorithm for selecting the best font is the following:
//  For each font:
//    - calculate the sum of abs differences between the font recommended dimension
//      and the console dimensions.
//    - if the font score is lower than the current best font's score then the
//      font becomes the new best font.
//    - if the font score is equal to the current best font's score then the
//      font with the lowest priority becomes the new best font.
func BestFit(consoleWidth, consoleHeight uint32) *Font {
	var (
		best      *Font
		bestDelta uint32
	)

	for _, f := range availableFonts {
		absDelta := absDiff(f.RecommendedWidth, consoleWidth) + absDiff(f.RecommendedHeight, consoleHeight)

		if best == nil {
			best = f
			bestDelta = absDelta
			continue
		}

		if best.Priority < f.Priority || absDelta > bestDelta {
			continue
		}

		best = f
		bestDelta = absDelta
	}

	return best
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
