package font

import (
	"encoding/binary"
	"io"
)

// header mirrors the on-disk layout of the font header.
type header struct {
	Magic      [4]byte
	Version    uint32
	HeaderSize uint32
	Flags      uint32
	GlyphCount uint32
	CharSize   uint32
	Height     uint32
	Width      uint32
}

// Encode writes f to w using the binary format understood by Parse. The glyph
// table immediately follows a HeaderSize byte header.
func Encode(w io.Writer, f *Font) error {
	hdr := header{
		Magic:      Magic,
		Version:    f.Version,
		HeaderSize: HeaderSize,
		Flags:      f.Flags,
		GlyphCount: f.GlyphCount,
		CharSize:   f.CharSize,
		Height:     f.GlyphHeight,
		Width:      f.GlyphWidth,
	}

	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}

	_, err := w.Write(f.Data[:f.GlyphCount*f.CharSize])
	return err
}
