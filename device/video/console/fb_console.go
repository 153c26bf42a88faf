package console

import (
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/onish-cmd/Vibe-OS/device/video/console/font"
	"github.com/onish-cmd/Vibe-OS/kernel"
	"github.com/onish-cmd/Vibe-OS/kernel/hal/multiboot"
	"github.com/onish-cmd/Vibe-OS/kernel/kfmt"
)

const (
	// DefaultFg and DefaultBg are the colors used by a new console.
	DefaultFg uint32 = 0xc0caf5
	DefaultBg uint32 = 0x1a1b26

	// Size of the cell that the cursor advances by when no font is attached.
	fallbackCellWidth  = 8
	fallbackCellHeight = 16

	// glyphScratchSize is the size of the local buffer that DrawChar copies
	// glyphs into. It fits a 32x32 glyph.
	glyphScratchSize = 128
)

// FbConsole renders text onto a 32bpp linear framebuffer using a bitmap font.
// Glyph pixels are drawn in the foreground color; the background is only
// painted by Clear and by scrolling.
type FbConsole struct {
	fbPhysAddr uintptr
	backBuffer bool

	// Console dimensions in pixels
	width  uint32
	height uint32

	surface *Surface
	font    *font.Font

	// Cursor position in pixels
	x, y uint32

	fg, bg uint32

	// dirty is set when the drawing target was modified after the last
	// Flush.
	dirty bool
}

// NewFbConsole returns a console for the width x height framebuffer located at
// fbAddr. The framebuffer is mapped when the driver is initialized. If
// backBuffer is set, drawing goes to an off-screen buffer that is copied to
// the framebuffer on Flush.
func NewFbConsole(width, height uint32, fbAddr uintptr, backBuffer bool) *FbConsole {
	return &FbConsole{
		fbPhysAddr: fbAddr,
		backBuffer: backBuffer,
		width:      width,
		height:     height,
		fg:         DefaultFg,
		bg:         DefaultBg,
	}
}

// NewFbConsoleOnSurface returns a console that draws on an existing surface.
func NewFbConsoleOnSurface(s *Surface) *FbConsole {
	w, h := s.Dimensions()
	return &FbConsole{
		backBuffer: s.HasBackBuffer(),
		width:      w,
		height:     h,
		surface:    s,
		fg:         DefaultFg,
		bg:         DefaultBg,
	}
}

// SetFont selects a bitmap font to be used by the console.
func (cons *FbConsole) SetFont(f *font.Font) {
	if f == nil {
		return
	}

	cons.font = f
}

// Font returns the active font or nil if none is attached.
func (cons *FbConsole) Font() *font.Font {
	return cons.font
}

// Dimensions returns the console width and height in the specified dimension.
func (cons *FbConsole) Dimensions(dim Dimension) (uint32, uint32) {
	switch dim {
	case Characters:
		cellW, cellH := cons.cellSize()
		return cons.width / cellW, cons.height / cellH
	default:
		return cons.width, cons.height
	}
}

// DefaultColors returns the default foreground and background colors
// used by this console.
func (cons *FbConsole) DefaultColors() (fg, bg uint32) {
	return DefaultFg, DefaultBg
}

// SetColors changes the colors used for subsequent output.
func (cons *FbConsole) SetColors(fg, bg uint32) {
	cons.fg, cons.bg = fg, bg
}

// Colors returns the active foreground and background colors.
func (cons *FbConsole) Colors() (fg, bg uint32) {
	return cons.fg, cons.bg
}

// SetCursor moves the cursor to the supplied pixel coordinates.
func (cons *FbConsole) SetCursor(x, y uint32) {
	cons.x, cons.y = x, y
}

// Cursor returns the cursor position in pixels.
func (cons *FbConsole) Cursor() (x, y uint32) {
	return cons.x, cons.y
}

// Dirty returns true if the console was modified since the last Flush.
func (cons *FbConsole) Dirty() bool {
	return cons.dirty
}

// Clear sets the background color and fills the console with it.
func (cons *FbConsole) Clear(bg uint32) {
	cons.bg = bg
	if cons.surface == nil {
		return
	}

	cons.surface.Fill(bg)
	cons.dirty = true
}

// Flush makes pending changes visible.
func (cons *FbConsole) Flush() {
	if !cons.dirty || cons.surface == nil {
		return
	}

	cons.surface.Present()
	cons.dirty = false
}

// PanicMode switches the foreground to color and returns the cursor to the
// start of the line so that panic output stands out.
func (cons *FbConsole) PanicMode(color uint32) {
	cons.fg = color
	cons.x = 0
}

// Write renders the UTF-8 encoded text in p and flushes the console. It
// implements io.Writer and never fails.
func (cons *FbConsole) Write(p []byte) (int, error) {
	for rest := p; len(rest) > 0; {
		r, size := utf8.DecodeRune(rest)
		cons.DrawChar(r)
		rest = rest[size:]
	}

	cons.Flush()
	return len(p), nil
}

// WriteString renders s and flushes the console.
func (cons *FbConsole) WriteString(s string) (int, error) {
	for _, r := range s {
		cons.DrawChar(r)
	}

	cons.Flush()
	return len(s), nil
}

// DrawChar renders a single character at the cursor position and advances
// the cursor. A '\n' moves the cursor to the start of the next line and a '\r'
// to the start of the current line. Characters that the font cannot represent
// are skipped without moving the cursor. If the console has no font, the
// cursor advances by a blank 8x16 cell.
//
// The console scrolls up by one text row whenever the cursor row would not
// fit on the screen.
func (cons *FbConsole) DrawChar(r rune) {
	if cons.surface == nil {
		return
	}

	cellW, cellH := cons.cellSize()

	switch r {
	case '\n':
		cons.x = 0
		cons.y += cellH
	case '\r':
		cons.x = 0
	default:
		var (
			scratch [glyphScratchSize]byte
			glyph   []byte
		)

		code, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			return
		}

		if cons.font != nil {
			src, err := cons.font.Glyph(uint32(code))
			if err != nil {
				return
			}

			// Glyphs that fit are rasterized from a local copy; larger
			// ones are read straight from the font table.
			glyph = src
			if len(src) <= glyphScratchSize {
				glyph = scratch[:copy(scratch[:], src)]
			}
		}

		if cons.x+cellW > cons.width {
			cons.x = 0
			cons.y += cellH
			if cons.y+cellH > cons.height {
				cons.scroll(cellH)
			}
		}

		if cons.font != nil {
			cons.drawGlyph(glyph)
		}
		cons.x += cellW
	}

	if cons.y+cellH > cons.height {
		cons.scroll(cellH)
	}
}

// drawGlyph rasterizes glyph at the cursor position. Set bits are written in
// the foreground color; unset bits leave the surface untouched.
func (cons *FbConsole) drawGlyph(glyph []byte) {
	var (
		bytesPerRow = cons.font.BytesPerRow
		glyphW      = cons.font.GlyphWidth
		glyphH      = cons.font.GlyphHeight
	)

	for py := uint32(0); py < glyphH; py++ {
		rowOffset := py * bytesPerRow
		for px := uint32(0); px < glyphW; px++ {
			index := rowOffset + px>>3
			if index >= uint32(len(glyph)) {
				return
			}

			if glyph[index]&(0x80>>(px&7)) != 0 {
				cons.surface.WritePixel(cons.x+px, cons.y+py, cons.fg)
			}
		}
	}

	cons.dirty = true
}

// scroll moves the console contents up by rows pixel rows and moves the
// cursor along with them.
func (cons *FbConsole) scroll(rows uint32) {
	cons.surface.ScrollRows(rows, cons.bg)
	if cons.y >= rows {
		cons.y -= rows
	} else {
		cons.y = 0
	}
	cons.dirty = true
}

// cellSize returns the size of a character cell in pixels.
func (cons *FbConsole) cellSize() (uint32, uint32) {
	if cons.font == nil {
		return fallbackCellWidth, fallbackCellHeight
	}

	return cons.font.GlyphWidth, cons.font.GlyphHeight
}

// DriverName returns the name of this driver.
func (cons *FbConsole) DriverName() string {
	return "fb_console"
}

// DriverVersion returns the version of this driver.
func (cons *FbConsole) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit maps the framebuffer, sets up the back buffer if requested and
// clears the console.
func (cons *FbConsole) DriverInit(w io.Writer) *kernel.Error {
	fb, err := mapFramebufferFn(&multiboot.FramebufferInfo{
		PhysAddr: uint64(cons.fbPhysAddr),
		Pitch:    cons.width * 4,
		Width:    cons.width,
		Height:   cons.height,
		Bpp:      32,
		Type:     multiboot.FramebufferTypeRGB,
	}, 0)

	if err != nil {
		return err
	}

	cons.surface = NewSurface(fb, cons.width, cons.height, cons.backBuffer)
	kfmt.Fprintf(w, "mapped framebuffer to 0x%x (%dx%d, back buffer: %t)\n", cons.fbPhysAddr, cons.width, cons.height, cons.backBuffer)

	cons.Clear(cons.bg)
	cons.Flush()

	return nil
}
