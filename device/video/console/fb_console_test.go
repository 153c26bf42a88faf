package console

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"unsafe"

	"github.com/onish-cmd/Vibe-OS/device"
	"github.com/onish-cmd/Vibe-OS/device/video/console/font"
	"github.com/onish-cmd/Vibe-OS/kernel"
	"github.com/onish-cmd/Vibe-OS/kernel/hal/multiboot"
)

const (
	testFg uint32 = 1
	testBg uint32 = 2
)

// glyphA is an 8x10 bitmap of the letter 'A'.
var glyphA = []byte{
	0x10, /* 00010000 */
	0x38, /* 00111000 */
	0x6c, /* 01101100 */
	0xc6, /* 11000110 */
	0xc6, /* 11000110 */
	0xfe, /* 11111110 */
	0xc6, /* 11000110 */
	0xc6, /* 11000110 */
	0xc6, /* 11000110 */
	0xc6, /* 11000110 */
}

// mockFont8x10 maps every printable ASCII code point to glyphA. All other
// code points below 128 are blank.
func mockFont8x10() *font.Font {
	f := &font.Font{
		Name:        "mock8x10",
		GlyphWidth:  8,
		GlyphHeight: 10,
		BytesPerRow: 1,
		GlyphCount:  128,
		CharSize:    10,
		Data:        make([]byte, 128*10),
	}

	for code := '!'; code <= '~'; code++ {
		copy(f.Data[int(code)*10:], glyphA)
	}

	return f
}

// blockFont returns a font where every glyph except the space is a solid
// width x height block.
func blockFont(width, height uint32) *font.Font {
	bytesPerRow := (width + 7) / 8
	f := &font.Font{
		Name:        "block",
		GlyphWidth:  width,
		GlyphHeight: height,
		BytesPerRow: bytesPerRow,
		GlyphCount:  256,
		CharSize:    bytesPerRow * height,
		Data:        make([]byte, 256*bytesPerRow*height),
	}

	for code := uint32(0); code < 256; code++ {
		if code == ' ' {
			continue
		}

		glyph := f.Data[code*f.CharSize : (code+1)*f.CharSize]
		for row := uint32(0); row < height; row++ {
			for col := uint32(0); col < width; col++ {
				glyph[row*bytesPerRow+col/8] |= 0x80 >> (col % 8)
			}
		}
	}

	return f
}

func newTestConsole(width, height uint32, f *font.Font) (*FbConsole, []uint32) {
	fb := make([]uint32, width*height)
	cons := NewFbConsoleOnSurface(NewSurface(fb, width, height, false))
	cons.SetColors(testFg, testBg)
	cons.Clear(testBg)
	cons.SetFont(f)
	return cons, fb
}

func TestFbConsoleDefaults(t *testing.T) {
	var cons Device = NewFbConsole(640, 480, 0xfd000000, true)

	if fg, bg := cons.DefaultColors(); fg != 0xc0caf5 || bg != 0x1a1b26 {
		t.Fatalf("expected default colors to be fg: 0xc0caf5, bg: 0x1a1b26; got fg: 0x%x, bg: 0x%x", fg, bg)
	}

	if fg, bg := cons.(*FbConsole).Colors(); fg != DefaultFg || bg != DefaultBg {
		t.Fatalf("expected a new console to use the default colors; got fg: 0x%x, bg: 0x%x", fg, bg)
	}

	if w, h := cons.Dimensions(Pixels); w != 640 || h != 480 {
		t.Fatalf("expected console pixel dimensions to be 640x480; got %dx%d", w, h)
	}

	// Without a font the console uses 8x16 cells
	if w, h := cons.Dimensions(Characters); w != 80 || h != 30 {
		t.Fatalf("expected console character dimensions to be 80x30; got %dx%d", w, h)
	}

	cons.(FontSetter).SetFont(nil)
	if cons.(*FbConsole).Font() != nil {
		t.Fatal("expected setting a nil font to be a no-op")
	}

	cons.(FontSetter).SetFont(mockFont8x10())
	if w, h := cons.Dimensions(Characters); w != 80 || h != 48 {
		t.Fatalf("expected console character dimensions to be 80x48; got %dx%d", w, h)
	}

	// Drawing before the driver is initialized must not crash
	cons.Write([]byte("early"))
	if x, y := cons.(*FbConsole).Cursor(); x != 0 || y != 0 {
		t.Fatalf("expected cursor to stay at (0, 0) without a surface; got (%d, %d)", x, y)
	}
}

func TestFbConsoleDrawChar(t *testing.T) {
	cons, fb := newTestConsole(16, 12, mockFont8x10())

	// Code point 1 is blank in the mock font
	cons.SetCursor(0, 1)
	cons.DrawChar(1)
	cons.DrawChar('A')

	exp := asciiToPixels("" +
		"2222222222222222" +
		"2222222222212222" +
		"2222222222111222" +
		"2222222221121122" +
		"2222222211222112" +
		"2222222211222112" +
		"2222222211111112" +
		"2222222211222112" +
		"2222222211222112" +
		"2222222211222112" +
		"2222222211222112" +
		"2222222222222222",
	)

	if !reflect.DeepEqual(exp, fb) {
		t.Fatalf("unexpected frame buffer contents:\n%s", diffFrameBuffer(16, 12, exp, fb))
	}

	if x, y := cons.Cursor(); x != 16 || y != 1 {
		t.Fatalf("expected cursor to be at (16, 1); got (%d, %d)", x, y)
	}
}

func TestFbConsoleWriteHiNewlineBang(t *testing.T) {
	cons, fb := newTestConsole(128, 64, blockFont(8, 16))

	for _, r := range "Hi\n" {
		cons.DrawChar(r)
	}

	if x, y := cons.Cursor(); x != 0 || y != 16 {
		t.Fatalf("expected cursor to be at (0, 16) after the newline; got (%d, %d)", x, y)
	}

	cons.DrawChar('!')

	if x, y := cons.Cursor(); x != 8 || y != 16 {
		t.Fatalf("expected final cursor to be at (8, 16); got (%d, %d)", x, y)
	}

	specs := []struct {
		x, y, w, h uint32
		exp        uint32
	}{
		{0, 0, 16, 16, testFg},   // "Hi"
		{16, 0, 112, 16, testBg}, // rest of the first line
		{0, 16, 8, 16, testFg},   // "!"
		{8, 16, 120, 48, testBg}, // rest of the screen
		{0, 32, 8, 32, testBg},
	}

	for specIndex, spec := range specs {
		for y := spec.y; y < spec.y+spec.h; y++ {
			for x := spec.x; x < spec.x+spec.w; x++ {
				if got := fb[y*128+x]; got != spec.exp {
					t.Fatalf("[spec %d] expected pixel (%d, %d) to be %d; got %d", specIndex, x, y, spec.exp, got)
				}
			}
		}
	}
}

func TestFbConsoleWrapAndScroll(t *testing.T) {
	cons, _ := newTestConsole(16, 20, mockFont8x10())

	cons.Write([]byte("AA"))
	if x, y := cons.Cursor(); x != 16 || y != 0 {
		t.Fatalf("expected cursor to be at (16, 0); got (%d, %d)", x, y)
	}

	// Soft wrap to the second row
	cons.Write([]byte("A"))
	if x, y := cons.Cursor(); x != 8 || y != 10 {
		t.Fatalf("expected cursor to wrap to (8, 10); got (%d, %d)", x, y)
	}

	// A newline on the last row scrolls everything up by one text row
	cons.Write([]byte("\n"))
	if x, y := cons.Cursor(); x != 0 || y != 10 {
		t.Fatalf("expected cursor to be at (0, 10) after scrolling; got (%d, %d)", x, y)
	}

	specs := []struct {
		x, y uint32
		exp  uint32
	}{
		{3, 0, testFg},  // top of the wrapped 'A' now on the first row
		{11, 0, testBg}, // second 'A' of the first row scrolled out
		{0, 5, testFg},
		{3, 10, testBg}, // exposed row filled with the background
		{15, 19, testBg},
	}

	for specIndex, spec := range specs {
		if got := cons.surface.Pixel(spec.x, spec.y); got != spec.exp {
			t.Errorf("[spec %d] expected pixel (%d, %d) to be %d; got %d", specIndex, spec.x, spec.y, spec.exp, got)
		}
	}

	// Wrapping past the last row scrolls before drawing
	cons.Write([]byte("AAA"))
	if x, y := cons.Cursor(); x != 8 || y != 10 {
		t.Fatalf("expected cursor to be at (8, 10); got (%d, %d)", x, y)
	}

	if got := cons.surface.Pixel(3, 10); got != testFg {
		t.Fatalf("expected wrapped glyph to be drawn on the last row; got pixel %d", got)
	}
}

func TestFbConsoleCarriageReturn(t *testing.T) {
	cons, _ := newTestConsole(32, 10, mockFont8x10())

	cons.Write([]byte("AB\rC"))
	if x, y := cons.Cursor(); x != 8 || y != 0 {
		t.Fatalf("expected cursor to be at (8, 0); got (%d, %d)", x, y)
	}
}

func TestFbConsoleSkipsUnsupportedCharacters(t *testing.T) {
	specs := []struct {
		descr string
		input string
	}{
		{"outside the single byte range", "☺"},
		{"not in the glyph table", "é"},
		{"invalid UTF-8", "\xff"},
	}

	for specIndex, spec := range specs {
		cons, fb := newTestConsole(16, 10, mockFont8x10())
		cons.SetCursor(8, 0)
		before := append([]uint32(nil), fb...)

		if n, err := cons.Write([]byte(spec.input)); err != nil || n != len(spec.input) {
			t.Errorf("[spec %d] %s: expected Write to return (%d, nil); got (%d, %v)", specIndex, spec.descr, len(spec.input), n, err)
		}

		if x, y := cons.Cursor(); x != 8 || y != 0 {
			t.Errorf("[spec %d] %s: expected cursor to remain at (8, 0); got (%d, %d)", specIndex, spec.descr, x, y)
		}

		if !reflect.DeepEqual(before, fb) {
			t.Errorf("[spec %d] %s: expected framebuffer to be untouched", specIndex, spec.descr)
		}
	}
}

func TestFbConsoleWithoutFont(t *testing.T) {
	cons, fb := newTestConsole(32, 32, nil)

	cons.WriteString("ab")
	if x, y := cons.Cursor(); x != 16 || y != 0 {
		t.Fatalf("expected cursor to advance by two 8 pixel cells; got (%d, %d)", x, y)
	}

	cons.WriteString("\nc")
	if x, y := cons.Cursor(); x != 8 || y != 16 {
		t.Fatalf("expected cursor to be at (8, 16); got (%d, %d)", x, y)
	}

	for index, got := range fb {
		if got != testBg {
			t.Fatalf("expected nothing to be drawn without a font; pixel %d is %d", index, got)
		}
	}

	// The next newline scrolls
	cons.WriteString("\n")
	if x, y := cons.Cursor(); x != 0 || y != 16 {
		t.Fatalf("expected cursor to be at (0, 16) after scrolling; got (%d, %d)", x, y)
	}
}

func TestFbConsoleLargeGlyph(t *testing.T) {
	// 40x32 glyphs take 5 bytes per row and overflow the local copy buffer
	f := blockFont(40, 32)
	if f.CharSize <= glyphScratchSize {
		t.Fatalf("expected glyph size %d to exceed %d", f.CharSize, glyphScratchSize)
	}

	cons, fb := newTestConsole(64, 64, f)
	cons.DrawChar('A')

	for y := uint32(0); y < 64; y++ {
		for x := uint32(0); x < 64; x++ {
			exp := testBg
			if x < 40 && y < 32 {
				exp = testFg
			}

			if got := fb[y*64+x]; got != exp {
				t.Fatalf("expected pixel (%d, %d) to be %d; got %d", x, y, exp, got)
			}
		}
	}

	if x, y := cons.Cursor(); x != 40 || y != 0 {
		t.Fatalf("expected cursor to be at (40, 0); got (%d, %d)", x, y)
	}
}

func TestFbConsoleBackBuffer(t *testing.T) {
	fb := make([]uint32, 16*10)
	cons := NewFbConsoleOnSurface(NewSurface(fb, 16, 10, true))
	cons.SetFont(mockFont8x10())
	cons.SetColors(testFg, testBg)

	cons.Clear(testBg)
	cons.DrawChar('A')

	if !cons.Dirty() {
		t.Fatal("expected console to be dirty after drawing")
	}

	for index, got := range fb {
		if got != 0 {
			t.Fatalf("expected visible pixel %d to be untouched before Flush; got %d", index, got)
		}
	}

	cons.Flush()
	if cons.Dirty() {
		t.Fatal("expected Flush to clear the dirty flag")
	}

	if got := fb[3]; got != testFg {
		t.Fatalf("expected glyph to be visible after Flush; got pixel %d", got)
	}

	// Write flushes on its own
	cons.Write([]byte("A"))
	if got := fb[11]; got != testFg {
		t.Fatalf("expected Write to flush the back buffer; got pixel %d", got)
	}
}

func TestFbConsolePanicMode(t *testing.T) {
	cons, _ := newTestConsole(32, 20, mockFont8x10())
	cons.Write([]byte("AB"))

	cons.PanicMode(0xf7768e)

	if fg, _ := cons.Colors(); fg != 0xf7768e {
		t.Fatalf("expected foreground color to be 0xf7768e; got 0x%x", fg)
	}

	if x, y := cons.Cursor(); x != 0 || y != 0 {
		t.Fatalf("expected cursor to be at (0, 0); got (%d, %d)", x, y)
	}
}

func TestFbConsoleDriverInit(t *testing.T) {
	defer func() {
		mapFramebufferFn = MapFramebuffer
	}()

	var (
		fb      = make([]uint32, 64*32)
		mapInfo multiboot.FramebufferInfo
	)

	mapFramebufferFn = func(info *multiboot.FramebufferInfo, offset uintptr) ([]uint32, *kernel.Error) {
		mapInfo = *info
		return fb, nil
	}

	for _, backBuffer := range []bool{false, true} {
		cons := NewFbConsole(64, 32, 0xfd000000, backBuffer)

		var buf bytes.Buffer
		if err := cons.DriverInit(&buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if mapInfo.PhysAddr != 0xfd000000 || mapInfo.Pitch != 256 || mapInfo.Bpp != 32 {
			t.Fatalf("unexpected framebuffer mapping request: %+v", mapInfo)
		}

		if !strings.Contains(buf.String(), "mapped framebuffer to 0xfd000000") {
			t.Fatalf("unexpected driver init output %q", buf.String())
		}

		if got := cons.surface.HasBackBuffer(); got != backBuffer {
			t.Fatalf("expected HasBackBuffer() to return %t; got %t", backBuffer, got)
		}

		for index, got := range fb {
			if got != DefaultBg {
				t.Fatalf("expected pixel %d to be cleared to the default background; got 0x%x", index, got)
			}
		}
	}

	expErr := &kernel.Error{Module: "test", Message: "map failed"}
	mapFramebufferFn = func(_ *multiboot.FramebufferInfo, _ uintptr) ([]uint32, *kernel.Error) {
		return nil, expErr
	}

	if err := NewFbConsole(64, 32, 0xfd000000, false).DriverInit(&bytes.Buffer{}); err != expErr {
		t.Fatalf("expected to get error %v; got %v", expErr, err)
	}
}

func TestFbConsoleDriverInitMapsMemory(t *testing.T) {
	fb := make([]uint32, 8*4)
	cons := NewFbConsole(8, 4, uintptr(unsafe.Pointer(&fb[0])), false)

	if err := cons.DriverInit(&bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for index, got := range fb {
		if got != DefaultBg {
			t.Fatalf("expected pixel %d to be cleared to the default background; got 0x%x", index, got)
		}
	}
}

func TestFbConsoleProbe(t *testing.T) {
	defer SetBootFramebuffer(nil, 0, false)

	SetBootFramebuffer(nil, 0, false)
	if drv := probeForFbConsole(); drv != nil {
		t.Fatal("expected probeForFbConsole to return nil without a framebuffer")
	}

	SetBootFramebuffer(&multiboot.FramebufferInfo{
		Width: 80, Height: 25, Pitch: 160, PhysAddr: 0xb8000, Type: multiboot.FramebufferTypeEGA,
	}, 0, false)
	if drv := probeForFbConsole(); drv != nil {
		t.Fatal("expected probeForFbConsole to return nil for a text mode framebuffer")
	}

	SetBootFramebuffer(&multiboot.FramebufferInfo{
		Width: 1024, Height: 768, Pitch: 4096, Bpp: 32, PhysAddr: 0xfd000000, Type: multiboot.FramebufferTypeRGB,
	}, 0xffff800000000000, true)

	drv := probeForFbConsole()
	if drv == nil {
		t.Fatal("expected probeForFbConsole to return a driver")
	}

	cons := drv.(*FbConsole)
	if cons.fbPhysAddr != 0xffff8000fd000000 || !cons.backBuffer {
		t.Fatalf("expected driver to use address 0xffff8000fd000000 with a back buffer; got 0x%x, %t", cons.fbPhysAddr, cons.backBuffer)
	}

	if name := drv.DriverName(); name != "fb_console" {
		t.Fatalf("expected driver name to be fb_console; got %q", name)
	}

	if major, minor, patch := drv.DriverVersion(); major != 0 || minor != 1 || patch != 0 {
		t.Fatalf("expected driver version to be 0.1.0; got %d.%d.%d", major, minor, patch)
	}

	var registered bool
	for _, info := range device.DriverList() {
		if drv := info.Probe(); drv != nil && drv.DriverName() == "fb_console" {
			registered = true
		}
	}

	if !registered {
		t.Fatal("expected the console probe to be registered with the device package")
	}
}
