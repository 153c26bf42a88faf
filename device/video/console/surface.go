package console

import (
	"unsafe"

	"github.com/onish-cmd/Vibe-OS/kernel"
	"github.com/onish-cmd/Vibe-OS/kernel/hal/multiboot"
	"github.com/onish-cmd/Vibe-OS/kernel/mem"
)

var (
	// ErrNoFramebuffer is returned when the bootloader did not set up a
	// framebuffer.
	ErrNoFramebuffer = &kernel.Error{Module: "console", Message: "no framebuffer available"}

	// ErrUnsupportedFramebuffer is returned when the framebuffer is not a
	// packed 32bpp RGB framebuffer.
	ErrUnsupportedFramebuffer = &kernel.Error{Module: "console", Message: "unsupported framebuffer format"}
)

// Surface is a rectangular grid of 0xRRGGBB pixels stored in row-major order.
// If the surface has a back buffer, all drawing operations target it and
// Present copies its contents to the visible pixels.
type Surface struct {
	width  uint32
	height uint32

	front []uint32
	back  []uint32
}

// NewSurface creates a surface over front. If front holds fewer than
// width*height pixels, the height is reduced to the number of complete rows
// it can hold. When backBuffer is set, an off-screen buffer of the same size
// is allocated and becomes the drawing target.
func NewSurface(front []uint32, width, height uint32, backBuffer bool) *Surface {
	if width == 0 {
		height = 0
	} else if rows := uint32(len(front)) / width; rows < height {
		height = rows
	}

	s := &Surface{
		width:  width,
		height: height,
		front:  front[:width*height],
	}

	if backBuffer {
		s.back = make([]uint32, width*height)
	}

	return s
}

// target returns the buffer that drawing operations update.
func (s *Surface) target() []uint32 {
	if s.back != nil {
		return s.back
	}
	return s.front
}

// Dimensions returns the surface width and height in pixels.
func (s *Surface) Dimensions() (uint32, uint32) {
	return s.width, s.height
}

// HasBackBuffer returns true if drawing targets an off-screen buffer.
func (s *Surface) HasBackBuffer() bool {
	return s.back != nil
}

// WritePixel sets the pixel at (x, y) to color. Writes outside the surface
// are ignored.
func (s *Surface) WritePixel(x, y, color uint32) {
	if x >= s.width || y >= s.height {
		return
	}

	s.target()[y*s.width+x] = color
}

// Pixel returns the color of the pixel at (x, y) in the drawing target or 0
// if the coordinates are outside the surface.
func (s *Surface) Pixel(x, y uint32) uint32 {
	if x >= s.width || y >= s.height {
		return 0
	}

	return s.target()[y*s.width+x]
}

// Fill sets every pixel of the drawing target to color.
func (s *Surface) Fill(color uint32) {
	mem.Memset32(s.target(), color)
}

// FillRect sets the pixels of the rectangle with its top-left corner at
// (x, y) to color. The rectangle is clipped to the surface.
func (s *Surface) FillRect(x, y, width, height, color uint32) {
	if x >= s.width || y >= s.height {
		return
	}

	if width > s.width-x {
		width = s.width - x
	}

	if height > s.height-y {
		height = s.height - y
	}

	pixels := s.target()
	for row := y; row < y+height; row++ {
		offset := row*s.width + x
		mem.Memset32(pixels[offset:offset+width], color)
	}
}

// Present copies the back buffer to the visible pixels. It is a no-op for
// surfaces without a back buffer.
func (s *Surface) Present() {
	if s.back == nil {
		return
	}

	copy(s.front, s.back)
}

// ScrollRows moves the contents of the drawing target up by rows pixel rows
// and fills the rows that become exposed at the bottom with bg. Scrolling by
// the surface height or more fills the entire surface.
func (s *Surface) ScrollRows(rows, bg uint32) {
	if rows == 0 {
		return
	}

	if rows >= s.height {
		s.Fill(bg)
		return
	}

	pixels := s.target()
	keep := (s.height - rows) * s.width
	copy(pixels, pixels[rows*s.width:])
	mem.Memset32(pixels[keep:], bg)
}

// MapFramebuffer returns a slice over the pixels of the framebuffer described
// by info. The framebuffer is expected to be accessible at its physical
// address plus offset. Only packed 32bpp RGB framebuffers (pitch equal to
// width*4) are supported.
func MapFramebuffer(info *multiboot.FramebufferInfo, offset uintptr) ([]uint32, *kernel.Error) {
	if info == nil {
		return nil, ErrNoFramebuffer
	}

	if err := checkFramebuffer(info); err != nil {
		return nil, err
	}

	addr := uintptr(info.PhysAddr) + offset
	return unsafe.Slice((*uint32)(unsafe.Pointer(addr)), int(info.Width)*int(info.Height)), nil
}

func checkFramebuffer(info *multiboot.FramebufferInfo) *kernel.Error {
	if info.Type != multiboot.FramebufferTypeRGB || info.Bpp != 32 ||
		info.Width == 0 || info.Height == 0 || info.Pitch != info.Width*4 || info.PhysAddr == 0 {
		return ErrUnsupportedFramebuffer
	}

	return nil
}
