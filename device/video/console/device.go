package console

import (
	"io"

	"github.com/onish-cmd/Vibe-OS/device/video/console/font"
)

// Dimension defines the types of dimensions that can be queried off a device.
type Dimension uint8

const (
	// Characters describes the number of characters in
	// the console depending on the currently active
	// font.
	Characters Dimension = iota

	// Pixels describes the number of pixels in the console framebuffer.
	Pixels
)

// The Device interface is implemented by objects that can function as system
// consoles. Text is sent to the console through its io.Writer implementation.
type Device interface {
	io.Writer

	// Dimensions returns the width and height of the console
	// using a particular dimension.
	Dimensions(Dimension) (uint32, uint32)

	// DefaultColors returns the default foreground and background colors
	// used by this console as 0xRRGGBB values.
	DefaultColors() (fg, bg uint32)

	// Clear sets the background color and fills the entire console with
	// it. The cursor position is not affected.
	Clear(bg uint32)
}

// FontSetter is an interface implemented by console devices that
// support loadable bitmap fonts.
//
// SetFont selects a bitmap font to be used by the console.
type FontSetter interface {
	SetFont(*font.Font)
}
