package main

import (
	"errors"
	"image"
	"io"

	"github.com/fogleman/gg"
)

var errNoFramebuffer = errors.New("the simulated machine has no framebuffer")

// renderFramebuffer copies an XRGB framebuffer into a gg drawing context.
func renderFramebuffer(fb []uint32, width, height uint32) *gg.Context {
	dc := gg.NewContext(int(width), int(height))

	im, ok := dc.Image().(*image.RGBA)
	if !ok {
		return dc
	}

	for y := 0; y < int(height); y++ {
		srcRow := fb[y*int(width):]
		dstRow := im.Pix[y*im.Stride:]
		for x := 0; x < int(width); x++ {
			pixel := srcRow[x]
			dstRow[x*4+0] = uint8(pixel >> 16)
			dstRow[x*4+1] = uint8(pixel >> 8)
			dstRow[x*4+2] = uint8(pixel)
			dstRow[x*4+3] = 0xff
		}
	}

	return dc
}

// SavePNG writes a snapshot of the visible framebuffer to path.
func (s *simulator) SavePNG(path string) error {
	return s.withFramebuffer(func(fb []uint32, width, height uint32) error {
		return renderFramebuffer(fb, width, height).SavePNG(path)
	})
}

// EncodePNG writes a PNG snapshot of the visible framebuffer to w.
func (s *simulator) EncodePNG(w io.Writer) error {
	return s.withFramebuffer(func(fb []uint32, width, height uint32) error {
		return renderFramebuffer(fb, width, height).EncodePNG(w)
	})
}
