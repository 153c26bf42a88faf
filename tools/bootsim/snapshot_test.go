package main

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestRenderFramebuffer(t *testing.T) {
	fb := []uint32{
		0x112233, 0xffffff, 0x000000,
		0xff0000, 0x00ff00, 0x0000ff,
	}

	img := renderFramebuffer(fb, 3, 2).Image()
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("expected a 3x2 image; got %dx%d", b.Dx(), b.Dy())
	}

	for index, pixel := range fb {
		exp := color.RGBA{R: uint8(pixel >> 16), G: uint8(pixel >> 8), B: uint8(pixel), A: 0xff}
		if got := color.RGBAModel.Convert(img.At(index%3, index/3)).(color.RGBA); got != exp {
			t.Errorf("expected pixel (%d, %d) to be %v; got %v", index%3, index/3, exp, got)
		}
	}
}

func TestSavePNG(t *testing.T) {
	sim, _ := newTestSimulator()
	path := filepath.Join(t.TempDir(), "screen.png")

	if err := sim.SavePNG(path); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Width != testWidth || cfg.Height != testHeight {
		t.Fatalf("expected a %dx%d image; got %dx%d", testWidth, testHeight, cfg.Width, cfg.Height)
	}

	noFb := &simulator{img: &bootImage{}}
	if err = noFb.SavePNG(path); err != errNoFramebuffer {
		t.Fatalf("expected errNoFramebuffer; got %v", err)
	}
}
