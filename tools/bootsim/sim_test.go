package main

import (
	"bytes"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/onish-cmd/Vibe-OS/device/video/console"
	"github.com/onish-cmd/Vibe-OS/device/video/console/font"
	"github.com/onish-cmd/Vibe-OS/kernel/cpu"
	"github.com/onish-cmd/Vibe-OS/kernel/hal"
	"github.com/onish-cmd/Vibe-OS/kernel/kfmt"
)

func TestBootTimeout(t *testing.T) {
	defer func(origKmain func(hal.BootInfo, ...[]byte)) {
		kmainFn = origKmain
		cpu.SetHaltFn(nil)
	}(kmainFn)

	kmainFn = func(hal.BootInfo, ...[]byte) {}

	img, err := defaultMachine().build()
	if err != nil {
		t.Fatal(err)
	}

	if _, err = boot(img, nil, 10*time.Millisecond, zap.NewNop().Sugar()); err != errBootTimeout {
		t.Fatalf("expected errBootTimeout; got %v", err)
	}
}

func TestBootInvalidInfo(t *testing.T) {
	img := &bootImage{info: []byte{1, 2, 3}}
	if _, err := boot(img, nil, time.Second, zap.NewNop().Sugar()); err == nil {
		t.Fatal("expected a malformed info block to be rejected")
	}
}

func TestBoot(t *testing.T) {
	defer cpu.SetHaltFn(nil)

	m := defaultMachine()
	m.Width, m.Height = 320, 200

	img, err := m.build()
	if err != nil {
		t.Fatal(err)
	}

	var fontData bytes.Buffer
	if err = font.Encode(&fontData, font.FindByName(font.BuiltinName)); err != nil {
		t.Fatal(err)
	}

	sim, err := boot(img, [][]byte{fontData.Bytes()}, 5*time.Second, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}

	fbCons, ok := sim.cons.(*console.FbConsole)
	if !ok {
		t.Fatalf("expected the active console to be a *console.FbConsole; got %T", sim.cons)
	}

	if got := fbCons.Font(); got == nil || got.Name != font.BuiltinName {
		t.Fatalf("expected console to use the %q font", font.BuiltinName)
	}

	if font.FindByName("psf7x13") == nil {
		t.Fatal("expected the supplied font to be registered")
	}

	var bgPixels, panicPixels int
	for _, pixel := range img.framebuffer {
		switch pixel {
		case console.DefaultBg:
			bgPixels++
		case kfmt.PanicColor:
			panicPixels++
		}
	}

	if bgPixels == 0 {
		t.Error("expected the console to clear the framebuffer")
	}

	if panicPixels == 0 {
		t.Error("expected the panic banner to be drawn on the framebuffer")
	}

	// The panic banner ends with a newline
	if x, _ := fbCons.Cursor(); x != 0 {
		t.Fatalf("expected the cursor to be at the start of a line; got x = %d", x)
	}

	if _, err = sim.WriteString("hello"); err != nil {
		t.Fatal(err)
	}

	if x, _ := fbCons.Cursor(); x != 5*7 {
		t.Errorf("expected the cursor to advance to x = %d; got %d", 5*7, x)
	}
}
