package console

import (
	"github.com/onish-cmd/Vibe-OS/device"
	"github.com/onish-cmd/Vibe-OS/kernel/hal/multiboot"
)

var (
	mapFramebufferFn = MapFramebuffer

	// bootFramebuffer describes the framebuffer set up by the bootloader.
	bootFramebuffer struct {
		info       *multiboot.FramebufferInfo
		offset     uintptr
		backBuffer bool
	}
)

// SetBootFramebuffer records the framebuffer set up by the bootloader so that
// it can be picked up by the console driver probe. The framebuffer is accessed
// at its physical address plus offset. The HAL calls it before detecting
// hardware.
func SetBootFramebuffer(info *multiboot.FramebufferInfo, offset uintptr, backBuffer bool) {
	bootFramebuffer.info = info
	bootFramebuffer.offset = offset
	bootFramebuffer.backBuffer = backBuffer
}

// probeForFbConsole returns a console driver if the bootloader set up a
// supported framebuffer.
func probeForFbConsole() device.Driver {
	info := bootFramebuffer.info
	if info == nil || checkFramebuffer(info) != nil {
		return nil
	}

	return NewFbConsole(info.Width, info.Height, uintptr(info.PhysAddr)+bootFramebuffer.offset, bootFramebuffer.backBuffer)
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderNormal,
		Probe: probeForFbConsole,
	})
}
