// Package hal brings up the hardware abstraction layer: it reads the boot
// configuration, sets up the kernel heap and detects the devices that the
// kernel drives.
package hal

import (
	"fmt"
	"sort"

	"github.com/onish-cmd/Vibe-OS/device"
	"github.com/onish-cmd/Vibe-OS/device/video/console"
	"github.com/onish-cmd/Vibe-OS/device/video/console/font"
	"github.com/onish-cmd/Vibe-OS/kernel"
	"github.com/onish-cmd/Vibe-OS/kernel/hal/multiboot"
	"github.com/onish-cmd/Vibe-OS/kernel/kfmt"
	"github.com/onish-cmd/Vibe-OS/kernel/mem"
	"github.com/onish-cmd/Vibe-OS/kernel/mem/heap"
)

// BootInfo provides access to the information passed to the kernel by the
// bootloader. *multiboot.Info implements it.
type BootInfo interface {
	// VisitMemRegions invokes the visitor for each memory map entry.
	VisitMemRegions(multiboot.MemRegionVisitor)

	// FramebufferInfo returns the framebuffer set up by the bootloader or
	// nil if there is none.
	FramebufferInfo() *multiboot.FramebufferInfo

	// BootCmdLine returns the command line key-value pairs.
	BootCmdLine() map[string]string
}

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	activeConsole console.Device

	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

var (
	devices managedDevices
	config  = DefaultConfig()

	mapFramebufferFn = console.MapFramebuffer
)

// ActiveConsole returns the currently active console or nil if no console
// has been initialized.
func ActiveConsole() console.Device {
	return devices.activeConsole
}

// LoadFont parses a font binary and makes it available to consoles.
func LoadFont(data []byte) *kernel.Error {
	f, err := font.Parse(data)
	if err != nil {
		return err
	}

	font.Register(f)
	kfmt.Logger().Named("hal").Infow("loaded font", "name", f.Name, "glyphs", f.GlyphCount)
	return nil
}

// Init reads the boot configuration, initializes the kernel heap in the first
// suitable memory region and detects the available hardware. Failing to find
// a heap region is fatal and reported to the caller.
func Init(info BootInfo) *kernel.Error {
	log := kfmt.Logger().Named("hal")

	InstallPanicFallback(info)

	cfg, err := ParseConfig(info.BootCmdLine())
	if err != nil {
		return err
	}
	config = cfg
	kfmt.SetLevel(cfg.LogLevel)

	printMemoryMap(info)

	region, err := heap.SelectRegion(info.VisitMemRegions, cfg.Heap)
	if err != nil {
		log.Errorw("unable to reserve kernel heap", "size", cfg.Heap.Size.String(), "minBase", cfg.Heap.MinBase)
		return err
	}

	heap.Kernel.Init(region)
	log.Infow("heap initialized",
		"base", region.Base,
		"size", region.Size.String(),
		"entry", region.PhysAddress,
	)

	console.SetBootFramebuffer(info.FramebufferInfo(), cfg.Heap.Offset, cfg.ConsoleBackBuffer)

	DetectHardware()
	return nil
}

// printMemoryMap prints out the memory map reported by the bootloader.
func printMemoryMap(info BootInfo) {
	var totalFree mem.Size

	kfmt.Printf("[hal] system memory map:\n")
	info.VisitMemRegions(func(region *multiboot.MemoryMapEntry) bool {
		kfmt.Printf("\t[0x%10x - 0x%10x], size: %10d, type: %s\n", region.PhysAddress, region.PhysAddress+region.Length, region.Length, region.Type.String())

		if region.Type == multiboot.MemAvailable {
			totalFree += mem.Size(region.Length)
		}
		return true
	})
	kfmt.Printf("[hal] available memory: %dKb\n", uint64(totalFree/mem.Kb))
}

// InstallPanicFallback registers a kfmt panic fallback that paints the boot
// framebuffer. It only depends on the framebuffer descriptor and the
// hhdmOffset option so it can be installed before anything else runs. An
// unparsable hhdmOffset is treated as zero here; Init reports it.
func InstallPanicFallback(info BootInfo) {
	fbInfo := info.FramebufferInfo()
	if fbInfo == nil {
		kfmt.SetPanicFallback(nil)
		return
	}

	var offset uintptr
	if v, ok := info.BootCmdLine()["hhdmOffset"]; ok {
		if parsed, err := mem.ParseSize(v); err == nil {
			offset = uintptr(parsed)
		}
	}

	kfmt.SetPanicFallback(panicFallback(fbInfo, offset))
}

// panicFallback returns a function that fills the raw framebuffer with a
// color. It is used by kfmt.Panic when no console is available and never
// touches any console state.
func panicFallback(fbInfo *multiboot.FramebufferInfo, offset uintptr) func(uint32) {
	return func(color uint32) {
		fb, err := mapFramebufferFn(fbInfo, offset)
		if err != nil {
			return
		}

		mem.Memset32(fb, color)
	}
}

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers.
func DetectHardware() {
	// Get driver list and sort by detection priority
	drivers := device.DriverList()
	sort.Stable(drivers)

	probe(drivers)
}

// probe executes the probe function for each driver and invokes
// onDriverInit for each successfully initialized driver.
func probe(driverInfoList device.DriverInfoList) {
	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		major, minor, patch := drv.DriverVersion()
		w := kfmt.NewPrefixWriter(kfmt.Writer(), "hal", drv.DriverName(), fmt.Sprintf("%d.%d.%d", major, minor, patch))

		if err := drv.DriverInit(w); err != nil {
			kfmt.Fprintf(w, "init failed: %s\n", err.Message)
			continue
		}

		kfmt.Fprintf(w, "initialized\n")
		onDriverInit(info, drv)
		devices.activeDrivers = append(devices.activeDrivers, drv)
	}
}

// onDriverInit is invoked by probe() whenever a piece of hardware is detected
// and successfully initialized.
func onDriverInit(_ *device.DriverInfo, drv device.Driver) {
	switch drvImpl := drv.(type) {
	case console.Device:
		onConsoleInit(drvImpl)
	}
}

// onConsoleInit is invoked whenever a console is initialized. If this is the
// first found console it automatically becomes the active console. If the
// console supports fonts, the font requested on the command line or the best
// fitting one gets attached to it. The console is then cleared and becomes
// the kernel output sink, which replays any output buffered so far.
func onConsoleInit(cons console.Device) {
	if devices.activeConsole != nil {
		return
	}

	devices.activeConsole = cons

	if fontSetter, ok := cons.(console.FontSetter); ok {
		consW, consH := cons.Dimensions(console.Pixels)

		var selFont *font.Font
		if config.ConsoleFont != "" {
			selFont = font.FindByName(config.ConsoleFont)
		}

		if selFont == nil {
			selFont = font.BestFit(consW, consH)
		}

		fontSetter.SetFont(selFont)
	}

	_, bg := cons.DefaultColors()
	cons.Clear(bg)

	kfmt.SetOutputSink(cons)
	if flusher, ok := cons.(interface{ Flush() }); ok {
		flusher.Flush()
	}
}
