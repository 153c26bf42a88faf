package main

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/Jeffail/gabs/v2"

	"github.com/onish-cmd/Vibe-OS/kernel/hal"
	"github.com/onish-cmd/Vibe-OS/kernel/hal/multiboot"
	"github.com/onish-cmd/Vibe-OS/kernel/mem"
)

// machine describes the simulated hardware that is handed to the kernel.
type machine struct {
	CmdLine string
	Regions []multiboot.MemoryMapEntry

	// Framebuffer dimensions in pixels. A zero width boots the kernel
	// without a framebuffer.
	Width, Height uint32
}

func defaultMachine() *machine {
	return &machine{
		CmdLine: "consoleFont=basic7x13",
		Regions: []multiboot.MemoryMapEntry{
			{PhysAddress: 0, Length: 0x9fc00, Type: multiboot.MemAvailable},
			{PhysAddress: 0x9fc00, Length: 0x400, Type: multiboot.MemReserved},
			{PhysAddress: 0xf0000, Length: 0x10000, Type: multiboot.MemReserved},
			{PhysAddress: 0x100000, Length: uint64(127 * mem.Mb), Type: multiboot.MemAvailable},
		},
		Width:  800,
		Height: 600,
	}
}

var memTypes = map[string]multiboot.MemoryEntryType{
	"available": multiboot.MemAvailable,
	"reserved":  multiboot.MemReserved,
	"acpi":      multiboot.MemAcpiReclaimable,
	"nvs":       multiboot.MemNvs,
	"bad":       multiboot.MemBadRAM,
}

// loadMachine reads a machine description from path. An empty path selects
// the default machine.
func loadMachine(path string) (*machine, error) {
	if path == "" {
		return defaultMachine(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return parseMachine(data)
}

// parseMachine decodes a JSON machine description such as:
//
//	{
//	  "cmdline": "consoleFont=basic7x13 heapSize=16M",
//	  "framebuffer": {"width": 1024, "height": 768},
//	  "memory": [
//	    {"base": "0x100000", "length": "64M", "type": "available"}
//	  ]
//	}
//
// Omitted sections keep the values of the default machine.
func parseMachine(data []byte) (*machine, error) {
	doc, err := gabs.ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parsing machine description: %w", err)
	}

	m := defaultMachine()

	if doc.Exists("cmdline") {
		cmdLine, ok := doc.Path("cmdline").Data().(string)
		if !ok {
			return nil, fmt.Errorf("cmdline must be a string")
		}
		m.CmdLine = cmdLine
	}

	if doc.Exists("framebuffer") {
		if fb := doc.Path("framebuffer"); fb.Data() == nil {
			m.Width, m.Height = 0, 0
		} else {
			width, err := parseNumber(fb, "width")
			if err != nil {
				return nil, err
			}
			height, err := parseNumber(fb, "height")
			if err != nil {
				return nil, err
			}
			m.Width, m.Height = uint32(width), uint32(height)
		}
	}

	if doc.Exists("memory") {
		m.Regions = m.Regions[:0]
		for index, entry := range doc.Path("memory").Children() {
			base, err := parseNumber(entry, "base")
			if err != nil {
				return nil, fmt.Errorf("memory entry %d: %w", index, err)
			}
			length, err := parseNumber(entry, "length")
			if err != nil {
				return nil, fmt.Errorf("memory entry %d: %w", index, err)
			}

			entryType := multiboot.MemAvailable
			if typeName, ok := entry.Path("type").Data().(string); ok {
				if entryType, ok = memTypes[typeName]; !ok {
					return nil, fmt.Errorf("memory entry %d: unknown type %q", index, typeName)
				}
			}

			m.Regions = append(m.Regions, multiboot.MemoryMapEntry{PhysAddress: base, Length: length, Type: entryType})
		}
	}

	return m, nil
}

// parseNumber reads key from c. Numbers may be given as JSON numbers or as
// strings using the size notation of the boot command line.
func parseNumber(c *gabs.Container, key string) (uint64, error) {
	switch v := c.Path(key).Data().(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("%s must not be negative", key)
		}
		return uint64(v), nil
	case string:
		size, err := mem.ParseSize(v)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return uint64(size), nil
	case nil:
		return 0, fmt.Errorf("missing %s", key)
	default:
		return 0, fmt.Errorf("%s has unsupported type %T", key, v)
	}
}

// bootImage holds the multiboot information block for a machine together with
// the memory backing its framebuffer.
type bootImage struct {
	info        []byte
	framebuffer []uint32
	width       uint32
	height      uint32
}

// build allocates the simulated framebuffer and encodes the multiboot
// information block. The framebuffer address is reported so that, once the
// kernel applies the hhdmOffset from the command line, it points at the
// allocated memory.
func (m *machine) build() (*bootImage, error) {
	var b multiboot.Builder
	b.SetCmdLine(m.CmdLine)

	probe, kerr := multiboot.Parse(b.Bytes())
	if kerr != nil {
		return nil, kerr
	}

	cfg, kerr := hal.ParseConfig(probe.BootCmdLine())
	if kerr != nil {
		return nil, fmt.Errorf("cmdline %q: %w", m.CmdLine, kerr)
	}

	for _, region := range m.Regions {
		b.AddMemRegion(region.PhysAddress, region.Length, region.Type)
	}

	img := &bootImage{width: m.Width, height: m.Height}
	if m.Width != 0 && m.Height != 0 {
		img.framebuffer = make([]uint32, m.Width*m.Height)
		fbAddr := uintptr(unsafe.Pointer(&img.framebuffer[0]))
		b.SetFramebuffer(multiboot.FramebufferInfo{
			PhysAddr: uint64(fbAddr - cfg.Heap.Offset),
			Pitch:    m.Width * 4,
			Width:    m.Width,
			Height:   m.Height,
			Bpp:      32,
			Type:     multiboot.FramebufferTypeRGB,
		})
	}

	img.info = b.Bytes()
	return img, nil
}
