// Package multiboot decodes the boot information block that a multiboot2
// compliant bootloader hands to the kernel. The block is accessed through a
// byte slice so that the raw pointer received from the entry code is turned
// into a bounds-checked view exactly once.
package multiboot

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/onish-cmd/Vibe-OS/kernel"
)

var (
	// ErrInvalidInfo is returned by Parse when the supplied data is not a
	// well-formed multiboot2 information block.
	ErrInvalidInfo = &kernel.Error{Module: "multiboot", Message: "malformed multiboot info block"}
)

type tagType uint32

// nolint
const (
	tagMbSectionEnd tagType = iota
	tagBootCmdLine
	tagBootLoaderName
	tagModules
	tagBasicMemoryInfo
	tagBiosBootDevice
	tagMemoryMap
	tagVbeInfo
	tagFramebufferInfo
	tagElfSymbols
	tagApmTable
)

const (
	// infoHeaderSize is the size of the {totalSize, reserved} header that
	// precedes the first tag.
	infoHeaderSize = 8

	// tagHeaderSize is the size of the {type, size} header that precedes
	// each tag.
	tagHeaderSize = 8

	// mmapHeaderSize is the size of the {entrySize, entryVersion} header
	// at the start of the memory map tag.
	mmapHeaderSize = 8

	// mmapEntrySize is the minimum size of a memory map entry
	// (base u64, length u64, type u32).
	mmapEntrySize = 20

	// framebufferTagSize is the minimum payload size of the framebuffer tag.
	framebufferTagSize = 22
)

// FramebufferType defines the type of the initialized framebuffer.
type FramebufferType uint8

const (
	// FramebufferTypeIndexed specifies a 256-color palette.
	FramebufferTypeIndexed FramebufferType = iota

	// FramebufferTypeRGB specifies direct RGB mode.
	FramebufferTypeRGB

	// FramebufferTypeEGA specifies EGA text mode.
	FramebufferTypeEGA
)

// FramebufferInfo provides information about the initialized framebuffer.
type FramebufferInfo struct {
	// The framebuffer physical address.
	PhysAddr uint64

	// Row pitch in bytes.
	Pitch uint32

	// Width and height in pixels (or characters if Type = FramebufferTypeEGA)
	Width, Height uint32

	// Bits per pixel (non EGA modes only).
	Bpp uint8

	// Framebuffer type.
	Type FramebufferType
}

// MemoryEntryType defines the type of a MemoryMapEntry.
type MemoryEntryType uint32

const (
	// MemAvailable indicates that the memory region is available for use.
	MemAvailable MemoryEntryType = iota + 1

	// MemReserved indicates that the memory region is not available for use.
	MemReserved

	// MemAcpiReclaimable indicates a memory region that holds ACPI info that
	// can be reused by the OS.
	MemAcpiReclaimable

	// MemNvs indicates memory that must be preserved when hibernating.
	MemNvs

	// MemBadRAM indicates a region occupied by defective RAM modules.
	MemBadRAM

	// Any value >= memUnknown will be mapped to MemReserved.
	memUnknown
)

// String implements fmt.Stringer for MemoryEntryType.
func (t MemoryEntryType) String() string {
	switch t {
	case MemAvailable:
		return "available"
	case MemReserved:
		return "reserved"
	case MemAcpiReclaimable:
		return "ACPI (reclaimable)"
	case MemNvs:
		return "NVS"
	case MemBadRAM:
		return "bad RAM"
	default:
		return "unknown"
	}
}

// MemoryMapEntry describes a memory region entry, namely its physical address,
// its length and its type.
type MemoryMapEntry struct {
	// The physical address for this memory region.
	PhysAddress uint64

	// The length of the memory region.
	Length uint64

	// The type of this entry.
	Type MemoryEntryType
}

// MemRegionVisitor defies a visitor function that gets invoked by VisitMemRegions
// for each memory region provided by the boot loader. The visitor must return true
// to continue or false to abort the scan.
type MemRegionVisitor func(entry *MemoryMapEntry) bool

// Info provides access to the tags of a multiboot2 information block.
type Info struct {
	data      []byte
	cmdLineKV map[string]string
}

// Parse validates the tag structure of a multiboot2 information block and
// returns an Info instance for querying it. The returned Info references data
// without copying it.
func Parse(data []byte) (*Info, *kernel.Error) {
	if len(data) < infoHeaderSize+tagHeaderSize {
		return nil, ErrInvalidInfo
	}

	totalSize := binary.LittleEndian.Uint32(data[0:4])
	if totalSize < infoHeaderSize+tagHeaderSize || uint64(totalSize) > uint64(len(data)) {
		return nil, ErrInvalidInfo
	}

	info := &Info{data: data[:totalSize]}

	// Walk the tag list and make sure that it is properly terminated and
	// that no tag extends past the end of the block.
	for offset := uint32(infoHeaderSize); ; {
		if offset+tagHeaderSize > totalSize {
			return nil, ErrInvalidInfo
		}

		tag := tagType(binary.LittleEndian.Uint32(info.data[offset:]))
		size := binary.LittleEndian.Uint32(info.data[offset+4:])
		if tag == tagMbSectionEnd {
			return info, nil
		}

		if size < tagHeaderSize || uint64(offset)+uint64(size) > uint64(totalSize) {
			return nil, ErrInvalidInfo
		}

		// Tags are aligned at 8-byte aligned addresses
		offset += (size + 7) &^ 7
	}
}

// VisitMemRegions will invoke the supplied visitor for each memory region that
// is defined by the multiboot info data that we received from the bootloader.
// Entries with an unknown type are reported as MemReserved.
func (i *Info) VisitMemRegions(visitor MemRegionVisitor) {
	payload := i.findTagByType(tagMemoryMap)
	if len(payload) < mmapHeaderSize {
		return
	}

	entrySize := binary.LittleEndian.Uint32(payload[0:4])
	if entrySize < mmapEntrySize {
		return
	}

	var entry MemoryMapEntry
	for offset := uint32(mmapHeaderSize); offset+entrySize <= uint32(len(payload)); offset += entrySize {
		entry.PhysAddress = binary.LittleEndian.Uint64(payload[offset:])
		entry.Length = binary.LittleEndian.Uint64(payload[offset+8:])
		entry.Type = MemoryEntryType(binary.LittleEndian.Uint32(payload[offset+16:]))

		// Mark unknown entry types as reserved
		if entry.Type == 0 || entry.Type >= memUnknown {
			entry.Type = MemReserved
		}

		if !visitor(&entry) {
			return
		}
	}
}

// FramebufferInfo returns information about the framebuffer initialized by the
// bootloader. This function returns nil if no framebuffer info is available.
func (i *Info) FramebufferInfo() *FramebufferInfo {
	payload := i.findTagByType(tagFramebufferInfo)
	if len(payload) < framebufferTagSize {
		return nil
	}

	return &FramebufferInfo{
		PhysAddr: binary.LittleEndian.Uint64(payload[0:]),
		Pitch:    binary.LittleEndian.Uint32(payload[8:]),
		Width:    binary.LittleEndian.Uint32(payload[12:]),
		Height:   binary.LittleEndian.Uint32(payload[16:]),
		Bpp:      payload[20],
		Type:     FramebufferType(payload[21]),
	}
}

// BootCmdLine returns the command line key-value pairs passed to the kernel.
// Arguments without a value (e.g. "quiet") map to themselves.
func (i *Info) BootCmdLine() map[string]string {
	if i.cmdLineKV != nil {
		return i.cmdLineKV
	}

	i.cmdLineKV = make(map[string]string)

	payload := i.findTagByType(tagBootCmdLine)

	// The command line is a C-style NULL-terminated string
	if end := bytes.IndexByte(payload, 0); end != -1 {
		payload = payload[:end]
	}

	for _, pair := range strings.Fields(string(payload)) {
		kv := strings.SplitN(pair, "=", 2)
		switch len(kv) {
		case 2: // foo=bar
			i.cmdLineKV[kv[0]] = kv[1]
		case 1: // nofoo
			i.cmdLineKV[kv[0]] = kv[0]
		}
	}

	return i.cmdLineKV
}

// findTagByType scans the multiboot info data looking for the first tag of
// the specified type and returns its payload, excluding the tag header. If
// the tag is not present, findTagByType returns nil.
func (i *Info) findTagByType(wanted tagType) []byte {
	for offset := uint32(infoHeaderSize); offset+tagHeaderSize <= uint32(len(i.data)); {
		curType := tagType(binary.LittleEndian.Uint32(i.data[offset:]))
		size := binary.LittleEndian.Uint32(i.data[offset+4:])
		if curType == tagMbSectionEnd || size < tagHeaderSize {
			break
		}

		if curType == wanted {
			return i.data[offset+tagHeaderSize : offset+size]
		}

		offset += (size + 7) &^ 7
	}

	return nil
}
