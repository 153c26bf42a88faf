// Package heap selects the physical memory region that backs the kernel heap
// and provides the allocator that manages it.
package heap

import (
	"github.com/onish-cmd/Vibe-OS/kernel"
	"github.com/onish-cmd/Vibe-OS/kernel/hal/multiboot"
	"github.com/onish-cmd/Vibe-OS/kernel/mem"
)

var (
	// ErrNoSuitableRegion is returned by SelectRegion when none of the
	// memory map entries can host the heap. This error is fatal to boot.
	ErrNoSuitableRegion = &kernel.Error{Module: "heap", Message: "no suitable memory region for the kernel heap"}
)

// DefaultRequest describes the heap that the kernel asks for when the boot
// command line does not override it: 32M located above the first megabyte
// which is reserved for the BIOS, the bootloader and legacy devices.
var DefaultRequest = Request{
	Size:    32 * mem.Mb,
	MinBase: uintptr(1 * mem.Mb),
}

// VisitFn iterates the memory map entries reported by the bootloader in their
// discovery order. *multiboot.Info.VisitMemRegions satisfies it.
type VisitFn func(multiboot.MemRegionVisitor)

// Request describes the heap region to look for.
type Request struct {
	// The required heap size in bytes.
	Size mem.Size

	// The lowest physical address that the region may start at.
	MinBase uintptr

	// Offset is added to the selected physical base to obtain the address
	// that the kernel uses to access the region (e.g. a higher-half
	// direct map offset). It is zero for identity-mapped memory.
	Offset uintptr
}

// Region describes the memory region selected for the kernel heap.
type Region struct {
	// Base is the region start address, already translated by the
	// request offset.
	Base uintptr

	// Size is the heap size; it always equals the requested size.
	Size mem.Size

	// PhysAddress and Length describe the memory map entry that the
	// region was carved from.
	PhysAddress uint64
	Length      uint64
}

// SelectRegion scans the memory map and returns the first entry, in iteration
// order, that is available, at least req.Size bytes long and that starts at or
// above req.MinBase. The selection is deterministic: entries are never
// reordered and the first match wins.
//
// SelectRegion returns ErrNoSuitableRegion if no entry qualifies.
func SelectRegion(visit VisitFn, req Request) (Region, *kernel.Error) {
	var (
		region Region
		found  bool
	)

	visit(func(entry *multiboot.MemoryMapEntry) bool {
		// Ignore reserved regions and regions that are too small or too low
		if entry.Type != multiboot.MemAvailable ||
			entry.Length < uint64(req.Size) ||
			entry.PhysAddress < uint64(req.MinBase) {
			return true
		}

		region = Region{
			Base:        uintptr(entry.PhysAddress) + req.Offset,
			Size:        req.Size,
			PhysAddress: entry.PhysAddress,
			Length:      entry.Length,
		}
		found = true
		return false
	})

	if !found {
		return Region{}, ErrNoSuitableRegion
	}

	return region, nil
}
