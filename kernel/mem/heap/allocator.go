package heap

import (
	"github.com/onish-cmd/Vibe-OS/kernel"
	"github.com/onish-cmd/Vibe-OS/kernel/mem"
	"github.com/onish-cmd/Vibe-OS/kernel/sync"
)

// Alignment is the alignment of every address returned by Alloc. Block sizes
// are rounded up to a multiple of it.
const Alignment = 16

var (
	// Kernel is the allocator that serves kernel heap allocations. It is
	// initialized by the HAL with the region returned by SelectRegion.
	Kernel Allocator

	// ErrNotInitialized is returned by Alloc before Init is called with a
	// non-empty region.
	ErrNotInitialized = &kernel.Error{Module: "heap", Message: "allocator not initialized"}

	// ErrOutOfMemory is returned by Alloc when no free block can hold the
	// requested size.
	ErrOutOfMemory = &kernel.Error{Module: "heap", Message: "out of memory"}

	// ErrInvalidFree is returned by Free for addresses that do not start a
	// live allocation.
	ErrInvalidFree = &kernel.Error{Module: "heap", Message: "free of an address that is not allocated"}
)

// segment describes a contiguous block of the heap. Segments form a
// doubly-linked list ordered by address that covers the entire heap.
type segment struct {
	next, prev *segment

	addr      uintptr
	size      mem.Size
	allocated bool
}

// Allocator implements a first-fit heap allocator over a single contiguous
// region. Adjacent free segments are merged when a block is released.
//
// The segment list is kept in Go memory; the managed addresses are handed out
// to callers but never dereferenced by the allocator itself. All operations
// are serialized by a spinlock.
type Allocator struct {
	lock sync.Spinlock

	head *segment

	base uintptr
	size mem.Size
	used mem.Size
}

// Init sets up the allocator to manage the supplied region. The region start
// is rounded up to Alignment and its size trimmed accordingly. Calling Init
// on an initialized allocator discards all existing allocations.
func (a *Allocator) Init(region Region) {
	a.lock.Acquire()
	defer a.lock.Release()

	start := mem.AlignUp(region.Base, Alignment)
	lost := mem.Size(start - region.Base)

	var size mem.Size
	if region.Size > lost {
		size = (region.Size - lost) &^ (Alignment - 1)
	}

	a.base, a.size, a.used = start, size, 0
	a.head = nil
	if size != 0 {
		a.head = &segment{addr: start, size: size}
	}
}

// Alloc reserves a block of at least size bytes and returns its address. A
// zero size is treated as a request for the minimum block size.
func (a *Allocator) Alloc(size mem.Size) (uintptr, *kernel.Error) {
	a.lock.Acquire()
	defer a.lock.Release()

	if a.head == nil {
		return 0, ErrNotInitialized
	}

	// Requests larger than the heap would also wrap around when rounded up
	if size > a.size {
		return 0, ErrOutOfMemory
	}

	if size == 0 {
		size = Alignment
	}
	size = (size + Alignment - 1) &^ (Alignment - 1)

	for seg := a.head; seg != nil; seg = seg.next {
		if seg.allocated || seg.size < size {
			continue
		}

		// Split the segment if the remainder can hold at least one
		// minimum sized block.
		if rem := seg.size - size; rem >= Alignment {
			tail := &segment{
				next: seg.next,
				prev: seg,
				addr: seg.addr + uintptr(size),
				size: rem,
			}
			if seg.next != nil {
				seg.next.prev = tail
			}
			seg.next = tail
			seg.size = size
		}

		seg.allocated = true
		a.used += seg.size
		return seg.addr, nil
	}

	return 0, ErrOutOfMemory
}

// Free releases a block previously returned by Alloc.
func (a *Allocator) Free(addr uintptr) *kernel.Error {
	a.lock.Acquire()
	defer a.lock.Release()

	var seg *segment
	for seg = a.head; seg != nil && seg.addr < addr; seg = seg.next {
	}

	if seg == nil || seg.addr != addr || !seg.allocated {
		return ErrInvalidFree
	}

	seg.allocated = false
	a.used -= seg.size

	// Merge with the following segment
	if next := seg.next; next != nil && !next.allocated {
		seg.size += next.size
		seg.next = next.next
		if next.next != nil {
			next.next.prev = seg
		}
	}

	// Merge with the preceding segment
	if prev := seg.prev; prev != nil && !prev.allocated {
		prev.size += seg.size
		prev.next = seg.next
		if seg.next != nil {
			seg.next.prev = prev
		}
	}

	return nil
}

// Stats returns the number of bytes in use and the number of free bytes.
func (a *Allocator) Stats() (used, free mem.Size) {
	a.lock.Acquire()
	defer a.lock.Release()

	return a.used, a.size - a.used
}

// Bounds returns the start address and size of the managed region.
func (a *Allocator) Bounds() (uintptr, mem.Size) {
	a.lock.Acquire()
	defer a.lock.Release()

	return a.base, a.size
}
