// Package kmain contains the kernel entry point that is invoked once the
// bootloader hands over control.
package kmain

import (
	"strings"
	"unsafe"

	"github.com/onish-cmd/Vibe-OS/kernel"
	"github.com/onish-cmd/Vibe-OS/kernel/hal"
	"github.com/onish-cmd/Vibe-OS/kernel/hal/multiboot"
	"github.com/onish-cmd/Vibe-OS/kernel/kfmt"
	"github.com/onish-cmd/Vibe-OS/kernel/mem"
	"github.com/onish-cmd/Vibe-OS/kernel/mem/heap"
)

var (
	// ErrKmainReturned is passed to kfmt.Panic when Kmain runs out of
	// work.
	ErrKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

	errHeapSelfTest = &kernel.Error{Module: "kmain", Message: "heap accounting mismatch after self-test"}

	// panicFn is mocked by tests.
	panicFn = kfmt.Panic

	bootWords = []string{"Vibe", "OS"}
)

// Kmain initializes the kernel using the boot information supplied by the
// bootloader. Each entry in fonts is a font binary that is made available to
// the console before it is set up.
//
// Kmain is not expected to return. A corrupt font binary or a missing heap
// region are fatal and passed to kfmt.Panic, which paints the boot framebuffer
// even though no console exists yet.
//
//go:noinline
func Kmain(info hal.BootInfo, fonts ...[]byte) {
	hal.InstallPanicFallback(info)

	for _, data := range fonts {
		if err := hal.LoadFont(data); err != nil {
			panicFn(err)
			return
		}
	}

	if err := hal.Init(info); err != nil {
		panicFn(err)
		return
	}

	if err := heapSelfTest(bootWords); err != nil {
		panicFn(err)
		return
	}

	kfmt.Printf("Heap Initialized! Data: %s\n", strings.Join(bootWords, " "))

	panicFn(ErrKmainReturned)
}

// KmainFromPtr is invoked by the boot code with the address of the multiboot
// information block. The block is turned into a byte slice of its declared
// size and handed to Kmain.
//
//go:noinline
func KmainFromPtr(multibootInfoPtr uintptr, fonts ...[]byte) {
	if multibootInfoPtr == 0 {
		panicFn(multiboot.ErrInvalidInfo)
		return
	}

	totalSize := *(*uint32)(unsafe.Pointer(multibootInfoPtr))
	info, err := multiboot.Parse(unsafe.Slice((*byte)(unsafe.Pointer(multibootInfoPtr)), totalSize))
	if err != nil {
		panicFn(err)
		return
	}

	Kmain(info, fonts...)
}

// heapSelfTest reserves a heap block for each word, releases them and checks
// that the allocator accounting returns to where it started.
func heapSelfTest(words []string) *kernel.Error {
	usedBefore, _ := heap.Kernel.Stats()

	addrs := make([]uintptr, 0, len(words))
	for _, word := range words {
		addr, err := heap.Kernel.Alloc(mem.Size(len(word)))
		if err != nil {
			return err
		}
		addrs = append(addrs, addr)
	}

	used, free := heap.Kernel.Stats()
	kfmt.Logger().Named("kmain").Debugw("heap self-test", "blocks", len(addrs), "used", used.String(), "free", free.String())

	for _, addr := range addrs {
		if err := heap.Kernel.Free(addr); err != nil {
			return err
		}
	}

	if used, _ = heap.Kernel.Stats(); used != usedBefore {
		return errHeapSelfTest
	}

	return nil
}
