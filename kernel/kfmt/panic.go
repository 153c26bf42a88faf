package kfmt

import (
	"github.com/onish-cmd/Vibe-OS/kernel"
	"github.com/onish-cmd/Vibe-OS/kernel/cpu"
)

// PanicColor is the foreground color used for panic output.
const PanicColor uint32 = 0xf7768e

// PanicModeSetter is implemented by sinks that can switch to a distinct
// appearance before panic output is printed.
type PanicModeSetter interface {
	PanicMode(color uint32)
}

var (
	// cpuHaltFn is mocked by tests.
	cpuHaltFn = cpu.Halt

	// fallbackPainter is invoked by Panic when no sink is attached.
	fallbackPainter func(color uint32)

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// SetPanicFallback registers fn as the routine that signals a panic when no
// output sink is available (e.g. by filling the raw framebuffer with color).
// Passing nil removes the current fallback.
func SetPanicFallback(fn func(color uint32)) {
	fallbackPainter = fn
}

// Panic outputs the supplied error (if not nil) to the active sink and halts
// the CPU. If the sink implements PanicModeSetter it is switched to
// PanicColor first. Calls to Panic never return.
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	switch sink := outputSink.(type) {
	case PanicModeSetter:
		sink.PanicMode(PanicColor)
	case nil:
		if fallbackPainter != nil {
			fallbackPainter(PanicColor)
		}
	}

	Printf("\n[ VIBE OS FATAL ERROR ]\n")
	Printf("------------------------\n")
	if err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Printf("*** kernel panic: system halted ***\n")

	if flusher, ok := outputSink.(interface{ Flush() }); ok {
		flusher.Flush()
	}

	cpuHaltFn()
}
