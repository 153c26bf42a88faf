package hal

import (
	"go.uber.org/zap/zapcore"

	"github.com/onish-cmd/Vibe-OS/kernel"
	"github.com/onish-cmd/Vibe-OS/kernel/mem"
	"github.com/onish-cmd/Vibe-OS/kernel/mem/heap"
)

var (
	// ErrInvalidConfig is returned by ParseConfig when a boot command line
	// option carries a value that cannot be parsed.
	ErrInvalidConfig = &kernel.Error{Module: "hal", Message: "invalid boot command line option"}
)

// Config holds the kernel options that can be set on the boot command line.
type Config struct {
	// ConsoleFont is the name of the font to attach to the console
	// (consoleFont=name). If empty or unknown, the best fitting font for
	// the console resolution is used.
	ConsoleFont string

	// ConsoleBackBuffer enables double buffering for the framebuffer
	// console. It is disabled with consoleBackbuffer=off.
	ConsoleBackBuffer bool

	// Heap describes the region to reserve for the kernel heap
	// (heapSize, heapMinBase and hhdmOffset).
	Heap heap.Request

	// LogLevel is the minimum level of kernel log entries (logLevel).
	LogLevel zapcore.Level
}

// DefaultConfig returns the configuration used when the command line does not
// override any option.
func DefaultConfig() Config {
	return Config{
		ConsoleBackBuffer: true,
		Heap:              heap.DefaultRequest,
		LogLevel:          zapcore.InfoLevel,
	}
}

// ParseConfig builds a Config from the boot command line key-value pairs.
// Unknown keys are ignored. Sizes and addresses accept decimal or 0x-prefixed
// values with an optional K, M or G suffix.
func ParseConfig(cmdLine map[string]string) (Config, *kernel.Error) {
	cfg := DefaultConfig()

	for k, v := range cmdLine {
		switch k {
		case "consoleFont":
			cfg.ConsoleFont = v
		case "consoleBackbuffer":
			cfg.ConsoleBackBuffer = v != "off"
		case "heapSize":
			size, err := mem.ParseSize(v)
			if err != nil || size == 0 {
				return cfg, ErrInvalidConfig
			}
			cfg.Heap.Size = size
		case "heapMinBase":
			addr, err := mem.ParseSize(v)
			if err != nil {
				return cfg, ErrInvalidConfig
			}
			cfg.Heap.MinBase = uintptr(addr)
		case "hhdmOffset":
			offset, err := mem.ParseSize(v)
			if err != nil {
				return cfg, ErrInvalidConfig
			}
			cfg.Heap.Offset = uintptr(offset)
		case "logLevel":
			if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
				return cfg, ErrInvalidConfig
			}
		}
	}

	return cfg, nil
}
