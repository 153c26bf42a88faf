// Package mem defines the memory size units and address helpers shared by the
// kernel memory subsystems.
package mem

import (
	"strconv"
	"strings"

	"github.com/onish-cmd/Vibe-OS/kernel"
)

var errInvalidSize = &kernel.Error{Module: "mem", Message: "invalid size specification"}

// Size represents a memory block size in bytes.
type Size uint64

// Common memory block sizes
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
	Gb        = 1024 * Mb
)

// String returns a human readable representation of the size using the
// largest unit that divides it exactly.
func (s Size) String() string {
	switch {
	case s != 0 && s%Gb == 0:
		return strconv.FormatUint(uint64(s/Gb), 10) + "G"
	case s != 0 && s%Mb == 0:
		return strconv.FormatUint(uint64(s/Mb), 10) + "M"
	case s != 0 && s%Kb == 0:
		return strconv.FormatUint(uint64(s/Kb), 10) + "K"
	default:
		return strconv.FormatUint(uint64(s), 10)
	}
}

// ParseSize parses a size specification such as "4096", "0x1000", "512K",
// "32M" or "1G". Unit suffixes are case-insensitive.
func ParseSize(spec string) (Size, *kernel.Error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, errInvalidSize
	}

	mult := Byte
	switch spec[len(spec)-1] {
	case 'k', 'K':
		mult = Kb
	case 'm', 'M':
		mult = Mb
	case 'g', 'G':
		mult = Gb
	}

	if mult != Byte {
		spec = spec[:len(spec)-1]
	}

	val, err := strconv.ParseUint(spec, 0, 64)
	if err != nil {
		return 0, errInvalidSize
	}

	return Size(val) * mult, nil
}

// AlignUp rounds addr up to the next multiple of align. The alignment must be
// a power of 2.
func AlignUp(addr, align uintptr) uintptr {
	return (addr + align - 1) &^ (align - 1)
}
