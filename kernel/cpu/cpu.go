// Package cpu exposes the processor control operations needed by the boot
// path.
package cpu

var (
	// haltFn performs the actual halt. Boot environments that cannot execute
	// a halt instruction (e.g. a hosted simulator) replace it via SetHaltFn.
	haltFn = parkForever
)

// Halt stops instruction execution on the current processor. Halt never
// returns unless a custom halt function was installed that returns.
func Halt() {
	haltFn()
}

// SetHaltFn overrides the function invoked by Halt. Passing nil restores the
// default behavior.
func SetHaltFn(fn func()) {
	if fn == nil {
		fn = parkForever
	}

	haltFn = fn
}

// parkForever blocks the calling goroutine indefinitely; it is the closest
// equivalent to a halted CPU.
func parkForever() {
	select {}
}
