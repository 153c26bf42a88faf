package main

import "github.com/onish-cmd/Vibe-OS/kernel/kmain"

var multibootInfoPtr uintptr

// main makes a dummy call to the actual kernel main entrypoint function. It
// is intentionally defined to prevent the Go compiler from optimizing away the
// real kernel code.
//
// A global variable is passed as an argument to KmainFromPtr to prevent the
// compiler from inlining the actual call and removing it from the generated
// .o file. The entry code stores the address of the multiboot information
// block there before jumping to main.
func main() {
	kmain.KmainFromPtr(multibootInfoPtr)
}
