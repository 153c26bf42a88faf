package kernel

// Error describes a kernel error. Kernel errors are declared as package-level
// pointers to Error and compared by identity.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// String returns the error message prefixed by the module that raised it.
func (e *Error) String() string {
	if e.Module == "" {
		return e.Message
	}

	return "[" + e.Module + "] " + e.Message
}
