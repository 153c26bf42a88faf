package kfmt

import (
	"fmt"
	"io"
)

// PrefixWriter is an io.Writer that wraps another io.Writer and injects a
// prefix at the beginning of each line.
type PrefixWriter struct {
	// A writer where all writes get sent to.
	Sink io.Writer

	// The prefix injected at the beginning of each line.
	Prefix []byte

	// midLine is set while the current line already carries a prefix.
	midLine bool
}

// NewPrefixWriter returns a PrefixWriter that tags every line written to
// sink with "[module] name(version): ". It is used for driver init output.
func NewPrefixWriter(sink io.Writer, module, name, version string) *PrefixWriter {
	return &PrefixWriter{
		Sink:   sink,
		Prefix: []byte(fmt.Sprintf("[%s] %s(%s): ", module, name, version)),
	}
}

// Write writes p to the sink, injecting the prefix at the start of every line.
// The returned byte count does not include any injected prefixes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written, start int

	for index, ch := range p {
		if !w.midLine {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
			w.midLine = true
		}

		if ch != '\n' {
			continue
		}

		n, err := w.Sink.Write(p[start : index+1])
		written += n
		if err != nil {
			return written, err
		}
		start = index + 1
		w.midLine = false
	}

	if start < len(p) {
		n, err := w.Sink.Write(p[start:])
		written += n
		if err != nil {
			return written, err
		}
	}

	return written, nil
}
