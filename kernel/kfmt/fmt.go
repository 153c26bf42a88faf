// Package kfmt implements the kernel output facility. Output is sent to the
// active sink (normally the framebuffer console) or, before one is attached,
// kept in a small ring buffer that gets replayed when the sink is set.
package kfmt

import (
	"fmt"
	"io"
)

var (
	// earlyPrintBuffer stores output produced before a sink is attached.
	earlyPrintBuffer ringBuffer

	// outputSink is the io.Writer where Printf sends its output. If nil,
	// output is redirected to earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the target for Printf and the kernel logger to w and
// copies any output accumulated in the early buffer to it. Passing nil
// detaches the current sink.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		_, _ = io.Copy(w, &earlyPrintBuffer)
	}
}

// OutputSink returns the currently attached sink or nil if output is being
// buffered.
func OutputSink() io.Writer {
	return outputSink
}

// Writer returns an io.Writer that forwards each write to the sink that is
// active at the time of the write, or to the early buffer if there is none.
func Writer() io.Writer {
	return sinkWriter{}
}

// Printf formats according to a format specifier and writes to the active
// output sink.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves like fmt.Fprintf but writes to the early buffer when w is
// nil. Write errors are ignored; there is nowhere to report them.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	if w == nil {
		w = &earlyPrintBuffer
	}

	_, _ = fmt.Fprintf(w, format, args...)
}

// sinkWriter forwards writes to whatever sink is active at the time of the
// write.
type sinkWriter struct{}

func (sinkWriter) Write(p []byte) (int, error) {
	if outputSink == nil {
		return earlyPrintBuffer.Write(p)
	}
	return outputSink.Write(p)
}

func (sinkWriter) Sync() error { return nil }
