package kfmt

import "io"

// earlyBufferSize is the capacity of the buffer that holds output produced
// before a console is attached. It must be a power of 2.
const earlyBufferSize = 2048

// ringBuffer is a fixed-size byte queue. When full, new writes overwrite the
// oldest unread bytes so that the most recent output is always retained.
type ringBuffer struct {
	buffer [earlyBufferSize]byte

	// head points to the next byte to be read and tail to the next slot
	// to be written. The buffer is empty when head == tail.
	head, tail int
}

// Write appends p to the buffer, discarding the oldest bytes if there is not
// enough room. It never fails.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[rb.tail] = b
		rb.tail = (rb.tail + 1) & (earlyBufferSize - 1)
		if rb.tail == rb.head {
			rb.head = (rb.head + 1) & (earlyBufferSize - 1)
		}
	}

	return len(p), nil
}

// Read drains up to len(p) bytes from the buffer. It returns io.EOF once the
// buffer is empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.head == rb.tail {
		return 0, io.EOF
	}

	// Copy the contiguous run that starts at head; a wrapped buffer is
	// drained by a second call.
	end := rb.tail
	if rb.head > rb.tail {
		end = earlyBufferSize
	}

	n := copy(p, rb.buffer[rb.head:end])
	rb.head = (rb.head + n) & (earlyBufferSize - 1)
	return n, nil
}

// Len returns the number of unread bytes.
func (rb *ringBuffer) Len() int {
	return (rb.tail - rb.head) & (earlyBufferSize - 1)
}

// Reset discards any buffered data.
func (rb *ringBuffer) Reset() {
	rb.head, rb.tail = 0, 0
}
