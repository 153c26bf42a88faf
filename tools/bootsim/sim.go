package main

import (
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/onish-cmd/Vibe-OS/device/video/console"
	"github.com/onish-cmd/Vibe-OS/kernel/cpu"
	"github.com/onish-cmd/Vibe-OS/kernel/hal"
	"github.com/onish-cmd/Vibe-OS/kernel/hal/multiboot"
	"github.com/onish-cmd/Vibe-OS/kernel/kmain"
)

var (
	errBootTimeout = errors.New("kernel did not halt before the boot timeout")
	errNoConsole   = errors.New("kernel did not activate a console")

	// kmainFn is mocked by tests.
	kmainFn = kmain.Kmain
)

// simulator runs the kernel against a simulated machine. Once the kernel
// halts, the simulator owns the console and serializes access to it.
type simulator struct {
	mu sync.Mutex

	img    *bootImage
	cons   console.Device
	logger *zap.SugaredLogger
}

// boot runs the kernel entry point in its own goroutine and waits until it
// halts the CPU. The halting goroutine is parked forever, like a halted
// processor.
func boot(img *bootImage, fonts [][]byte, timeout time.Duration, logger *zap.SugaredLogger) (*simulator, error) {
	info, kerr := multiboot.Parse(img.info)
	if kerr != nil {
		return nil, kerr
	}

	halted := make(chan struct{})
	var once sync.Once
	cpu.SetHaltFn(func() {
		once.Do(func() { close(halted) })
		select {}
	})

	start := time.Now()
	go kmainFn(info, fonts...)

	select {
	case <-halted:
	case <-time.After(timeout):
		return nil, errBootTimeout
	}

	bootDuration.Observe(time.Since(start).Seconds())
	logger.Infow("kernel halted", "elapsed", time.Since(start))

	sim := &simulator{img: img, cons: hal.ActiveConsole(), logger: logger}
	if sim.cons == nil {
		logger.Warnw("no active console; console input is disabled")
	} else {
		cols, rows := sim.cons.Dimensions(console.Characters)
		consoleColumns.Set(float64(cols))
		consoleRows.Set(float64(rows))
	}

	return sim, nil
}

// Write sends text to the kernel console.
func (s *simulator) Write(p []byte) (int, error) {
	if s.cons == nil {
		return 0, errNoConsole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.cons.Write(p)
	consoleBytes.Add(float64(n))
	return n, err
}

// WriteString sends s to the kernel console.
func (s *simulator) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// withFramebuffer invokes fn while holding the console lock so that fn sees
// a consistent frame.
func (s *simulator) withFramebuffer(fn func(fb []uint32, width, height uint32) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.img.framebuffer) == 0 {
		return errNoFramebuffer
	}

	return fn(s.img.framebuffer, s.img.width, s.img.height)
}

var _ io.StringWriter = (*simulator)(nil)
