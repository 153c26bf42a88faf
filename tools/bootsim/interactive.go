package main

import (
	"errors"
	"os"

	tty "github.com/mattn/go-tty"
	"golang.org/x/term"
)

const keyEOT = 0x04

var errNotATerminal = errors.New("interactive mode requires stdin to be a terminal")

// translateKey maps a key read from the terminal to the rune sent to the
// kernel console. It returns false for keys that the console cannot render.
func translateKey(r rune) (rune, bool) {
	switch {
	case r == '\r':
		return '\n', true
	case r == '\n' || r == '\t':
		return r, true
	case r < 0x20 || r == 0x7f:
		return 0, false
	default:
		return r, true
	}
}

// interactive forwards keystrokes typed on the controlling terminal to the
// kernel console until Ctrl+D is pressed. If snapshotPath is not empty, a
// PNG snapshot is written after every line.
func (s *simulator) interactive(snapshotPath string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errNotATerminal
	}

	t, err := tty.Open()
	if err != nil {
		return err
	}
	defer t.Close()

	restore := t.MustRaw()
	defer restore()

	s.logger.Infow("interactive mode; press Ctrl+D to exit")
	for {
		r, err := t.ReadRune()
		if err != nil {
			return err
		}

		if r == keyEOT {
			return nil
		}

		r, ok := translateKey(r)
		if !ok {
			continue
		}

		if _, err = s.WriteString(string(r)); err != nil {
			return err
		}

		if r == '\n' && snapshotPath != "" {
			if err = s.SavePNG(snapshotPath); err != nil {
				s.logger.Warnw("unable to save snapshot", "path", snapshotPath, "err", err)
			}
		}
	}
}
