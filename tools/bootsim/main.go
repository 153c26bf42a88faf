package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"
)

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[bootsim] error: %s\n", err.Error())
	os.Exit(1)
}

// fontList collects the font files passed with repeated -font flags.
type fontList []string

func (l *fontList) String() string     { return strings.Join(*l, ",") }
func (l *fontList) Set(v string) error { *l = append(*l, v); return nil }

func runTool() error {
	var fontFiles fontList

	machineFile := flag.String("machine", "", "a JSON machine description (defaults to an 800x600 machine with 128M of RAM)")
	pngFile := flag.String("png", "", "if set, write a PNG snapshot of the screen to this file")
	listen := flag.String("listen", "", "if set, serve the simulator HTTP API on this address (e.g. :8080)")
	interactiveMode := flag.Bool("interactive", false, "forward keystrokes from the terminal to the kernel console")
	timeout := flag.Duration("timeout", 5*time.Second, "the maximum time to wait for the kernel to halt")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Var(&fontFiles, "font", "a font file to hand to the kernel (may be repeated)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "bootsim: boot the kernel against a simulated machine\n\n")
		fmt.Fprint(os.Stderr, "Usage: bootsim [options] [text...]\n\n")
		fmt.Fprint(os.Stderr, "Any text arguments, or the contents of a piped STDIN, are written to the\nkernel console after it halts.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var (
		zapLogger *zap.Logger
		err       error
	)
	if *verbose {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	m, err := loadMachine(*machineFile)
	if err != nil {
		return err
	}

	var fonts [][]byte
	for _, path := range fontFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		fonts = append(fonts, data)
	}

	img, err := m.build()
	if err != nil {
		return err
	}

	logger.Infow("booting kernel",
		"cmdline", m.CmdLine,
		"memRegions", len(m.Regions),
		"framebuffer", fmt.Sprintf("%dx%d", m.Width, m.Height),
		"fonts", len(fonts),
	)

	sim, err := boot(img, fonts, *timeout, logger)
	if err != nil {
		return err
	}

	if flag.NArg() != 0 {
		if _, err = sim.WriteString(strings.Join(flag.Args(), " ") + "\n"); err != nil {
			return err
		}
	} else if !*interactiveMode && !term.IsTerminal(int(os.Stdin.Fd())) {
		if _, err = io.Copy(sim, os.Stdin); err != nil {
			return err
		}
	}

	if *pngFile != "" {
		if err = sim.SavePNG(*pngFile); err != nil {
			return err
		}
		logger.Infow("saved screen snapshot", "path", *pngFile)
	}

	if *listen != "" {
		go func() {
			logger.Infow("serving simulator API", "addr", *listen)
			if err := http.ListenAndServe(*listen, sim.router()); err != nil {
				logger.Fatalw("unable to serve simulator API", "addr", *listen, "err", err)
			}
		}()
	}

	switch {
	case *interactiveMode:
		return sim.interactive(*pngFile)
	case *listen != "":
		select {}
	}

	return nil
}

func main() {
	if err := runTool(); err != nil {
		exit(err)
	}
}
