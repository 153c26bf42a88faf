package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"unicode"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/onish-cmd/Vibe-OS/device/video/console/font"
	"golang.org/x/image/font/basicfont"
)

// Glyph sheets are laid out as a sheetCols x sheetCols grid of cells where
// the cell at (col, row) holds code point row*sheetCols+col.
const sheetCols = 16

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[mkfont] error: %s\n", err.Error())
	os.Exit(1)
}

// fromSheet converts a glyph sheet into a font. Pixels whose luminance is at
// least half of the maximum are treated as set.
func fromSheet(img image.Image, name string) (*font.Font, error) {
	bounds := img.Bounds()
	if bounds.Dx()%sheetCols != 0 || bounds.Dy()%sheetCols != 0 {
		return nil, fmt.Errorf("glyph sheet dimensions must be multiples of %d; got %dx%d", sheetCols, bounds.Dx(), bounds.Dy())
	}

	var (
		width       = uint32(bounds.Dx() / sheetCols)
		height      = uint32(bounds.Dy() / sheetCols)
		bytesPerRow = (width + 7) >> 3
		charSize    = bytesPerRow * height
		glyphCount  = uint32(sheetCols * sheetCols)
		data        = make([]byte, glyphCount*charSize)
	)

	if width == 0 || height == 0 {
		return nil, errors.New("glyph sheet is empty")
	}

	for code := uint32(0); code < glyphCount; code++ {
		var (
			glyph = data[code*charSize : (code+1)*charSize]
			cellX = bounds.Min.X + int((code%sheetCols)*width)
			cellY = bounds.Min.Y + int((code/sheetCols)*height)
		)

		for y := uint32(0); y < height; y++ {
			for x := uint32(0); x < width; x++ {
				lum := color.Gray16Model.Convert(img.At(cellX+int(x), cellY+int(y))).(color.Gray16)
				if lum.Y < 0x8000 {
					continue
				}

				glyph[y*bytesPerRow+x>>3] |= 0x80 >> (x & 7)
			}
		}
	}

	return &font.Font{
		Name:        name,
		GlyphWidth:  width,
		GlyphHeight: height,
		BytesPerRow: bytesPerRow,
		GlyphCount:  glyphCount,
		CharSize:    charSize,
		Data:        data,
	}, nil
}

// renderSheet rasterizes the printable code points of a TrueType font into a
// glyph sheet using white glyphs on a black background.
func renderSheet(path string, points float64) (image.Image, error) {
	face, err := gg.LoadFontFace(path, points)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	var (
		metrics = face.Metrics()
		ascent  = float64(metrics.Ascent.Ceil())
		cellH   = metrics.Height.Ceil()
	)

	// Size cells after the widest glyph of a monospace font
	measure := gg.NewContext(1, 1)
	measure.SetFontFace(face)
	advance, _ := measure.MeasureString("M")
	cellW := int(math.Ceil(advance))
	if cellW == 0 || cellH == 0 {
		return nil, fmt.Errorf("font %q produced empty glyph cells at %.1fpt", path, points)
	}

	dc := gg.NewContext(cellW*sheetCols, cellH*sheetCols)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetFontFace(face)
	dc.SetRGB(1, 1, 1)

	for code := 0; code < sheetCols*sheetCols; code++ {
		r := rune(code)
		if !unicode.IsPrint(r) || r == ' ' {
			continue
		}

		dc.DrawString(string(r), float64((code%sheetCols)*cellW), float64((code/sheetCols)*cellH)+ascent)
	}

	return dc.Image(), nil
}

// sheetFromFont lays out the glyphs of f as a glyph sheet. It is used to
// preview generated fonts.
func sheetFromFont(f *font.Font) image.Image {
	var (
		cellW = int(f.GlyphWidth)
		cellH = int(f.GlyphHeight)
		dc    = gg.NewContext(cellW*sheetCols, cellH*sheetCols)
	)

	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)

	for code := uint32(0); code < f.GlyphCount && code < sheetCols*sheetCols; code++ {
		glyph, err := f.Glyph(code)
		if err != nil {
			break
		}

		originX := int(code%sheetCols) * cellW
		originY := int(code/sheetCols) * cellH
		for y := 0; y < cellH; y++ {
			row := glyph[uint32(y)*f.BytesPerRow:]
			for x := 0; x < cellW; x++ {
				if row[x>>3]&(0x80>>(uint(x)&7)) == 0 {
					continue
				}
				dc.SetPixel(originX+x, originY+y)
			}
		}
	}

	return dc.Image()
}

func loadSheet(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func writeOutput(output string, fnt *font.Font) error {
	var buf bytes.Buffer
	if err := font.Encode(&buf, fnt); err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if output != "-" {
		fOut, err := os.Create(output)
		if err != nil {
			return err
		}
		defer fOut.Close()
		w = fOut
	}

	_, err := buf.WriteTo(w)
	return err
}

func runTool() error {
	ttfFile := flag.String("ttf", "", "a TrueType font to rasterize")
	points := flag.Float64("size", 12, "the point size used when rasterizing a TrueType font")
	preview := flag.String("preview", "", "if set, write a PNG glyph sheet of the generated font to this file")
	output := flag.String("out", "-", "a file to write the generated font or - to output to STDOUT")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "mkfont: generate a console bitmap font\n\n")
		fmt.Fprint(os.Stderr, "Usage: mkfont [options] [glyph-sheet]\n\n")
		fmt.Fprint(os.Stderr, "Without a glyph sheet or -ttf, the builtin font is written.\n")
		fmt.Fprintf(os.Stderr, "Glyph sheets are png/jpg or gif images with a %dx%d grid of glyph cells.\n\n", sheetCols, sheetCols)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() > 1 || (flag.NArg() == 1 && *ttfFile != "") {
		exit(errors.New("expected either a single glyph sheet argument or the -ttf option"))
	}

	var (
		fnt *font.Font
		err error
	)

	switch {
	case *ttfFile != "":
		var sheet image.Image
		if sheet, err = renderSheet(*ttfFile, *points); err != nil {
			return err
		}
		fnt, err = fromSheet(sheet, fmt.Sprintf("ttf%.0f", *points))
	case flag.NArg() == 1:
		var sheet image.Image
		if sheet, err = loadSheet(flag.Arg(0)); err != nil {
			return err
		}
		fnt, err = fromSheet(sheet, "sheet")
	default:
		fnt = font.FromFace(font.BuiltinName, basicfont.Face7x13)
	}

	if err != nil {
		return err
	}

	if *preview != "" {
		if err = gg.SavePNG(*preview, sheetFromFont(fnt)); err != nil {
			return err
		}
	}

	return writeOutput(*output, fnt)
}

func main() {
	if err := runTool(); err != nil {
		exit(err)
	}
}
