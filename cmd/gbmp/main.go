// Command gbmp encodes and decodes BMP images from the command line.
//
// Usage:
//
//	gbmp enc [options] <input>       PNG/JPEG → BMP (use "-" for stdin)
//	gbmp dec [options] <input.bmp>   BMP → PNG/JPEG (use "-" for stdin, -o - for stdout)
//	gbmp info <input.bmp>            Display BMP header information
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepteams/bmp"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "enc":
		err = runEnc(os.Args[2:])
	case "dec":
		err = runDec(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "gbmp: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "gbmp: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  gbmp enc [options] <input>       Encode PNG/JPEG to BMP
  gbmp dec [options] <input.bmp>   Decode BMP to PNG or JPEG
  gbmp info <input.bmp>            Display BMP header information

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "gbmp <command> -h" for command-specific options.
`)
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned wrapped so that Close leaves it open.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// --- enc ---

func runEnc(args []string) error {
	fs := flag.NewFlagSet("enc", flag.ContinueOnError)
	bpp := fs.Int("bpp", 0, "bits per pixel: 1/4/8/16/24/32 (0=auto)")
	compression := fs.String("c", "none", "compression: none/rle4/rle8/bitfields/alphabitfields")
	headerType := fs.String("header", "info", "DIB header version: info/v4/v5")
	topDown := fs.Bool("topdown", false, "store rows top-down")
	output := fs.String("o", "", `output path (default: <input>.bmp, "-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("enc: missing input file\nUsage: gbmp enc [options] <input>")
	}
	inputPath := fs.Arg(0)

	opts := bmp.DefaultEncoderOptions()
	opts.BitsPerPixel = *bpp
	opts.TopDown = *topDown

	switch strings.ToLower(*compression) {
	case "none":
		opts.Compression = bmp.BiRGB
	case "rle4":
		opts.Compression = bmp.BiRLE4
	case "rle8":
		opts.Compression = bmp.BiRLE8
	case "bitfields":
		opts.Compression = bmp.BiBitfields
	case "alphabitfields":
		opts.Compression = bmp.BiAlphaBitfields
	default:
		return fmt.Errorf("enc: unknown compression %q", *compression)
	}
	switch strings.ToLower(*headerType) {
	case "info":
		opts.HeaderType = bmp.HeaderInfo
	case "v4":
		opts.HeaderType = bmp.HeaderV4
	case "v5":
		opts.HeaderType = bmp.HeaderV5
	default:
		return fmt.Errorf("enc: unknown header type %q", *headerType)
	}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("enc: decoding input: %w", err)
	}

	if *output == "-" {
		return bmp.Encode(os.Stdout, img, opts)
	}

	outputPath := *output
	if outputPath == "" {
		if inputPath == "-" {
			outputPath = "output.bmp"
		} else {
			base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
			outputPath = base + ".bmp"
		}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := bmp.Encode(out, img, opts); err != nil {
		out.Close()
		os.Remove(outputPath)
		return fmt.Errorf("enc: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return err
	}

	fi, _ := os.Stat(outputPath)
	fmt.Fprintf(os.Stderr, "Encoded %s → %s (%d bytes)\n", inputPath, outputPath, fi.Size())
	return nil
}

// --- dec ---

func runDec(args []string) error {
	fs := flag.NewFlagSet("dec", flag.ContinueOnError)
	output := fs.String("o", "", `output path (default: .png, "-" for stdout)`)
	fmtFlag := fs.String("fmt", "", "output format: png, jpeg (auto-detect from extension if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("dec: missing input file\nUsage: gbmp dec [options] <input.bmp>")
	}
	inputPath := fs.Arg(0)

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("dec: reading input: %w", err)
	}

	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}

	outFmt := detectOutputFormat(*fmtFlag, *output)

	if *output == "-" {
		return encodeImage(os.Stdout, img, outFmt)
	}

	outputPath := *output
	if outputPath == "" {
		ext := ".png"
		if outFmt == "jpeg" {
			ext = ".jpg"
		}
		if inputPath == "-" {
			outputPath = "output" + ext
		} else {
			base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
			outputPath = base + ext
		}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := encodeImage(out, img, outFmt); err != nil {
		out.Close()
		os.Remove(outputPath)
		return fmt.Errorf("dec: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return err
	}

	fmt.Fprintf(os.Stderr, "Decoded %s → %s\n", inputPath, outputPath)
	return nil
}

// detectOutputFormat returns "png" or "jpeg" based on flag/extension.
func detectOutputFormat(fmtFlag, outputPath string) string {
	if fmtFlag != "" {
		return strings.ToLower(fmtFlag)
	}
	if outputPath != "" && outputPath != "-" {
		switch strings.ToLower(filepath.Ext(outputPath)) {
		case ".jpg", ".jpeg":
			return "jpeg"
		}
	}
	return "png"
}

// encodeImage writes img in the specified format to w.
func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "jpeg", "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	default:
		return png.Encode(w, img)
	}
}

// --- info ---

func runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: gbmp info <input.bmp>")
	}
	inputPath := args[0]

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("info: reading input: %w", err)
	}

	feat, err := bmp.GetFeatures(data)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	name := inputPath
	if inputPath == "-" {
		name = "<stdin>"
	}

	fmt.Printf("File:        %s\n", name)
	fmt.Printf("Dimensions:  %d x %d\n", feat.Width, feat.Height)
	fmt.Printf("Bits/pixel:  %d\n", feat.BitsPerPixel)
	fmt.Printf("Compression: %s\n", compressionName(feat.Compression, feat.BitsPerPixel))
	fmt.Printf("DIB header:  %d bytes\n", feat.HeaderSize)
	fmt.Printf("Row order:   %s\n", rowOrder(feat.TopDown))
	if feat.PaletteSize > 0 {
		fmt.Printf("Palette:     %d entries\n", feat.PaletteSize)
	}
	if feat.HasAlphaMask {
		fmt.Printf("Alpha mask:  present\n")
	}
	fmt.Printf("File size:   %d bytes\n", len(data))
	return nil
}

func rowOrder(topDown bool) string {
	if topDown {
		return "top-down"
	}
	return "bottom-up"
}

func compressionName(c bmp.Compression, bpp int) string {
	switch c {
	case bmp.BiRGB:
		return "none (BI_RGB)"
	case bmp.BiRLE8:
		return "RLE8"
	case bmp.BiRLE4:
		return "RLE4"
	case bmp.BiBitfields:
		if bpp == 1 {
			return "Modified Huffman (OS/2)"
		}
		return "BITFIELDS"
	case bmp.BiJPEG:
		if bpp == 24 {
			return "RLE24 (OS/2)"
		}
		return "embedded JPEG"
	case bmp.BiPNG:
		return "embedded PNG"
	case bmp.BiAlphaBitfields:
		return "ALPHABITFIELDS"
	}
	return fmt.Sprintf("unknown (%d)", uint32(c))
}
