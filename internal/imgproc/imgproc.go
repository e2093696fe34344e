// Package imgproc turns image files into packed RGB buffers sized for an
// output, the form the daemon accepts.
package imgproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/matjam/wlpaper/internal/ipc"
	"github.com/matjam/wlpaper/internal/types"
)

type Options struct {
	Filter types.ResizeFilter
	// NoResize centers the image at its own size and pads with FillColor.
	NoResize  bool
	FillColor types.Color
}

// Source is a decoded image file. Raw is kept so animated GIFs can be
// decoded again frame by frame.
type Source struct {
	Path   string
	Format string
	Image  image.Image
	Raw    []byte
}

func (s *Source) Animated() bool {
	return s.Format == "gif"
}

// Read decodes the file at path, or stdin when path is "-".
func Read(path string) (*Source, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return &Source{Path: path, Format: format, Image: img, Raw: raw}, nil
}

func scaler(f types.ResizeFilter) draw.Scaler {
	switch f {
	case types.FilterNearest:
		return draw.NearestNeighbor
	case types.FilterBilinear:
		return draw.BiLinear
	default:
		return draw.CatmullRom
	}
}

// Process renders img into a width x height packed RGB buffer.
func Process(img image.Image, width, height int, opts Options) []byte {
	if opts.NoResize {
		return Pad(img, width, height, opts.FillColor)
	}
	return Resize(img, width, height, opts.Filter)
}

// Resize scales img to cover width x height, cropping the overflow
// evenly from both sides.
func Resize(img image.Image, width, height int, filter types.ResizeFilter) []byte {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	src := img.Bounds()
	if src.Dx() == width && src.Dy() == height {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
		return Pack(dst)
	}
	scaler(filter).Scale(dst, dst.Bounds(), img, coverCrop(src, width, height), draw.Src, nil)
	return Pack(dst)
}

// coverCrop returns the centered part of src with the aspect ratio of
// width x height.
func coverCrop(src image.Rectangle, width, height int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	// compare sw/sh with width/height without floats
	if sw*height > sh*width {
		cw := sh * width / height
		x := src.Min.X + (sw-cw)/2
		return image.Rect(x, src.Min.Y, x+cw, src.Max.Y)
	}
	ch := sw * height / width
	y := src.Min.Y + (sh-ch)/2
	return image.Rect(src.Min.X, y, src.Max.X, y+ch)
}

// Pad centers img on a width x height canvas of fill. Parts of img that
// do not fit are cut off.
func Pad(img image.Image, width, height int, fill types.Color) []byte {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := color.RGBA{R: fill[0], G: fill[1], B: fill[2], A: 0xff}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	src := img.Bounds()
	x := (width - src.Dx()) / 2
	y := (height - src.Dy()) / 2
	r := image.Rect(x, y, x+src.Dx(), y+src.Dy())
	draw.Draw(dst, r, img, src.Min, draw.Over)
	return Pack(dst)
}

// Pack drops alpha and returns tightly packed RGB rows.
func Pack(img *image.RGBA) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			out = append(out, row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return out
}

// Frames decodes every frame of an animated GIF, composited in order,
// and processes each for a width x height output.
func Frames(raw []byte, width, height int, opts Options) ([]ipc.Frame, error) {
	g, err := gif.DecodeAll(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode gif frames: %w", err)
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() && len(g.Image) > 0 {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)

	frames := make([]ipc.Frame, 0, len(g.Image))
	for i, fr := range g.Image {
		var restore *image.RGBA
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalPrevious {
			restore = image.NewRGBA(bounds)
			copy(restore.Pix, canvas.Pix)
		}

		draw.Draw(canvas, fr.Bounds(), fr, fr.Bounds().Min, draw.Over)

		var delay int
		if i < len(g.Delay) {
			delay = g.Delay[i]
		}
		frames = append(frames, ipc.Frame{
			Img:     Process(canvas, width, height, opts),
			DelayMs: uint32(delay) * 10,
		})

		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				draw.Draw(canvas, fr.Bounds(), image.Transparent, image.Point{}, draw.Src)
			case gif.DisposalPrevious:
				canvas = restore
			}
		}
	}
	return frames, nil
}
