package wallpaper

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/matjam/wlpaper/internal/compositor"
	"github.com/matjam/wlpaper/internal/ipc"
	"github.com/matjam/wlpaper/internal/types"
)

// Pipeline uploads a packed RGB buffer and draws it over the currently
// bound target. len(rgb) must be width*height*3.
type Pipeline interface {
	Draw(width, height int, rgb []byte)
}

// Wallpaper is the per-output state: the pixel buffer, what it shows,
// and the drawable it is presented on.
type Wallpaper struct {
	OutputID uint32
	Name     string

	width  int
	height int
	scale  int

	buf      *Buffer
	img      ipc.BgImg
	drawable compositor.Drawable
}

// New creates a black wallpaper of width x height logical pixels at the
// given scale and sizes the drawable to match.
func New(output compositor.OutputInfo, drawable compositor.Drawable, width, height int) *Wallpaper {
	scale := max(output.Scale, 1)
	w := &Wallpaper{
		OutputID: output.ID,
		Name:     output.Name,
		width:    width,
		height:   height,
		scale:    scale,
		buf:      NewBuffer(bufferLen(width, height, scale)),
		img:      ipc.ColorImg(types.Black),
		drawable: drawable,
	}
	drawable.Resize(width*scale, height*scale, scale)
	return w
}

func bufferLen(width, height, scale int) int {
	return width * height * scale * scale * 3
}

func (w *Wallpaper) Surface() compositor.SurfaceID {
	return w.drawable.ID()
}

func (w *Wallpaper) Drawable() compositor.Drawable {
	return w.drawable
}

// Size returns the logical size and the scale factor.
func (w *Wallpaper) Size() (width, height, scale int) {
	return w.width, w.height, w.scale
}

// BufferLen is the byte length SetImage expects.
func (w *Wallpaper) BufferLen() int {
	return w.buf.Len()
}

func (w *Wallpaper) Img() ipc.BgImg {
	return w.img
}

// Buffer exposes the pixel buffer to frame producers.
func (w *Wallpaper) Buffer() *Buffer {
	return w.buf
}

func (w *Wallpaper) Clear(c types.Color) {
	w.buf.Fill(c)
	w.img = ipc.ColorImg(c)
}

func (w *Wallpaper) SetImage(img []byte, path string) error {
	if err := w.buf.CopyFrom(img); err != nil {
		return err
	}
	w.img = ipc.PathImg(path)
	return nil
}

// Resize reallocates the buffer for the new geometry. The previous
// contents are dropped and the wallpaper goes back to black.
func (w *Wallpaper) Resize(width, height, scale int) {
	scale = max(scale, 1)
	w.width = width
	w.height = height
	w.scale = scale
	w.buf.Reset(bufferLen(width, height, scale))
	w.img = ipc.ColorImg(types.Black)
	w.drawable.Resize(width*scale, height*scale, scale)
}

// Draw renders the buffer to the drawable and presents it. An error
// means the rendering context can no longer target this surface.
func (w *Wallpaper) Draw(p Pipeline) error {
	log.Debugf("drawing %s: %s", w.Name, w.img)

	if err := w.drawable.MakeCurrent(); err != nil {
		return fmt.Errorf("output %s: %w", w.Name, err)
	}
	w.buf.Read(func(pix []byte) {
		p.Draw(w.width*w.scale, w.height*w.scale, pix)
	})
	if err := w.drawable.SwapBuffers(); err != nil {
		return fmt.Errorf("output %s: %w", w.Name, err)
	}
	return nil
}

func (w *Wallpaper) Destroy() {
	w.drawable.Destroy()
}
