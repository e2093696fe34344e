// Package daemon ties the compositor session, the per-output wallpapers
// and the control channel together on a single goroutine.
package daemon

import (
	"slices"

	"github.com/charmbracelet/log"
	"github.com/matjam/wlpaper/internal/compositor"
	"github.com/matjam/wlpaper/internal/wallpaper"
)

const (
	DefaultWidth  = 256
	DefaultHeight = 256
)

type Config struct {
	// Fallback logical size for outputs without a known mode and for
	// configure events that leave the size to the client.
	DefaultWidth  int
	DefaultHeight int
}

// Daemon owns one Wallpaper per live output. It is driven entirely from
// the loop goroutine.
type Daemon struct {
	session    compositor.Session
	pipeline   wallpaper.Pipeline
	shutdown   *Shutdown
	wallpapers []*wallpaper.Wallpaper

	defaultWidth  int
	defaultHeight int

	// fatal is set when a draw inside a request fails; the loop stops
	// after the answer is written.
	fatal error
}

func New(session compositor.Session, pipeline wallpaper.Pipeline, shutdown *Shutdown, cfg Config) *Daemon {
	d := &Daemon{
		session:       session,
		pipeline:      pipeline,
		shutdown:      shutdown,
		defaultWidth:  cfg.DefaultWidth,
		defaultHeight: cfg.DefaultHeight,
	}
	if d.defaultWidth <= 0 || d.defaultHeight <= 0 {
		d.defaultWidth, d.defaultHeight = DefaultWidth, DefaultHeight
	}
	return d
}

// Wallpapers returns the live wallpapers in creation order.
func (d *Daemon) Wallpapers() []*wallpaper.Wallpaper {
	return d.wallpapers
}

// Err reports a fatal error recorded while answering a request.
func (d *Daemon) Err() error {
	return d.fatal
}

func (d *Daemon) byOutput(id uint32) *wallpaper.Wallpaper {
	for _, wp := range d.wallpapers {
		if wp.OutputID == id {
			return wp
		}
	}
	return nil
}

func (d *Daemon) bySurface(id compositor.SurfaceID) *wallpaper.Wallpaper {
	for _, wp := range d.wallpapers {
		if wp.Surface() == id {
			return wp
		}
	}
	return nil
}

func (d *Daemon) remove(wp *wallpaper.Wallpaper) {
	d.wallpapers = slices.DeleteFunc(d.wallpapers, func(x *wallpaper.Wallpaper) bool { return x == wp })
	wp.Destroy()
}

// Resolve maps an output name filter to output ids. An empty filter
// selects every output; unknown names are skipped.
func (d *Daemon) Resolve(names []string) []uint32 {
	ids := make([]uint32, 0, len(d.wallpapers))
	for _, wp := range d.wallpapers {
		if len(names) == 0 || slices.Contains(names, wp.Name) {
			ids = append(ids, wp.OutputID)
		}
	}
	return ids
}

// ProcessEvents drains and handles everything the session decoded
// since the last call.
func (d *Daemon) ProcessEvents() error {
	for _, ev := range d.session.Events() {
		if err := d.HandleEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// HandleEvent applies one compositor event. Only draw failures are
// returned; everything else is logged.
func (d *Daemon) HandleEvent(ev compositor.Event) error {
	switch e := ev.(type) {
	case compositor.OutputAnnounced:
		d.outputAnnounced(e.Output)

	case compositor.OutputUpdated:
		d.outputUpdated(e.Output)

	case compositor.OutputWithdrawn:
		if wp := d.byOutput(e.ID); wp != nil {
			log.Infof("output %s removed", wp.Name)
			d.remove(wp)
		}

	case compositor.SurfaceClosed:
		if wp := d.bySurface(e.Surface); wp != nil {
			log.Infof("surface for output %s closed by compositor", wp.Name)
			d.remove(wp)
		}

	case compositor.Configure:
		wp := d.bySurface(e.Surface)
		if wp == nil {
			return nil
		}
		width, height := e.Width, e.Height
		if width <= 0 || height <= 0 {
			width, height = d.defaultWidth, d.defaultHeight
		}
		if w, h, scale := wp.Size(); w != width || h != height {
			wp.Resize(width, height, scale)
		}
		return wp.Draw(d.pipeline)

	case compositor.ScaleChanged:
		wp := d.bySurface(e.Surface)
		if wp == nil {
			return nil
		}
		if w, h, scale := wp.Size(); scale != e.Factor {
			wp.Resize(w, h, e.Factor)
		}
		return wp.Draw(d.pipeline)

	case compositor.FrameReady:
		if wp := d.bySurface(e.Surface); wp != nil {
			return wp.Draw(d.pipeline)
		}

	default:
		log.Warnf("unhandled compositor event %T", ev)
	}
	return nil
}

func (d *Daemon) outputAnnounced(out compositor.OutputInfo) {
	if wp := d.byOutput(out.ID); wp != nil {
		log.Warnf("output %d announced twice; keeping the existing surface", out.ID)
		return
	}

	width, height := out.Width, out.Height
	if !out.HasSize() {
		width, height = d.defaultWidth, d.defaultHeight
	}

	drawable, err := d.session.CreateDrawable(out, width, height)
	if err != nil {
		log.Errorf("failed to create surface for output %s: %v", out.Name, err)
		return
	}
	d.wallpapers = append(d.wallpapers, wallpaper.New(out, drawable, width, height))
	log.Infof("output %s added: %dx%d, scale %d", out.Name, width, height, max(out.Scale, 1))
}

func (d *Daemon) outputUpdated(out compositor.OutputInfo) {
	if !out.HasSize() {
		log.Debugf("ignoring update with invalid size for output %d", out.ID)
		return
	}
	wp := d.byOutput(out.ID)
	if wp == nil {
		return
	}
	wp.Name = out.Name

	scale := max(out.Scale, 1)
	if w, h, s := wp.Size(); w == out.Width && h == out.Height && s == scale {
		return
	}
	log.Infof("output %s changed: %dx%d, scale %d", out.Name, out.Width, out.Height, scale)
	wp.Resize(out.Width, out.Height, scale)
	wp.Drawable().RequestFrame()
}
