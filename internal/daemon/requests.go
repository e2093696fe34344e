package daemon

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/matjam/wlpaper/internal/ipc"
	"github.com/matjam/wlpaper/internal/wallpaper"
)

var _ ipc.Handler = (*Daemon)(nil)

// HandleRequest answers one control request. It runs on the loop
// goroutine, so every draw it triggers completes before the next event.
func (d *Daemon) HandleRequest(req ipc.Request) ipc.Answer {
	switch req.Kind {
	case ipc.RequestInit:
		return ipc.Ok()

	case ipc.RequestQuery:
		return ipc.Info(d.query())

	case ipc.RequestClear:
		if req.Clear == nil {
			return ipc.Err("clear request without a body")
		}
		return d.clear(req.Clear)

	case ipc.RequestImg:
		if req.Img == nil {
			return ipc.Err("img request without a body")
		}
		return d.setImages(req.Img)

	case ipc.RequestAnimation:
		return ipc.Err("Not implemented")

	case ipc.RequestKill:
		log.Info("kill requested")
		d.shutdown.Request()
		return ipc.Ok()

	default:
		return ipc.Err("unknown request %q", req.Kind)
	}
}

func (d *Daemon) query() []ipc.BgInfo {
	info := make([]ipc.BgInfo, 0, len(d.wallpapers))
	for _, wp := range d.wallpapers {
		w, h, scale := wp.Size()
		name := wp.Name
		if name == "" {
			name = "?"
		}
		info = append(info, ipc.BgInfo{
			Name:        name,
			Width:       w,
			Height:      h,
			ScaleFactor: scale,
			Img:         wp.Img(),
		})
	}
	return info
}

func (d *Daemon) clear(req *ipc.ClearRequest) ipc.Answer {
	for _, id := range d.Resolve(req.Outputs) {
		wp := d.byOutput(id)
		wp.Clear(req.Color)
		if err := d.draw(wp); err != nil {
			return ipc.Err("%v", err)
		}
	}
	return ipc.Ok()
}

type imgTarget struct {
	wp  *wallpaper.Wallpaper
	img ipc.Img
}

func (d *Daemon) setImages(req *ipc.ImgRequest) ipc.Answer {
	if req.Transition.Type != "" {
		log.Debugf("transition %s requested (step %d, %d fps)", req.Transition.Type, req.Transition.Step, req.Transition.FPS)
	}

	// every size is checked before any buffer is written
	var targets []imgTarget
	for _, t := range req.Imgs {
		for _, id := range d.Resolve(t.Outputs) {
			wp := d.byOutput(id)
			if want := wp.BufferLen(); len(t.Img.Img) != want {
				return ipc.Err("image %s is %d bytes but output %s needs %d", t.Img.Path, len(t.Img.Img), wp.Name, want)
			}
			targets = append(targets, imgTarget{wp: wp, img: t.Img})
		}
	}

	for _, t := range targets {
		if err := t.wp.SetImage(t.img.Img, t.img.Path); err != nil {
			return ipc.Err("%v", err)
		}
		if err := d.draw(t.wp); err != nil {
			return ipc.Err("%v", err)
		}
	}
	return ipc.Ok()
}

func (d *Daemon) draw(wp *wallpaper.Wallpaper) error {
	if err := wp.Draw(d.pipeline); err != nil {
		d.fatal = fmt.Errorf("draw failed: %w", err)
		return d.fatal
	}
	return nil
}
