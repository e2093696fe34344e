package wlclient

/*
#include "wlclient.h"
*/
import "C"

import (
	"runtime/cgo"

	"github.com/matjam/wlpaper/internal/compositor"
)

// wl_output.transform values that rotate by a quarter turn
const (
	transform90         = 1
	transform270        = 3
	transformFlipped90  = 5
	transformFlipped270 = 7
)

// output accumulates wl_output events until done, then reports the
// change to the session.
type output struct {
	session *Session
	id      uint32
	proxy   *C.struct_wl_output
	handle  cgo.Handle

	modeWidth  int
	modeHeight int
	transform  int
	scale      int
	name       string

	announced bool
	last      compositor.OutputInfo
}

func newOutput(s *Session, id uint32, proxy *C.struct_wl_output) *output {
	o := &output{session: s, id: id, proxy: proxy, scale: 1}
	o.handle = cgo.NewHandle(o)
	C.wlp_output_add_listener(proxy, C.uintptr_t(o.handle))
	return o
}

func (o *output) info() compositor.OutputInfo {
	scale := max(o.scale, 1)
	w, h := logicalSize(o.modeWidth, o.modeHeight, scale, o.transform)
	return compositor.OutputInfo{
		ID:     o.id,
		Name:   o.name,
		Width:  w,
		Height: h,
		Scale:  scale,
	}
}

// logicalSize converts the current mode in device pixels to the size a
// surface covering the output has in surface coordinates.
func logicalSize(modeWidth, modeHeight, scale, transform int) (int, int) {
	scale = max(scale, 1)
	w, h := modeWidth/scale, modeHeight/scale
	switch transform {
	case transform90, transform270, transformFlipped90, transformFlipped270:
		w, h = h, w
	}
	return w, h
}

func (o *output) done() {
	info := o.info()
	switch {
	case !o.announced:
		o.announced = true
		o.session.emit(compositor.OutputAnnounced{Output: info})
	case info != o.last:
		o.session.emit(compositor.OutputUpdated{Output: info})
		if info.Scale != o.last.Scale {
			if surf := o.session.surfaceFor(o.id); surf != nil {
				o.session.emit(compositor.ScaleChanged{Surface: surf.id, Factor: info.Scale})
			}
		}
	}
	o.last = info
}

func (o *output) release() {
	if o.proxy != nil {
		C.wlp_output_release(o.proxy)
		o.proxy = nil
	}
	if o.handle != 0 {
		o.handle.Delete()
		o.handle = 0
	}
}
