package wlclient

/*
#include "wlclient.h"
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/matjam/wlpaper/internal/compositor"
)

// Surface is a background layer surface on one output with its EGL
// window surface.
type Surface struct {
	session  *Session
	id       compositor.SurfaceID
	outputID uint32
	handle   cgo.Handle

	surface    *C.struct_wl_surface
	layer      *C.struct_zwlr_layer_surface_v1
	window     *C.struct_wl_egl_window
	eglSurface C.EGLSurface
	frame      *C.struct_wl_callback

	width  int
	height int
	scale  int

	// logical size last sent with set_size
	layerWidth  int
	layerHeight int

	swapIntervalSet bool
}

var _ compositor.Drawable = (*Surface)(nil)

func (s *Session) CreateDrawable(out compositor.OutputInfo, width, height int) (compositor.Drawable, error) {
	o := s.findOutput(out.ID)
	if o == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOutput, out.ID)
	}
	scale := max(out.Scale, 1)

	s.nextSurface++
	surf := &Surface{
		session:  s,
		id:       s.nextSurface,
		outputID: out.ID,
		scale:    scale,
	}

	surf.surface = C.wl_compositor_create_surface(s.compositor)
	if surf.surface == nil {
		return nil, fmt.Errorf("failed to create wl_surface for output %s", out.Name)
	}

	// an empty input region lets pointer events fall through to the
	// compositor, which shows its default cursor
	region := C.wl_compositor_create_region(s.compositor)
	C.wl_surface_set_input_region(surf.surface, region)
	C.wl_region_destroy(region)

	namespace := C.CString(s.namespace)
	defer C.free(unsafe.Pointer(namespace))

	surf.layer = C.zwlr_layer_shell_v1_get_layer_surface(s.layerShell, surf.surface, o.proxy,
		C.ZWLR_LAYER_SHELL_V1_LAYER_BACKGROUND, namespace)
	if surf.layer == nil {
		C.wl_surface_destroy(surf.surface)
		return nil, fmt.Errorf("failed to create layer surface for output %s", out.Name)
	}

	surf.handle = cgo.NewHandle(surf)
	C.wlp_layer_surface_add_listener(surf.layer, C.uintptr_t(surf.handle))

	C.zwlr_layer_surface_v1_set_size(surf.layer, C.uint32_t(width), C.uint32_t(height))
	surf.layerWidth, surf.layerHeight = width, height
	C.zwlr_layer_surface_v1_set_anchor(surf.layer,
		C.ZWLR_LAYER_SURFACE_V1_ANCHOR_TOP|
			C.ZWLR_LAYER_SURFACE_V1_ANCHOR_BOTTOM|
			C.ZWLR_LAYER_SURFACE_V1_ANCHOR_LEFT|
			C.ZWLR_LAYER_SURFACE_V1_ANCHOR_RIGHT)
	C.zwlr_layer_surface_v1_set_exclusive_zone(surf.layer, -1)
	C.zwlr_layer_surface_v1_set_keyboard_interactivity(surf.layer,
		C.ZWLR_LAYER_SURFACE_V1_KEYBOARD_INTERACTIVITY_NONE)
	surf.setBufferScale(scale)

	// the initial commit without a buffer asks for the first configure
	C.wl_surface_commit(surf.surface)

	surf.width, surf.height = width*scale, height*scale
	surf.window = C.wl_egl_window_create(surf.surface, C.int(surf.width), C.int(surf.height))
	if surf.window == nil {
		surf.Destroy()
		return nil, fmt.Errorf("failed to create wl_egl_window for output %s", out.Name)
	}

	eglSurface, err := s.egl.createSurface(surf.window)
	if err != nil {
		surf.Destroy()
		return nil, err
	}
	surf.eglSurface = eglSurface

	s.surfaces = append(s.surfaces, surf)
	log.Debugf("created surface %d on output %s (%dx%d@%d)", surf.id, out.Name, width, height, scale)
	return surf, nil
}

func (surf *Surface) ID() compositor.SurfaceID {
	return surf.id
}

func (surf *Surface) setBufferScale(scale int) {
	// wl_surface.set_buffer_scale needs wl_compositor v3
	if surf.session.compositorVersion >= 3 {
		C.wl_surface_set_buffer_scale(surf.surface, C.int32_t(scale))
	}
}

func (surf *Surface) Resize(width, height, scale int) {
	if scale != surf.scale {
		surf.scale = scale
		surf.setBufferScale(scale)
	}
	surf.width, surf.height = width, height
	if surf.window != nil {
		C.wl_egl_window_resize(surf.window, C.int(width), C.int(height), 0, 0)
	}

	// applied by the next commit, from the swap or the frame request
	if w, h, ok := layerSize(width, height, scale, surf.layerWidth, surf.layerHeight); ok {
		C.zwlr_layer_surface_v1_set_size(surf.layer, C.uint32_t(w), C.uint32_t(h))
		surf.layerWidth, surf.layerHeight = w, h
	}
}

// layerSize converts a buffer size to the logical size for set_size and
// reports whether it differs from the last one sent.
func layerSize(bufWidth, bufHeight, scale, prevWidth, prevHeight int) (width, height int, changed bool) {
	scale = max(scale, 1)
	width, height = bufWidth/scale, bufHeight/scale
	if width <= 0 || height <= 0 {
		return prevWidth, prevHeight, false
	}
	return width, height, width != prevWidth || height != prevHeight
}

func (surf *Surface) MakeCurrent() error {
	if err := surf.session.egl.makeCurrent(surf.eglSurface); err != nil {
		return err
	}
	if !surf.swapIntervalSet {
		// presentation is paced by frame callbacks, never by a blocking swap
		C.eglSwapInterval(surf.session.egl.display, 0)
		surf.swapIntervalSet = true
	}
	return nil
}

func (surf *Surface) SwapBuffers() error {
	return surf.session.egl.swap(surf.eglSurface)
}

func (surf *Surface) RequestFrame() {
	if surf.frame != nil {
		return
	}
	surf.frame = C.wlp_surface_frame(surf.surface, C.uintptr_t(surf.handle))
	C.wl_surface_commit(surf.surface)
}

func (surf *Surface) Destroy() {
	s := surf.session
	s.removeSurface(surf)

	if surf.frame != nil {
		C.wl_callback_destroy(surf.frame)
		surf.frame = nil
	}
	if surf.eglSurface != nil {
		if err := s.egl.release(); err != nil {
			log.Warnf("failed to release context from surface %d: %v", surf.id, err)
		}
		s.egl.destroySurface(surf.eglSurface)
		surf.eglSurface = nil
	}
	if surf.window != nil {
		C.wl_egl_window_destroy(surf.window)
		surf.window = nil
	}
	if surf.layer != nil {
		C.zwlr_layer_surface_v1_destroy(surf.layer)
		surf.layer = nil
	}
	if surf.surface != nil {
		C.wl_surface_destroy(surf.surface)
		surf.surface = nil
	}
	if surf.handle != 0 {
		surf.handle.Delete()
		surf.handle = 0
	}
	log.Debugf("destroyed surface %d", surf.id)
}
