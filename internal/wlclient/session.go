// Package wlclient is the libwayland-client implementation of
// compositor.Session: one background layer surface per output, drawn
// through a single surfaceless EGL context.
package wlclient

/*
#cgo LDFLAGS: -lwayland-client -lwayland-egl -lEGL
#include "wlclient.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/cgo"
	"syscall"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/matjam/wlpaper/internal/compositor"
)

var (
	ErrConnect       = errors.New("failed to connect to Wayland display")
	ErrNoCompositor  = errors.New("compositor does not advertise wl_compositor")
	ErrNoLayerShell  = errors.New("compositor does not support zwlr_layer_shell_v1")
	ErrUnknownOutput = errors.New("unknown output")
)

// Session is a connection to the compositor. It is not safe for
// concurrent use and must stay on the OS thread that created it.
type Session struct {
	display    *C.struct_wl_display
	registry   *C.struct_wl_registry
	compositor *C.struct_wl_compositor
	layerShell *C.struct_zwlr_layer_shell_v1
	handle     cgo.Handle

	// protocol version negotiated when binding wl_compositor
	compositorVersion int

	namespace string
	egl       *eglContext

	outputs     []*output
	surfaces    []*Surface
	nextSurface compositor.SurfaceID

	events []compositor.Event
}

var _ compositor.Session = (*Session)(nil)

// Connect opens the display named by WAYLAND_DISPLAY, binds the globals
// the daemon needs and creates the shared rendering context. Outputs
// present at startup are reported as OutputAnnounced events.
func Connect(namespace string) (*Session, error) {
	// EGL contexts are bound to the calling OS thread
	runtime.LockOSThread()

	s := &Session{namespace: namespace}

	s.display = C.wl_display_connect(nil)
	if s.display == nil {
		return nil, ErrConnect
	}

	s.registry = C.wl_display_get_registry(s.display)
	if s.registry == nil {
		s.Close()
		return nil, fmt.Errorf("failed to get Wayland registry")
	}
	s.handle = cgo.NewHandle(s)
	C.wlp_registry_add_listener(s.registry, C.uintptr_t(s.handle))

	// first roundtrip binds globals, second collects output descriptions
	for i := 0; i < 2; i++ {
		if C.wl_display_roundtrip(s.display) < 0 {
			s.Close()
			return nil, fmt.Errorf("initial roundtrip failed: %w", s.displayError())
		}
	}

	if s.compositor == nil {
		s.Close()
		return nil, ErrNoCompositor
	}
	if s.layerShell == nil {
		s.Close()
		return nil, ErrNoLayerShell
	}

	egl, err := newEGLContext(s.display)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.egl = egl

	log.Debugf("connected to Wayland display, %d outputs", len(s.outputs))
	return s, nil
}

func (s *Session) Fd() int {
	return int(C.wl_display_get_fd(s.display))
}

func (s *Session) Flush() error {
	ret, err := C.wl_display_flush(s.display)
	if ret < 0 {
		// a full socket buffer is retried on the next iteration
		if errors.Is(err, syscall.EAGAIN) {
			return nil
		}
		return fmt.Errorf("wl_display_flush failed: %w", err)
	}
	return nil
}

func (s *Session) DispatchPending() error {
	if C.wl_display_dispatch_pending(s.display) < 0 {
		return fmt.Errorf("wl_display_dispatch_pending failed: %w", s.displayError())
	}
	return nil
}

func (s *Session) PrepareRead() (bool, error) {
	if len(s.events) > 0 {
		return false, nil
	}
	if C.wl_display_prepare_read(s.display) != 0 {
		// another reader (EGL swaps) already queued events for us
		return false, s.DispatchPending()
	}
	return true, nil
}

func (s *Session) ReadEvents() error {
	if ret, err := C.wl_display_read_events(s.display); ret < 0 {
		return fmt.Errorf("wl_display_read_events failed: %w", err)
	}
	return nil
}

func (s *Session) CancelRead() {
	C.wl_display_cancel_read(s.display)
}

func (s *Session) Events() []compositor.Event {
	ev := s.events
	s.events = nil
	return ev
}

func (s *Session) emit(e compositor.Event) {
	log.Debugf("compositor event: %s", e)
	s.events = append(s.events, e)
}

func (s *Session) displayError() error {
	code := C.wl_display_get_error(s.display)
	if code == 0 {
		return errors.New("unknown protocol error")
	}
	return syscall.Errno(code)
}

// GetProcAddress resolves GL entry points for the shared context.
func (s *Session) GetProcAddress(name string) unsafe.Pointer {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return C.wlp_egl_get_proc_address(cname)
}

func (s *Session) findOutput(id uint32) *output {
	for _, o := range s.outputs {
		if o.id == id {
			return o
		}
	}
	return nil
}

func (s *Session) surfaceFor(outputID uint32) *Surface {
	for _, surf := range s.surfaces {
		if surf.outputID == outputID {
			return surf
		}
	}
	return nil
}

func (s *Session) removeSurface(surf *Surface) {
	for i, x := range s.surfaces {
		if x == surf {
			s.surfaces = append(s.surfaces[:i], s.surfaces[i+1:]...)
			return
		}
	}
}

// Close releases every surface, output and global and disconnects.
func (s *Session) Close() {
	for len(s.surfaces) > 0 {
		s.surfaces[0].Destroy()
	}
	for _, o := range s.outputs {
		o.release()
	}
	s.outputs = nil

	if s.egl != nil {
		s.egl.terminate()
		s.egl = nil
	}
	if s.layerShell != nil {
		C.zwlr_layer_shell_v1_destroy(s.layerShell)
		s.layerShell = nil
	}
	if s.compositor != nil {
		C.wl_compositor_destroy(s.compositor)
		s.compositor = nil
	}
	if s.registry != nil {
		C.wl_registry_destroy(s.registry)
		s.registry = nil
	}
	if s.display != nil {
		C.wl_display_flush(s.display)
		C.wl_display_disconnect(s.display)
		s.display = nil
	}
	if s.handle != 0 {
		s.handle.Delete()
		s.handle = 0
	}
}
