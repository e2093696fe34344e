package wlclient

/*
#include "wlclient.h"
*/
import "C"

import (
	"errors"
	"fmt"
)

var ErrEGL = errors.New("EGL error")

// eglContext is the one OpenGL 3.3 core context shared by all surfaces.
type eglContext struct {
	display C.EGLDisplay
	config  C.EGLConfig
	context C.EGLContext
}

func eglError(op string) error {
	return fmt.Errorf("%w: %s failed (0x%04x)", ErrEGL, op, int(C.eglGetError()))
}

// newEGLContext creates the context and makes it current without a
// surface, so GL can be loaded before any output is configured.
func newEGLContext(dpy *C.struct_wl_display) (*eglContext, error) {
	display := C.wlp_egl_get_display(dpy)
	if display == 0 {
		return nil, eglError("eglGetDisplay")
	}
	if C.eglInitialize(display, nil, nil) == C.EGL_FALSE {
		return nil, eglError("eglInitialize")
	}
	if C.eglBindAPI(C.EGL_OPENGL_API) == C.EGL_FALSE {
		C.eglTerminate(display)
		return nil, eglError("eglBindAPI")
	}

	var config C.EGLConfig
	var numConfigs C.EGLint
	attribs := []C.EGLint{
		C.EGL_SURFACE_TYPE, C.EGL_WINDOW_BIT,
		C.EGL_RED_SIZE, 8,
		C.EGL_GREEN_SIZE, 8,
		C.EGL_BLUE_SIZE, 8,
		C.EGL_RENDERABLE_TYPE, C.EGL_OPENGL_BIT,
		C.EGL_NONE,
	}
	if C.eglChooseConfig(display, &attribs[0], &config, 1, &numConfigs) == C.EGL_FALSE || numConfigs == 0 {
		C.eglTerminate(display)
		return nil, eglError("eglChooseConfig")
	}

	ctxAttribs := []C.EGLint{
		C.EGL_CONTEXT_MAJOR_VERSION, 3,
		C.EGL_CONTEXT_MINOR_VERSION, 3,
		C.EGL_CONTEXT_OPENGL_PROFILE_MASK, C.EGL_CONTEXT_OPENGL_CORE_PROFILE_BIT,
		C.EGL_NONE,
	}
	context := C.eglCreateContext(display, config, nil, &ctxAttribs[0])
	if context == nil {
		C.eglTerminate(display)
		return nil, eglError("eglCreateContext")
	}

	e := &eglContext{display: display, config: config, context: context}
	if err := e.release(); err != nil {
		e.terminate()
		return nil, err
	}
	return e, nil
}

func (e *eglContext) createSurface(window *C.struct_wl_egl_window) (C.EGLSurface, error) {
	surf := C.wlp_egl_create_window_surface(e.display, e.config, window)
	if surf == nil {
		return nil, eglError("eglCreateWindowSurface")
	}
	return surf, nil
}

func (e *eglContext) makeCurrent(surf C.EGLSurface) error {
	if C.eglMakeCurrent(e.display, surf, surf, e.context) == C.EGL_FALSE {
		return eglError("eglMakeCurrent")
	}
	return nil
}

// release keeps the context current with no draw surface.
func (e *eglContext) release() error {
	return e.makeCurrent(nil)
}

func (e *eglContext) swap(surf C.EGLSurface) error {
	if C.eglSwapBuffers(e.display, surf) == C.EGL_FALSE {
		return eglError("eglSwapBuffers")
	}
	return nil
}

func (e *eglContext) destroySurface(surf C.EGLSurface) {
	C.eglDestroySurface(e.display, surf)
}

func (e *eglContext) terminate() {
	C.eglMakeCurrent(e.display, nil, nil, nil)
	if e.context != nil {
		C.eglDestroyContext(e.display, e.context)
		e.context = nil
	}
	C.eglTerminate(e.display)
}
