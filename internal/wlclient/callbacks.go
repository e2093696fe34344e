package wlclient

/*
#include "wlclient.h"
*/
import "C"

import (
	"runtime/cgo"

	"github.com/charmbracelet/log"
	"github.com/matjam/wlpaper/internal/compositor"
)

//export wlpRegistryGlobal
func wlpRegistryGlobal(handle C.uintptr_t, name C.uint32_t, iface *C.char, version C.uint32_t) {
	s := cgo.Handle(handle).Value().(*Session)

	switch C.GoString(iface) {
	case "wl_compositor":
		v := min(version, 4)
		s.compositor = (*C.struct_wl_compositor)(C.wlp_registry_bind(s.registry, name, &C.wl_compositor_interface, v))
		s.compositorVersion = int(v)
		log.Debugf("bound wl_compositor v%d", v)
	case "zwlr_layer_shell_v1":
		// layer-shell v1 is sufficient for a background layer
		s.layerShell = (*C.struct_zwlr_layer_shell_v1)(C.wlp_registry_bind(s.registry, name, &C.zwlr_layer_shell_v1_interface, 1))
		log.Debug("bound zwlr_layer_shell_v1")
	case "wl_output":
		// v4 adds the name event
		v := min(version, 4)
		proxy := (*C.struct_wl_output)(C.wlp_registry_bind(s.registry, name, &C.wl_output_interface, v))
		s.outputs = append(s.outputs, newOutput(s, uint32(name), proxy))
		log.Debugf("bound wl_output id=%d v%d", name, v)
	}
}

//export wlpRegistryGlobalRemove
func wlpRegistryGlobalRemove(handle C.uintptr_t, name C.uint32_t) {
	s := cgo.Handle(handle).Value().(*Session)

	id := uint32(name)
	for i, o := range s.outputs {
		if o.id != id {
			continue
		}
		s.outputs = append(s.outputs[:i], s.outputs[i+1:]...)
		if o.announced {
			s.emit(compositor.OutputWithdrawn{ID: id})
		}
		o.release()
		return
	}
	log.Debugf("global removed: name=%d", id)
}

//export wlpOutputGeometry
func wlpOutputGeometry(handle C.uintptr_t, transform C.int32_t) {
	o := cgo.Handle(handle).Value().(*output)
	o.transform = int(transform)
}

//export wlpOutputMode
func wlpOutputMode(handle C.uintptr_t, flags C.uint32_t, width, height C.int32_t) {
	if flags&C.WL_OUTPUT_MODE_CURRENT == 0 {
		return
	}
	o := cgo.Handle(handle).Value().(*output)
	o.modeWidth = int(width)
	o.modeHeight = int(height)
}

//export wlpOutputScale
func wlpOutputScale(handle C.uintptr_t, factor C.int32_t) {
	o := cgo.Handle(handle).Value().(*output)
	o.scale = max(int(factor), 1)
}

//export wlpOutputName
func wlpOutputName(handle C.uintptr_t, name *C.char) {
	o := cgo.Handle(handle).Value().(*output)
	o.name = C.GoString(name)
}

//export wlpOutputDone
func wlpOutputDone(handle C.uintptr_t) {
	o := cgo.Handle(handle).Value().(*output)
	o.done()
}

//export wlpLayerConfigure
func wlpLayerConfigure(handle C.uintptr_t, width, height C.uint32_t) {
	surf := cgo.Handle(handle).Value().(*Surface)
	surf.session.emit(compositor.Configure{Surface: surf.id, Width: int(width), Height: int(height)})
}

//export wlpLayerClosed
func wlpLayerClosed(handle C.uintptr_t) {
	surf := cgo.Handle(handle).Value().(*Surface)
	surf.session.emit(compositor.SurfaceClosed{Surface: surf.id})
}

//export wlpFrameDone
func wlpFrameDone(handle C.uintptr_t) {
	surf := cgo.Handle(handle).Value().(*Surface)
	surf.frame = nil
	surf.session.emit(compositor.FrameReady{Surface: surf.id})
}
