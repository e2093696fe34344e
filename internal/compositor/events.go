package compositor

import "fmt"

// Event is one of the callbacks a Session delivers. The set is closed.
type Event interface {
	isEvent()
}

// OutputAnnounced is sent once per output after its first complete
// description.
type OutputAnnounced struct {
	Output OutputInfo
}

// OutputUpdated is sent when a known output changes mode or scale.
type OutputUpdated struct {
	Output OutputInfo
}

type OutputWithdrawn struct {
	ID uint32
}

// SurfaceClosed means the compositor will no longer show the drawable.
type SurfaceClosed struct {
	Surface SurfaceID
}

// Configure carries the size the compositor settled on. A zero
// dimension means the client may choose.
type Configure struct {
	Surface SurfaceID
	Width   int
	Height  int
}

type ScaleChanged struct {
	Surface SurfaceID
	Factor  int
}

type FrameReady struct {
	Surface SurfaceID
}

func (OutputAnnounced) isEvent() {}
func (OutputUpdated) isEvent()   {}
func (OutputWithdrawn) isEvent() {}
func (SurfaceClosed) isEvent()   {}
func (Configure) isEvent()       {}
func (ScaleChanged) isEvent()    {}
func (FrameReady) isEvent()      {}

func (e OutputAnnounced) String() string {
	return fmt.Sprintf("output-announced %d (%s %dx%d@%d)", e.Output.ID, e.Output.Name, e.Output.Width, e.Output.Height, e.Output.Scale)
}

func (e OutputUpdated) String() string {
	return fmt.Sprintf("output-updated %d (%s %dx%d@%d)", e.Output.ID, e.Output.Name, e.Output.Width, e.Output.Height, e.Output.Scale)
}

func (e OutputWithdrawn) String() string { return fmt.Sprintf("output-withdrawn %d", e.ID) }
func (e SurfaceClosed) String() string   { return fmt.Sprintf("surface-closed %d", e.Surface) }
func (e Configure) String() string {
	return fmt.Sprintf("configure %d %dx%d", e.Surface, e.Width, e.Height)
}
func (e ScaleChanged) String() string { return fmt.Sprintf("scale-changed %d x%d", e.Surface, e.Factor) }
func (e FrameReady) String() string   { return fmt.Sprintf("frame-ready %d", e.Surface) }
