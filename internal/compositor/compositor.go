// Package compositor describes the daemon's view of a Wayland session:
// the outputs it announces, the drawables created on them, and the
// events the compositor sends back about both.
package compositor

// SurfaceID identifies a drawable for the lifetime of the session.
type SurfaceID uint64

// OutputInfo is what the compositor has told us about a display.
// Width and Height are logical sizes; zero means unknown.
type OutputInfo struct {
	ID     uint32
	Name   string
	Width  int
	Height int
	Scale  int
}

// HasSize reports whether the compositor supplied a usable logical size.
func (o OutputInfo) HasSize() bool {
	return o.Width > 0 && o.Height > 0
}

// Drawable is a background layer surface bound to one output together
// with the GPU surface a rendering context can target.
type Drawable interface {
	ID() SurfaceID

	// Resize sets the buffer size in pixels (logical size times scale)
	// and the buffer scale the compositor should apply.
	Resize(width, height, scale int)

	// MakeCurrent binds the shared rendering context to this drawable.
	MakeCurrent() error
	SwapBuffers() error

	// RequestFrame asks for a FrameReady event at the next repaint.
	RequestFrame()
	Destroy()
}

// Session is a connection to the compositor. All methods must be called
// from the goroutine that created it.
type Session interface {
	// Fd is the connection descriptor to wait on for readability.
	Fd() int
	Flush() error
	DispatchPending() error

	// PrepareRead reports false when events are already queued; they
	// must be dispatched and handled before trying again. A true result
	// must be followed by exactly one of ReadEvents or CancelRead.
	PrepareRead() (bool, error)
	ReadEvents() error
	CancelRead()

	// Events drains the events decoded by the last dispatch.
	Events() []Event

	// CreateDrawable creates a background surface on the output with an
	// empty input region and proposes width x height logical pixels.
	CreateDrawable(output OutputInfo, width, height int) (Drawable, error)
}
