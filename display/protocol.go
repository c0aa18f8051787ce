package display

// OutputID identifies an output for as long as the display server advertises
// it. For Wayland it is the registry name of the wl_output global.
type OutputID uint32

// GammaControl is an exclusive gamma control handle for a single output.
type GammaControl interface {
	// SetGamma queues the gamma table stored in fd. The fd is duplicated, so
	// the caller may close it as soon as SetGamma returns.
	SetGamma(fd int) error
	// Destroy releases the control, restoring the original gamma tables.
	Destroy() error
}

// Protocol creates gamma controls for outputs.
type Protocol interface {
	// GetGammaControl requests a gamma control for the output. The ramp
	// size will be delivered asynchronously via Handler.GammaSize.
	GetGammaControl(id OutputID) (GammaControl, error)
}

// Handler receives events from the display server. All methods are called
// from the goroutine that dispatches events.
type Handler interface {
	// ManagerAvailable is called when the gamma control manager is bound.
	ManagerAvailable()
	OutputAdded(id OutputID)
	OutputRemoved(id OutputID)
	// GammaSize is called when the display server reports the ramp size for
	// the gamma control of an output.
	GammaSize(id OutputID, size uint32)
	// GammaFailed is called when a gamma control is no longer valid.
	GammaFailed(id OutputID)
}

// Connection is a display server connection driven by Display.
type Connection interface {
	Protocol

	// Fd returns the file descriptor which becomes readable when events
	// are pending.
	Fd() int
	// Dispatch reads the pending events and delivers them to h. It must
	// only be called when Fd is readable.
	Dispatch(h Handler) error
	// Roundtrip blocks until all requests sent so far have been processed
	// by the server, delivering events to h.
	Roundtrip(h Handler) error
	// Flush writes queued requests.
	Flush() error
	Close() error
}
