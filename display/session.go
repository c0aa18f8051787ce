package display

import (
	"fmt"

	"github.com/jeremija/wl-gammarelay/colorramp"
	"github.com/peer-calls/log"
)

// ApplyResult summarises a call to Session.Apply.
type ApplyResult struct {
	// Succeeded is the number of outputs a gamma table was sent to.
	Succeeded int
	// Skipped is the number of outputs whose ramp size is not yet known.
	Skipped int
	// Warnings contains one *OutputError per output that failed.
	Warnings []error
}

// Session keeps track of the outputs advertised by the display server and
// sends gamma tables to them. It implements Handler and must only be used
// from the goroutine that dispatches display server events.
type Session struct {
	log      log.Logger
	protocol Protocol
	registry *Registry

	hasManager bool
	// stale is set when an output became ready after the last Apply.
	stale bool
}

var _ Handler = (*Session)(nil)

// NewSession returns a session without outputs. Outputs are bound through
// protocol as soon as the gamma control manager is available.
func NewSession(logger log.Logger, protocol Protocol) *Session {
	return &Session{
		log:      logger.WithNamespaceAppended("session"),
		protocol: protocol,
		registry: NewRegistry(),
	}
}

// Registry returns the outputs tracked by the session.
func (s *Session) Registry() *Registry {
	return s.registry
}

// HasManager reports whether the gamma control manager has been advertised.
func (s *Session) HasManager() bool {
	return s.hasManager
}

// ManagerAvailable binds every output announced so far.
func (s *Session) ManagerAvailable() {
	s.log.Debug("Gamma control manager available", nil)

	s.hasManager = true

	s.bindAll()
}

// OutputAdded registers the output and binds it if the manager is known.
func (s *Session) OutputAdded(id OutputID) {
	if !s.registry.Add(id) {
		s.log.Warn("Output added twice", log.Ctx{
			"output": id,
		})

		return
	}

	s.log.Debug("Output added", log.Ctx{
		"output": id,
	})

	if s.hasManager {
		if err := s.bind(id); err != nil {
			s.log.Warn("Failed to bind output", log.Ctx{
				"output": id,
				"error":  err,
			})
		}
	}
}

// OutputRemoved releases the gamma control and forgets the output.
func (s *Session) OutputRemoved(id OutputID) {
	ok, err := s.registry.Remove(id)
	if !ok {
		return
	}

	if err != nil {
		s.log.Warn("Failed to release output", log.Ctx{
			"output": id,
			"error":  err,
		})
	}

	s.log.Debug("Output removed", log.Ctx{
		"output": id,
	})
}

// GammaSize records the ramp size. The next loop iteration re-applies the
// current color.
func (s *Session) GammaSize(id OutputID, size uint32) {
	if err := s.registry.SetRampSize(id, size); err != nil {
		s.log.Warn("Ignoring gamma size", log.Ctx{
			"output": id,
			"error":  err,
		})

		return
	}

	s.stale = true

	s.log.Debug("Gamma size known", log.Ctx{
		"output":    id,
		"ramp_size": size,
	})
}

// GammaFailed releases the gamma control of the output. Apply will request
// a new one.
func (s *Session) GammaFailed(id OutputID) {
	s.log.Warn("Gamma control failed, is another client controlling the output?", log.Ctx{
		"output": id,
	})

	if err := s.registry.Unbind(id); err != nil {
		s.log.Warn("Failed to release gamma control", log.Ctx{
			"output": id,
			"error":  err,
		})
	}
}

func (s *Session) bind(id OutputID) error {
	control, err := s.protocol.GetGammaControl(id)
	if err != nil {
		return fmt.Errorf("get gamma control: %w", err)
	}

	if err := s.registry.Bind(id, control); err != nil {
		_ = control.Destroy()
		return err
	}

	return nil
}

// bindAll binds every output that has no gamma control and returns the
// errors for the ones that failed.
func (s *Session) bindAll() []error {
	var errs []error

	for _, id := range s.registry.IDs() {
		o, ok := s.registry.Get(id)
		if !ok || o.Bound() {
			continue
		}

		if err := s.bind(id); err != nil {
			s.log.Warn("Failed to bind output", log.Ctx{
				"output": id,
				"error":  err,
			})

			errs = append(errs, &OutputError{ID: id, Err: err})
		}
	}

	return errs
}

// CountReady returns the number of outputs with a known ramp size.
func (s *Session) CountReady() int {
	return s.registry.CountReady()
}

// Stale reports whether an output received its ramp size after the last
// call to Apply.
func (s *Session) Stale() bool {
	return s.stale
}

// Apply sends a gamma table computed from setting to every output with a
// known ramp size. Failures of individual outputs are collected in
// ApplyResult.Warnings. An error is returned when the setting is invalid,
// when the display server does not support gamma control, or when every
// ready output failed. Outputs without a ramp size never count as failed,
// even when binding them did not work.
func (s *Session) Apply(setting colorramp.Setting) (ApplyResult, error) {
	var result ApplyResult

	if err := setting.Validate(); err != nil {
		return result, err
	}

	if !s.hasManager {
		return result, ErrNoGammaControlSupport
	}

	s.stale = false

	result.Warnings = s.bindAll()

	failed := 0

	for _, id := range s.registry.IDs() {
		o, ok := s.registry.Get(id)
		if !ok {
			// Removed while iterating.
			continue
		}

		if o.RampSize == 0 {
			s.log.Debug("Output does not have ramp size set", log.Ctx{
				"output": id,
			})

			result.Skipped++

			continue
		}

		if !o.Bound() {
			// bindAll already recorded the error.
			failed++

			continue
		}

		if err := s.applyOutput(o, setting); err != nil {
			s.log.Warn("Failed to set gamma", log.Ctx{
				"output": id,
				"error":  err,
			})

			result.Warnings = append(result.Warnings, &OutputError{ID: id, Err: err})
			failed++

			continue
		}

		result.Succeeded++
	}

	if result.Succeeded == 0 && failed > 0 {
		return result, &AggregateError{Errors: result.Warnings}
	}

	return result, nil
}

func (s *Session) applyOutput(o *Output, setting colorramp.Setting) (err error) {
	rampSize := int(o.RampSize)

	table, err := NewTable(rampSize)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := table.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("release gamma table: %w", closeErr)
		}
	}()

	if err := colorramp.Fill(table.Ramp(), rampSize, setting); err != nil {
		return fmt.Errorf("fill gamma table: %w", err)
	}

	// The control might be gone if the output was removed while the table
	// was being filled.
	if !o.Bound() {
		return fmt.Errorf("gamma control released")
	}

	if err := o.control.SetGamma(table.Fd()); err != nil {
		return fmt.Errorf("set gamma: %w", err)
	}

	return nil
}

// Close destroys every gamma control, restoring the original gamma tables.
func (s *Session) Close() error {
	return s.registry.Close()
}
