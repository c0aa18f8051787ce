package display

import (
	"fmt"
	"sort"
)

// OutputState describes the lifecycle of an output.
type OutputState int

const (
	// StateAnnounced outputs have neither a ramp size nor a gamma control.
	StateAnnounced OutputState = iota
	// StateSizeKnown outputs have a ramp size but no gamma control.
	StateSizeKnown
	// StateBound outputs have a gamma control. The ramp size might not have
	// been received yet.
	StateBound
)

func (s OutputState) String() string {
	switch s {
	case StateAnnounced:
		return "announced"
	case StateSizeKnown:
		return "size_known"
	case StateBound:
		return "bound"
	default:
		return fmt.Sprintf("OutputState(%d)", int(s))
	}
}

// Output is a single output known to the registry.
type Output struct {
	ID OutputID
	// RampSize is 0 until the display server reports it.
	RampSize uint32

	control GammaControl
}

// Bound reports whether the output has a gamma control.
func (o *Output) Bound() bool {
	return o.control != nil
}

// State derives the lifecycle state from the control and the ramp size.
func (o *Output) State() OutputState {
	switch {
	case o.control != nil:
		return StateBound
	case o.RampSize > 0:
		return StateSizeKnown
	default:
		return StateAnnounced
	}
}

// release destroys the gamma control if there is one.
func (o *Output) release() error {
	control := o.control
	if control == nil {
		return nil
	}

	o.control = nil

	if err := control.Destroy(); err != nil {
		return fmt.Errorf("destroying gamma control for output %d: %w", o.ID, err)
	}

	return nil
}

// Registry tracks outputs by their ID. It is not safe for concurrent use.
type Registry struct {
	outputs map[OutputID]*Output
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		outputs: map[OutputID]*Output{},
	}
}

// Add inserts an output in the announced state. It returns false when the
// output is already known, in which case the existing entry is kept.
func (r *Registry) Add(id OutputID) bool {
	if _, ok := r.outputs[id]; ok {
		return false
	}

	r.outputs[id] = &Output{ID: id}

	return true
}

// Get returns the entry for id. The pointer stays valid until the output
// is removed.
func (r *Registry) Get(id OutputID) (*Output, bool) {
	o, ok := r.outputs[id]
	return o, ok
}

// SetRampSize records the ramp size of an output regardless of whether it
// is bound.
func (r *Registry) SetRampSize(id OutputID, size uint32) error {
	if size == 0 {
		return fmt.Errorf("output %d: %w: 0", id, ErrInvalidRampSize)
	}

	o, ok := r.outputs[id]
	if !ok {
		return fmt.Errorf("output %d: %w", id, ErrUnknownOutput)
	}

	o.RampSize = size

	return nil
}

// Bind records the gamma control for an output. A previous control is
// destroyed first.
func (r *Registry) Bind(id OutputID, control GammaControl) error {
	o, ok := r.outputs[id]
	if !ok {
		return fmt.Errorf("output %d: %w", id, ErrUnknownOutput)
	}

	if control == nil {
		return fmt.Errorf("output %d: nil gamma control", id)
	}

	err := o.release()

	o.control = control

	return err
}

// Unbind destroys the gamma control of an output and keeps the entry.
func (r *Registry) Unbind(id OutputID) error {
	o, ok := r.outputs[id]
	if !ok {
		return nil
	}

	return o.release()
}

// Remove destroys the gamma control of an output and deletes the entry. It
// returns false if the output was not known. Callers iterating over IDs
// must look each entry up again since it might have been removed.
func (r *Registry) Remove(id OutputID) (bool, error) {
	o, ok := r.outputs[id]
	if !ok {
		return false, nil
	}

	err := o.release()

	delete(r.outputs, id)

	return true, err
}

// IDs returns a sorted snapshot of the output IDs.
func (r *Registry) IDs() []OutputID {
	ids := make([]OutputID, 0, len(r.outputs))
	for id := range r.outputs {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})

	return ids
}

// Len returns the number of known outputs, ready or not.
func (r *Registry) Len() int {
	return len(r.outputs)
}

// CountReady returns the number of outputs with a known ramp size.
func (r *Registry) CountReady() int {
	count := 0

	for _, o := range r.outputs {
		if o.RampSize > 0 {
			count++
		}
	}

	return count
}

// Close destroys all gamma controls and empties the registry.
func (r *Registry) Close() error {
	var firstErr error

	for _, id := range r.IDs() {
		if _, err := r.Remove(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
