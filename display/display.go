// Package display keeps track of the outputs of a display server and sets
// their gamma tables.
package display

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jeremija/wl-gammarelay/colorramp"
	"github.com/peer-calls/log"
)

// Display runs the event loop for a display server connection. The
// connection, the session and the outputs are only touched by the loop
// goroutine; other goroutines talk to it through SetColor.
type Display struct {
	conn    Connection
	session *Session
	waiter  *Waiter

	log log.Logger
	wg  sync.WaitGroup

	setColorCh chan setColorRequest
	teardownCh chan struct{}
	doneCh     chan struct{}

	mu    sync.Mutex
	color colorramp.Setting
	err   error

	closeOnce sync.Once
}

type setColorRequest struct {
	params colorramp.Setting
	errCh  chan<- error
}

// New performs the initial discovery of outputs on conn and starts the event
// loop. The Display takes ownership of conn.
func New(logger log.Logger, conn Connection) (*Display, error) {
	logger = logger.WithNamespaceAppended("display")

	session := NewSession(logger, conn)

	// The first roundtrip returns the globals, the second one the gamma
	// sizes of the controls created for them.
	for i := 0; i < 2; i++ {
		if err := conn.Roundtrip(session); err != nil {
			conn.Close()
			return nil, fmt.Errorf("initial roundtrip: %w", err)
		}
	}

	if !session.HasManager() {
		conn.Close()
		return nil, ErrNoGammaControlSupport
	}

	waiter, err := NewWaiter(conn.Fd())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create waiter: %w", err)
	}

	d := &Display{
		conn:       conn,
		session:    session,
		waiter:     waiter,
		log:        logger,
		setColorCh: make(chan setColorRequest, 16),
		teardownCh: make(chan struct{}, 1),
		doneCh:     make(chan struct{}),
		color:      colorramp.Neutral,
	}

	logger.Info("Connected to display", log.Ctx{
		"num_outputs":       session.Registry().Len(),
		"num_ready_outputs": session.CountReady(),
	})

	d.wg.Add(1)

	go d.run()

	return d, nil
}

func (d *Display) run() {
	defer d.wg.Done()
	defer close(d.doneCh)
	defer d.log.Trace("Main loop done", nil)

	for {
		numOutputs := d.session.CountReady()
		if d.session.Stale() {
			d.log.Trace("setColor CALL", log.Ctx{
				"num_outputs": numOutputs,
			})

			if _, err := d.apply(d.Color()); err != nil {
				d.log.Error("Failed to set color", err, nil)
			}
		}

		if err := d.conn.Flush(); err != nil {
			d.setErr(fmt.Errorf("flush: %w", err))
			return
		}

		wake, err := d.waiter.Wait()
		if err != nil {
			d.setErr(err)
			return
		}

		d.log.Trace("Main loop iteration", log.Ctx{
			"num_outputs": numOutputs,
			"protocol":    wake.Protocol(),
			"interrupt":   wake.Interrupt(),
		})

		if wake.Protocol() {
			if err := d.conn.Dispatch(d.session); err != nil {
				d.setErr(fmt.Errorf("dispatch: %w", err))
				return
			}
		}

		if wake.Interrupt() {
			if done := d.handleRequests(); done {
				return
			}
		}
	}
}

// handleRequests drains the queued requests. It returns true on teardown.
func (d *Display) handleRequests() bool {
	for {
		select {
		case <-d.teardownCh:
			return true
		default:
		}

		select {
		case req := <-d.setColorCh:
			d.handleSetColor(req)
		default:
			return false
		}
	}
}

func (d *Display) handleSetColor(req setColorRequest) {
	defer close(req.errCh)

	if _, err := d.apply(req.params); err != nil {
		req.errCh <- err
	}
}

// apply sends the setting to all outputs and remembers it as the current
// color unless it was rejected.
func (d *Display) apply(params colorramp.Setting) (ApplyResult, error) {
	result, err := d.session.Apply(params)

	var aggErr *AggregateError
	if err == nil || errors.As(err, &aggErr) {
		// All outputs failing is no reason to forget the setting, it will be
		// applied again when outputs change.
		d.mu.Lock()
		d.color = params
		d.mu.Unlock()
	}

	if err != nil {
		return result, err
	}

	if err := d.conn.Flush(); err != nil {
		return result, fmt.Errorf("flush: %w", err)
	}

	d.log.Debug("Applied color", log.Ctx{
		"temperature": params.Temperature,
		"brightness":  params.Brightness,
		"gamma":       params.Gamma,
		"succeeded":   result.Succeeded,
		"skipped":     result.Skipped,
		"failed":      len(result.Warnings),
	})

	return result, nil
}

// SetColor sets the color of all current and future outputs.
func (d *Display) SetColor(ctx context.Context, p colorramp.Setting) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("bad params to SetColor: %w", err)
	}

	select {
	case <-d.doneCh:
		return d.closedErr()
	default:
	}

	errCh := make(chan error, 1)

	req := setColorRequest{
		params: p,
		errCh:  errCh,
	}

	select {
	case d.setColorCh <- req:
	case <-d.doneCh:
		return d.closedErr()
	case <-ctx.Done():
		return fmt.Errorf("context done set color request: %w", ctx.Err())
	}

	if err := d.waiter.Interrupt(); err != nil {
		select {
		case <-d.doneCh:
			return d.closedErr()
		default:
			return fmt.Errorf("interrupt: %w", err)
		}
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to set color: %w", err)
		}
	case <-d.doneCh:
		return d.closedErr()
	case <-ctx.Done():
		return fmt.Errorf("context done set color response: %w", ctx.Err())
	}

	return nil
}

// Color returns the last color that was applied.
func (d *Display) Color() colorramp.Setting {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.color
}

// Done is closed when the event loop stops.
func (d *Display) Done() <-chan struct{} {
	return d.doneCh
}

// Err returns the error that stopped the event loop, if any.
func (d *Display) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.err
}

func (d *Display) setErr(err error) {
	d.log.Error("Main loop failed", err, nil)

	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

func (d *Display) closedErr() error {
	if err := d.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return ErrClosed
}

// Close stops the event loop, restores the original gamma tables and closes
// the connection.
func (d *Display) Close() {
	d.closeOnce.Do(func() {
		select {
		case d.teardownCh <- struct{}{}:
		default:
		}

		if err := d.waiter.Interrupt(); err != nil {
			d.log.Error("Failed to interrupt main loop", err, nil)
		}

		// Only destroy after the main loop has finished.
		d.wg.Wait()

		if err := d.session.Close(); err != nil {
			d.log.Error("Failed to release outputs", err, nil)
		}

		if err := d.conn.Flush(); err != nil {
			d.log.Trace("Flush on close failed", log.Ctx{
				"error": err,
			})
		}

		if err := d.conn.Close(); err != nil {
			d.log.Error("Failed to close connection", err, nil)
		}

		if err := d.waiter.Close(); err != nil {
			d.log.Error("Failed to close waiter", err, nil)
		}
	})
}
