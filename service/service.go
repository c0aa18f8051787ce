// Package service exposes a Display over a unix socket speaking
// newline-delimited JSON, and serializes every color change made through it.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/jeremija/wl-gammarelay/colorramp"
	"github.com/jeremija/wl-gammarelay/types"
	"github.com/peer-calls/log"
)

const defaultRequestTimeout = 5 * time.Second

// Display applies color settings to the outputs.
type Display interface {
	SetColor(ctx context.Context, setting colorramp.Setting) error
	Color() colorramp.Setting
}

type Service struct {
	params   Params
	log      log.Logger
	display  Display
	reqCh    chan requestWithResponse
	listener net.Listener

	connsMu sync.Mutex
	conns   map[*connection]struct{}

	subscribersMu sync.Mutex
	subscribers   map[chan colorramp.Setting]struct{}
}

type Params struct {
	SocketPath string
	// HistoryPath is rewritten with the current temperature and brightness
	// after every change. Disabled when empty.
	HistoryPath string
	// RequestTimeout bounds the time a socket request may wait for the
	// display. Defaults to 5 seconds.
	RequestTimeout time.Duration
}

type requestWithResponse struct {
	ctx        context.Context
	color      types.Color
	responseCh chan<- result
}

type result struct {
	setting colorramp.Setting
	err     error
}

func New(logger log.Logger, disp Display, params Params) *Service {
	if params.RequestTimeout == 0 {
		params.RequestTimeout = defaultRequestTimeout
	}

	return &Service{
		params:  params,
		log:     logger.WithNamespaceAppended("service"),
		display: disp,

		reqCh: make(chan requestWithResponse),

		conns:       map[*connection]struct{}{},
		subscribers: map[chan colorramp.Setting]struct{}{},
	}
}

// Listen creates the socket. A socket file left behind by a daemon that is
// no longer running is replaced.
func (s *Service) Listen() error {
	listener, err := net.Listen("unix", s.params.SocketPath)
	if err != nil && isStaleSocket(s.params.SocketPath) {
		s.log.Warn("Removing stale socket", log.Ctx{
			"socket": s.params.SocketPath,
		})

		if rmErr := os.Remove(s.params.SocketPath); rmErr != nil {
			return fmt.Errorf("failed to remove stale socket: %w", rmErr)
		}

		listener, err = net.Listen("unix", s.params.SocketPath)
	}

	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener

	s.log.Info("Listening", log.Ctx{
		"socket": s.params.SocketPath,
	})

	return nil
}

func isStaleSocket(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.Mode()&os.ModeSocket == 0 {
		return false
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		return true
	}

	conn.Close()

	return false
}

// Serve accepts connections until ctx is done. Listen must be called first.
func (s *Service) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	go s.processRequests(ctx)

	defer s.closeAllConns()

	for {
		netConn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("failed to accept conn: %w", err)
		}

		conn := newConnection(s.log, netConn)

		s.addConn(conn)

		go func() {
			defer s.removeConn(conn)

			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Service) processRequests(ctx context.Context) {
	for {
		select {
		case req := <-s.reqCh:
			s.handleRequest(req)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) addConn(conn *connection) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()

	s.conns[conn] = struct{}{}

	s.log.Debug("New connection", log.Ctx{
		"active_connections": len(s.conns),
	})
}

func (s *Service) removeConn(conn *connection) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()

	delete(s.conns, conn)

	s.log.Debug("Connection closed", log.Ctx{
		"active_connections": len(s.conns),
	})
}

func (s *Service) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()

	for conn := range s.conns {
		s.log.Trace("Terminating connection", nil)
		conn.Close()
	}
}

func (s *Service) handleConn(ctx context.Context, conn *connection) {
	defer conn.Close()

	for {
		req, err := conn.Read()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				// Client closed the connection.
				return
			}

			s.log.Warn("Failed to decode message", log.Ctx{
				"error": err,
			})

			conn.WriteLogError(types.Response{
				Error: "Failed to decode message",
			})

			return
		}

		conn.WriteLogError(s.handleConnRequest(ctx, conn, req))
	}
}

func (s *Service) handleConnRequest(ctx context.Context, conn *connection, req types.Request) types.Response {
	if err := conn.UpdateSubscriptions(req.Subscribe, req.Unsubscribe); err != nil {
		return types.Response{
			Error: err.Error(),
		}
	}

	if req.Color == nil {
		if len(req.Subscribe) == 0 && len(req.Unsubscribe) == 0 {
			return types.Response{
				Error: "Unknown request",
			}
		}

		return types.Response{
			Color: FormatColor(s.display.Color()),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.params.RequestTimeout)
	defer cancel()

	setting, err := s.SetColor(ctx, *req.Color)
	if err != nil {
		s.log.Warn("Failed to set color", log.Ctx{
			"error": err,
		})

		return types.Response{
			Error: err.Error(),
			Color: FormatColor(setting),
		}
	}

	return types.Response{
		Color: FormatColor(setting),
	}
}

// SetColor applies color relative to the current setting and returns the
// setting that is in effect afterwards.
func (s *Service) SetColor(ctx context.Context, color types.Color) (colorramp.Setting, error) {
	responseCh := make(chan result, 1)

	select {
	case s.reqCh <- requestWithResponse{
		ctx:        ctx,
		color:      color,
		responseCh: responseCh,
	}:
	case <-ctx.Done():
		return s.display.Color(), fmt.Errorf("failed to enqueue request: %w", ctx.Err())
	}

	select {
	case res := <-responseCh:
		return res.setting, res.err
	case <-ctx.Done():
		return s.display.Color(), fmt.Errorf("received no response in time: %w", ctx.Err())
	}
}

// handleRequest runs on the request goroutine. To avoid deadlocks, the
// responseCh must be 1-buffered.
func (s *Service) handleRequest(req requestWithResponse) {
	defer close(req.responseCh)

	prev := s.display.Color()

	s.log.Debug("Handling request", log.Ctx{
		"temperature": req.color.Temperature,
		"brightness":  req.color.Brightness,
		"gamma":       req.color.Gamma,
	})

	setting, err := NewSetting(req.color, prev)
	if err != nil {
		req.responseCh <- result{setting: prev, err: err}
		return
	}

	err = s.display.SetColor(req.ctx, setting)

	// The display keeps the setting when only the outputs failed.
	current := s.display.Color()
	if current != prev {
		if histErr := s.writeHistory(current); histErr != nil {
			s.log.Error("Failed to write history", histErr, nil)
		}

		s.publish(current)
	}

	if err != nil {
		req.responseCh <- result{setting: current, err: fmt.Errorf("failed to set color: %w", err)}
		return
	}

	req.responseCh <- result{setting: setting}
}

func (s *Service) writeHistory(setting colorramp.Setting) error {
	if s.params.HistoryPath == "" {
		return nil
	}

	history, err := os.OpenFile(s.params.HistoryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}

	defer history.Close()

	if _, err := fmt.Fprintf(history, "%d %f\n", setting.Temperature, setting.Brightness); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}

	return nil
}

// publish notifies subscribed connections and in-process subscribers.
func (s *Service) publish(setting colorramp.Setting) {
	s.connsMu.Lock()
	conns := make([]*connection, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.connsMu.Unlock()

	color := FormatColor(setting)
	pushed := 0

	for _, conn := range conns {
		if conn.Push(types.SubscriptionKeyColor, color) {
			pushed++
		}
	}

	s.log.Trace("Published color", log.Ctx{
		"num_conns": pushed,
	})

	s.subscribersMu.Lock()
	defer s.subscribersMu.Unlock()

	for ch := range s.subscribers {
		// Only the latest setting matters to a slow subscriber.
		select {
		case <-ch:
		default:
		}

		ch <- setting
	}
}

// Subscribe returns a channel which receives every new setting. The
// returned function must be called to release the subscription.
func (s *Service) Subscribe() (<-chan colorramp.Setting, func()) {
	ch := make(chan colorramp.Setting, 1)

	s.subscribersMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subscribersMu.Unlock()

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			s.subscribersMu.Lock()
			delete(s.subscribers, ch)
			s.subscribersMu.Unlock()
		})
	}
}

// Color returns the current setting.
func (s *Service) Color() colorramp.Setting {
	return s.display.Color()
}

// Close removes the socket.
func (s *Service) Close() error {
	if s.listener == nil {
		return nil
	}

	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("closing listener: %w", err)
	}

	return nil
}
