package service

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeremija/wl-gammarelay/types"
	"github.com/peer-calls/log"
)

const (
	writeTimeout = time.Second
	// maxRequestSize bounds a single request line.
	maxRequestSize = 64 * 1024
)

var (
	errUnknownSubscription = errors.New("unknown subscription key")
	errRequestTooLarge     = errors.New("request too large")
)

var connectionID atomic.Uint64

// connection is a client connected to the socket. Each request and response
// is a JSON document on a line of its own. Reads happen on the goroutine
// serving the connection, writes may also come from the goroutine pushing
// changes to subscribers.
type connection struct {
	conn net.Conn
	log  log.Logger

	lines *bufio.Scanner

	writeMu sync.Mutex

	subscriptionsMu sync.RWMutex
	subscriptions   map[types.SubscriptionKey]struct{}
}

func newConnection(logger log.Logger, netConn net.Conn) *connection {
	lines := bufio.NewScanner(netConn)
	lines.Buffer(make([]byte, 0, 4096), maxRequestSize)

	return &connection{
		conn: netConn,
		log: logger.WithCtx(log.Ctx{
			"conn": connectionID.Add(1),
		}),
		lines:         lines,
		subscriptions: map[types.SubscriptionKey]struct{}{},
	}
}

func (c *connection) Close() error {
	if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("closing connection: %w", err)
	}

	return nil
}

// Write sends response as a single line. Writes from different goroutines
// never interleave.
func (c *connection) Write(response types.Response) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}

	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}

	return nil
}

func (c *connection) WriteLogError(response types.Response) {
	if err := c.Write(response); err != nil {
		c.log.Warn("Failed to write response", log.Ctx{
			"error": err,
		})
	}
}

// Read blocks until the next request line arrives. It returns io.EOF when
// the client closed the connection.
func (c *connection) Read() (types.Request, error) {
	if !c.lines.Scan() {
		err := c.lines.Err()

		switch {
		case err == nil:
			return types.Request{}, io.EOF
		case errors.Is(err, bufio.ErrTooLong):
			return types.Request{}, fmt.Errorf("decoding request: %w", errRequestTooLarge)
		default:
			return types.Request{}, err
		}
	}

	var request types.Request

	if err := json.Unmarshal(c.lines.Bytes(), &request); err != nil {
		return types.Request{}, fmt.Errorf("decoding request: %w", err)
	}

	return request, nil
}

// UpdateSubscriptions removes unsubscribe and then adds subscribe. Nothing
// changes when either list names an unknown key.
func (c *connection) UpdateSubscriptions(subscribe, unsubscribe []types.SubscriptionKey) error {
	for _, keys := range [][]types.SubscriptionKey{subscribe, unsubscribe} {
		for _, key := range keys {
			if key != types.SubscriptionKeyColor {
				return fmt.Errorf("%w: %q", errUnknownSubscription, key)
			}
		}
	}

	c.subscriptionsMu.Lock()
	defer c.subscriptionsMu.Unlock()

	for _, key := range unsubscribe {
		delete(c.subscriptions, key)
	}

	for _, key := range subscribe {
		c.subscriptions[key] = struct{}{}
	}

	return nil
}

func (c *connection) IsSubscribed(key types.SubscriptionKey) bool {
	c.subscriptionsMu.RLock()
	defer c.subscriptionsMu.RUnlock()

	_, ok := c.subscriptions[key]

	return ok
}

// Push sends color to the client if it subscribed to key and reports
// whether it did.
func (c *connection) Push(key types.SubscriptionKey, color *types.Color) bool {
	if !c.IsSubscribed(key) {
		return false
	}

	c.WriteLogError(types.Response{
		Color:        color,
		Subscription: key,
	})

	return true
}
