// ABOUTME: TCP connection manager shared by both VSSL protocols
// ABOUTME: Owns the socket, send queue, receive/keepalive workers and reconnect backoff
package api

import (
	"bufio"
	"log"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Protocol supplies the frame decoding and keepalive request for one of the
// two VSSL wire protocols. The connection reads the first byte of every frame
// itself as a liveness signal, then hands the reader over for the remainder.
type Protocol interface {
	// ReadFrame reads the rest of one frame (the first byte is already
	// consumed) and dispatches it. Any error is treated as fatal to the
	// socket.
	ReadFrame(r *bufio.Reader, first byte) error

	// Keepalive returns the protocol's keepalive request bytes.
	Keepalive() []byte
}

// ConnState is the lifecycle state of a Connection.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateDisconnecting
)

const (
	dialTimeout       = 5 * time.Second
	sendThrottle      = 200 * time.Millisecond
	keepaliveInterval = 10 * time.Second
	backoffFloor      = 1 * time.Second
	backoffStep       = 2 * time.Second
	backoffCeiling    = 30 * time.Second
	sendQueueDepth    = 64
)

// Connection maintains one TCP session to one (host, port) pair. Writes
// funnel through a queue drained by a single worker; a paced delay between
// writes keeps the amplifier from choking on request bursts. A missed
// keepalive or any I/O error tears the socket down and re-dials with a
// capped, growing backoff until Disconnect is called.
type Connection struct {
	host  string
	port  int
	proto Protocol

	dial func(addr string, timeout time.Duration) (net.Conn, error)

	// Tunables, overridden in tests.
	timeout   time.Duration
	keepalive time.Duration
	throttle  time.Duration
	floor     time.Duration
	step      time.Duration
	ceiling   time.Duration

	mu       sync.Mutex
	state    ConnState
	gen      *generation
	terminal chan struct{}
	retrying bool

	attempts atomic.Int32
	alive    atomic.Bool
	sendQ    chan []byte
}

// generation is one socket's lifetime. Tearing it down is idempotent so the
// three workers and Disconnect can race on it safely.
type generation struct {
	conn net.Conn
	done chan struct{}
	once sync.Once
}

func (g *generation) teardown() {
	g.once.Do(func() {
		close(g.done)
		// Unblock any in-flight read or write before closing. Close past
		// this point is best-effort.
		g.conn.SetDeadline(time.Now())
		g.conn.Close()
	})
}

// NewConnection creates a connection manager for the given endpoint. Nothing
// is dialed until Connect.
func NewConnection(host string, port int, proto Protocol) *Connection {
	return &Connection{
		host:  host,
		port:  port,
		proto: proto,
		dial: func(addr string, timeout time.Duration) (net.Conn, error) {
			return net.DialTimeout("tcp", addr, timeout)
		},
		timeout:   dialTimeout,
		keepalive: keepaliveInterval,
		throttle:  sendThrottle,
		floor:     backoffFloor,
		step:      backoffStep,
		ceiling:   backoffCeiling,
		state:     StateDisconnected,
		terminal:  make(chan struct{}),
		sendQ:     make(chan []byte, sendQueueDepth),
	}
}

// Connected reports whether the socket is currently up.
func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

// State returns the current lifecycle state.
func (c *Connection) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the reconnect attempt counter. It resets to zero on any
// successful connect.
func (c *Connection) Attempts() int {
	return int(c.attempts.Load())
}

// Connect dials the endpoint and starts the send, receive and keepalive
// workers. The first failure is returned to the caller as a *ConnError;
// failures after that are handled internally by the backoff loop.
func (c *Connection) Connect() error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	c.mu.Unlock()

	conn, err := c.dial(addr, c.timeout)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		log.Printf("Connection to %s failed: %v", addr, err)
		return &ConnError{Host: c.host, Port: c.port, Err: err}
	}

	g := &generation{conn: conn, done: make(chan struct{})}

	c.mu.Lock()
	c.state = StateConnected
	c.gen = g
	c.mu.Unlock()

	c.attempts.Store(0)

	go c.receiveLoop(g)
	go c.sendLoop(g)
	go c.keepaliveLoop(g)

	log.Printf("Connected to %s", addr)
	return nil
}

// Disconnect is terminal: it cancels any in-flight backoff loop, stops the
// workers and closes the socket. The connection can be re-opened later with
// an explicit Connect.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	c.state = StateDisconnecting
	close(c.terminal)
	c.terminal = make(chan struct{})
	g := c.gen
	c.gen = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if g != nil {
		g.teardown()
	}
	log.Printf("%s:%d: disconnected", c.host, c.port)
}

// Send queues a message for transmission. Queueing while disconnected is a
// silent no-op, not an error: callers fire and forget, feedback arrives as
// push frames.
func (c *Connection) Send(data []byte) {
	if !c.Connected() {
		return
	}
	select {
	case c.sendQ <- data:
	default:
		log.Printf("%s:%d: send queue full, dropping %d byte message", c.host, c.port, len(data))
	}
}

// receiveLoop reads one byte to register traffic for the keepalive check,
// then lets the protocol pull the rest of that frame. Short reads and socket
// errors trigger a reconnect; a plain read deadline (quiet wire) is left for
// the keepalive loop to judge.
func (c *Connection) receiveLoop(g *generation) {
	r := bufio.NewReader(g.conn)
	first := make([]byte, 1)

	for {
		select {
		case <-g.done:
			return
		default:
		}

		g.conn.SetReadDeadline(time.Now().Add(c.keepalive + c.timeout))

		if _, err := r.Read(first); err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			c.failed(g, "receive", err)
			return
		}

		c.alive.Store(true)

		if err := c.proto.ReadFrame(r, first[0]); err != nil {
			c.failed(g, "frame", err)
			return
		}
	}
}

// sendLoop drains the queue one message at a time with a pacing delay
// between writes.
func (c *Connection) sendLoop(g *generation) {
	for {
		select {
		case <-g.done:
			return
		case data := <-c.sendQ:
			g.conn.SetWriteDeadline(time.Now().Add(c.timeout))
			if _, err := g.conn.Write(data); err != nil {
				c.failed(g, "send", err)
				return
			}
			select {
			case <-g.done:
				return
			case <-time.After(c.throttle):
			}
		}
	}
}

// keepaliveLoop sends a keepalive request every interval and declares the
// connection dead when a full interval passes without any received byte.
func (c *Connection) keepaliveLoop(g *generation) {
	for {
		c.alive.Store(false)
		c.Send(c.proto.Keepalive())

		select {
		case <-g.done:
			return
		case <-time.After(c.keepalive):
		}

		if !c.alive.Load() {
			log.Printf("%s:%d: keepalive not received, reconnecting", c.host, c.port)
			c.failed(g, "keepalive", nil)
			return
		}
	}
}

// failed tears down the current socket and starts the backoff retry loop.
// Only the first worker to report a failure wins; the others observe the
// closed generation and exit.
func (c *Connection) failed(g *generation, op string, err error) {
	c.mu.Lock()
	if c.gen != g || c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	c.state = StateDisconnected
	c.gen = nil
	terminal := c.terminal
	alreadyRetrying := c.retrying
	if !alreadyRetrying {
		c.retrying = true
	}
	c.mu.Unlock()

	if err != nil {
		log.Printf("%s:%d: %s error: %v", c.host, c.port, op, err)
	}
	g.teardown()

	if !alreadyRetrying {
		go c.retryLoop(terminal)
	}
}

// retryLoop re-dials with a growing, capped delay until success or an
// explicit Disconnect.
func (c *Connection) retryLoop(terminal chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.retrying = false
		c.mu.Unlock()
	}()

	for {
		delay := c.backoffDelay(int(c.attempts.Load()))

		select {
		case <-terminal:
			return
		case <-time.After(delay):
		}

		select {
		case <-terminal:
			return
		default:
		}

		if err := c.Connect(); err == nil {
			return
		}
		c.attempts.Add(1)
	}
}

// backoffDelay grows linearly with the attempt count from the floor up to
// the ceiling.
func (c *Connection) backoffDelay(attempt int) time.Duration {
	delay := c.floor + time.Duration(attempt)*c.step
	if delay > c.ceiling {
		return c.ceiling
	}
	return delay
}
