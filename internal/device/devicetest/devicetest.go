// Package devicetest provides an instrumented fake camera for tests of the
// layers that coordinate device access. The fake records every operation,
// serves scriptable failures and flags two contract violations as test
// errors: concurrent access to a connection and use after Close.
package devicetest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tholee-studio/camera-service/internal/device"
)

// Operation names as recorded by Conn.Ops.
const (
	OpCaptureStill   = "CaptureStill"
	OpCapturePreview = "CapturePreview"
	OpGetConfig      = "GetConfig"
	OpSetConfig      = "SetConfig"
	OpListChoices    = "ListChoices"
	OpClose          = "Close"
)

// Driver hands out instrumented fake connections.
type Driver struct {
	tb testing.TB

	mu       sync.Mutex
	openErrs []error
	conns    []*Conn
	opens    int

	// OpDelay is copied onto every opened connection; see Conn.OpDelay.
	OpDelay time.Duration
}

// NewDriver creates a fake driver reporting violations to tb.
func NewDriver(tb testing.TB) *Driver {
	return &Driver{tb: tb}
}

// FailNextOpen queues an error for an upcoming Open call. Queued errors are
// consumed in order before Opens succeed again.
func (d *Driver) FailNextOpen(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openErrs = append(d.openErrs, err)
}

// Opens reports how many times Open was called.
func (d *Driver) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Conns returns every connection handed out so far, in open order.
func (d *Driver) Conns() []*Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.conns)
}

// LastConn returns the most recently opened connection, or nil.
func (d *Driver) LastConn() *Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// Open pops a queued error if one is pending, otherwise hands out a fresh
// connection with default exposure settings.
func (d *Driver) Open(_ context.Context) (device.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.opens++
	if len(d.openErrs) > 0 {
		err := d.openErrs[0]
		d.openErrs = d.openErrs[1:]
		return nil, err
	}

	c := &Conn{
		tb:      d.tb,
		OpDelay: d.OpDelay,
		settings: map[string]string{
			device.KeyISO:          "400",
			device.KeyShutterSpeed: "1/125",
			device.KeyAperture:     "5.6",
		},
		choices: map[string][]string{
			device.KeyISO:          {"100", "200", "400", "800", "1600"},
			device.KeyShutterSpeed: {"1/4000", "1/1000", "1/125", "1/30"},
			device.KeyAperture:     {"2.8", "5.6", "8", "16"},
		},
		failNext: make(map[string][]error),
	}
	d.conns = append(d.conns, c)
	return c, nil
}

// Conn is an instrumented fake camera connection.
type Conn struct {
	tb testing.TB

	// OpDelay stretches every operation while the in-flight counter is
	// raised, widening the window in which illegal concurrent access
	// would be caught.
	OpDelay time.Duration

	inFlight atomic.Int32
	closed   atomic.Bool

	mu       sync.Mutex
	ops      []string
	failNext map[string][]error
	frames   [][]byte
	frameSeq int
	settings map[string]string
	choices  map[string][]string
}

// FailNext queues an error for the next call of the given operation.
func (c *Conn) FailNext(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext[op] = append(c.failNext[op], err)
}

// QueueFrames sets the preview frames served by CapturePreview. The last
// frame repeats once the queue is exhausted.
func (c *Conn) QueueFrames(frames ...[]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.frameSeq = 0
}

// Ops returns the recorded operations in call order, formatted as the
// operation name followed by its arguments ("SetConfig iso=800").
func (c *Conn) Ops() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.ops)
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

// Setting returns the current value stored for an exposure key.
func (c *Conn) Setting(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings[key]
}

// enter performs the shared bookkeeping of every operation: contract
// checks, op recording and scripted failure lookup. The returned leave
// function must run when the operation finishes.
func (c *Conn) enter(op string) (leave func(), scripted error) {
	if c.closed.Load() && op != OpClose {
		c.tb.Errorf("device connection used after Close: %s", op)
	}
	if c.inFlight.Add(1) != 1 {
		c.tb.Errorf("concurrent device access detected during %s", op)
	}
	if c.OpDelay > 0 {
		time.Sleep(c.OpDelay)
	}

	c.mu.Lock()
	c.ops = append(c.ops, op)
	if queue := c.failNext[opName(op)]; len(queue) > 0 {
		scripted = queue[0]
		c.failNext[opName(op)] = queue[1:]
	}
	c.mu.Unlock()

	return func() { c.inFlight.Add(-1) }, scripted
}

// opName strips recorded arguments, leaving the bare operation name.
func opName(op string) string {
	for i := 0; i < len(op); i++ {
		if op[i] == ' ' {
			return op[:i]
		}
	}
	return op
}

func (c *Conn) CaptureStill(_ context.Context) ([]byte, error) {
	leave, scripted := c.enter(OpCaptureStill)
	defer leave()
	if scripted != nil {
		return nil, scripted
	}

	c.mu.Lock()
	c.frameSeq++
	seq := c.frameSeq
	c.mu.Unlock()
	return []byte(fmt.Sprintf("still-%d", seq)), nil
}

func (c *Conn) CapturePreview(_ context.Context) ([]byte, error) {
	leave, scripted := c.enter(OpCapturePreview)
	defer leave()
	if scripted != nil {
		return nil, scripted
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameSeq++
	if len(c.frames) > 0 {
		idx := c.frameSeq - 1
		if idx >= len(c.frames) {
			idx = len(c.frames) - 1
		}
		return c.frames[idx], nil
	}
	return []byte(fmt.Sprintf("frame-%d", c.frameSeq)), nil
}

func (c *Conn) GetConfig(_ context.Context, key string) (string, error) {
	leave, scripted := c.enter(OpGetConfig + " " + key)
	defer leave()
	if scripted != nil {
		return "", scripted
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.settings[key]
	if !ok {
		return "", fmt.Errorf("config %s: %w", key, device.ErrNotSupported)
	}
	return value, nil
}

func (c *Conn) SetConfig(_ context.Context, key, value string) error {
	leave, scripted := c.enter(OpSetConfig + " " + key + "=" + value)
	defer leave()
	if scripted != nil {
		return scripted
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	choices, ok := c.choices[key]
	if !ok {
		return fmt.Errorf("config %s: %w", key, device.ErrNotSupported)
	}
	if !slices.Contains(choices, value) {
		return fmt.Errorf("%s=%q: %w", key, value, device.ErrInvalidValue)
	}
	c.settings[key] = value
	return nil
}

func (c *Conn) ListChoices(_ context.Context, key string) ([]string, error) {
	leave, scripted := c.enter(OpListChoices + " " + key)
	defer leave()
	if scripted != nil {
		return nil, scripted
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	choices, ok := c.choices[key]
	if !ok {
		return nil, fmt.Errorf("config %s: %w", key, device.ErrNotSupported)
	}
	return slices.Clone(choices), nil
}

func (c *Conn) Close() error {
	leave, scripted := c.enter(OpClose)
	defer leave()

	c.closed.Store(true)
	return scripted
}
