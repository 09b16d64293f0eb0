// Package link is the host side of the diagnostics console: it frames
// requests, matches results by sequence number and maps result codes back
// onto the driver's error values.
package link

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"timerhal/core"
	"timerhal/host/serial"
	"timerhal/protocol"
)

var (
	ErrTimeout = errors.New("timed out waiting for result")
	ErrClosed  = errors.New("link closed")
)

// DefaultTimeout bounds how long Call waits for a result
const DefaultTimeout = time.Second

// RemoteError is a non-zero result code. It unwraps to the matching core
// error so that errors.Is(err, core.ErrModeConflict) works across the link.
type RemoteError struct {
	Code uint8
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("board returned code %d: %v", e.Code, core.CodeError(e.Code))
}

func (e *RemoteError) Unwrap() error {
	return core.CodeError(e.Code)
}

// Entry is one line of the board's message dictionary
type Entry struct {
	ID     protocol.MessageID
	Name   string
	Format string
}

// Client talks to one board. Calls are serialised; one request is in
// flight at a time.
type Client struct {
	rw      io.ReadWriter
	timeout time.Duration

	mu  sync.Mutex
	seq uint8

	frames chan protocol.Frame
	done   chan struct{}
	err    error

	dictionary map[string]Entry
}

// New starts a client on an already open stream
func New(rw io.ReadWriter) *Client {
	c := &Client{
		rw:      rw,
		timeout: DefaultTimeout,
		frames:  make(chan protocol.Frame, 4),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Open connects to a board on a serial device
func Open(device string) (*Client, error) {
	port, err := serial.Open(serial.DefaultConfig(device))
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("opened %s", device)
	return New(port), nil
}

// SetTimeout changes the per-call result timeout
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

// Close closes the underlying stream if it can be closed
func (c *Client) Close() error {
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Client) readLoop() {
	fr := protocol.NewFrameReader(c.rw)
	for {
		frame, err := fr.ReadFrame()
		if err != nil {
			c.err = err
			close(c.done)
			return
		}
		select {
		case c.frames <- frame:
		default:
			glog.Warningf("dropping unsolicited frame seq=%d", frame.Seq)
		}
	}
}

// Call sends one request and waits for its result. A non-zero result code
// is returned as a *RemoteError alongside the result.
func (c *Client) Call(id protocol.MessageID, args ...int32) (protocol.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq := c.seq
	c.seq = (c.seq + 1) & protocol.SeqMask

	raw, err := protocol.EncodeFrame(seq, protocol.EncodeRequest(id, args...))
	if err != nil {
		return protocol.Result{}, err
	}
	glog.V(2).Infof("tx seq=%d id=%d args=%v", seq, id, args)
	if _, err := c.rw.Write(raw); err != nil {
		return protocol.Result{}, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	for {
		select {
		case frame := <-c.frames:
			if frame.Seq != seq {
				glog.V(1).Infof("discarding stale result seq=%d, want %d", frame.Seq, seq)
				continue
			}
			res, err := protocol.DecodeResult(frame.Payload)
			if err != nil {
				return protocol.Result{}, err
			}
			glog.V(2).Infof("rx seq=%d code=%d value=%d value2=%d", seq, res.Code, res.Value, res.Value2)
			if res.Code != core.CodeOK {
				return res, &RemoteError{Code: res.Code}
			}
			return res, nil
		case <-c.done:
			if c.err != nil && c.err != io.EOF {
				return protocol.Result{}, fmt.Errorf("%w: %v", ErrClosed, c.err)
			}
			return protocol.Result{}, ErrClosed
		case <-timer.C:
			return protocol.Result{}, ErrTimeout
		}
	}
}

// CallByName resolves a message name through the identify dictionary when
// one has been loaded, and through the built-in table otherwise
func (c *Client) CallByName(name string, args ...int32) (protocol.Result, error) {
	c.mu.Lock()
	entry, ok := c.dictionary[name]
	c.mu.Unlock()
	if !ok {
		m, found := protocol.MessageByName(name)
		if !found {
			return protocol.Result{}, fmt.Errorf("unknown command %q", name)
		}
		entry = Entry{ID: m.ID, Name: m.Name, Format: m.Format}
	}
	return c.Call(entry.ID, args...)
}

// Identify downloads the board's message dictionary in chunks and keeps
// it for CallByName
func (c *Client) Identify() ([]Entry, error) {
	var dict []byte
	for {
		res, err := c.Call(protocol.MsgIdentify, int32(len(dict)))
		if err != nil {
			return nil, fmt.Errorf("identify at offset %d: %w", len(dict), err)
		}
		if len(res.Data) == 0 {
			break
		}
		dict = append(dict, res.Data...)
		if uint32(len(dict)) >= res.Value2 {
			break
		}
	}

	entries, err := ParseDictionary(string(dict))
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}

	c.mu.Lock()
	c.dictionary = byName
	c.mu.Unlock()
	glog.V(1).Infof("dictionary: %d messages, %d bytes", len(entries), len(dict))
	return entries, nil
}

// ParseDictionary parses "id name [format...]" lines
func ParseDictionary(dict string) ([]Entry, error) {
	var entries []Entry
	for _, line := range strings.Split(dict, "\n") {
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 3)
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed dictionary line %q", line)
		}
		id, err := strconv.ParseUint(fields[0], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("malformed dictionary line %q: %w", line, err)
		}
		entry := Entry{ID: protocol.MessageID(id), Name: fields[1]}
		if len(fields) == 3 {
			entry.Format = fields[2]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// EncoderCount reads an encoder's signed count and max count
func (c *Client) EncoderCount(oid uint8) (int16, uint16, error) {
	res, err := c.Call(protocol.MsgEncoderGet, int32(oid))
	if err != nil {
		return 0, 0, err
	}
	return int16(res.Value), uint16(res.Value2), nil
}

// PWMStatus reads back a PWM channel's duty cycle, frequency and state
func (c *Client) PWMStatus(oid uint8) (duty uint16, hz uint32, state string, err error) {
	res, err := c.Call(protocol.MsgPWMQuery, int32(oid))
	if err != nil {
		return 0, 0, "", err
	}
	return uint16(res.Value), res.Value2, string(res.Data), nil
}

// Event is one entry of the board's event ring
type Event struct {
	core.TimerEvent
}

func (e Event) String() string {
	return fmt.Sprintf("type=%d block=%s ch=%d v1=%d v2=%d",
		e.EventType, e.Block, e.Channel, e.Value1, e.Value2)
}

// Events downloads the board's event ring, oldest first
func (c *Client) Events() ([]Event, error) {
	var events []Event
	for i := 0; ; i++ {
		res, err := c.Call(protocol.MsgEventDump, int32(i))
		if err != nil {
			return nil, err
		}
		if i >= int(res.Value) || len(res.Data) < 3 {
			return events, nil
		}
		data := res.Data[3:]
		v1, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		v2, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		events = append(events, Event{core.TimerEvent{
			EventType: res.Data[0],
			Block:     core.BlockID(res.Data[1]),
			Channel:   res.Data[2],
			Value1:    v1,
			Value2:    v2,
		}})
	}
}
