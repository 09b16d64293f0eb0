package link

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timerhal/board"
	"timerhal/config"
	"timerhal/console"
	"timerhal/core"
	"timerhal/protocol"
	"timerhal/sim"
)

func newLink(t *testing.T) (*Client, *sim.Registry) {
	reg := sim.NewRegistry()
	b, err := board.Build(config.DefaultConfig(), reg.Registers)
	require.NoError(t, err)

	host, dev := net.Pipe()
	go console.New(b).Serve(dev)

	c := New(host)
	t.Cleanup(func() {
		c.Close()
		dev.Close()
	})
	return c, reg
}

func TestIdentifyAndCallByName(t *testing.T) {
	c, reg := newLink(t)

	entries, err := c.Identify()
	require.NoError(t, err)
	require.Len(t, entries, len(protocol.Messages))
	require.Equal(t, "pwm_init", entries[protocol.MsgPWMInit].Name)
	require.Equal(t, "oid=%c freq_hz=%u duty=%hu", entries[protocol.MsgPWMInit].Format)

	res, err := c.CallByName("pwm_init", 0, 10000, 300)
	require.NoError(t, err)
	require.Equal(t, uint32(10000), res.Value2)

	_, err = c.CallByName("pwm_start", 0)
	require.NoError(t, err)
	require.True(t, reg.Block(core.TIM3).Output(core.Channel1))

	duty, hz, state, err := c.PWMStatus(0)
	require.NoError(t, err)
	require.Equal(t, uint16(300), duty)
	require.Equal(t, uint32(10000), hz)
	require.Equal(t, "started", state)

	_, err = c.CallByName("no_such_command")
	require.Error(t, err)
}

func TestRemoteErrorUnwraps(t *testing.T) {
	c, _ := newLink(t)

	res, err := c.Call(protocol.MsgPWMStop, 0)
	require.ErrorIs(t, err, core.ErrUninitialized)
	require.Equal(t, core.CodeUninitialized, res.Code)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, core.CodeUninitialized, remote.Code)
}

func TestEncoderOverLink(t *testing.T) {
	c, reg := newLink(t)

	_, err := c.Call(protocol.MsgEncoderInit, 0, 0xFFFF, 0)
	require.NoError(t, err)
	_, err = c.Call(protocol.MsgEncoderStart, 0)
	require.NoError(t, err)

	reg.Block(core.TIM2).Step(0x7FFF)
	reg.Block(core.TIM2).Step(1)

	count, maxCount, err := c.EncoderCount(0)
	require.NoError(t, err)
	require.Equal(t, int16(-32768), count)
	require.Equal(t, uint16(0xFFFF), maxCount)
}

func TestEventsOverLink(t *testing.T) {
	core.ClearEventRing()
	c, _ := newLink(t)

	events, err := c.Events()
	require.NoError(t, err)
	require.NotEmpty(t, events)
	require.Equal(t, uint8(core.EvtClaim), events[0].EventType)
}

func TestSequenceWraps(t *testing.T) {
	c, _ := newLink(t)
	for i := 0; i < 40; i++ {
		_, err := c.Call(protocol.MsgEncoderGet, 0)
		require.NoError(t, err)
	}
}

type halfOpen struct {
	io.Reader
	io.Writer
}

func TestCallTimeout(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	c := New(halfOpen{Reader: pr, Writer: io.Discard})
	c.SetTimeout(20 * time.Millisecond)

	_, err := c.Call(protocol.MsgIdentify, 0)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestCallAfterEOF(t *testing.T) {
	c := New(halfOpen{Reader: bytes.NewReader(nil), Writer: io.Discard})
	_, err := c.Call(protocol.MsgIdentify, 0)
	require.ErrorIs(t, err, ErrClosed)
}

func TestParseDictionary(t *testing.T) {
	entries, err := ParseDictionary("0 result code=%c\n1 identify\n")
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{ID: 0, Name: "result", Format: "code=%c"},
		{ID: 1, Name: "identify"},
	}, entries)

	_, err = ParseDictionary("x identify\n")
	require.Error(t, err)
}
