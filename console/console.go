// Package console answers diagnostics requests for a board over a framed
// byte stream. Every request frame gets exactly one result frame carrying
// the same sequence number.
package console

import (
	"errors"
	"io"
	"strconv"

	"timerhal/board"
	"timerhal/core"
	"timerhal/motor"
	"timerhal/protocol"
)

// identifyChunk is how many dictionary bytes one identify result carries
const identifyChunk = 40

// Console binds the request handlers to one board
type Console struct {
	board    *board.Board
	registry *Registry
}

// New registers every request handler against b
func New(b *board.Board) *Console {
	c := &Console{board: b, registry: NewRegistry()}

	handlers := map[protocol.MessageID]Handler{
		protocol.MsgIdentify:     c.handleIdentify,
		protocol.MsgPWMInit:      c.handlePWMInit,
		protocol.MsgPWMStart:     c.handlePWMStart,
		protocol.MsgPWMStop:      c.handlePWMStop,
		protocol.MsgPWMSetDuty:   c.handlePWMSetDuty,
		protocol.MsgPWMQuery:     c.handlePWMQuery,
		protocol.MsgEncoderInit:  c.handleEncoderInit,
		protocol.MsgEncoderStart: c.handleEncoderStart,
		protocol.MsgEncoderStop:  c.handleEncoderStop,
		protocol.MsgEncoderGet:   c.handleEncoderGet,
		protocol.MsgEncoderSet:   c.handleEncoderSet,
		protocol.MsgMotorInit:    c.handleMotorInit,
		protocol.MsgMotorDrive:   c.handleMotorDrive,
		protocol.MsgEventDump:    c.handleEventDump,
	}
	for _, m := range protocol.Messages {
		// result has no handler; it is listed for the host only
		c.registry.Register(m.ID, m.Name, m.Format, handlers[m.ID])
	}
	return c
}

// Registry exposes the command table
func (c *Console) Registry() *Registry {
	return c.registry
}

// Serve reads request frames from rw and writes one result frame per
// request until the stream fails
func (c *Console) Serve(rw io.ReadWriter) error {
	fr := protocol.NewFrameReader(rw)
	for {
		frame, err := fr.ReadFrame()
		if err != nil {
			return err
		}
		result := c.Handle(frame.Payload)
		out, err := protocol.EncodeFrame(frame.Seq, protocol.EncodeResult(result))
		if err != nil {
			out, _ = protocol.EncodeFrame(frame.Seq, protocol.EncodeResult(protocol.Result{Code: core.CodeUnknown}))
		}
		if _, err := rw.Write(out); err != nil {
			return err
		}
	}
}

// Handle decodes one request payload and runs its handler
func (c *Console) Handle(payload []byte) protocol.Result {
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return protocol.Result{Code: core.CodeInvalidParameter}
	}
	result, err := c.registry.Dispatch(protocol.MessageID(id), &payload)
	if err != nil {
		if errors.Is(err, ErrUnknownCommand) {
			err = core.ErrInvalidParameter
		}
		core.DebugPrintln("[CONSOLE] request " + strconv.Itoa(int(id)) + " failed: " + err.Error())
		return protocol.Result{Code: core.ErrorCode(err)}
	}
	return result
}

// args decodes VLQ arguments in order and remembers the first failure
type args struct {
	data *[]byte
	err  error
}

func (a *args) uint() uint32 {
	if a.err != nil {
		return 0
	}
	v, err := protocol.DecodeVLQUint(a.data)
	if err != nil {
		a.err = core.ErrInvalidParameter
	}
	return v
}

func (a *args) int() int32 {
	if a.err != nil {
		return 0
	}
	v, err := protocol.DecodeVLQInt(a.data)
	if err != nil {
		a.err = core.ErrInvalidParameter
	}
	return v
}

// tenths reads a tenth-of-a-percent value; anything above 16 bits is
// saturated and later clamped to 100.0%
func (a *args) tenths() uint16 {
	v := a.uint()
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

func (a *args) oid() uint8 {
	v := a.uint()
	if v > 0xFF && a.err == nil {
		a.err = core.ErrInvalidParameter
	}
	return uint8(v)
}

func (c *Console) pwm(data *[]byte) (*board.PWM, *args, error) {
	a := &args{data: data}
	oid := a.oid()
	if a.err != nil {
		return nil, nil, a.err
	}
	p, err := c.board.PWM(oid)
	if err != nil {
		return nil, nil, core.ErrInvalidParameter
	}
	return p, a, nil
}

func (c *Console) encoder(data *[]byte) (*board.Encoder, *args, error) {
	a := &args{data: data}
	oid := a.oid()
	if a.err != nil {
		return nil, nil, a.err
	}
	e, err := c.board.Encoder(oid)
	if err != nil {
		return nil, nil, core.ErrInvalidParameter
	}
	return e, a, nil
}

func (c *Console) motor(data *[]byte) (*board.Motor, *args, error) {
	a := &args{data: data}
	oid := a.oid()
	if a.err != nil {
		return nil, nil, a.err
	}
	m, err := c.board.Motor(oid)
	if err != nil {
		return nil, nil, core.ErrInvalidParameter
	}
	return m, a, nil
}

// handleIdentify returns one chunk of the dictionary. Value is the chunk
// offset and Value2 the full dictionary length.
func (c *Console) handleIdentify(data *[]byte) (protocol.Result, error) {
	a := &args{data: data}
	offset := a.uint()
	if a.err != nil {
		return protocol.Result{}, a.err
	}
	dict := c.registry.Dictionary()
	if offset > uint32(len(dict)) {
		return protocol.Result{}, core.ErrInvalidParameter
	}
	end := offset + identifyChunk
	if end > uint32(len(dict)) {
		end = uint32(len(dict))
	}
	return protocol.Result{
		Value:  int32(offset),
		Value2: uint32(len(dict)),
		Data:   []byte(dict[offset:end]),
	}, nil
}

func (c *Console) handlePWMInit(data *[]byte) (protocol.Result, error) {
	p, a, err := c.pwm(data)
	if err != nil {
		return protocol.Result{}, err
	}
	hz := a.uint()
	duty := a.tenths()
	if a.err != nil {
		return protocol.Result{}, a.err
	}
	if err := p.Init(hz, duty); err != nil {
		return protocol.Result{}, err
	}
	return protocol.Result{Value: int32(p.DutyCycleTenthPct()), Value2: p.SwitchingFrequencyHz()}, nil
}

func (c *Console) handlePWMStart(data *[]byte) (protocol.Result, error) {
	p, _, err := c.pwm(data)
	if err != nil {
		return protocol.Result{}, err
	}
	return protocol.Result{}, p.Start()
}

func (c *Console) handlePWMStop(data *[]byte) (protocol.Result, error) {
	p, _, err := c.pwm(data)
	if err != nil {
		return protocol.Result{}, err
	}
	return protocol.Result{}, p.Stop()
}

func (c *Console) handlePWMSetDuty(data *[]byte) (protocol.Result, error) {
	p, a, err := c.pwm(data)
	if err != nil {
		return protocol.Result{}, err
	}
	duty := a.tenths()
	if a.err != nil {
		return protocol.Result{}, a.err
	}
	if err := p.SetDutyCycle(duty); err != nil {
		return protocol.Result{}, err
	}
	return protocol.Result{Value: int32(p.DutyCycleTenthPct())}, nil
}

// handlePWMQuery reports duty cycle, frequency and state name
func (c *Console) handlePWMQuery(data *[]byte) (protocol.Result, error) {
	p, _, err := c.pwm(data)
	if err != nil {
		return protocol.Result{}, err
	}
	return protocol.Result{
		Value:  int32(p.DutyCycleTenthPct()),
		Value2: p.SwitchingFrequencyHz(),
		Data:   []byte(p.State().String()),
	}, nil
}

func (c *Console) handleEncoderInit(data *[]byte) (protocol.Result, error) {
	e, a, err := c.encoder(data)
	if err != nil {
		return protocol.Result{}, err
	}
	maxCount := a.uint()
	filter := a.uint()
	if a.err != nil {
		return protocol.Result{}, a.err
	}
	if maxCount > 0xFFFF {
		return protocol.Result{}, core.ErrInvalidParameter
	}
	if filter > 0xFF {
		filter = 0xFF
	}
	if err := e.Init(uint16(maxCount), uint8(filter)); err != nil {
		return protocol.Result{}, err
	}
	return protocol.Result{Value2: uint32(e.MaxCount())}, nil
}

func (c *Console) handleEncoderStart(data *[]byte) (protocol.Result, error) {
	e, _, err := c.encoder(data)
	if err != nil {
		return protocol.Result{}, err
	}
	return protocol.Result{}, e.Start()
}

func (c *Console) handleEncoderStop(data *[]byte) (protocol.Result, error) {
	e, _, err := c.encoder(data)
	if err != nil {
		return protocol.Result{}, err
	}
	return protocol.Result{}, e.Stop()
}

// handleEncoderGet reports the signed count and the max count
func (c *Console) handleEncoderGet(data *[]byte) (protocol.Result, error) {
	e, _, err := c.encoder(data)
	if err != nil {
		return protocol.Result{}, err
	}
	return protocol.Result{Value: int32(e.Count()), Value2: uint32(e.MaxCount())}, nil
}

func (c *Console) handleEncoderSet(data *[]byte) (protocol.Result, error) {
	e, a, err := c.encoder(data)
	if err != nil {
		return protocol.Result{}, err
	}
	count := a.int()
	if a.err != nil {
		return protocol.Result{}, a.err
	}
	if count < -32768 || count > 32767 {
		return protocol.Result{}, core.ErrInvalidParameter
	}
	if err := e.SetCount(int16(count)); err != nil {
		return protocol.Result{}, err
	}
	return protocol.Result{Value: int32(e.Count())}, nil
}

func (c *Console) handleMotorInit(data *[]byte) (protocol.Result, error) {
	m, a, err := c.motor(data)
	if err != nil {
		return protocol.Result{}, err
	}
	hz := a.uint()
	if a.err != nil {
		return protocol.Result{}, a.err
	}
	return protocol.Result{}, m.Init(hz)
}

func (c *Console) handleMotorDrive(data *[]byte) (protocol.Result, error) {
	m, a, err := c.motor(data)
	if err != nil {
		return protocol.Result{}, err
	}
	dir := a.uint()
	strength := a.tenths()
	if a.err != nil {
		return protocol.Result{}, a.err
	}
	if dir > 0xFF {
		return protocol.Result{}, core.ErrInvalidParameter
	}
	if err := m.Drive(motor.Direction(dir), strength); err != nil {
		return protocol.Result{}, err
	}
	in1, in2 := m.Inputs()
	return protocol.Result{
		Value:  int32(in1.DutyCycleTenthPct()),
		Value2: uint32(in2.DutyCycleTenthPct()),
	}, nil
}

// handleEventDump returns one recorded event. Value is the number of
// events held; Data is empty past the end, otherwise
// [type block channel vlq(v1) vlq(v2)].
func (c *Console) handleEventDump(data *[]byte) (protocol.Result, error) {
	a := &args{data: data}
	index := a.uint()
	if a.err != nil {
		return protocol.Result{}, a.err
	}
	events := core.Events()
	result := protocol.Result{Value: int32(len(events))}
	if index < uint32(len(events)) {
		evt := events[index]
		buf := []byte{evt.EventType, uint8(evt.Block), evt.Channel}
		buf = protocol.AppendVLQUint(buf, evt.Value1)
		buf = protocol.AppendVLQUint(buf, evt.Value2)
		result.Data = buf
	}
	return result, nil
}
