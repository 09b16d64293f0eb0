package protocol

// MessageID identifies a request or response on the link
type MessageID uint16

// Message IDs are fixed; the host and firmware are built from the same
// table.
const (
	MsgResult MessageID = iota
	MsgIdentify
	MsgPWMInit
	MsgPWMStart
	MsgPWMStop
	MsgPWMSetDuty
	MsgPWMQuery
	MsgEncoderInit
	MsgEncoderStart
	MsgEncoderStop
	MsgEncoderGet
	MsgEncoderSet
	MsgMotorInit
	MsgMotorDrive
	MsgEventDump
)

// MessageFormat describes one message for the identify dictionary
type MessageFormat struct {
	ID     MessageID
	Name   string
	Format string
}

// Messages lists every message in ID order
var Messages = []MessageFormat{
	{MsgResult, "result", "code=%c value=%i value2=%u data=%*s"},
	{MsgIdentify, "identify", "offset=%u"},
	{MsgPWMInit, "pwm_init", "oid=%c freq_hz=%u duty=%hu"},
	{MsgPWMStart, "pwm_start", "oid=%c"},
	{MsgPWMStop, "pwm_stop", "oid=%c"},
	{MsgPWMSetDuty, "pwm_set_duty", "oid=%c duty=%hu"},
	{MsgPWMQuery, "pwm_query", "oid=%c"},
	{MsgEncoderInit, "enc_init", "oid=%c max_count=%hu filter=%c"},
	{MsgEncoderStart, "enc_start", "oid=%c"},
	{MsgEncoderStop, "enc_stop", "oid=%c"},
	{MsgEncoderGet, "enc_get", "oid=%c"},
	{MsgEncoderSet, "enc_set", "oid=%c count=%hi"},
	{MsgMotorInit, "motor_init", "oid=%c freq_hz=%u"},
	{MsgMotorDrive, "motor_drive", "oid=%c dir=%c strength=%hu"},
	{MsgEventDump, "event_dump", "index=%c"},
}

// MessageByName looks a message up by name
func MessageByName(name string) (MessageFormat, bool) {
	for _, m := range Messages {
		if m.Name == name {
			return m, true
		}
	}
	return MessageFormat{}, false
}

// Result is the single response to every request
type Result struct {
	Code   uint8
	Value  int32
	Value2 uint32
	Data   []byte
}

// EncodeRequest builds a request payload from a message ID and arguments
func EncodeRequest(id MessageID, args ...int32) []byte {
	buf := AppendVLQUint(nil, uint32(id))
	for _, arg := range args {
		buf = AppendVLQInt(buf, arg)
	}
	return buf
}

// EncodeResult builds a result payload
func EncodeResult(r Result) []byte {
	buf := AppendVLQUint(nil, uint32(MsgResult))
	buf = AppendVLQUint(buf, uint32(r.Code))
	buf = AppendVLQInt(buf, r.Value)
	buf = AppendVLQUint(buf, r.Value2)
	return AppendVLQBytes(buf, r.Data)
}

// DecodeResult parses a result payload, including its message ID
func DecodeResult(payload []byte) (Result, error) {
	id, err := DecodeVLQUint(&payload)
	if err != nil {
		return Result{}, err
	}
	if MessageID(id) != MsgResult {
		return Result{}, ErrInvalidVLQ
	}
	var r Result
	code, err := DecodeVLQUint(&payload)
	if err != nil {
		return Result{}, err
	}
	r.Code = uint8(code)
	if r.Value, err = DecodeVLQInt(&payload); err != nil {
		return Result{}, err
	}
	if r.Value2, err = DecodeVLQUint(&payload); err != nil {
		return Result{}, err
	}
	if r.Data, err = DecodeVLQBytes(&payload); err != nil {
		return Result{}, err
	}
	return r, nil
}
