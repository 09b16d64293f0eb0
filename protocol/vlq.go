package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// AppendVLQInt appends a signed integer in VLQ form. Values in [-32, 96)
// take one byte; every further byte carries 7 more bits.
func AppendVLQInt(buf []byte, v int32) []byte {
	if !(-(1<<26) <= v && v < (3<<26)) {
		buf = append(buf, byte((v>>28)&0x7F)|0x80)
	}
	if !(-(1<<19) <= v && v < (3<<19)) {
		buf = append(buf, byte((v>>21)&0x7F)|0x80)
	}
	if !(-(1<<12) <= v && v < (3<<12)) {
		buf = append(buf, byte((v>>14)&0x7F)|0x80)
	}
	if !(-(1<<5) <= v && v < (3<<5)) {
		buf = append(buf, byte((v>>7)&0x7F)|0x80)
	}
	return append(buf, byte(v&0x7F))
}

// AppendVLQUint appends an unsigned integer in VLQ form
func AppendVLQUint(buf []byte, v uint32) []byte {
	return AppendVLQInt(buf, int32(v))
}

// AppendVLQBytes appends a length-prefixed byte string
func AppendVLQBytes(buf []byte, data []byte) []byte {
	buf = AppendVLQUint(buf, uint32(len(data)))
	return append(buf, data...)
}

// DecodeVLQInt decodes a signed integer and advances data past it
func DecodeVLQInt(data *[]byte) (int32, error) {
	if len(*data) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := uint32((*data)[0])
	*data = (*data)[1:]

	v := c & 0x7F
	if c&0x60 == 0x60 {
		// sign extend
		v |= ^uint32(0x1F)
	}

	for n := 0; c&0x80 != 0; n++ {
		if n == 4 {
			return 0, ErrInvalidVLQ
		}
		if len(*data) == 0 {
			return 0, ErrBufferTooSmall
		}
		c = uint32((*data)[0])
		*data = (*data)[1:]
		v = v<<7 | c&0x7F
	}

	return int32(v), nil
}

// DecodeVLQUint decodes an unsigned integer and advances data past it
func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt(data)
	return uint32(v), err
}

// DecodeVLQBytes decodes a length-prefixed byte string. The result aliases
// data.
func DecodeVLQBytes(data *[]byte) ([]byte, error) {
	length, err := DecodeVLQUint(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(*data)) < length {
		return nil, ErrBufferTooSmall
	}
	result := (*data)[:length]
	*data = (*data)[length:]
	return result, nil
}
