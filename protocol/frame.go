package protocol

import (
	"errors"
	"io"
)

var (
	ErrFrameTooLarge = errors.New("frame payload too large")
)

// Frame is one decoded link frame
type Frame struct {
	Seq     uint8 // low 4 bits of the sequence byte
	Payload []byte
}

// EncodeFrame wraps a payload into a frame with header, CRC and sync byte
func EncodeFrame(seq uint8, payload []byte) ([]byte, error) {
	if len(payload) > FramePayloadMax {
		return nil, ErrFrameTooLarge
	}
	length := len(payload) + FrameLengthMin

	buf := make([]byte, 0, length)
	buf = append(buf, byte(length), SeqDest|seq&SeqMask)
	buf = append(buf, payload...)
	crc := CRC16(buf)
	buf = append(buf, byte(crc>>8), byte(crc), FrameSync)
	return buf, nil
}

// FrameReader extracts frames from a byte stream. Corrupt or truncated
// frames are dropped and the reader resynchronises on the next sync byte.
type FrameReader struct {
	r       io.Reader
	buf     []byte
	scratch [FrameLengthMax]byte
	synced  bool
	dropped int
}

// NewFrameReader creates a reader that starts synchronised
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r, synced: true}
}

// Dropped returns how many corrupt frames have been discarded
func (fr *FrameReader) Dropped() int {
	return fr.dropped
}

// ReadFrame blocks until a complete valid frame arrives or the underlying
// reader fails
func (fr *FrameReader) ReadFrame() (Frame, error) {
	for {
		if frame, ok := fr.parse(); ok {
			return frame, nil
		}
		n, err := fr.r.Read(fr.scratch[:])
		fr.buf = append(fr.buf, fr.scratch[:n]...)
		if err != nil {
			if n > 0 {
				if frame, ok := fr.parse(); ok {
					return frame, nil
				}
			}
			return Frame{}, err
		}
	}
}

// parse consumes buffered bytes and returns the first valid frame
func (fr *FrameReader) parse() (Frame, bool) {
	for len(fr.buf) > 0 {
		if !fr.synced {
			i := 0
			for i < len(fr.buf) && fr.buf[i] != FrameSync {
				i++
			}
			if i == len(fr.buf) {
				fr.buf = fr.buf[:0]
				return Frame{}, false
			}
			fr.buf = fr.buf[i+1:]
			fr.synced = true
			continue
		}

		if fr.buf[0] == FrameSync {
			fr.buf = fr.buf[1:]
			continue
		}
		if len(fr.buf) < FrameLengthMin {
			return Frame{}, false
		}

		length := int(fr.buf[framePositionLen])
		seq := fr.buf[framePositionSeq]
		if length < FrameLengthMin || length > FrameLengthMax || seq&^SeqMask != SeqDest {
			fr.desync()
			continue
		}
		if len(fr.buf) < length {
			return Frame{}, false
		}
		if fr.buf[length-1] != FrameSync {
			fr.desync()
			continue
		}
		want := uint16(fr.buf[length-3])<<8 | uint16(fr.buf[length-2])
		if CRC16(fr.buf[:length-FrameTrailerSize]) != want {
			fr.desync()
			continue
		}

		payload := make([]byte, length-FrameLengthMin)
		copy(payload, fr.buf[FrameHeaderSize:length-FrameTrailerSize])
		fr.buf = fr.buf[length:]
		return Frame{Seq: seq & SeqMask, Payload: payload}, true
	}
	return Frame{}, false
}

func (fr *FrameReader) desync() {
	fr.dropped++
	fr.synced = false
	fr.buf = fr.buf[1:]
}
