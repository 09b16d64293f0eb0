// Package protocol implements the framed diagnostics link between a host
// and the timer firmware.
//
// A frame is [len][seq][payload...][crc16 hi][crc16 lo][0x7E]. The payload
// is a VLQ message ID followed by VLQ encoded arguments.
package protocol

// Version of the diagnostics link
const Version = "0.1.0"

// Frame layout constants
const (
	FrameHeaderSize  = 2
	FrameTrailerSize = 3
	FrameLengthMin   = FrameHeaderSize + FrameTrailerSize
	FrameLengthMax   = 64
	FramePayloadMax  = FrameLengthMax - FrameLengthMin

	framePositionLen = 0
	framePositionSeq = 1

	FrameSync = 0x7E
	SeqDest   = 0x10
	SeqMask   = 0x0F
)
