package protocol

import (
	"bytes"
	"io"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	payload := EncodeRequest(MsgPWMInit, 1, 5000, 500)
	raw, err := EncodeFrame(3, payload)
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	if raw[0] != byte(len(raw)) {
		t.Errorf("length byte = %d, want %d", raw[0], len(raw))
	}
	if raw[len(raw)-1] != FrameSync {
		t.Errorf("trailing byte = 0x%02X, want sync", raw[len(raw)-1])
	}

	fr := NewFrameReader(bytes.NewReader(raw))
	frame, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if frame.Seq != 3 {
		t.Errorf("seq = %d, want 3", frame.Seq)
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Errorf("payload = %v, want %v", frame.Payload, payload)
	}

	if _, err := fr.ReadFrame(); err != io.EOF {
		t.Errorf("expected EOF after last frame, got %v", err)
	}
}

func TestFrameTooLarge(t *testing.T) {
	if _, err := EncodeFrame(0, make([]byte, FramePayloadMax+1)); err != ErrFrameTooLarge {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
	if _, err := EncodeFrame(0, make([]byte, FramePayloadMax)); err != nil {
		t.Errorf("max payload rejected: %v", err)
	}
}

func TestFrameReaderResyncsAfterGarbage(t *testing.T) {
	first, _ := EncodeFrame(1, []byte{0x01, 0x02})
	second, _ := EncodeFrame(2, []byte{0x03})

	var stream []byte
	stream = append(stream, 0x42, 0x00, 0x99)
	stream = append(stream, FrameSync)
	stream = append(stream, first...)
	stream = append(stream, second...)

	fr := NewFrameReader(bytes.NewReader(stream))
	frame, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if frame.Seq != 1 {
		t.Errorf("first frame seq = %d, want 1", frame.Seq)
	}
	frame, err = fr.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if frame.Seq != 2 || !bytes.Equal(frame.Payload, []byte{0x03}) {
		t.Errorf("second frame = %+v", frame)
	}
	if fr.Dropped() == 0 {
		t.Error("expected garbage to be counted as dropped")
	}
}

func TestFrameReaderDropsBadCRC(t *testing.T) {
	bad, _ := EncodeFrame(4, []byte{0x10, 0x20})
	bad[2] ^= 0xFF
	good, _ := EncodeFrame(5, []byte{0x30})

	fr := NewFrameReader(bytes.NewReader(append(bad, good...)))
	frame, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if frame.Seq != 5 {
		t.Errorf("seq = %d, want 5", frame.Seq)
	}
	if fr.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", fr.Dropped())
	}
}

func TestFrameReaderSplitReads(t *testing.T) {
	raw, _ := EncodeFrame(7, []byte{0x01, 0x02, 0x03, 0x04})

	pr, pw := io.Pipe()
	go func() {
		for _, b := range raw {
			pw.Write([]byte{b})
		}
		pw.Close()
	}()

	fr := NewFrameReader(pr)
	frame, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if frame.Seq != 7 || len(frame.Payload) != 4 {
		t.Errorf("frame = %+v", frame)
	}
}

func TestResultRoundTrip(t *testing.T) {
	want := Result{Code: 3, Value: -1234, Value2: 170000000, Data: []byte("TIM1")}
	got, err := DecodeResult(EncodeResult(want))
	if err != nil {
		t.Fatalf("DecodeResult failed: %v", err)
	}
	if got.Code != want.Code || got.Value != want.Value || got.Value2 != want.Value2 || !bytes.Equal(got.Data, want.Data) {
		t.Errorf("result = %+v, want %+v", got, want)
	}

	if _, err := DecodeResult(EncodeRequest(MsgIdentify)); err == nil {
		t.Error("expected error decoding a request as a result")
	}
}

func TestMessageTable(t *testing.T) {
	for i, m := range Messages {
		if int(m.ID) != i {
			t.Errorf("message %q has ID %d at index %d", m.Name, m.ID, i)
		}
	}
	m, ok := MessageByName("enc_set")
	if !ok || m.ID != MsgEncoderSet {
		t.Errorf("MessageByName(enc_set) = %+v, %v", m, ok)
	}
	if _, ok := MessageByName("nope"); ok {
		t.Error("unknown message resolved")
	}
}
