package protocol

import "testing"

func TestCRC16(t *testing.T) {
	testCases := []struct {
		data     []byte
		expected uint16
	}{
		{data: []byte{}, expected: 0xFFFF},
		{data: []byte("123456789"), expected: 0x6F91},
		{data: []byte{5, SeqDest}, expected: 0x9E81},
	}

	for i, tc := range testCases {
		if got := CRC16(tc.data); got != tc.expected {
			t.Errorf("Test case %d: CRC16(%v) = 0x%04X, want 0x%04X", i, tc.data, got, tc.expected)
		}
	}
}

func TestCRC16DetectsSingleBitFlip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	base := CRC16(data)

	for i := range data {
		for bit := 0; bit < 8; bit++ {
			data[i] ^= 1 << bit
			if CRC16(data) == base {
				t.Errorf("flip of byte %d bit %d not detected", i, bit)
			}
			data[i] ^= 1 << bit
		}
	}
}
