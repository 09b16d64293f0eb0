package core

// quadratureSteps maps (previous<<2 | current) input states onto a count
// step. States are encoded A<<1 | B; A leading B counts up. Illegal
// double transitions count 0.
var quadratureSteps = [16]int8{
	0, -1, +1, 0,
	+1, 0, 0, -1,
	-1, 0, 0, +1,
	0, +1, -1, 0,
}

// QuadratureDecoder turns sampled A/B encoder inputs into count steps,
// counting both edges of both inputs like the TIMx TI12 encoder mode.
//
// The filter is the number of extra consecutive samples a new input state
// must hold before it is accepted; 0 accepts it immediately.
type QuadratureDecoder struct {
	filter  uint8
	state   uint8
	pending uint8
	seen    uint8
}

// NewQuadratureDecoder creates a decoder. Filters above EncoderFilterMax
// are clamped.
func NewQuadratureDecoder(filter uint8) *QuadratureDecoder {
	d := &QuadratureDecoder{}
	d.SetFilter(filter)
	return d
}

// SetFilter changes the input filter
func (d *QuadratureDecoder) SetFilter(filter uint8) {
	if filter > EncoderFilterMax {
		filter = EncoderFilterMax
	}
	d.filter = filter
}

// Reset sets the accepted input state without producing a step
func (d *QuadratureDecoder) Reset(a, b bool) {
	d.state = quadratureState(a, b)
	d.seen = 0
}

// Sample feeds one A/B sample and returns -1, 0 or +1
func (d *QuadratureDecoder) Sample(a, b bool) int8 {
	return d.sample(quadratureState(a, b))
}

// SampleWord feeds count packed 2-bit samples, oldest in the low bits, each
// with A in bit 0 and B in bit 1. It returns the summed steps.
func (d *QuadratureDecoder) SampleWord(word uint32, count int) int32 {
	var delta int32
	for i := 0; i < count && i < 16; i++ {
		bits := uint8(word>>(2*i)) & 0x3
		delta += int32(d.sample((bits&0x1)<<1 | bits>>1))
	}
	return delta
}

func (d *QuadratureDecoder) sample(cur uint8) int8 {
	if cur == d.state {
		d.seen = 0
		return 0
	}
	if cur != d.pending || d.seen == 0 {
		d.pending = cur
		d.seen = 1
	} else if d.seen < 0xFF {
		d.seen++
	}
	if d.seen <= d.filter {
		return 0
	}

	step := quadratureSteps[d.state<<2|cur]
	d.state = cur
	d.seen = 0
	return step
}

func quadratureState(a, b bool) uint8 {
	var s uint8
	if a {
		s |= 0x2
	}
	if b {
		s |= 0x1
	}
	return s
}

// AdvanceCounter moves an up/down counter by delta, wrapping between 0 and
// period inclusive like an auto-reload counter. A zero period wraps at 16
// bits.
func AdvanceCounter(counter, period uint32, delta int32) uint32 {
	span := int64(period) + 1
	if period == 0 {
		span = 1 << 16
	}
	next := (int64(counter) + int64(delta)) % span
	if next < 0 {
		next += span
	}
	return uint32(next)
}
