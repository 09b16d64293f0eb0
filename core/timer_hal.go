package core

// TimerRegisters is the register-access primitive for one physical timer
// block. Platform-specific implementations touch the hardware; core code
// never does.
//
// Configuration writes return an error when the underlying primitive
// reports a failure. Reads never fail.
type TimerRegisters interface {
	// Block returns the hardware identity used for capability lookup and
	// clock routing
	Block() BlockID

	// SetDivider writes the clock divider field (divider - 1)
	SetDivider(value uint32) error

	// Divider reads the clock divider field (divider - 1)
	Divider() uint32

	// SetPeriod writes the auto-reload (period) field
	SetPeriod(value uint32) error

	// Period reads the auto-reload (period) field
	Period() uint32

	// SetCompare writes the compare field of a channel
	SetCompare(ch Channel, value uint32) error

	// Compare reads the compare field of a channel
	Compare(ch Channel) uint32

	// EnableOutput starts compare output generation on a channel
	EnableOutput(ch Channel) error

	// DisableOutput stops compare output generation on a channel
	DisableOutput(ch Channel) error

	// ConfigureEncoder puts Channel1/Channel2 into quadrature counting
	// (both edges of both inputs) with the given input filter
	ConfigureEncoder(filter uint8) error

	// EnableCounter starts free counting in quadrature mode
	EnableCounter() error

	// DisableCounter stops free counting in quadrature mode
	DisableCounter() error

	// Counter reads the live counter
	Counter() uint32

	// SetCounter overwrites the live counter
	SetCounter(value uint32) error
}

// ClockSource reports the clock frequency feeding a timer block
type ClockSource interface {
	SourceFrequencyHz(block BlockID) uint32
}

// FixedClock feeds every block from the same clock
type FixedClock uint32

func (c FixedClock) SourceFrequencyHz(BlockID) uint32 {
	return uint32(c)
}

// APBClock routes STM32H5 timer blocks onto their peripheral clocks.
// TIM1 and TIM8 sit on PCLK2; every other TIMx sits on PCLK1.
type APBClock struct {
	PCLK1Hz uint32
	PCLK2Hz uint32
}

func (c APBClock) SourceFrequencyHz(block BlockID) uint32 {
	if block == TIM1 || block == TIM8 {
		return c.PCLK2Hz
	}
	return c.PCLK1Hz
}
