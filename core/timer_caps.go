package core

// BlockID names a physical timer block. The zero value is not a block.
type BlockID uint8

const (
	BlockNone BlockID = iota

	// STM32H5 TIMx blocks
	TIM1
	TIM2
	TIM3
	TIM4
	TIM5
	TIM6
	TIM7
	TIM8
	TIM12
	TIM13
	TIM14
	TIM15
	TIM16
	TIM17

	// RP2040 PWM slices
	RP2PWM0
	RP2PWM1
	RP2PWM2
	RP2PWM3
	RP2PWM4
	RP2PWM5
	RP2PWM6
	RP2PWM7

	// RP2040 PIO state machines running the quadrature counter program
	RP2PIOQuad0
	RP2PIOQuad1
	RP2PIOQuad2
	RP2PIOQuad3
	RP2PIOQuad4
	RP2PIOQuad5
	RP2PIOQuad6
	RP2PIOQuad7
)

// Capability describes what a timer block can be claimed for
type Capability struct {
	Name       string
	Channels   uint8 // channels wired out of the block
	OutputMask uint8 // bit n set: Channel(n) supports output compare
	Quadrature bool  // Channel1 + Channel2 can run as a quadrature counter
}

// SupportsOutput reports whether ch can be claimed for output compare
func (c Capability) SupportsOutput(ch Channel) bool {
	return ch.index < c.Channels && c.OutputMask&ch.mask() != 0
}

// capabilityTable is per-target configuration data, not derived logic.
//
// STM32H5: TIM6/TIM7 are basic timers with no channels. TIM12/TIM15 have
// two output channels and no encoder interface. TIM13/14/16/17 have a
// single output channel. TIM1/TIM8 expose six channels, of which 1-4 drive
// pins. TIM2-5 are general purpose with four channels.
//
// RP2040: every PWM slice has channels A and B and cannot count
// quadrature. Quadrature is provided by PIO state machines instead.
var capabilityTable = map[BlockID]Capability{
	TIM1:  {Name: "TIM1", Channels: 6, OutputMask: 0x0F, Quadrature: true},
	TIM2:  {Name: "TIM2", Channels: 4, OutputMask: 0x0F, Quadrature: true},
	TIM3:  {Name: "TIM3", Channels: 4, OutputMask: 0x0F, Quadrature: true},
	TIM4:  {Name: "TIM4", Channels: 4, OutputMask: 0x0F, Quadrature: true},
	TIM5:  {Name: "TIM5", Channels: 4, OutputMask: 0x0F, Quadrature: true},
	TIM6:  {Name: "TIM6"},
	TIM7:  {Name: "TIM7"},
	TIM8:  {Name: "TIM8", Channels: 6, OutputMask: 0x0F, Quadrature: true},
	TIM12: {Name: "TIM12", Channels: 2, OutputMask: 0x03},
	TIM13: {Name: "TIM13", Channels: 1, OutputMask: 0x01},
	TIM14: {Name: "TIM14", Channels: 1, OutputMask: 0x01},
	TIM15: {Name: "TIM15", Channels: 2, OutputMask: 0x03},
	TIM16: {Name: "TIM16", Channels: 1, OutputMask: 0x01},
	TIM17: {Name: "TIM17", Channels: 1, OutputMask: 0x01},

	RP2PWM0: {Name: "PWM0", Channels: 2, OutputMask: 0x03},
	RP2PWM1: {Name: "PWM1", Channels: 2, OutputMask: 0x03},
	RP2PWM2: {Name: "PWM2", Channels: 2, OutputMask: 0x03},
	RP2PWM3: {Name: "PWM3", Channels: 2, OutputMask: 0x03},
	RP2PWM4: {Name: "PWM4", Channels: 2, OutputMask: 0x03},
	RP2PWM5: {Name: "PWM5", Channels: 2, OutputMask: 0x03},
	RP2PWM6: {Name: "PWM6", Channels: 2, OutputMask: 0x03},
	RP2PWM7: {Name: "PWM7", Channels: 2, OutputMask: 0x03},

	RP2PIOQuad0: {Name: "PIO0.SM0", Channels: 2, Quadrature: true},
	RP2PIOQuad1: {Name: "PIO0.SM1", Channels: 2, Quadrature: true},
	RP2PIOQuad2: {Name: "PIO0.SM2", Channels: 2, Quadrature: true},
	RP2PIOQuad3: {Name: "PIO0.SM3", Channels: 2, Quadrature: true},
	RP2PIOQuad4: {Name: "PIO1.SM0", Channels: 2, Quadrature: true},
	RP2PIOQuad5: {Name: "PIO1.SM1", Channels: 2, Quadrature: true},
	RP2PIOQuad6: {Name: "PIO1.SM2", Channels: 2, Quadrature: true},
	RP2PIOQuad7: {Name: "PIO1.SM3", Channels: 2, Quadrature: true},
}

// LookupCapability returns the capability entry for a block. Unknown blocks
// report a zero Capability, which rejects every claim.
func LookupCapability(id BlockID) Capability {
	return capabilityTable[id]
}

// BlockByName resolves a block name such as "TIM3" or "PWM0"
func BlockByName(name string) (BlockID, bool) {
	for id, c := range capabilityTable {
		if c.Name == name {
			return id, true
		}
	}
	return BlockNone, false
}

func (id BlockID) String() string {
	if c, ok := capabilityTable[id]; ok {
		return c.Name
	}
	return "block(" + utoa(uint32(id)) + ")"
}
