package core

// Duty cycles are expressed in tenths of a percent: 0 = 0.0%, 1000 = 100.0%
const (
	DutyCycleMinTenthPct = 0
	DutyCycleMaxTenthPct = 1000
)

// MaxPeriod16 is the period ceiling used for every timer block, including
// those with 32-bit counters, so that register values stay portable.
const MaxPeriod16 = 0xFFFF

// FrequencyRegisters holds the divider and period fields computed for a
// switching frequency. Divider uses the hardware convention (divider - 1).
type FrequencyRegisters struct {
	Divider uint32
	Period  uint32
}

// ClampDutyCycle limits a duty cycle to 100.0%
func ClampDutyCycle(dutyTenthPct uint16) uint16 {
	if dutyTenthPct > DutyCycleMaxTenthPct {
		return DutyCycleMaxTenthPct
	}
	return dutyTenthPct
}

// FrequencyToRegisters searches the divider and period for a switching
// frequency. The period is kept at or above the duty-cycle resolution so
// that every tenth of a percent maps onto a distinct compare value.
//
// The divider is the ceiling of cycles/period; the period is then
// recomputed with rounding division against that divider, which keeps the
// frequency error smaller than a ceiling-only search.
func FrequencyToRegisters(switchingHz, sourceHz, maxPeriod uint32) (FrequencyRegisters, error) {
	if switchingHz == 0 || sourceHz == 0 || maxPeriod == 0 {
		return FrequencyRegisters{}, ErrInvalidParameter
	}

	cycles := sourceHz / switchingHz
	period := maxPeriod
	if cycles < period {
		period = cycles
	}
	if period < DutyCycleMaxTenthPct {
		return FrequencyRegisters{}, ErrInvalidParameter
	}

	divider := CeilingDivide(cycles, period)
	period = RoundingDivide(cycles, divider)

	return FrequencyRegisters{
		Divider: divider - 1,
		Period:  period,
	}, nil
}

// DutyCycleToCompare converts a duty cycle into a compare value for period.
// Duty cycles above 100.0% are clamped, so the result never exceeds period.
// A zero period is a degenerate channel and always yields 0.
func DutyCycleToCompare(dutyTenthPct uint16, period uint32) uint32 {
	if period == 0 {
		return 0
	}
	return RoundingDivide(uint32(ClampDutyCycle(dutyTenthPct))*period, DutyCycleMaxTenthPct)
}

// CompareToDutyCycle converts a compare value back into a duty cycle
func CompareToDutyCycle(period, compare uint32) uint16 {
	if period == 0 {
		return 0
	}
	return uint16(RoundingDivide(compare*DutyCycleMaxTenthPct, period))
}

// RegistersToFrequency returns the switching frequency produced by a
// one-based divider and a period
func RegistersToFrequency(sourceHz, divider, period uint32) uint32 {
	if divider == 0 || period == 0 {
		return 0
	}
	return RoundingDivide(sourceHz, divider*period)
}
