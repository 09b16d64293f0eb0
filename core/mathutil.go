package core

// divideWithBias performs (dividend + bias) / divisor. When adding the bias
// wraps the 32-bit dividend, it falls back to truncating division.
func divideWithBias(dividend, divisor, bias uint32) uint32 {
	biased := dividend + bias
	if biased < dividend || biased < bias {
		return dividend / divisor
	}
	return biased / divisor
}

// RoundingDivide divides with round-half-up. The divisor must be non-zero.
func RoundingDivide(dividend, divisor uint32) uint32 {
	if divisor == 0 {
		panic("core: RoundingDivide by zero")
	}
	return divideWithBias(dividend, divisor, divisor/2)
}

// CeilingDivide divides rounding towards +inf. The divisor must be non-zero.
func CeilingDivide(dividend, divisor uint32) uint32 {
	if divisor == 0 {
		panic("core: CeilingDivide by zero")
	}
	return divideWithBias(dividend, divisor, divisor-1)
}
