package layout

import "math/bits"

// ilog2 returns the smallest n such that 1<<n >= v. ilog2(0) is 0.
func ilog2(v uint64) int {
	if v <= 1 {
		return 0
	}
	return bits.Len64(v - 1)
}

// roundPow2 returns the smallest power of two >= v. It fails when that
// power does not fit in 64 bits.
func roundPow2(v uint64) (uint64, bool) {
	n := ilog2(v)
	if n >= 64 {
		return 0, false
	}
	return 1 << n, true
}

// alignUp returns n rounded up to the next multiple of mul.
func alignUp(n, mul uint64) (uint64, bool) {
	if mul <= 1 {
		return n, true
	}
	s, ok := add(n, mul-1)
	if !ok {
		return 0, false
	}
	return s / mul * mul, true
}

func add(a, b uint64) (uint64, bool) {
	s, carry := bits.Add64(a, b, 0)
	return s, carry == 0
}

func mul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}
