package core

// Integer-to-string helpers for building status lines. The report path may
// run right after interrupt-driven moves complete; keeping fmt out of it
// keeps the firmware image small on embedded targets.

// utoa converts an unsigned integer to its decimal representation.
func utoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// itoa converts a signed integer to its decimal representation.
func itoa(v int32) string {
	if v < 0 {
		return "-" + utoa(uint32(-v))
	}
	return utoa(uint32(v))
}

// boolDigit renders a boolean as "1" or "0" for status lines.
func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
