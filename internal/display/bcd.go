package display

// BCD is a two-digit decimal value.
type BCD struct {
	Tens DigitCode
	Ones DigitCode
}

// ToBCD splits a humidity field value into decimal digits. Both digits are
// clamped to 9 so a width mismatch upstream can never produce a non-decimal
// code.
func ToBCD(v uint) BCD {
	return BCD{
		Tens: clampDigit(v / 10),
		Ones: clampDigit(v % 10),
	}
}

// MoistureDigit returns the single digit for a moisture level.
func MoistureDigit(v uint) DigitCode {
	return clampDigit(v)
}

func clampDigit(v uint) DigitCode {
	if v > 9 {
		return 9
	}
	return DigitCode(v)
}
