package model

// NormalizePhone strips every non-digit character and keeps the last 10
// digits. The normalized form is the sole correlation key between a purchase
// and a not-yet-registered user, so every write path and every read-side
// query must go through this function.
func NormalizePhone(raw string) string {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return string(digits)
}

// IsValidPhone reports whether raw normalizes to exactly 10 digits.
func IsValidPhone(raw string) bool {
	return len(NormalizePhone(raw)) == 10
}
