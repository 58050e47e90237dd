package privacy

// All maskers count characters, not bytes, so multi-byte names and addresses
// are cut on character boundaries.

const (
	birthPlaceholder = "****"
	numPlaceholder   = "********"
	numMiddle        = "************"
)

// MaskName keeps the first character and replaces the rest with a single '*'.
// Inputs shorter than two characters become "*".
func MaskName(s string) string {
	r := []rune(s)
	if len(r) < 2 {
		return "*"
	}
	return string(r[0]) + "*"
}

// MaskBirth keeps the year of an 8-digit date
func MaskBirth(s string) string {
	r := []rune(s)
	if len(r) < 4 {
		return birthPlaceholder
	}
	return string(r[:4]) + birthPlaceholder
}

// MaskAddress keeps at most the first six characters
func MaskAddress(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	keep := min(6, len(r))
	return string(r[:keep]) + "****"
}

// MaskNum keeps the first three and last four characters of a national ID number
func MaskNum(s string) string {
	r := []rune(s)
	if len(r) < 8 {
		return numPlaceholder
	}
	return string(r[:3]) + numMiddle + string(r[len(r)-4:])
}

// maskPhone hides digits 4-7 of an 11-digit phone number
func maskPhone(m string) string {
	return m[:3] + "****" + m[7:]
}

func maskEmail(string) string {
	return "***@***"
}

