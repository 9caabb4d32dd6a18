package settlement

import (
	"fmt"
	"strconv"
)

// Panna is a drawn 3-digit combination.
type Panna string

// ParsePanna accepts exactly three ASCII decimal digits.
func ParsePanna(s string) (Panna, error) {
	if len(s) != 3 {
		return "", fmt.Errorf("%w: panna %q must be exactly 3 digits", ErrValidation, s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", fmt.Errorf("%w: panna %q must be numeric", ErrValidation, s)
		}
	}
	return Panna(s), nil
}

// Ank is the digit sum of the panna mod 10.
func (p Panna) Ank() string {
	sum := 0
	for i := 0; i < len(p); i++ {
		sum += int(p[i] - '0')
	}
	return strconv.Itoa(sum % 10)
}

func (p Panna) String() string { return string(p) }
