package detect

import (
	"strconv"
	"strings"
	"unicode"
)

// Validator accepts or rejects a raw regex match. Validators are pure and
// must tolerate any string the rule's regex can produce; a panic is treated
// as rejection by the caller.
type Validator func(value string) bool

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPESEL checks the weighted mod-10 control digit of an 11-digit PESEL.
func ValidPESEL(value string) bool {
	digits := digitsOnly(value)
	if len(digits) != 11 {
		return false
	}
	weights := []int{1, 3, 7, 9, 1, 3, 7, 9, 1, 3}
	sum := 0
	for i, w := range weights {
		sum += w * int(digits[i]-'0')
	}
	check := (10 - sum%10) % 10
	return check == int(digits[10]-'0')
}

// ValidNIP checks the mod-11 control digit of a 10-digit NIP. Separators
// are ignored.
func ValidNIP(value string) bool {
	digits := digitsOnly(value)
	if len(digits) != 10 {
		return false
	}
	weights := []int{6, 5, 7, 2, 3, 4, 5, 6, 7}
	sum := 0
	for i, w := range weights {
		sum += w * int(digits[i]-'0')
	}
	check := sum % 11
	if check == 10 {
		return false
	}
	return check == int(digits[9]-'0')
}

// ValidREGON checks the mod-11 control digit of a 9- or 14-digit REGON.
func ValidREGON(value string) bool {
	digits := digitsOnly(value)
	var weights []int
	switch len(digits) {
	case 9:
		weights = []int{8, 9, 2, 3, 4, 5, 6, 7}
	case 14:
		weights = []int{2, 4, 8, 5, 0, 9, 7, 3, 6, 1, 2, 4, 8}
	default:
		return false
	}
	sum := 0
	for i, w := range weights {
		sum += w * int(digits[i]-'0')
	}
	check := sum % 11
	if check == 10 {
		check = 0
	}
	return check == int(digits[len(digits)-1]-'0')
}

// ValidIBAN runs the ISO 13616 mod-97 check. Spaces are ignored; the
// rearranged number is reduced incrementally so no big integers are needed.
func ValidIBAN(value string) bool {
	s := strings.ToUpper(strings.ReplaceAll(value, " ", ""))
	if len(s) < 15 || len(s) > 34 {
		return false
	}
	rearranged := s[4:] + s[:4]
	rem := 0
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			rem = (rem*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			n := int(r-'A') + 10
			rem = (rem*100 + n) % 97
		default:
			return false
		}
	}
	return rem == 1
}

// ValidLuhn checks the Luhn digit of a card number. Spaces and dashes are
// ignored.
func ValidLuhn(value string) bool {
	digits := digitsOnly(value)
	if len(digits) < 12 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidDate accepts dd.mm.yyyy (also / and - separators) with a plausible
// day, month and year.
func ValidDate(value string) bool {
	if len(value) != 10 {
		return false
	}
	sep := value[2]
	if sep != '.' && sep != '/' && sep != '-' {
		return false
	}
	day, err := strconv.Atoi(value[0:2])
	if err != nil {
		return false
	}
	month, err := strconv.Atoi(value[3:5])
	if err != nil {
		return false
	}
	year, err := strconv.Atoi(value[6:10])
	if err != nil {
		return false
	}
	return day >= 1 && day <= 31 && month >= 1 && month <= 12 && year >= 1900 && year <= 2099
}

// ValidStreetName requires the token after the street prefix to start with
// an uppercase letter. The rule's regex is case-insensitive so "UL. KOSA 1"
// still matches; this keeps "ulica prosta 5" out.
func ValidStreetName(value string) bool {
	fields := strings.Fields(value)
	if len(fields) < 2 {
		return false
	}
	for _, r := range fields[1] {
		return unicode.IsUpper(r)
	}
	return false
}
