package detector

// luhnValid checks whether a digit string passes the Luhn algorithm (ISO/IEC 7812).
func luhnValid(number string) bool {
	n := len(number)
	if n < 2 {
		return false
	}
	sum := 0
	alt := false
	for i := n - 1; i >= 0; i-- {
		d := int(number[i]) - '0'
		if d < 0 || d > 9 {
			return false
		}
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return sum%10 == 0
}

// ibanChecksumValid verifies the MOD-97 check digits per ISO 13616.
// The first four characters are moved to the end, letters become two-digit
// numbers (A=10 ... Z=35) and the remainder of the resulting integer must be 1.
// The remainder is folded digit by digit so arbitrarily long inputs never
// need big-integer arithmetic.
func ibanChecksumValid(iban string) bool {
	if len(iban) < 5 {
		return false
	}
	rearranged := iban[4:] + iban[:4]
	rem := 0
	for i := 0; i < len(rearranged); i++ {
		ch := rearranged[i]
		switch {
		case ch >= '0' && ch <= '9':
			rem = (rem*10 + int(ch-'0')) % 97
		case ch >= 'A' && ch <= 'Z':
			v := int(ch-'A') + 10
			rem = (rem*100 + v) % 97
		case ch >= 'a' && ch <= 'z':
			v := int(ch-'a') + 10
			rem = (rem*100 + v) % 97
		default:
			return false
		}
	}
	return rem == 1
}

var germanIDWeights = [...]int{7, 3, 1}

// germanIDCheckDigit computes the weighted check digit over the first nine
// characters of a German ID number: digits keep their value, letters map to
// A=10 ... Z=35, weights repeat 7,3,1 and the sum is taken mod 10.
// Characters outside [0-9A-Z] count as zero.
func germanIDCheckDigit(id string) int {
	total := 0
	for i := 0; i < len(id) && i < 9; i++ {
		total += charValue(id[i]) * germanIDWeights[i%3]
	}
	return total % 10
}

func charValue(ch byte) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'A' && ch <= 'Z':
		return int(ch-'A') + 10
	case ch >= 'a' && ch <= 'z':
		return int(ch-'a') + 10
	default:
		return 0
	}
}
