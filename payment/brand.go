package payment

import "strconv"

// BrandFromNumber derives the card network from the leading digits of a PAN.
// It needs no provider call, so it is safe to run on every keystroke.
func BrandFromNumber(pan string) string {
	if len(pan) < 2 {
		return ""
	}

	switch {
	case pan[0] == '4':
		return "visa"
	case pan[:2] == "34" || pan[:2] == "37":
		return "amex"
	}

	two, err := strconv.Atoi(pan[:2])
	if err == nil && two >= 51 && two <= 55 {
		return "mastercard"
	}

	if len(pan) >= 4 {
		four, err := strconv.Atoi(pan[:4])
		if err == nil && four >= 2221 && four <= 2720 {
			return "mastercard"
		}
	}

	return ""
}

func Last4(pan string) string {
	if len(pan) < 4 {
		return pan
	}
	return pan[len(pan)-4:]
}
