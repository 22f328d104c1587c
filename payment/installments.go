package payment

import (
	"slices"
	"strings"
)

const (
	// MinInstallmentTotal is the smallest charge that can be split.
	MinInstallmentTotal int64 = 30000
	// MinInstallmentAmount is the smallest single installment allowed.
	MinInstallmentAmount int64 = 5000
	MaxInstallments            = 3
)

var installmentBrands = []string{"visa", "mastercard", "amex"}

type Eligibility struct {
	Eligible          bool
	MaxInstallments   int
	InstallmentAmount int64
}

// CheckInstallments applies the brand and amount heuristic. An ineligible result
// always caps the plan at a single installment.
func CheckInstallments(brand string, amount int64) Eligibility {
	notEligible := Eligibility{Eligible: false, MaxInstallments: 1, InstallmentAmount: amount}

	if !slices.Contains(installmentBrands, strings.ToLower(brand)) {
		return notEligible
	}
	if amount < MinInstallmentTotal {
		return notEligible
	}

	maxCount := min(MaxInstallments, int(amount/MinInstallmentAmount))
	if maxCount < 2 {
		return notEligible
	}

	return Eligibility{
		Eligible:          true,
		MaxInstallments:   maxCount,
		InstallmentAmount: amount / int64(maxCount),
	}
}

// Allows reports whether a plan of n installments can be used.
func (e Eligibility) Allows(n int) bool {
	if n == 1 {
		return true
	}
	return e.Eligible && n >= 1 && n <= e.MaxInstallments
}
