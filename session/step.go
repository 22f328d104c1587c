//go:generate go tool stringer -type=Step

package session

type Step int

const (
	SELECTION Step = iota
	CUSTOMER_INFO
	ATTENDEE_INFO
	PAYMENT
	CONFIRMATION
)

func (s Step) IsTerminal() bool {
	return s == CONFIRMATION
}

// Next returns the following step. CONFIRMATION has no successor.
func (s Step) Next() (Step, bool) {
	if s >= CONFIRMATION || s < SELECTION {
		return s, false
	}
	return s + 1, true
}

// Previous returns the step before s. SELECTION has no predecessor.
func (s Step) Previous() (Step, bool) {
	if s <= SELECTION || s > CONFIRMATION {
		return s, false
	}
	return s - 1, true
}
