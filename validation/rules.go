package validation

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tonatiuh19/intelivoucher-checkout/catalog"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/session"
)

const (
	MinInstallments = 1
	MaxInstallments = 12
)

// SelectionRules checks the ticket selection against the event catalog.
func SelectionRules(event catalog.Event) Rule[session.Selection] {
	return All(
		ticketQuantity,
		zoneRule(event),
		transportRule(event),
		jerseyRule(event),
	)
}

func ticketQuantity(sel session.Selection) Errors {
	var errs Errors
	if sel.TicketQuantity < session.MinTickets || sel.TicketQuantity > session.MaxTickets {
		errs.add("ticketQuantity", fmt.Sprintf("must be between %d and %d", session.MinTickets, session.MaxTickets))
	}
	return errs
}

func zoneRule(event catalog.Event) Rule[session.Selection] {
	return func(sel session.Selection) Errors {
		var errs Errors
		if blank(sel.ZoneID) {
			errs.add("zoneId", "is required")
			return errs
		}
		if _, ok := event.AvailableZone(sel.ZoneID); !ok {
			errs.add("zoneId", "is not an available zone")
		}
		return errs
	}
}

func transportRule(event catalog.Event) Rule[session.Selection] {
	return func(sel session.Selection) Errors {
		var errs Errors
		if blank(sel.TransportationMode) {
			errs.add("transportationMode", "is required")
			return errs
		}
		if !sel.HasTransport() {
			return errs
		}
		if _, ok := event.TransportationOption(sel.TransportationMode); !ok {
			errs.add("transportationMode", "is not an available transportation option")
		}
		if blank(sel.TransportOrigin) {
			errs.add("transportOrigin", "is required when transportation is selected")
		}
		return errs
	}
}

func jerseyRule(event catalog.Event) Rule[session.Selection] {
	return func(sel session.Selection) Errors {
		var errs Errors
		if sel.SelectedJerseys() > 0 && !event.JerseyAddonAvailable {
			errs.add("jerseySelections", "jerseys are not offered for this event")
			return errs
		}
		for i, j := range sel.Jerseys {
			if !j.Selected {
				continue
			}
			if blank(j.Size) {
				errs.add(indexed("jerseySelections", i, "size"), "is required")
			}
			if j.Type != session.JERSEY_LOCAL && j.Type != session.JERSEY_AWAY {
				errs.add(indexed("jerseySelections", i, "type"), "must be local or away")
			}
			if !j.Personalized {
				continue
			}
			switch {
			case blank(j.Name):
				errs.add(indexed("jerseySelections", i, "name"), "is required for a personalized jersey")
			case utf8.RuneCountInString(j.Name) > MaxJerseyNameLength:
				errs.add(indexed("jerseySelections", i, "name"), fmt.Sprintf("must be at most %d characters", MaxJerseyNameLength))
			case j.Name != strings.ToUpper(j.Name):
				errs.add(indexed("jerseySelections", i, "name"), "must be upper case")
			}
			if blank(j.Number) {
				errs.add(indexed("jerseySelections", i, "number"), "is required for a personalized jersey")
			} else if !validJerseyNumber(j.Number) {
				errs.add(indexed("jerseySelections", i, "number"), fmt.Sprintf("must be between %d and %d", MinJerseyNumber, MaxJerseyNumber))
			}
		}
		return errs
	}
}

func validJerseyNumber(s string) bool {
	if !digitsOnly.MatchString(s) {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= MinJerseyNumber && n <= MaxJerseyNumber
}

func CustomerRules() Rule[session.Customer] {
	return All(customerContact, emergencyContact)
}

func customerContact(c session.Customer) Errors {
	var errs Errors
	if !ValidName(c.FirstName) {
		errs.add("firstName", "must be 2 to 50 letters")
	}
	if !ValidName(c.LastName) {
		errs.add("lastName", "must be 2 to 50 letters")
	}
	if !ValidEmail(c.Email) {
		errs.add("email", "must be a valid email address")
	}
	if !ValidPhone(c.Phone) {
		errs.add("phone", "must be a valid phone number")
	}
	if utf8.RuneCountInString(c.SpecialInstructions) > MaxSpecialInstructionsLength {
		errs.add("specialInstructions", fmt.Sprintf("must be at most %d characters", MaxSpecialInstructionsLength))
	}
	return errs
}

func emergencyContact(c session.Customer) Errors {
	var errs Errors
	ec := c.EmergencyContact
	if ec == nil || (blank(ec.Name) && blank(ec.Phone)) {
		return errs
	}
	if !ValidName(ec.Name) {
		errs.add("emergencyContact.name", "must be 2 to 50 letters")
	}
	if !ValidPhone(ec.Phone) {
		errs.add("emergencyContact.phone", "must be a valid phone number")
	}
	return errs
}

// AttendeeRules requires full identity data for the primary attendee and only names
// for everyone else. Optional fields are still shape-checked when present.
func AttendeeRules(now time.Time) Rule[[]session.Attendee] {
	return func(attendees []session.Attendee) Errors {
		var errs Errors
		for i, a := range attendees {
			f := func(field string) string { return indexed("attendees", i, field) }

			if !ValidName(a.FirstName) {
				errs.add(f("firstName"), "must be 2 to 50 letters")
			}
			if !ValidName(a.LastName) {
				errs.add(f("lastName"), "must be 2 to 50 letters")
			}

			primary := i == 0
			if primary || !blank(a.Email) {
				if !ValidEmail(a.Email) {
					errs.add(f("email"), "must be a valid email address")
				}
			}
			if primary || !blank(a.Phone) {
				if !ValidPhone(a.Phone) {
					errs.add(f("phone"), "must be a valid phone number")
				}
			}
			if a.DateOfBirth == nil {
				if primary {
					errs.add(f("dateOfBirth"), "is required")
				}
			} else if a.DateOfBirth.After(endOfDay(now)) {
				errs.add(f("dateOfBirth"), "cannot be in the future")
			}
			if primary || !blank(a.IDNumber) {
				n := utf8.RuneCountInString(strings.TrimSpace(a.IDNumber))
				if n < MinIDNumberLength || n > MaxIDNumberLength {
					errs.add(f("idNumber"), fmt.Sprintf("must be %d to %d characters", MinIDNumberLength, MaxIDNumberLength))
				}
			}
		}
		return errs
	}
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}

// PaymentRules is the primary payment path. Card details are validated by the provider.
func PaymentRules(available []payment.Method) Rule[session.PaymentInfo] {
	return func(p session.PaymentInfo) Errors {
		var errs Errors
		if _, ok := payment.ParseMethod(string(p.Method)); !ok {
			errs.add("method", "must be card or wallet")
		} else if !slices.Contains(available, p.Method) {
			errs.add("method", "is not available")
		}
		if p.Installments < MinInstallments || p.Installments > MaxInstallments {
			errs.add("installments", fmt.Sprintf("must be between %d and %d", MinInstallments, MaxInstallments))
		}
		return errs
	}
}

// CardRules validates raw card details on the fallback path where they reach the server.
func CardRules(now time.Time) Rule[payment.CardDetails] {
	return func(c payment.CardDetails) Errors {
		var errs Errors

		number := NormalizeCardNumber(c.Number)
		switch {
		case !digitsOnly.MatchString(number) || len(number) < MinCardDigits || len(number) > MaxCardDigits:
			errs.add("card.number", fmt.Sprintf("must be %d to %d digits", MinCardDigits, MaxCardDigits))
		case !Luhn(number):
			errs.add("card.number", "is not a valid card number")
		}

		expiresAt, err := ParseExpiry(c.Expiry)
		switch {
		case err != nil:
			errs.add("card.expiry", "must be in MM/YY format")
		case !now.Before(expiresAt):
			errs.add("card.expiry", "card has expired")
		}

		if !digitsOnly.MatchString(c.CVV) || len(c.CVV) < 3 || len(c.CVV) > 4 {
			errs.add("card.cvv", "must be 3 or 4 digits")
		}
		if !ValidName(c.HolderName) {
			errs.add("card.holderName", "must be 2 to 50 letters")
		}
		return errs
	}
}
