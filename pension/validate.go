package pension

import (
	"strings"
	"unicode"
)

// SocialSecurityNumberLength is the fixed length of a social security number.
const SocialSecurityNumberLength = 15

// ValidateCaseFile checks the fields a caller may set on a case file.
func ValidateCaseFile(cf CaseFile) error {
	if !cf.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: "must be career or cotisation"}
	}
	if !cf.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status " + string(cf.Status)}
	}
	if cf.Kind == KindCotisation && cf.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Reason: "cotisation case files must have an owner"}
	}
	if ssn := cf.SocialSecurityNumber; ssn != "" {
		if len(ssn) != SocialSecurityNumberLength {
			return &ValidationError{Field: "social_security_number", Reason: "must be 15 characters"}
		}
		for _, r := range ssn {
			if !unicode.IsDigit(r) && !unicode.IsLetter(r) {
				return &ValidationError{Field: "social_security_number", Reason: "must be alphanumeric"}
			}
		}
	}
	if email := cf.Beneficiary.Email; email != "" && !strings.Contains(email, "@") {
		return &ValidationError{Field: "beneficiary.email", Reason: "invalid email"}
	}
	return nil
}

// ValidateCareerSegment enforces segment invariants: end not before start,
// non-negative salary and quarters.
func ValidateCareerSegment(s CareerSegment) error {
	if strings.TrimSpace(s.Employer) == "" {
		return &ValidationError{Field: "employer", Reason: "required"}
	}
	if strings.TrimSpace(s.Position) == "" {
		return &ValidationError{Field: "position", Reason: "required"}
	}
	if s.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "required"}
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return &ValidationError{Field: "end_date", Reason: "must not precede start_date"}
	}
	if s.AverageSalary.IsNegative() {
		return &ValidationError{Field: "average_salary", Reason: "must not be negative"}
	}
	if s.ValidatedQuarters < 0 {
		return &ValidationError{Field: "validated_quarters", Reason: "must not be negative"}
	}
	if !s.Regime.Valid() {
		return &ValidationError{Field: "regime", Reason: "unknown regime " + string(s.Regime)}
	}
	return nil
}

// ValidateCotisationPeriod enforces period invariants.
func ValidateCotisationPeriod(p CotisationPeriod) error {
	if p.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "required"}
	}
	if p.EndDate.IsZero() {
		return &ValidationError{Field: "end_date", Reason: "required"}
	}
	if p.EndDate.Before(p.StartDate) {
		return &ValidationError{Field: "end_date", Reason: "must not precede start_date"}
	}
	if p.ContributedSalary.IsNegative() {
		return &ValidationError{Field: "contributed_salary", Reason: "must not be negative"}
	}
	if !p.Regime.Valid() {
		return &ValidationError{Field: "regime", Reason: "unknown regime " + string(p.Regime)}
	}
	return nil
}

// ValidatePayment checks a payment before it is recorded.
func ValidatePayment(p Payment) error {
	if !p.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	iban := strings.ReplaceAll(p.IBAN, " ", "")
	if len(iban) < 15 || len(iban) > 34 {
		return &ValidationError{Field: "iban", Reason: "must be 15 to 34 characters"}
	}
	if !p.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "unknown payment type " + string(p.Type)}
	}
	if !p.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown payment status " + string(p.Status)}
	}
	return nil
}
