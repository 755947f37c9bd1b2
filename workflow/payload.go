package workflow

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NormalizeEmail trims and lower-cases an address so duplicates compare equal.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone drops spaces, dashes, dots and parentheses. Any other
// character is kept so validation can reject it.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) || strings.ContainsRune("-.()", r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidatePayload normalizes p and checks it against the constraints of h.
// It returns the normalized payload that should be stored.
func ValidatePayload(h *models.Hackathon, p models.ApplicationPayload) (models.ApplicationPayload, error) {
	switch v := p.(type) {
	case models.IndividualPayload:
		if !h.AllowIndividual {
			return nil, errs.NewValidationError("mode", "this hackathon does not accept individual applications")
		}
		v.Name = strings.TrimSpace(v.Name)
		v.Email = NormalizeEmail(v.Email)
		v.Phone = NormalizePhone(v.Phone)
		v.Qualifications = strings.TrimSpace(v.Qualifications)
		if err := structError(validate.Struct(v)); err != nil {
			return nil, err
		}
		return v, nil

	case models.TeamPayload:
		v.TeamName = strings.TrimSpace(v.TeamName)
		members := make([]models.TeamMember, len(v.Members))
		for i, m := range v.Members {
			members[i] = models.TeamMember{
				Name:  strings.TrimSpace(m.Name),
				Email: NormalizeEmail(m.Email),
				Phone: NormalizePhone(m.Phone),
				Role:  strings.TrimSpace(m.Role),
			}
		}
		v.Members = members
		if err := structError(validate.Struct(v)); err != nil {
			return nil, err
		}
		if v.TeamSize < h.MinTeamSize || v.TeamSize > h.MaxTeamSize {
			return nil, errs.NewValidationError("teamSize",
				fmt.Sprintf("team size must be between %d and %d", h.MinTeamSize, h.MaxTeamSize))
		}
		if len(v.Members) != v.TeamSize {
			return nil, errs.NewValidationError("members",
				fmt.Sprintf("expected %d members, got %d", v.TeamSize, len(v.Members)))
		}
		emails := make(map[string]int, len(v.Members))
		phones := make(map[string]int, len(v.Members))
		for i, m := range v.Members {
			if j, dup := emails[m.Email]; dup {
				return nil, errs.NewValidationError(fmt.Sprintf("members[%d].email", i),
					fmt.Sprintf("duplicates the email of members[%d]", j))
			}
			if j, dup := phones[m.Phone]; dup {
				return nil, errs.NewValidationError(fmt.Sprintf("members[%d].phone", i),
					fmt.Sprintf("duplicates the phone of members[%d]", j))
			}
			emails[m.Email] = i
			phones[m.Phone] = i
		}
		return v, nil
	}
	return nil, errs.NewValidationError("mode", "mode must be Individual or Team")
}

// structError turns the first validator failure into a field-level ValidationError.
func structError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errs.NewInternalErrorWithCause("payload validation failed", err)
	}
	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return errs.NewValidationError(field, reasonFor(fe))
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "len":
		return fmt.Sprintf("must be exactly %s digits", fe.Param())
	case "number":
		return "must contain digits only"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
