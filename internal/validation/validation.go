// Package validation checks a student payload against the field rules
// the API enforces.
//
// HOW THE RULES ARE EXPRESSED:
// ────────────────────────────
// Every rule is a go-playground/validator tag string ("min=2,max=100",
// "len=9,number", ...) run against a single value with Validate.Var.
// Rules the library does not ship (date of birth, GPA precision, ...)
// are registered once as custom tags on the validator instance.
//
// Each field owns an ordered list of rules. The FIRST failing rule wins,
// so a field never reports more than one message at a time.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/go-playground/validator/v10"
)

// Field limits. The messages below are built from these so the numbers
// in the text can never drift from the numbers in the rules.
const (
	NameMinLength  = 2
	NameMaxLength  = 100
	MajorMinLength = 2
	MajorMaxLength = 100
	MinAge         = 16
	GPAMin         = 0.0
	GPAMax         = 4.0
	GPADecimals    = 2
)

// Field names as they appear in API error details.
const (
	FieldName               = "name"
	FieldRegistrationNumber = "registrationNumber"
	FieldMajor              = "major"
	FieldDOB                = "dob"
	FieldGPA                = "gpa"
)

// DateLayout is the calendar date format used for dob.
const DateLayout = "2006-01-02"

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9\s]+$`)

// rule pairs a validator tag with the message reported when it fails.
type rule struct {
	tag     string
	message string
}

var (
	nameRules = []rule{
		{"required", "Name is required"},
		{fmt.Sprintf("min=%d,max=%d", NameMinLength, NameMaxLength),
			fmt.Sprintf("Name must be between %d and %d characters", NameMinLength, NameMaxLength)},
		{"alnumspace", "Name can only contain letters, numbers, and spaces"},
	}

	registrationNumberRules = []rule{
		{"required", "Registration number is required"},
		{"len=9,number", "Registration number must be 9 digits (e.g., 202401234)"},
	}

	majorRules = []rule{
		{"required", "Major is required"},
		{fmt.Sprintf("min=%d,max=%d", MajorMinLength, MajorMaxLength),
			fmt.Sprintf("Major must be between %d and %d characters", MajorMinLength, MajorMaxLength)},
	}

	dobRules = []rule{
		{"required", "Date of birth is required"},
		{"calendardate", "Invalid date format"},
		{"notfuture", "Date of birth cannot be in the future"},
		{fmt.Sprintf("minage=%d", MinAge), fmt.Sprintf("Student must be at least %d years old", MinAge)},
	}

	gpaRules = []rule{
		{"notnan", "GPA is required"},
		{"finite", "GPA must be a number"},
		{fmt.Sprintf("gte=%g,lte=%g", GPAMin, GPAMax), "GPA must be between 0.0 and 4.0"},
		{fmt.Sprintf("maxdecimals=%d", GPADecimals),
			fmt.Sprintf("GPA can have at most %d decimal places", GPADecimals)},
	}
)

// Validator runs the student field rules. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the clock used by the date-of-birth rules.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// New builds a Validator with the custom tags registered.
func New(opts ...Option) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	// RegisterValidation only fails for an empty tag name or a nil func,
	// neither of which can happen with the literals below.
	_ = v.validate.RegisterValidation("alnumspace", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
		_, ok := ParseDate(fl.Field().String())
		return ok
	})
	_ = v.validate.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		dob, ok := ParseDate(fl.Field().String())
		return ok && !dob.After(v.now())
	})
	_ = v.validate.RegisterValidation("minage", func(fl validator.FieldLevel) bool {
		dob, ok := ParseDate(fl.Field().String())
		if !ok {
			return false
		}
		minAge, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return meetsMinimumAge(dob, v.now(), minAge)
	})
	_ = v.validate.RegisterValidation("notnan", func(fl validator.FieldLevel) bool {
		return !math.IsNaN(fl.Field().Float())
	})
	_ = v.validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		return !math.IsInf(fl.Field().Float(), 0)
	})
	_ = v.validate.RegisterValidation("maxdecimals", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return decimalPlaces(fl.Field().Float()) <= limit
	})

	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// Validate checks in and returns the field errors in field order
// (name, registrationNumber, major, dob, gpa). An empty result means the
// input is valid.
//
// update=false (create): every field is required; a nil field is checked
// as if it were empty.
//
// update=true: a nil field is skipped entirely; it is neither defaulted
// nor flagged. A present field goes through exactly the same rules.
// ─────────────────────────────────────────────────────────────────────────────
func (v *Validator) Validate(in types.StudentInput, update bool) []types.FieldError {
	errs := make([]types.FieldError, 0)

	// Strings: "required" looks at the trimmed value, every other rule at
	// the value exactly as sent.
	checkString := func(field string, value *string, rules []rule) {
		if value == nil && update {
			return
		}
		raw := ""
		if value != nil {
			raw = *value
		}
		for _, r := range rules {
			target := raw
			if r.tag == "required" {
				target = strings.TrimSpace(raw)
			}
			if err := v.validate.Var(target, r.tag); err != nil {
				errs = append(errs, types.FieldError{Field: field, Message: r.message})
				return
			}
		}
	}

	checkString(FieldName, in.Name, nameRules)
	checkString(FieldRegistrationNumber, in.RegistrationNumber, registrationNumberRules)
	checkString(FieldMajor, in.Major, majorRules)
	checkString(FieldDOB, in.DOB, dobRules)

	switch {
	case in.GPA == nil && update:
		// absent in update mode
	case in.GPA == nil:
		errs = append(errs, types.FieldError{Field: FieldGPA, Message: gpaRules[0].message})
	default:
		for _, r := range gpaRules {
			if err := v.validate.Var(*in.GPA, r.tag); err != nil {
				errs = append(errs, types.FieldError{Field: FieldGPA, Message: r.message})
				break
			}
		}
	}

	return errs
}

var (
	defaultValidator *Validator
	defaultOnce      sync.Once
)

// Default returns the process-wide Validator using the real clock.
func Default() *Validator {
	defaultOnce.Do(func() { defaultValidator = New() })
	return defaultValidator
}

// Validate runs the default Validator.
func Validate(in types.StudentInput, update bool) []types.FieldError {
	return Default().Validate(in, update)
}

// FormatGPA rounds gpa to two decimal places.
func FormatGPA(gpa float64) float64 {
	return math.Round(gpa*100) / 100
}

// ParseDate accepts a calendar date (2006-01-02) or a full RFC 3339
// timestamp. Everything is interpreted in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// meetsMinimumAge compares whole calendar years. When the year difference
// equals the minimum, a birthday month later in the year than the current
// month means the birthday has not happened yet. Days are not considered.
func meetsMinimumAge(dob, now time.Time, minAge int) bool {
	now = now.UTC()
	age := now.Year() - dob.Year()
	monthDiff := int(now.Month()) - int(dob.Month())
	if age < minAge {
		return false
	}
	return !(age == minAge && monthDiff < 0)
}

// decimalPlaces counts the digits after the point in the shortest decimal
// representation of f.
func decimalPlaces(f float64) int {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
