package wizard

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Reason names the validity flag that failed, using the DOM ValidityState names.
type Reason string

const (
	ReasonValueMissing    Reason = "valueMissing"
	ReasonTypeMismatch    Reason = "typeMismatch"
	ReasonPatternMismatch Reason = "patternMismatch"
	ReasonTooLong         Reason = "tooLong"
	ReasonTooShort        Reason = "tooShort"
	ReasonRangeUnderflow  Reason = "rangeUnderflow"
	ReasonRangeOverflow   Reason = "rangeOverflow"
	ReasonStepMismatch    Reason = "stepMismatch"
	ReasonBadInput        Reason = "badInput"
)

const dateLayout = "2006-01-02"

// Violation describes the first failed constraint of one field.
type Violation struct {
	Field   string
	FieldID string
	Reason  Reason
	Message string
}

// Report is the outcome of validating one step.
type Report struct {
	Violations []Violation
}

// Valid reports whether every field satisfied its constraints.
func (r Report) Valid() bool {
	return len(r.Violations) == 0
}

// First returns the violation that gets surfaced to the user.
func (r Report) First() (Violation, bool) {
	if len(r.Violations) == 0 {
		return Violation{}, false
	}
	return r.Violations[0], true
}

var typeValidate = validator.New()

// ValidateStep checks every field of the step against the submitted values.
func ValidateStep(step Step, values url.Values) Report {
	var report Report
	for _, f := range step.Fields {
		if v, ok := CheckValidity(f, values); !ok {
			report.Violations = append(report.Violations, v)
		}
	}
	return report
}

// CheckValidity applies the field's native constraints. ok is true when the
// field is valid or barred from validation.
func CheckValidity(f Field, values url.Values) (Violation, bool) {
	if f.barred() {
		return Violation{}, true
	}
	fail := func(reason Reason, msg string) (Violation, bool) {
		return Violation{Field: f.Name, FieldID: f.ID, Reason: reason, Message: msg}, false
	}

	switch f.Type {
	case FieldCheckbox:
		if f.Required && !contains(values[f.Name], f.checkedValue()) {
			return fail(ReasonValueMissing, "Please check this box if you want to proceed.")
		}
		return Violation{}, true
	case FieldRadio:
		if f.Required && firstNonEmpty(values[f.Name]) == "" {
			return fail(ReasonValueMissing, "Please select one of these options.")
		}
		return Violation{}, true
	case FieldFile:
		if f.Required && firstNonEmpty(values[f.Name]) == "" {
			return fail(ReasonValueMissing, "Please select a file.")
		}
		return Violation{}, true
	case FieldSelect:
		if f.Required && values.Get(f.Name) == "" {
			return fail(ReasonValueMissing, "Please select an item in the list.")
		}
		return Violation{}, true
	}

	value := sanitize(f.Type, values.Get(f.Name))
	if value == "" {
		if f.Required {
			return fail(ReasonValueMissing, "Please fill out this field.")
		}
		return Violation{}, true
	}

	switch f.Type {
	case FieldEmail:
		if typeValidate.Var(value, "email") != nil {
			return fail(ReasonTypeMismatch, "Please enter an email address.")
		}
	case FieldURL:
		if typeValidate.Var(value, "url") != nil {
			return fail(ReasonTypeMismatch, "Please enter a URL.")
		}
	case FieldNumber:
		return checkNumber(f, value, fail)
	case FieldDate:
		return checkDate(f, value, fail)
	}

	if f.Pattern != "" && f.Type != FieldTextarea {
		// An invalid pattern is ignored, as browsers do.
		if re, err := regexp.Compile("^(?:" + f.Pattern + ")$"); err == nil && !re.MatchString(value) {
			return fail(ReasonPatternMismatch, "Please match the requested format.")
		}
	}

	length := utf8.RuneCountInString(value)
	if f.MaxLength > 0 && length > f.MaxLength {
		return fail(ReasonTooLong, fmt.Sprintf("Please shorten this text to %d characters or less (you are currently using %d characters).", f.MaxLength, length))
	}
	if f.MinLength > 0 && length < f.MinLength {
		return fail(ReasonTooShort, fmt.Sprintf("Please lengthen this text to %d characters or more (you are currently using %d characters).", f.MinLength, length))
	}
	return Violation{}, true
}

func checkNumber(f Field, value string, fail func(Reason, string) (Violation, bool)) (Violation, bool) {
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return fail(ReasonBadInput, "Please enter a number.")
	}
	if lo, ok := parseNumber(f.Min); ok && n < lo {
		return fail(ReasonRangeUnderflow, fmt.Sprintf("Value must be greater than or equal to %s.", f.Min))
	}
	if hi, ok := parseNumber(f.Max); ok && n > hi {
		return fail(ReasonRangeOverflow, fmt.Sprintf("Value must be less than or equal to %s.", f.Max))
	}
	if stepMismatch(f, n) {
		return fail(ReasonStepMismatch, "Please enter a valid value.")
	}
	return Violation{}, true
}

func checkDate(f Field, value string, fail func(Reason, string) (Violation, bool)) (Violation, bool) {
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return fail(ReasonBadInput, "Please enter a valid date.")
	}
	if lo, err := time.Parse(dateLayout, f.Min); err == nil && d.Before(lo) {
		return fail(ReasonRangeUnderflow, fmt.Sprintf("Value must be %s or later.", f.Min))
	}
	if hi, err := time.Parse(dateLayout, f.Max); err == nil && d.After(hi) {
		return fail(ReasonRangeOverflow, fmt.Sprintf("Value must be %s or earlier.", f.Max))
	}
	return Violation{}, true
}

// stepMismatch uses the default step of 1 and the min attribute as step base.
func stepMismatch(f Field, n float64) bool {
	if strings.EqualFold(strings.TrimSpace(f.Step), "any") {
		return false
	}
	step := 1.0
	if s, ok := parseNumber(f.Step); ok && s > 0 {
		step = s
	}
	base := 0.0
	if m, ok := parseNumber(f.Min); ok {
		base = m
	}
	q := (n - base) / step
	return math.Abs(q-math.Round(q)) > 1e-9*math.Max(1, math.Abs(q))
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// sanitize applies the HTML value sanitization algorithm for the type.
func sanitize(t FieldType, value string) string {
	switch t {
	case FieldEmail, FieldURL, FieldNumber, FieldDate:
		return strings.TrimSpace(value)
	case FieldText, FieldSearch, FieldTel, FieldPassword:
		return strings.NewReplacer("\r", "", "\n", "").Replace(value)
	}
	return value
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
