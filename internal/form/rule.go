package form

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
)

// RuleKind tags the validation family of a Rule.
type RuleKind int

const (
	KindNone RuleKind = iota
	KindRequired
	KindPattern
	KindDateNotPast
	KindDateNotFuture
	KindTimeOfDay
	KindSelectOneOf
	KindAtLeastOneOf
)

// PhoneVariant selects how forgiving a phone rule is about separators.
type PhoneVariant int

const (
	// PhoneStrict accepts an optional leading "+" and 7 to 15 digits, nothing else.
	PhoneStrict PhoneVariant = iota
	// PhoneLenient also tolerates spaces and dashes among the digits.
	PhoneLenient
)

var (
	emailPattern        = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)
	phoneStrictPattern  = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	phoneLenientPattern = regexp.MustCompile(`^\+?[\d\s-]{7,15}$`)
)

// Rule is a predicate plus the messages it reports. Every rule except
// KindNone starts with a required check, so RequiredMessage is always used
// for blank input.
type Rule struct {
	Kind            RuleKind
	RequiredMessage string
	InvalidMessage  string

	Pattern *regexp.Regexp
	Options []string

	// Min and Max bound TimeOfDay values. They are surfaced as input hints
	// and are not enforced.
	Min, Max string
}

// Optional is the rule of a free field.
func Optional() Rule { return Rule{Kind: KindNone} }

// Required rejects blank values.
func Required(msg string) Rule {
	return Rule{Kind: KindRequired, RequiredMessage: msg}
}

// Pattern requires a value matching re.
func Pattern(required, invalid string, re *regexp.Regexp) Rule {
	return Rule{Kind: KindPattern, RequiredMessage: required, InvalidMessage: invalid, Pattern: re}
}

// Email requires a local@domain.tld address, case-insensitive.
func Email(required, invalid string) Rule {
	return Pattern(required, invalid, emailPattern)
}

// Phone requires an E.164-like number in the given variant.
func Phone(required, invalid string, v PhoneVariant) Rule {
	re := phoneStrictPattern
	if v == PhoneLenient {
		re = phoneLenientPattern
	}
	return Pattern(required, invalid, re)
}

// DateNotPast requires a YYYY-MM-DD date on or after today.
func DateNotPast(required, invalid string) Rule {
	return Rule{Kind: KindDateNotPast, RequiredMessage: required, InvalidMessage: invalid}
}

// DateNotFuture requires a YYYY-MM-DD date on or before today.
func DateNotFuture(required, invalid string) Rule {
	return Rule{Kind: KindDateNotFuture, RequiredMessage: required, InvalidMessage: invalid}
}

// TimeOfDay requires an HH:MM clock time. min and max are hints only.
func TimeOfDay(required, min, max string) Rule {
	return Rule{Kind: KindTimeOfDay, RequiredMessage: required, InvalidMessage: config.MsgTimeMalformed, Min: min, Max: max}
}

// SelectOneOf requires exactly one value taken from options.
func SelectOneOf(msg string, options ...string) Rule {
	return Rule{Kind: KindSelectOneOf, RequiredMessage: msg, InvalidMessage: msg, Options: options}
}

// AtLeastOneOf requires one or more choices, all taken from options.
func AtLeastOneOf(msg string, options ...string) Rule {
	return Rule{Kind: KindAtLeastOneOf, RequiredMessage: msg, InvalidMessage: msg, Options: options}
}

// Check validates a single-valued field. It returns the error message, or
// an empty string when the value passes.
func (r Rule) Check(value string, today calendar.Date) string {
	v := strings.TrimSpace(value)
	if r.Kind == KindNone {
		return ""
	}
	if v == "" {
		return r.RequiredMessage
	}

	switch r.Kind {
	case KindPattern:
		if r.Pattern != nil && !r.Pattern.MatchString(v) {
			return r.InvalidMessage
		}
	case KindDateNotPast, KindDateNotFuture:
		d, err := calendar.ParseDate(v)
		if err != nil {
			return config.MsgDateMalformed
		}
		if r.Kind == KindDateNotPast && d.Before(today) {
			return r.InvalidMessage
		}
		if r.Kind == KindDateNotFuture && d.After(today) {
			return r.InvalidMessage
		}
	case KindTimeOfDay:
		if _, err := time.Parse(config.TimeLayout, v); err != nil {
			return r.InvalidMessage
		}
	case KindSelectOneOf:
		if len(r.Options) > 0 && !slices.Contains(r.Options, v) {
			return r.InvalidMessage
		}
	case KindAtLeastOneOf:
		return r.CheckChoices([]string{v})
	}
	return ""
}

// CheckChoices validates a multi-valued field such as a checkbox group.
func (r Rule) CheckChoices(choices []string) string {
	if r.Kind == KindNone {
		return ""
	}
	if len(choices) == 0 {
		return r.RequiredMessage
	}
	for _, c := range choices {
		if len(r.Options) > 0 && !slices.Contains(r.Options, c) {
			return r.InvalidMessage
		}
	}
	return ""
}
