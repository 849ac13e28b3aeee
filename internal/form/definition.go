package form

import (
	"cmp"
	"context"
	"time"

	"github.com/tartampluch/go-clinic/internal/config"
)

// FieldKind tells the UI which input widget a field needs.
type FieldKind int

const (
	KindText FieldKind = iota
	KindMultiline
	KindEmail
	KindPhone
	KindDate
	KindTime
	KindSelect
	KindChecks
)

var fieldKindNames = [...]string{"text", "multiline", "email", "phone", "date", "time", "select", "checks"}

func (k FieldKind) String() string {
	if int(k) < 0 || int(k) >= len(fieldKindNames) {
		return "unknown"
	}
	return fieldKindNames[k]
}

// MarshalText renders the kind by name in JSON payloads.
func (k FieldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// MultiValued reports whether the field holds a set of choices.
func (k FieldKind) MultiValued() bool {
	return k == KindChecks
}

// FieldSpec declares one field of a form.
type FieldSpec struct {
	Name        string
	Label       string
	Kind        FieldKind
	Rule        Rule
	Placeholder string
}

// Simulation describes how the built-in stand-in backend answers a form.
type Simulation struct {
	Delay       time.Duration
	FailureRate float64
}

// Definition is the static description of a form.
type Definition struct {
	ID             string
	Title          string
	Fields         []FieldSpec
	SuccessMessage string
	FailureMessage string
	Simulation     Simulation
}

// Field returns the declaration of the named field.
func (d Definition) Field(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Success returns the confirmation shown after an accepted submission.
func (d Definition) Success() string {
	return cmp.Or(d.SuccessMessage, config.DefaultSuccessMessage)
}

// Field is the live state of one declared field.
type Field struct {
	Spec    FieldSpec
	Value   string
	Choices []string
	Error   string
}

// Values is a snapshot of a session's input keyed by field name. Single-valued
// fields hold at most one entry.
type Values map[string][]string

// Get returns the first value of name, or "".
func (v Values) Get(name string) string {
	if vs := v[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Receipt acknowledges an accepted submission.
type Receipt struct {
	ConfirmationID string    `json:"confirmation_id"`
	At             time.Time `json:"at"`
}

// Submitter delivers a validated form to the clinic backend.
type Submitter interface {
	Submit(ctx context.Context, formID string, values Values) (Receipt, error)
}

// SubmitterFunc adapts a plain function to Submitter.
type SubmitterFunc func(ctx context.Context, formID string, values Values) (Receipt, error)

func (f SubmitterFunc) Submit(ctx context.Context, formID string, values Values) (Receipt, error) {
	return f(ctx, formID, values)
}

// UserError carries a message meant for the person filling the form.
// Sessions show it verbatim instead of the form's generic failure text.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UserError) Unwrap() error { return e.Err }

// Status is the submit lifecycle state of a Session.
type Status int

const (
	Idle Status = iota
	Submitting
	Succeeded
	Failed
)

var statusNames = [...]string{"idle", "submitting", "succeeded", "failed"}

func (s Status) String() string {
	if int(s) < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name. Unknown names decode as Idle.
func (s *Status) UnmarshalText(b []byte) error {
	*s = Idle
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
		}
	}
	return nil
}
