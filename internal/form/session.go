package form

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
)

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used for date rules.
func WithClock(c calendar.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithTimeout bounds each submission call. Zero or less disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// Session holds the live state of one form: field values, per-field errors
// and the submit lifecycle. It is safe for concurrent use; the submitter is
// called without holding the lock.
type Session struct {
	mu sync.Mutex

	def       Definition
	submitter Submitter
	clock     calendar.Clock
	timeout   time.Duration

	fields  []*Field
	index   map[string]*Field
	status  Status
	failure string
	receipt Receipt
}

// NewSession creates an Idle session with every field empty.
func NewSession(def Definition, submitter Submitter, opts ...Option) *Session {
	s := &Session{
		def:       def,
		submitter: submitter,
		clock:     calendar.RealClock{},
		timeout:   config.DefaultSubmitTimeout,
		index:     make(map[string]*Field, len(def.Fields)),
	}
	for _, spec := range def.Fields {
		f := &Field{Spec: spec}
		s.fields = append(s.fields, f)
		s.index[spec.Name] = f
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Definition returns the form this session was built from.
func (s *Session) Definition() Definition {
	return s.def
}

// SetField replaces the value of a single-valued field. The field's error is
// cleared at once and a failed or succeeded session returns to Idle.
// Unknown names are ignored and reported as false.
func (s *Session) SetField(name, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.index[name]
	if !ok {
		return false
	}
	f.Value = value
	s.touch(f)
	return true
}

// SetChoices replaces the choices of a multi-valued field.
func (s *Session) SetChoices(name string, choices []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.index[name]
	if !ok {
		return false
	}
	f.Choices = slices.Clone(choices)
	s.touch(f)
	return true
}

// ToggleChoice adds option to a multi-valued field, or removes it if present.
func (s *Session) ToggleChoice(name, option string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.index[name]
	if !ok {
		return false
	}
	if i := slices.Index(f.Choices, option); i >= 0 {
		f.Choices = slices.Delete(f.Choices, i, i+1)
	} else {
		f.Choices = append(f.Choices, option)
	}
	s.touch(f)
	return true
}

// touch applies the optimistic-clear policy after an edit. Caller holds mu.
func (s *Session) touch(f *Field) {
	f.Error = ""
	if s.status == Failed || s.status == Succeeded {
		s.status = Idle
		s.failure = ""
	}
}

// ValidateAll checks every field, stores the resulting errors on the fields
// and returns them keyed by name. An empty map means the form is valid.
func (s *Session) ValidateAll() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

func (s *Session) validateLocked() map[string]string {
	today := calendar.Today(s.clock)
	errs := make(map[string]string)
	for _, f := range s.fields {
		var msg string
		if f.Spec.Kind.MultiValued() {
			msg = f.Spec.Rule.CheckChoices(f.Choices)
		} else {
			msg = f.Spec.Rule.Check(f.Value, today)
		}
		f.Error = msg
		if msg != "" {
			errs[f.Spec.Name] = msg
		}
	}
	return errs
}

// Submit validates the form and, when valid, hands the values to the
// submitter. It blocks until the submitter answers or the timeout expires and
// returns the resulting status. Calls made while another submission is in
// flight return Submitting without side effects.
func (s *Session) Submit(ctx context.Context) Status {
	s.mu.Lock()
	if s.status == Submitting {
		s.mu.Unlock()
		slog.Debug(config.MsgSubmitIgnored, config.LogKeyComponent, config.CompForm, config.LogKeyForm, s.def.ID)
		return Submitting
	}
	if errs := s.validateLocked(); len(errs) > 0 {
		status := s.status
		s.mu.Unlock()
		slog.Debug(config.MsgValidationFailed,
			config.LogKeyComponent, config.CompForm,
			config.LogKeyForm, s.def.ID,
			config.LogKeyErrors, len(errs))
		return status
	}
	s.status = Submitting
	s.failure = ""
	values := s.valuesLocked()
	submitter, timeout := s.submitter, s.timeout
	s.mu.Unlock()

	slog.Info(config.MsgSubmitStarted, config.LogKeyComponent, config.CompForm, config.LogKeyForm, s.def.ID)
	start := time.Now()

	receipt, err := s.call(ctx, submitter, timeout, values)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status = Failed
		s.failure = s.failureMessage(err)
		slog.Warn(config.MsgSubmitFailed,
			config.LogKeyComponent, config.CompForm,
			config.LogKeyForm, s.def.ID,
			config.LogKeyDuration, time.Since(start).Milliseconds(),
			config.LogKeyError, err)
		return s.status
	}

	s.status = Succeeded
	s.receipt = receipt
	for _, f := range s.fields {
		f.Value, f.Choices, f.Error = "", nil, ""
	}
	slog.Info(config.MsgSubmitSucceeded,
		config.LogKeyComponent, config.CompForm,
		config.LogKeyForm, s.def.ID,
		config.LogKeyReceipt, receipt.ConfirmationID,
		config.LogKeyDuration, time.Since(start).Milliseconds())
	return s.status
}

func (s *Session) call(ctx context.Context, sub Submitter, timeout time.Duration, values Values) (Receipt, error) {
	if sub == nil {
		return Receipt{}, errors.New(config.ErrSubmitterMissing)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return sub.Submit(ctx, s.def.ID, values)
}

func (s *Session) failureMessage(err error) string {
	var ue *UserError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	if s.def.FailureMessage != "" {
		return s.def.FailureMessage
	}
	return config.DefaultFailureMessage
}

// Rearm returns a Succeeded session to Idle once the confirmation was shown.
func (s *Session) Rearm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Succeeded {
		s.status = Idle
	}
}

// Reset empties every field and returns to Idle. It is refused while a
// submission is in flight.
func (s *Session) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Submitting {
		return false
	}
	for _, f := range s.fields {
		f.Value, f.Choices, f.Error = "", nil, ""
	}
	s.status = Idle
	s.failure = ""
	s.receipt = Receipt{}
	return true
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// FailureMessage returns the user-facing message of the last failed
// submission. It is empty unless the status is Failed.
func (s *Session) FailureMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Receipt returns the acknowledgement of the last successful submission.
func (s *Session) Receipt() (Receipt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipt, s.receipt.ConfirmationID != ""
}

// Errors returns the errors currently attached to fields.
func (s *Session) Errors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := make(map[string]string)
	for _, f := range s.fields {
		if f.Error != "" {
			errs[f.Spec.Name] = f.Error
		}
	}
	return errs
}

// Value returns the value of a single-valued field.
func (s *Session) Value(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.index[name]; ok {
		return f.Value
	}
	return ""
}

// Choices returns the choices of a multi-valued field.
func (s *Session) Choices(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.index[name]; ok {
		return slices.Clone(f.Choices)
	}
	return nil
}

// Values returns a snapshot of every field.
func (s *Session) Values() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valuesLocked()
}

func (s *Session) valuesLocked() Values {
	v := make(Values, len(s.fields))
	for _, f := range s.fields {
		if f.Spec.Kind.MultiValued() {
			v[f.Spec.Name] = slices.Clone(f.Choices)
		} else {
			v[f.Spec.Name] = []string{f.Value}
		}
	}
	return v
}

// Fields returns copies of the fields in declared order.
func (s *Session) Fields() []Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = *f
		out[i].Choices = slices.Clone(f.Choices)
	}
	return out
}
