package form_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/form"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockSubmitter stands in for the clinic backend using `testify/mock`.
type MockSubmitter struct {
	mock.Mock
}

// Submit implements the form.Submitter interface.
func (m *MockSubmitter) Submit(ctx context.Context, formID string, values form.Values) (form.Receipt, error) {
	args := m.Called(ctx, formID, values)
	return args.Get(0).(form.Receipt), args.Error(1)
}

var fixedNow = time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)

func emailOnly() form.Definition {
	return form.Definition{
		ID: "newsletter",
		Fields: []form.FieldSpec{
			{Name: "email", Kind: form.KindEmail, Rule: form.Email(config.MsgEmailRequired, config.MsgEmailInvalid)},
		},
		FailureMessage: "Could not subscribe.",
	}
}

func bookingDef() form.Definition {
	return form.Definition{
		ID: "booking",
		Fields: []form.FieldSpec{
			{Name: "name", Kind: form.KindText, Rule: form.Required(config.MsgNameRequired)},
			{Name: "email", Kind: form.KindEmail, Rule: form.Email(config.MsgEmailRequired, config.MsgEmailInvalid)},
			{Name: "date", Kind: form.KindDate, Rule: form.DateNotPast(config.MsgDateRequired, config.MsgDatePast)},
			{Name: "topics", Kind: form.KindChecks, Rule: form.AtLeastOneOf("Pick a topic", "a", "b")},
		},
		FailureMessage: "Booking failed.",
	}
}

func fillBooking(s *form.Session) {
	s.SetField("name", "Ada Lovelace")
	s.SetField("email", "ada@example.com")
	s.SetField("date", "2025-06-12")
	s.ToggleChoice("topics", "b")
}

func newSession(def form.Definition, sub form.Submitter) *form.Session {
	return form.NewSession(def, sub, form.WithClock(calendar.FixedClock{Time: fixedNow}))
}

// -----------------------------------------------------------------------------
// Test Cases
// -----------------------------------------------------------------------------

func TestSession_EmailScenario(t *testing.T) {
	s := newSession(emailOnly(), nil)

	assert.Equal(t, map[string]string{"email": "Email is required"}, s.ValidateAll())

	s.SetField("email", "not-an-email")
	assert.Equal(t, map[string]string{"email": "Invalid email address"}, s.ValidateAll())

	s.SetField("email", "a@b.com")
	assert.Empty(t, s.ValidateAll())
}

func TestSession_ValidateIsIdempotent(t *testing.T) {
	s := newSession(bookingDef(), nil)
	s.SetField("email", "nope")

	first := s.ValidateAll()
	second := s.ValidateAll()
	assert.Equal(t, first, second)
	assert.Equal(t, first, s.Errors())
}

func TestSession_OptimisticClear(t *testing.T) {
	s := newSession(bookingDef(), nil)
	require.Contains(t, s.ValidateAll(), "name")

	// Even an invalid value clears the stale message until the next pass.
	s.SetField("name", "   ")
	assert.NotContains(t, s.Errors(), "name")
	assert.Contains(t, s.Errors(), "email", "other fields keep their errors")

	s.ToggleChoice("topics", "a")
	assert.NotContains(t, s.Errors(), "topics")
}

func TestSession_SetField_UnknownName(t *testing.T) {
	s := newSession(bookingDef(), nil)
	assert.False(t, s.SetField("ghost", "x"))
	assert.False(t, s.ToggleChoice("ghost", "x"))
	assert.NotContains(t, s.Values(), "ghost")
}

func TestSession_Submit_InvalidFormDoesNotCallSubmitter(t *testing.T) {
	sub := new(MockSubmitter)
	s := newSession(bookingDef(), sub)

	status := s.Submit(context.Background())

	assert.Equal(t, form.Idle, status)
	assert.Len(t, s.Errors(), 4)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_Submit_FailureKeepsValues(t *testing.T) {
	sub := new(MockSubmitter)
	sub.On("Submit", mock.Anything, "booking", mock.Anything).
		Return(form.Receipt{}, errors.New("backend down")).Once()

	s := newSession(bookingDef(), sub)
	fillBooking(s)
	before := s.Values()

	status := s.Submit(context.Background())

	assert.Equal(t, form.Failed, status)
	assert.Equal(t, form.Failed, s.Status())
	assert.Equal(t, "Booking failed.", s.FailureMessage())
	assert.Equal(t, before, s.Values(), "entered values are retained for retry")
	sub.AssertExpectations(t)

	// Editing after a failure clears the banner and re-arms the form.
	s.SetField("name", "Ada King")
	assert.Equal(t, form.Idle, s.Status())
	assert.Empty(t, s.FailureMessage())
}

func TestSession_Submit_UserErrorMessageWins(t *testing.T) {
	sub := form.SubmitterFunc(func(context.Context, string, form.Values) (form.Receipt, error) {
		return form.Receipt{}, &form.UserError{Message: "Slot already taken"}
	})
	s := newSession(bookingDef(), sub)
	fillBooking(s)

	require.Equal(t, form.Failed, s.Submit(context.Background()))
	assert.Equal(t, "Slot already taken", s.FailureMessage())
}

func TestSession_Submit_DefaultFailureMessage(t *testing.T) {
	def := bookingDef()
	def.FailureMessage = ""
	s := newSession(def, nil)
	fillBooking(s)

	require.Equal(t, form.Failed, s.Submit(context.Background()))
	assert.Equal(t, config.DefaultFailureMessage, s.FailureMessage())
}

func TestSession_Submit_SuccessClearsValues(t *testing.T) {
	sub := new(MockSubmitter)
	receipt := form.Receipt{ConfirmationID: "abc-123", At: fixedNow}
	sub.On("Submit", mock.Anything, "booking", mock.MatchedBy(func(v form.Values) bool {
		return v.Get("email") == "ada@example.com" && len(v["topics"]) == 1
	})).Return(receipt, nil).Once()

	s := newSession(bookingDef(), sub)
	fillBooking(s)

	status := s.Submit(context.Background())

	assert.Equal(t, form.Succeeded, status)
	for _, f := range s.Fields() {
		assert.Empty(t, f.Value, f.Spec.Name)
		assert.Empty(t, f.Choices, f.Spec.Name)
		assert.Empty(t, f.Error, f.Spec.Name)
	}
	got, ok := s.Receipt()
	assert.True(t, ok)
	assert.Equal(t, receipt, got)
	sub.AssertExpectations(t)

	s.Rearm()
	assert.Equal(t, form.Idle, s.Status())
}

func TestSession_Submit_GuardWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int
	var mu sync.Mutex

	sub := form.SubmitterFunc(func(ctx context.Context, _ string, _ form.Values) (form.Receipt, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		return form.Receipt{ConfirmationID: "only-one"}, nil
	})

	s := newSession(bookingDef(), sub)
	fillBooking(s)

	done := make(chan form.Status)
	go func() { done <- s.Submit(context.Background()) }()
	<-started

	assert.Equal(t, form.Submitting, s.Status())
	assert.Equal(t, form.Submitting, s.Submit(context.Background()), "second submit is a no-op")
	assert.False(t, s.Reset(), "reset is refused while in flight")

	close(release)
	assert.Equal(t, form.Succeeded, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestSession_Submit_Timeout(t *testing.T) {
	sub := form.SubmitterFunc(func(ctx context.Context, _ string, _ form.Values) (form.Receipt, error) {
		<-ctx.Done()
		return form.Receipt{}, ctx.Err()
	})
	s := form.NewSession(bookingDef(), sub,
		form.WithClock(calendar.FixedClock{Time: fixedNow}),
		form.WithTimeout(20*time.Millisecond))
	fillBooking(s)

	assert.Equal(t, form.Failed, s.Submit(context.Background()))
	assert.Equal(t, "Booking failed.", s.FailureMessage())
}

func TestSession_Reset(t *testing.T) {
	s := newSession(bookingDef(), nil)
	fillBooking(s)
	s.SetField("email", "bad")
	s.ValidateAll()

	require.True(t, s.Reset())
	assert.Empty(t, s.Errors())
	assert.Empty(t, s.Value("name"))
	assert.Empty(t, s.Choices("topics"))
	assert.Equal(t, form.Idle, s.Status())
}

func TestSession_ToggleChoice(t *testing.T) {
	s := newSession(bookingDef(), nil)
	s.ToggleChoice("topics", "a")
	s.ToggleChoice("topics", "b")
	assert.Equal(t, []string{"a", "b"}, s.Choices("topics"))

	s.ToggleChoice("topics", "a")
	assert.Equal(t, []string{"b"}, s.Choices("topics"))

	s.SetChoices("topics", nil)
	assert.Equal(t, map[string]string{"topics": "Pick a topic"}, pick(s.ValidateAll(), "topics"))
}

func pick(m map[string]string, key string) map[string]string {
	return map[string]string{key: m[key]}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", form.Idle.String())
	assert.Equal(t, "submitting", form.Submitting.String())
	assert.Equal(t, "succeeded", form.Succeeded.String())
	assert.Equal(t, "failed", form.Failed.String())
	assert.Equal(t, "unknown", form.Status(42).String())
}
