package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/engine"
	"github.com/tartampluch/go-clinic/internal/form"
)

// MockSubmitter simulates the clinic backend using `testify/mock`.
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, formID string, values form.Values) (form.Receipt, error) {
	args := m.Called(ctx, formID, values)
	return args.Get(0).(form.Receipt), args.Error(1)
}

var apiNow = time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)

func newAPIServer(sub form.Submitter) *httptest.Server {
	srv := NewClinicServer("0", sub)
	srv.Clock = calendar.FixedClock{Time: apiNow}
	return httptest.NewServer(srv.Handler())
}

func TestAPI_Calendar(t *testing.T) {
	ts := newAPIServer(nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/calendar?year=2025&month=2")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var grid gridDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&grid))
	require.Len(t, grid.Cells, calendar.GridSize)
	assert.Equal(t, "2025-02-10", grid.Today)
	assert.Equal(t, "2025-01-26", grid.Cells[0].Date)
	assert.False(t, grid.Cells[0].InMonth)
	assert.True(t, grid.Cells[0].Disabled)

	// Feb 9 is in the past, Feb 10 (today) is selectable.
	assert.Equal(t, "2025-02-09", grid.Cells[14].Date)
	assert.True(t, grid.Cells[14].Disabled)
	assert.Equal(t, "2025-02-10", grid.Cells[15].Date)
	assert.False(t, grid.Cells[15].Disabled)
}

func TestAPI_Calendar_DefaultsAndErrors(t *testing.T) {
	ts := newAPIServer(nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/calendar")
	require.NoError(t, err)
	var grid gridDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&grid))
	_ = resp.Body.Close()
	assert.Equal(t, 2025, grid.Year)
	assert.Equal(t, 2, grid.Month)

	for _, q := range []string{"?month=13", "?month=0", "?year=abc", "?month=x"} {
		resp, err := http.Get(ts.URL + "/api/calendar" + q)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestAPI_Forms(t *testing.T) {
	ts := newAPIServer(nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/forms")
	require.NoError(t, err)
	var forms []formDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&forms))
	_ = resp.Body.Close()
	assert.Len(t, forms, len(form.Catalog()))

	resp, err = http.Get(ts.URL + "/api/forms/" + config.FormHomeAppointment)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	fields := raw["fields"].([]any)
	timeField := fields[4].(map[string]any)
	assert.Equal(t, "time", timeField["kind"])
	assert.Equal(t, config.ClinicOpens, timeField["min"])
	assert.Equal(t, config.ClinicCloses, timeField["max"])
	reason := fields[5].(map[string]any)
	assert.Equal(t, "select", reason["kind"])
	assert.Len(t, reason["options"], 6)

	resp2, err := http.Get(ts.URL + "/api/forms/nope")
	require.NoError(t, err)
	_ = resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func postForm(t *testing.T, ts *httptest.Server, id, body string) (*http.Response, engine.SubmitResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/forms/"+id, config.MimeJSON, strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var out engine.SubmitResponse
	if resp.Header.Get(config.HeaderContentType) == config.MimeJSON {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestAPI_Submit_ValidationErrors(t *testing.T) {
	sub := new(MockSubmitter)
	ts := newAPIServer(sub)
	defer ts.Close()

	resp, out := postForm(t, ts, config.FormContactPreferences, `{"methods": [], "bestTime": "noon"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, form.Idle, out.Status)
	assert.Equal(t, map[string]string{
		"methods":  "Please select at least one contact method.",
		"bestTime": "Please select the best time to contact.",
	}, out.Errors)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestAPI_Submit_Success(t *testing.T) {
	sub := new(MockSubmitter)
	sub.On("Submit", mock.Anything, config.FormContactPreferences, form.Values{
		"methods":  {"email", "sms"},
		"bestTime": {"evening"},
	}).Return(form.Receipt{ConfirmationID: "cp-1", At: apiNow}, nil).Once()

	ts := newAPIServer(sub)
	defer ts.Close()

	resp, out := postForm(t, ts, config.FormContactPreferences, `{"methods": ["email", "sms"], "bestTime": "evening", "ignored": "x"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, form.Succeeded, out.Status)
	assert.Equal(t, "cp-1", out.ConfirmationID)
	assert.Equal(t, "Details submitted successfully!", out.SuccessMessage)
	sub.AssertExpectations(t)
}

func TestAPI_Submit_Failure(t *testing.T) {
	sub := new(MockSubmitter)
	sub.On("Submit", mock.Anything, config.FormEmergency, mock.Anything).
		Return(form.Receipt{}, errors.New("dispatch offline")).Once()

	ts := newAPIServer(sub)
	defer ts.Close()

	resp, out := postForm(t, ts, config.FormEmergency,
		`{"name": "Ada", "phone": "+15551234567", "emergencyType": "medical", "description": "Fall"}`)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, form.Failed, out.Status)
	assert.Equal(t, "Failed to submit emergency request. Please try again.", out.FailureMessage)
}

func TestAPI_Submit_BadRequests(t *testing.T) {
	ts := newAPIServer(new(MockSubmitter))
	defer ts.Close()

	resp, _ := postForm(t, ts, config.FormContact, `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postForm(t, ts, config.FormContact, `{"name": 42}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postForm(t, ts, "ghost", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestAPI_EndToEnd wires the simulated backend, the ledger and the feed the
// way main does, then books through the API and reads the published feed.
func TestAPI_EndToEnd(t *testing.T) {
	ledger := engine.NewLedger(calendar.FixedClock{Time: apiNow}, 30*time.Minute)
	ledger.Location = time.UTC

	sim := &engine.SimulatedSubmitter{
		Clock: calendar.FixedClock{Time: apiNow},
		Delay: func(form.Definition) time.Duration { return 0 },
		Rand:  func() float64 { return 0.99 },
	}
	srv := NewClinicServer("0", &engine.Recorder{Next: sim, Ledger: ledger})
	srv.Clock = calendar.FixedClock{Time: apiNow}
	ledger.Subscribe(func() {
		ics, err := ledger.ICS()
		assert.NoError(t, err)
		srv.UpdateAppointments(ics)
		vcf, err := ledger.VCards()
		assert.NoError(t, err)
		srv.UpdatePatients(vcf)
	})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, out := postForm(t, ts, config.FormQuickBooking,
		`{"name": "Ada", "email": "ada@example.com", "date": "2025-02-14", "time": "10:15"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, out.ConfirmationID)

	ics, err := http.Get(ts.URL + config.RouteAppointmentsICS)
	require.NoError(t, err)
	defer func() { _ = ics.Body.Close() }()
	assert.Equal(t, http.StatusOK, ics.StatusCode)
	assert.Equal(t, config.MimeTextCalendar, ics.Header.Get(config.HeaderContentType))

	vcf, err := http.Get(ts.URL + config.RoutePatientsVCF)
	require.NoError(t, err)
	defer func() { _ = vcf.Body.Close() }()
	assert.Equal(t, http.StatusOK, vcf.StatusCode)
	assert.Equal(t, config.MimeVCard, vcf.Header.Get(config.HeaderContentType))

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	_ = health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
