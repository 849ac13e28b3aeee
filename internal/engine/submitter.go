package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/form"
)

// SubmitResponse is the JSON body exchanged with a clinic backend. The same
// shape is served by this application's own API.
type SubmitResponse struct {
	Status         form.Status       `json:"status"`
	ConfirmationID string            `json:"confirmation_id,omitempty"`
	SuccessMessage string            `json:"success_message,omitempty"`
	FailureMessage string            `json:"failure_message,omitempty"`
	Errors         map[string]string `json:"errors,omitempty"`
}

// HTTPSubmitter implements form.Submitter by POSTing JSON to a backend.
type HTTPSubmitter struct {
	Client  *http.Client
	BaseURL string
	Token   string
	Clock   calendar.Clock
}

// NewHTTPSubmitter creates an HTTPSubmitter with configured timeouts.
func NewHTTPSubmitter(baseURL, token string) *HTTPSubmitter {
	return &HTTPSubmitter{
		Client: &http.Client{
			Timeout: config.HTTPTimeout,
		},
		BaseURL: baseURL,
		Token:   token,
		Clock:   calendar.RealClock{},
	}
}

// Submit sends the values to <BaseURL>/forms/<formID>.
// Rejections that carry a message for the patient come back as *form.UserError.
func (s *HTTPSubmitter) Submit(ctx context.Context, formID string, values form.Values) (form.Receipt, error) {
	target := fmt.Sprintf(config.SubmitPathFormat, strings.TrimRight(s.BaseURL, "/"), url.PathEscape(formID))

	u, err := url.Parse(target)
	if err != nil {
		return form.Receipt{}, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return form.Receipt{}, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	// Query strings may hold tokens; keep them out of the logs.
	safeURL := u.Scheme + "://" + u.Host + u.Path
	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompSubmit),
		slog.String(config.LogKeyURL, safeURL),
		slog.String(config.LogKeyForm, formID),
	)

	body, err := json.Marshal(flatten(values))
	if err != nil {
		return form.Receipt{}, fmt.Errorf("%s: %w", config.ErrSubmitEncode, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return form.Receipt{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderContentType, config.MimeJSON)
	if s.Token != "" {
		req.Header.Set(config.HeaderAuthorization, config.BearerPrefix+s.Token)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return form.Receipt{}, fmt.Errorf("network error during submit: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var payload SubmitResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, config.MaxHTTPResponseSize)).Decode(&payload)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn(config.MsgSubmitFailed, slog.Int(config.LogKeyStatus, resp.StatusCode))
		statusErr := fmt.Errorf("%s: %d %s", config.ErrSubmitStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
		if decodeErr == nil {
			if msg := rejectionMessage(payload); msg != "" {
				return form.Receipt{}, &form.UserError{Message: msg, Err: statusErr}
			}
		}
		return form.Receipt{}, statusErr
	}
	if decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		return form.Receipt{}, fmt.Errorf("%s: %w", config.ErrSubmitDecode, decodeErr)
	}

	receipt := form.Receipt{ConfirmationID: payload.ConfirmationID, At: s.now()}
	if receipt.ConfirmationID == "" {
		receipt.ConfirmationID = uuid.NewString()
	}
	log.Info(config.MsgSubmitSucceeded, slog.String(config.LogKeyReceipt, receipt.ConfirmationID))
	return receipt, nil
}

func (s *HTTPSubmitter) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

// rejectionMessage picks the text to show for a refused submission.
func rejectionMessage(p SubmitResponse) string {
	if p.FailureMessage != "" {
		return p.FailureMessage
	}
	if len(p.Errors) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(p.Errors))
	for _, k := range slices.Sorted(maps.Keys(p.Errors)) {
		msgs = append(msgs, p.Errors[k])
	}
	return strings.Join(msgs, " ")
}

// flatten turns form values into the wire shape: a string for single-valued
// fields and a list for the rest.
func flatten(values form.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = v
		}
	}
	return out
}
