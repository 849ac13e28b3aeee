package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/engine"
	"github.com/tartampluch/go-clinic/internal/form"
)

type cellDTO struct {
	Date     string `json:"date"`
	InMonth  bool   `json:"in_month"`
	Disabled bool   `json:"disabled"`
}

type gridDTO struct {
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Today string    `json:"today"`
	Cells []cellDTO `json:"cells"`
}

type fieldDTO struct {
	Name        string         `json:"name"`
	Label       string         `json:"label"`
	Kind        form.FieldKind `json:"kind"`
	Required    bool           `json:"required"`
	Options     []string       `json:"options,omitempty"`
	Min         string         `json:"min,omitempty"`
	Max         string         `json:"max,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
}

type formDTO struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	SuccessMessage string     `json:"success_message"`
	Fields         []fieldDTO `json:"fields"`
}

func newFormDTO(d form.Definition) formDTO {
	out := formDTO{ID: d.ID, Title: d.Title, SuccessMessage: d.Success()}
	for _, f := range d.Fields {
		out.Fields = append(out.Fields, fieldDTO{
			Name:        f.Name,
			Label:       f.Label,
			Kind:        f.Kind,
			Required:    f.Rule.Kind != form.KindNone,
			Options:     f.Rule.Options,
			Min:         f.Rule.Min,
			Max:         f.Rule.Max,
			Placeholder: f.Placeholder,
		})
	}
	return out
}

// handleCalendar serves the 42-cell grid of a month, defaulting to the current one.
func (s *ClinicServer) handleCalendar(w http.ResponseWriter, r *http.Request) {
	today := calendar.Today(s.clock())
	ym := today.YearMonth()

	q := r.URL.Query()
	if y := q.Get(config.QueryYear); y != "" {
		v, err := strconv.Atoi(y)
		if err != nil {
			http.Error(w, config.HTTPMsgBadMonth, http.StatusBadRequest)
			return
		}
		ym.Year = v
	}
	if m := q.Get(config.QueryMonth); m != "" {
		v, err := strconv.Atoi(m)
		if err != nil {
			http.Error(w, config.HTTPMsgBadMonth, http.StatusBadRequest)
			return
		}
		ym.Month = time.Month(v)
	}
	if !ym.Valid() {
		http.Error(w, config.HTTPMsgBadMonth, http.StatusBadRequest)
		return
	}

	grid := calendar.BuildGrid(ym.Year, ym.Month)
	out := gridDTO{Year: ym.Year, Month: int(ym.Month), Today: today.String(), Cells: make([]cellDTO, len(grid))}
	for i, c := range grid {
		out.Cells[i] = cellDTO{Date: c.Date.String(), InMonth: c.InCurrentMonth, Disabled: calendar.Disabled(c, today)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *ClinicServer) handleForms(w http.ResponseWriter, _ *http.Request) {
	defs := form.Catalog()
	out := make([]formDTO, len(defs))
	for i, d := range defs {
		out[i] = newFormDTO(d)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *ClinicServer) handleForm(w http.ResponseWriter, r *http.Request) {
	def, ok := form.Lookup(r.PathValue(config.PathValueID))
	if !ok {
		http.Error(w, config.HTTPMsgNotFound, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newFormDTO(def))
}

// handleSubmit runs one FormSession per request: fill, validate, submit.
func (s *ClinicServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	def, ok := form.Lookup(r.PathValue(config.PathValueID))
	if !ok {
		http.Error(w, config.HTTPMsgNotFound, http.StatusNotFound)
		return
	}

	var body map[string]json.RawMessage
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, config.MaxRequestBodySize))
	if err := dec.Decode(&body); err != nil {
		http.Error(w, config.HTTPMsgBadRequest, http.StatusBadRequest)
		return
	}

	session := form.NewSession(def, s.Submitter, form.WithClock(s.clock()), form.WithTimeout(s.Timeout))
	for name, raw := range body {
		if err := fill(session, name, raw); err != nil {
			http.Error(w, config.HTTPMsgBadRequest, http.StatusBadRequest)
			return
		}
	}

	status := session.Submit(r.Context())
	resp := engine.SubmitResponse{Status: status}

	switch status {
	case form.Succeeded:
		receipt, _ := session.Receipt()
		resp.ConfirmationID = receipt.ConfirmationID
		resp.SuccessMessage = def.Success()
		writeJSON(w, http.StatusOK, resp)
	case form.Failed:
		resp.FailureMessage = session.FailureMessage()
		writeJSON(w, http.StatusBadGateway, resp)
	default:
		resp.Errors = session.Errors()
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	}
}

var errFieldShape = errors.New("field must be a string or a list of strings")

// fill copies one JSON member into the session. Strings go to single-valued
// fields, string lists to checkbox groups; unknown names are ignored.
func fill(s *form.Session, name string, raw json.RawMessage) error {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		spec, ok := s.Definition().Field(name)
		if ok && spec.Kind.MultiValued() {
			s.SetChoices(name, []string{one})
			return nil
		}
		s.SetField(name, one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return errFieldShape
	}
	s.SetChoices(name, many)
	return nil
}

func (s *ClinicServer) clock() calendar.Clock {
	if s.Clock == nil {
		return calendar.RealClock{}
	}
	return s.Clock
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}
