package engine

import (
	"bytes"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/form"
)

// Ledger keeps the appointments and patient cards produced by successful
// submissions, and renders them as iCalendar and vCard exports.
type Ledger struct {
	Clock    calendar.Clock
	Location *time.Location
	Duration time.Duration

	mu           sync.RWMutex
	appointments []Appointment
	patients     map[string]vcard.Card
	patientOrder []string
	listeners    []func()
}

// NewLedger returns an empty ledger. Slots last duration in the feed.
func NewLedger(clock calendar.Clock, duration time.Duration) *Ledger {
	if clock == nil {
		clock = calendar.RealClock{}
	}
	if duration <= 0 {
		duration = config.DefaultAppointmentMinutes * time.Minute
	}
	return &Ledger{
		Clock:    clock,
		Location: time.Local,
		Duration: duration,
		patients: make(map[string]vcard.Card),
	}
}

// Subscribe registers fn to be called after every change. Listeners run on
// the recording goroutine and must not call back into Record.
func (l *Ledger) Subscribe(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Record stores what a successful submission contributes: an appointment
// when the form books a slot, and a patient card when contact details are
// present. It reports whether anything was kept.
func (l *Ledger) Record(formID string, values form.Values, receipt form.Receipt) bool {
	log := slog.With(config.LogKeyComponent, config.CompEngine, config.LogKeyForm, formID)

	var appt *Appointment
	if def, ok := form.Lookup(formID); !ok || def.IsBooking() {
		a, err := NewAppointment(formID, values, receipt, l.Location)
		if err != nil {
			log.Debug(config.MsgRecordSkipped, config.LogKeyError, err)
		} else {
			appt = &a
		}
	}
	key := patientKey(values)

	if appt == nil && key == "" {
		log.Debug(config.MsgRecordSkipped)
		return false
	}

	l.mu.Lock()
	if appt != nil {
		l.appointments = append(l.appointments, *appt)
	}
	if key != "" {
		card, ok := l.patients[key]
		if !ok {
			card = make(vcard.Card)
			l.patients[key] = card
			l.patientOrder = append(l.patientOrder, key)
		}
		mergePatientCard(card, values)
	}
	listeners := slices.Clone(l.listeners)
	count := len(l.appointments)
	l.mu.Unlock()

	log.Info(config.MsgRecorded, config.LogKeyCount, count, config.LogKeyReceipt, receipt.ConfirmationID)
	for _, fn := range listeners {
		fn()
	}
	return true
}

// Appointments returns the booked slots ordered by start time.
func (l *Ledger) Appointments() []Appointment {
	l.mu.RLock()
	out := slices.Clone(l.appointments)
	l.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b Appointment) int {
		return a.Start.Compare(b.Start)
	})
	return out
}

// PatientCount returns the number of distinct patients recorded.
func (l *Ledger) PatientCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.patients)
}

// ICS renders the appointments as an iCalendar feed. An empty ledger yields
// a minimal valid VCALENDAR so clients never flag the feed as invalid.
func (l *Ledger) ICS() ([]byte, error) {
	appts := l.Appointments()
	if len(appts) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986 refresh hint.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	now := l.Clock.Now().UTC()
	for _, a := range appts {
		cal.Children = append(cal.Children, l.event(a, now).Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

func (l *Ledger) event(a Appointment, now time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, a.UID, config.ICalDomain))

	summary := fmt.Sprintf(config.FormatSummary, a.Patient)
	if a.Doctor != "" {
		summary = fmt.Sprintf(config.FormatSummaryWith, a.Patient, a.Doctor)
	}
	event.Props.SetText(config.PropSummary, summary)
	if a.Reason != "" {
		event.Props.SetText(config.PropDescription, a.Reason)
	}
	event.Props.SetText(config.PropStatus, config.ICalStatus)

	stamp := a.BookedAt
	if stamp.IsZero() {
		stamp = now
	}
	event.Props.SetDateTime(config.PropDTStamp, stamp.UTC())
	event.Props.SetDateTime(config.PropDTStart, a.Start.UTC())
	event.Props.SetDateTime(config.PropDTEnd, a.Start.Add(l.Duration).UTC())
	return event
}

// VCards renders every recorded patient as a vCard 4.0 stream.
func (l *Ledger) VCards() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var buf bytes.Buffer
	enc := vcard.NewEncoder(&buf)
	for _, key := range l.patientOrder {
		card := cloneCard(l.patients[key])
		vcard.ToV4(card)
		if err := enc.Encode(card); err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrVCardEncode, err)
		}
	}
	return buf.Bytes(), nil
}

func cloneCard(c vcard.Card) vcard.Card {
	out := make(vcard.Card, len(c))
	for k, fields := range c {
		out[k] = slices.Clone(fields)
	}
	return out
}
