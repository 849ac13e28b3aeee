package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/google/uuid"
	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/form"
)

// Appointment is a booked slot, decoupled from the form that produced it.
type Appointment struct {
	// UID is stable for the life of the ledger and used in the iCalendar feed.
	UID string

	// ConfirmationID is the identifier handed back to the patient.
	ConfirmationID string

	// FormID names the catalog form the booking came from.
	FormID string

	Patient string
	Email   string
	Phone   string

	// Doctor and Department are only set by follow-up style forms.
	Doctor     string
	Department string

	// Reason is the free text attached to the booking, if any.
	Reason string

	// Start is the local start time of the slot.
	Start time.Time

	// BookedAt is when the backend acknowledged the request.
	BookedAt time.Time
}

// Date returns the calendar day of the slot.
func (a Appointment) Date() calendar.Date {
	return calendar.DateOf(a.Start)
}

// NewAppointment builds an Appointment from a booking form's values.
// Date and time fields are mandatory; everything else is best effort.
func NewAppointment(formID string, values form.Values, receipt form.Receipt, loc *time.Location) (Appointment, error) {
	if loc == nil {
		loc = time.Local
	}
	dateStr := strings.TrimSpace(values.Get(config.FieldDate))
	timeStr := strings.TrimSpace(values.Get(config.FieldTime))
	if dateStr == "" || timeStr == "" {
		return Appointment{}, errors.New(config.ErrAppointmentFields)
	}

	start, err := time.ParseInLocation(calendar.DateLayout+" "+config.TimeLayout, dateStr+" "+timeStr, loc)
	if err != nil {
		return Appointment{}, fmt.Errorf("%s: %w", config.ErrAppointmentFields, err)
	}

	return Appointment{
		UID:            uuid.NewString(),
		ConfirmationID: receipt.ConfirmationID,
		FormID:         formID,
		Patient:        patientName(values),
		Email:          strings.TrimSpace(values.Get(config.FieldEmail)),
		Phone:          strings.TrimSpace(values.Get(config.FieldPhone)),
		Doctor:         strings.TrimSpace(values.Get(config.FieldDoctor)),
		Department:     strings.TrimSpace(values.Get(config.FieldDepartment)),
		Reason:         firstNonEmpty(values, config.FieldReason, config.FieldMessage, config.FieldNotes),
		Start:          start,
		BookedAt:       receipt.At,
	}, nil
}

// patientName applies the name strategy: fullName > name > fallback.
func patientName(values form.Values) string {
	if n := firstNonEmpty(values, config.FieldFullName, config.FieldName); n != "" {
		return n
	}
	return config.FallbackPatientName
}

func firstNonEmpty(values form.Values, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(values.Get(n)); v != "" {
			return v
		}
	}
	return ""
}

// patientKey identifies a patient across submissions: email first, then phone.
// Submissions carrying neither are not kept as patient cards.
func patientKey(values form.Values) string {
	if e := strings.ToLower(strings.TrimSpace(values.Get(config.FieldEmail))); e != "" {
		return "email:" + e
	}
	if p := strings.TrimSpace(values.Get(config.FieldPhone)); p != "" {
		return "tel:" + p
	}
	return ""
}

// mergePatientCard copies the contact details of a submission onto card.
// Fields absent from the submission keep their previous value.
func mergePatientCard(card vcard.Card, values form.Values) {
	if _, ok := card[vcard.FieldUID]; !ok {
		card.SetValue(vcard.FieldUID, "urn:uuid:"+uuid.NewString())
	}
	if n := firstNonEmpty(values, config.FieldFullName, config.FieldName); n != "" {
		card.SetValue(vcard.FieldFormattedName, n)
	} else if card.Value(vcard.FieldFormattedName) == "" {
		card.SetValue(vcard.FieldFormattedName, config.FallbackPatientName)
	}
	if e := strings.TrimSpace(values.Get(config.FieldEmail)); e != "" {
		card.SetValue(vcard.FieldEmail, e)
	}
	if p := strings.TrimSpace(values.Get(config.FieldPhone)); p != "" {
		card.SetValue(vcard.FieldTelephone, p)
	}
	if dob := strings.TrimSpace(values.Get(config.FieldDOB)); dob != "" {
		if d, err := calendar.ParseDate(dob); err == nil {
			card.SetValue(vcard.FieldBirthday, fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day))
		}
	}
	if g := strings.TrimSpace(values.Get(config.FieldGender)); g != "" {
		card.SetGender(vcardSex(g), "")
	}
	if a := strings.TrimSpace(values.Get(config.FieldAddress)); a != "" {
		card.SetAddress(&vcard.Address{StreetAddress: a})
	}
}

// vcardSex maps the form's gender options onto RFC 6350 sex codes.
func vcardSex(g string) vcard.Sex {
	switch g {
	case "female":
		return vcard.SexFemale
	case "male":
		return vcard.SexMale
	case "nonbinary", "other":
		return vcard.SexOther
	default:
		return vcard.SexUnknown
	}
}
