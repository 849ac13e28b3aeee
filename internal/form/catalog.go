package form

import (
	"time"

	"github.com/tartampluch/go-clinic/internal/config"
)

const (
	msgBookingSuccess  = "Thank you! Your appointment request has been submitted."
	msgMessageSent     = "Thank you! Your message has been sent successfully."
	msgScheduled       = "Your appointment has been scheduled successfully!"
	msgDetailsSaved    = "Details submitted successfully!"
	msgHistorySaved    = "Medical history submitted successfully!"
	msgRequestSent     = "Your appointment request has been sent successfully!"
	msgOopsFailure     = "Oops! Something went wrong. Please try again later."
	msgEmergencyFailed = "Failed to submit emergency request. Please try again."
	msgHistoryFailed   = "Submission failed. Please try again."
)

var (
	homeReasons = []string{
		"General Consultation", "Follow-up Visit", "Lab Tests",
		"Vaccination", "Emergency Care", "Other",
	}
	emergencyTypes = []string{"medical", "fire", "police", "other"}
	genders        = []string{"female", "male", "nonbinary", "other", "preferNotToSay"}
	contactMethods = []string{"email", "phone", "sms"}
	contactTimes   = []string{"morning", "afternoon", "evening"}
	conditions     = []string{
		"Diabetes", "Hypertension", "Heart Disease", "Asthma",
		"Cancer", "Kidney Disease", "Arthritis", "Other",
	}
	habitAnswers = []string{"Yes", "No", "Occasionally", "Prefer not to say"}
	severities   = []string{"Mild", "Moderate", "Severe"}
)

// Common field specs shared by several forms.
func emailField() FieldSpec {
	return FieldSpec{Name: config.FieldEmail, Label: "Email", Kind: KindEmail,
		Rule: Email(config.MsgEmailRequired, config.MsgEmailInvalid), Placeholder: "you@example.com"}
}

func phoneField(invalid string, v PhoneVariant) FieldSpec {
	return FieldSpec{Name: config.FieldPhone, Label: "Phone", Kind: KindPhone,
		Rule: Phone(config.MsgPhoneRequired, invalid, v), Placeholder: "+15551234567"}
}

func futureDateField(required string) FieldSpec {
	return FieldSpec{Name: config.FieldDate, Label: "Date", Kind: KindDate,
		Rule: DateNotPast(required, config.MsgDatePast), Placeholder: calendarHint}
}

func clinicTimeField(required string) FieldSpec {
	return FieldSpec{Name: config.FieldTime, Label: "Time", Kind: KindTime,
		Rule: TimeOfDay(required, config.ClinicOpens, config.ClinicCloses), Placeholder: config.ClinicOpens}
}

const calendarHint = "YYYY-MM-DD"

var catalog = []Definition{
	{
		ID:    config.FormAppointment,
		Title: "Book an Appointment",
		Fields: []FieldSpec{
			{Name: config.FieldFullName, Label: "Full name", Kind: KindText, Rule: Required(config.MsgFullNameRequired)},
			emailField(),
			phoneField(config.MsgPhoneInvalid, PhoneStrict),
			futureDateField(config.MsgDateRequired),
			clinicTimeField(config.MsgTimeRequired),
			{Name: config.FieldMessage, Label: "Message", Kind: KindMultiline, Rule: Required("Please add a message")},
		},
		SuccessMessage: msgBookingSuccess,
		Simulation:     Simulation{Delay: 2000 * time.Millisecond},
	},
	{
		ID:    config.FormQuickBooking,
		Title: "Quick Booking",
		Fields: []FieldSpec{
			{Name: config.FieldName, Label: "Name", Kind: KindText, Rule: Required(config.MsgNameRequired)},
			emailField(),
			futureDateField(config.MsgDateRequired),
			clinicTimeField(config.MsgTimeRequired),
		},
		SuccessMessage: msgScheduled,
		FailureMessage: msgOopsFailure,
		Simulation:     Simulation{Delay: 1500 * time.Millisecond, FailureRate: 0.3},
	},
	{
		ID:    config.FormHomeAppointment,
		Title: "Home Appointment",
		Fields: []FieldSpec{
			{Name: config.FieldName, Label: "Name", Kind: KindText, Rule: Required(config.MsgNameRequired)},
			emailField(),
			phoneField(config.MsgPhoneInvalid, PhoneLenient),
			futureDateField(config.MsgDateRequired),
			clinicTimeField(config.MsgTimeRequired),
			{Name: config.FieldReason, Label: "Reason", Kind: KindSelect, Rule: SelectOneOf("Please select a reason", homeReasons...)},
		},
		SuccessMessage: msgScheduled,
		FailureMessage: config.DefaultFailureMessage,
		Simulation:     Simulation{Delay: 1500 * time.Millisecond},
	},
	{
		ID:    config.FormContact,
		Title: "Contact Us",
		Fields: []FieldSpec{
			{Name: config.FieldName, Label: "Name", Kind: KindText, Rule: Required(config.MsgNameRequired)},
			emailField(),
			phoneField(config.MsgPhoneInvalid, PhoneLenient),
			{Name: "subject", Label: "Subject", Kind: KindText, Rule: Required("Subject is required")},
			{Name: config.FieldMessage, Label: "Message", Kind: KindMultiline, Rule: Required("Message cannot be empty")},
		},
		SuccessMessage: msgMessageSent,
		FailureMessage: msgOopsFailure,
		Simulation:     Simulation{Delay: 1800 * time.Millisecond},
	},
	{
		ID:    config.FormEmergency,
		Title: "Emergency Request",
		Fields: []FieldSpec{
			{Name: config.FieldName, Label: "Name", Kind: KindText, Rule: Required(config.MsgNameRequired)},
			phoneField(config.MsgPhoneInvalidAlt, PhoneStrict),
			{Name: "emergencyType", Label: "Emergency type", Kind: KindSelect, Rule: SelectOneOf("Please select emergency type", emergencyTypes...)},
			{Name: "description", Label: "Description", Kind: KindMultiline, Rule: Required("Please describe the emergency")},
		},
		SuccessMessage: "Emergency request submitted. Help is on the way.",
		FailureMessage: msgEmergencyFailed,
		Simulation:     Simulation{Delay: 1500 * time.Millisecond, FailureRate: 0.15},
	},
	{
		ID:    config.FormPersonalDetails,
		Title: "Personal Details",
		Fields: []FieldSpec{
			{Name: config.FieldFullName, Label: "Full name", Kind: KindText, Rule: Required("Full Name is required")},
			emailField(),
			phoneField(config.MsgPhoneInvalidAlt, PhoneStrict),
			{Name: config.FieldDOB, Label: "Date of birth", Kind: KindDate, Rule: DateNotFuture("Date of Birth is required", config.MsgDateFuture), Placeholder: calendarHint},
			{Name: config.FieldGender, Label: "Gender", Kind: KindSelect, Rule: SelectOneOf("Please select your gender", genders...)},
			{Name: config.FieldAddress, Label: "Address", Kind: KindMultiline, Rule: Required("Address is required")},
		},
		SuccessMessage: msgDetailsSaved,
		Simulation:     Simulation{Delay: 1500 * time.Millisecond},
	},
	{
		ID:    config.FormContactPreferences,
		Title: "Contact Preferences",
		Fields: []FieldSpec{
			{Name: "methods", Label: "Contact methods", Kind: KindChecks, Rule: AtLeastOneOf("Please select at least one contact method.", contactMethods...)},
			{Name: "bestTime", Label: "Best time", Kind: KindSelect, Rule: SelectOneOf("Please select the best time to contact.", contactTimes...)},
		},
		SuccessMessage: msgDetailsSaved,
	},
	{
		ID:    config.FormMedicalHistory,
		Title: "Medical History",
		Fields: []FieldSpec{
			{Name: "existingConditions", Label: "Existing conditions", Kind: KindChecks, Rule: AtLeastOneOf("Please select at least one existing condition or 'None'.", conditions...)},
			{Name: "medications", Label: "Current medications", Kind: KindMultiline, Rule: Required("Please list any current medications or enter 'None'.")},
			{Name: "allergies", Label: "Allergies", Kind: KindMultiline, Rule: Required("Please list any allergies or enter 'None'.")},
			{Name: "familyHistory", Label: "Family history", Kind: KindMultiline, Rule: Required("Please provide family medical history or enter 'None'.")},
			{Name: "smoking", Label: "Smoking", Kind: KindSelect, Rule: SelectOneOf("Please select your smoking status.", habitAnswers...)},
			{Name: "alcohol", Label: "Alcohol", Kind: KindSelect, Rule: SelectOneOf("Please select your alcohol consumption status.", habitAnswers...)},
		},
		SuccessMessage: msgHistorySaved,
		FailureMessage: msgHistoryFailed,
		Simulation:     Simulation{Delay: 1500 * time.Millisecond},
	},
	{
		ID:    config.FormAllergy,
		Title: "Add Allergy",
		Fields: []FieldSpec{
			{Name: "allergen", Label: "Allergen", Kind: KindText, Rule: Required("Allergen is required")},
			{Name: "reaction", Label: "Reaction", Kind: KindText, Rule: Required("Reaction is required")},
			{Name: "severity", Label: "Severity", Kind: KindSelect, Rule: SelectOneOf("Severity is required", severities...)},
			{Name: config.FieldNotes, Label: "Notes", Kind: KindMultiline, Rule: Optional()},
		},
		SuccessMessage: msgDetailsSaved,
		Simulation:     Simulation{Delay: 800 * time.Millisecond},
	},
	{
		ID:    config.FormMedication,
		Title: "Add Medication",
		Fields: []FieldSpec{
			{Name: config.FieldName, Label: "Medication", Kind: KindText, Rule: Required("Medication name is required")},
			{Name: "dosage", Label: "Dosage", Kind: KindText, Rule: Required("Dosage is required")},
			{Name: "frequency", Label: "Frequency", Kind: KindText, Rule: Required("Frequency is required")},
			{Name: "prescribedBy", Label: "Prescribed by", Kind: KindText, Rule: Required("Prescriber is required")},
			{Name: "startDate", Label: "Start date", Kind: KindDate, Rule: DateNotFuture("Start date is required", config.MsgDateFuture), Placeholder: calendarHint},
			{Name: config.FieldNotes, Label: "Notes", Kind: KindMultiline, Rule: Optional()},
		},
		SuccessMessage: msgDetailsSaved,
		Simulation:     Simulation{Delay: 1000 * time.Millisecond},
	},
	{
		ID:    config.FormFollowUp,
		Title: "Schedule Follow-up",
		Fields: []FieldSpec{
			futureDateField(config.MsgDateRequired),
			clinicTimeField(config.MsgTimeRequired),
			{Name: config.FieldDoctor, Label: "Doctor", Kind: KindText, Rule: Required("Doctor name is required")},
			{Name: config.FieldDepartment, Label: "Department", Kind: KindText, Rule: Required("Department is required")},
		},
		SuccessMessage: msgScheduled,
		Simulation:     Simulation{Delay: 1200 * time.Millisecond},
	},
	{
		ID:    config.FormDoctorBooking,
		Title: "Book with a Doctor",
		Fields: []FieldSpec{
			{Name: config.FieldFullName, Label: "Full name", Kind: KindText, Rule: Required(config.MsgFullNameRequired)},
			{Name: config.FieldEmail, Label: "Email", Kind: KindEmail, Rule: Email("Email address is required", config.MsgEmailInvalid), Placeholder: "you@example.com"},
			futureDateField("Please select a date"),
			clinicTimeField("Please select a time"),
			{Name: config.FieldNotes, Label: "Notes", Kind: KindMultiline, Rule: Optional()},
		},
		SuccessMessage: msgRequestSent,
		Simulation:     Simulation{Delay: 1300 * time.Millisecond},
	},
}

// Catalog returns every form the clinic offers, in display order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the form with the given ID.
func Lookup(id string) (Definition, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// IsBooking reports whether a form produces a dated appointment.
func (d Definition) IsBooking() bool {
	_, hasDate := d.Field(config.FieldDate)
	_, hasTime := d.Field(config.FieldTime)
	return hasDate && hasTime
}
