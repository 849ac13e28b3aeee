package form_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/form"
)

func TestRule_Check(t *testing.T) {
	today := calendar.Date{Year: 2025, Month: time.June, Day: 10}

	email := form.Email(config.MsgEmailRequired, config.MsgEmailInvalid)
	strict := form.Phone(config.MsgPhoneRequired, config.MsgPhoneInvalid, form.PhoneStrict)
	lenient := form.Phone(config.MsgPhoneRequired, config.MsgPhoneInvalid, form.PhoneLenient)
	notPast := form.DateNotPast(config.MsgDateRequired, config.MsgDatePast)
	notFuture := form.DateNotFuture("DOB required", config.MsgDateFuture)
	clock := form.TimeOfDay(config.MsgTimeRequired, "08:00", "18:00")
	oneOf := form.SelectOneOf("Pick one", "Mild", "Severe")
	zip := form.Pattern("Zip required", "Bad zip", regexp.MustCompile(`^\d{5}$`))

	tests := []struct {
		name  string
		rule  form.Rule
		value string
		want  string
	}{
		{"optional blank", form.Optional(), "", ""},
		{"required blank", form.Required("Needed"), "", "Needed"},
		{"required whitespace", form.Required("Needed"), " \t ", "Needed"},
		{"required ok", form.Required("Needed"), "x", ""},

		{"email blank", email, "", config.MsgEmailRequired},
		{"email no tld", email, "a@b", config.MsgEmailInvalid},
		{"email short tld", email, "a@b.c", config.MsgEmailInvalid},
		{"email upper case", email, "Ada.King+test@Example.ORG", ""},
		{"email trimmed", email, "  a@b.com ", ""},

		{"strict ok", strict, "+15551234567", ""},
		{"strict no plus", strict, "0612345678", ""},
		{"strict spaces", strict, "06 12 34 56 78", config.MsgPhoneInvalid},
		{"strict too short", strict, "12345", config.MsgPhoneInvalid},
		{"strict too long", strict, "1234567890123456", config.MsgPhoneInvalid},
		{"lenient spaces", lenient, "06 12 34 56", ""},
		{"lenient dashes", lenient, "+1-555-1234", ""},
		{"lenient letters", lenient, "555-CALL-NOW", config.MsgPhoneInvalid},

		{"date today", notPast, "2025-06-10", ""},
		{"date yesterday", notPast, "2025-06-09", config.MsgDatePast},
		{"date future", notPast, "2026-01-01", ""},
		{"date garbage", notPast, "tomorrow", config.MsgDateMalformed},
		{"dob future", notFuture, "2025-06-11", config.MsgDateFuture},
		{"dob past", notFuture, "1990-02-03", ""},

		{"time ok", clock, "09:30", ""},
		{"time outside hint", clock, "21:00", ""},
		{"time malformed", clock, "9h30", config.MsgTimeMalformed},
		{"time blank", clock, "", config.MsgTimeRequired},

		{"select ok", oneOf, "Mild", ""},
		{"select blank", oneOf, "", "Pick one"},
		{"select unknown", oneOf, "Deadly", "Pick one"},

		{"pattern ok", zip, "75001", ""},
		{"pattern bad", zip, "7500", "Bad zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Check(tt.value, today))
		})
	}
}

func TestRule_CheckChoices(t *testing.T) {
	r := form.AtLeastOneOf("Pick at least one", "email", "sms")

	assert.Equal(t, "Pick at least one", r.CheckChoices(nil))
	assert.Equal(t, "", r.CheckChoices([]string{"sms"}))
	assert.Equal(t, "Pick at least one", r.CheckChoices([]string{"pigeon"}))
	assert.Equal(t, "", form.Optional().CheckChoices(nil))
}
