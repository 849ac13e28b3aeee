package ui

import (
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

// FilteredEntry is an Entry that drops typed runes its filter rejects.
// Pasted text bypasses the filter; field validation covers that case.
type FilteredEntry struct {
	widget.Entry
	allow    func(r rune) bool
	keyboard mobile.KeyboardType
}

func newFilteredEntry(allow func(rune) bool, kb mobile.KeyboardType) *FilteredEntry {
	entry := &FilteredEntry{allow: allow, keyboard: kb}
	entry.ExtendBaseWidget(entry)
	return entry
}

// NewNumericalEntry accepts digits only (settings port and timeout).
func NewNumericalEntry() *FilteredEntry {
	return newFilteredEntry(isDigit, mobile.NumberKeyboard)
}

// NewPhoneEntry accepts the characters a phone number may contain:
// digits, a leading plus sign, spaces and dashes.
func NewPhoneEntry() *FilteredEntry {
	e := newFilteredEntry(nil, mobile.DefaultKeyboard)
	e.allow = func(r rune) bool {
		switch {
		case isDigit(r), r == ' ', r == '-':
			return true
		case r == '+':
			return e.Text == ""
		}
		return false
	}
	return e
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// TypedRune intercepts text input events.
func (e *FilteredEntry) TypedRune(r rune) {
	if e.allow == nil || e.allow(r) {
		e.Entry.TypedRune(r)
	}
}

// Keyboard overrides the default keyboard type on mobile devices.
func (e *FilteredEntry) Keyboard() mobile.KeyboardType {
	return e.keyboard
}
