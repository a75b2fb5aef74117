// Package validation collects field-level errors and renders them the way the
// HTML forms present them ("Title can't be blank").
package validation

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Messages attached to fields
const (
	MsgBlank    = "can't be blank"
	MsgTaken    = "has already been taken"
	MsgInvalid  = "is invalid"
	MsgNotInSet = "is not included in the list"
)

// FieldError is a single violation on a named field
type FieldError struct {
	Field   string
	Message string
}

// Errors is an ordered set of field errors. The zero value is ready to use.
type Errors struct {
	list []FieldError
}

// Add records a violation. Duplicate field/message pairs are kept once.
func (e *Errors) Add(field, msg string) {
	for _, fe := range e.list {
		if fe.Field == field && fe.Message == msg {
			return
		}
	}
	e.list = append(e.list, FieldError{Field: field, Message: msg})
}

// Merge appends every error from other
func (e *Errors) Merge(other *Errors) {
	if other == nil {
		return
	}
	for _, fe := range other.list {
		e.Add(fe.Field, fe.Message)
	}
}

// On returns the messages recorded for field
func (e *Errors) On(field string) []string {
	if e == nil {
		return nil
	}
	var out []string
	for _, fe := range e.list {
		if fe.Field == field {
			out = append(out, fe.Message)
		}
	}
	return out
}

func (e *Errors) Count() int {
	if e == nil {
		return 0
	}
	return len(e.list)
}

func (e *Errors) Empty() bool {
	return e.Count() == 0
}

// List returns a copy of the recorded errors
func (e *Errors) List() []FieldError {
	if e == nil {
		return nil
	}
	out := make([]FieldError, len(e.list))
	copy(out, e.list)
	return out
}

// FullMessages renders each error as "<Field> <message>"
func (e *Errors) FullMessages() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.list))
	for _, fe := range e.list {
		out = append(out, HumanizeField(fe.Field)+" "+fe.Message)
	}
	return out
}

// Summary renders the form header, e.g. "2 errors prohibited this task from being saved"
func (e *Errors) Summary(resource string) string {
	return message.NewPrinter(language.English).Sprintf(summaryKey, e.Count(), resource)
}

func (e *Errors) Error() string {
	return strings.Join(e.FullMessages(), ", ")
}

// Err returns e as an error, or nil when no errors were recorded
func (e *Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

// HumanizeField turns "password_confirmation" into "Password confirmation"
func HumanizeField(field string) string {
	words := strings.Fields(strings.ReplaceAll(field, "_", " "))
	if len(words) == 0 {
		return ""
	}
	// Casers carry state, so each call gets its own
	words[0] = cases.Title(language.English).String(words[0])
	return strings.Join(words, " ")
}
