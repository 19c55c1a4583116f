// Package validate provides an error type that separates field-scoped
// violations from general (cross-entity) ones, so callers can attach each
// message to the right input.
package validate

import "strings"

// Errors collects validation failures from one validation pass. Field keys
// map to messages about a single attribute; General holds violations that
// span entities (capacity exceeded, overlapping booking, etc.).
type Errors struct {
	Fields  map[string][]string `json:"fields,omitempty"`
	General []string            `json:"non_field_errors,omitempty"`
}

// New returns an empty error collector.
func New() *Errors {
	return &Errors{Fields: make(map[string][]string)}
}

// AddField records a violation scoped to a single field.
func (e *Errors) AddField(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// AddGeneral records a violation not attributable to one field.
func (e *Errors) AddGeneral(msg string) {
	e.General = append(e.General, msg)
}

// Empty reports whether no violations were recorded.
func (e *Errors) Empty() bool {
	return len(e.Fields) == 0 && len(e.General) == 0
}

// ErrOrNil returns e as an error when violations exist, nil otherwise.
func (e *Errors) ErrOrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

// Error implements the error interface by joining all messages.
func (e *Errors) Error() string {
	var msgs []string
	msgs = append(msgs, e.General...)
	for field, list := range e.Fields {
		for _, m := range list {
			msgs = append(msgs, field+": "+m)
		}
	}
	return strings.Join(msgs, "; ")
}

// AsErrors unwraps err into *Errors if it is one.
func AsErrors(err error) (*Errors, bool) {
	ve, ok := err.(*Errors)
	return ve, ok
}
