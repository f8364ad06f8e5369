package application

import (
	"errors"
	"sort"
)

var (
	// ErrUnauthorized is returned when the acting user may not touch the resource.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidState is returned when a lifecycle transition does not apply to
	// the reservation's current state, such as returning a key never picked up.
	ErrInvalidState = errors.New("application: invalid state")
	// ErrPersistence wraps storage failures the caller cannot correct.
	ErrPersistence = errors.New("application: persistence failure")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// fieldPriority orders the fields Summary reports first, following the order
// in which a request lists them.
var fieldPriority = map[string]int{
	"user_id":     0,
	"campus_id":   1,
	"date":        2,
	"day_of_week": 3,
	"start_hour":  4,
	"end_hour":    5,
}

// Summary returns one field message, preferring the field that comes first in
// a request. It falls back to Error when no field is recorded.
func (v *ValidationError) Summary() string {
	if !v.HasErrors() {
		return v.Error()
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Slice(fields, func(i, j int) bool {
		pi, iok := fieldPriority[fields[i]]
		pj, jok := fieldPriority[fields[j]]
		switch {
		case iok && jok:
			return pi < pj
		case iok != jok:
			return iok
		default:
			return fields[i] < fields[j]
		}
	})
	return v.FieldErrors[fields[0]]
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message for a field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}
