// Package visualizer presents how a canonical string is assembled, one
// field at a time, for docs and the CLI.
package visualizer

import (
	"strconv"

	"paysign/internal/signing"
)

// Step is one field of the canonical string.
type Step struct {
	Label       string
	Value       string
	Description string
	// Partial is the canonical string up to and including this field.
	Partial string
}

// Steps splits in into its five fields in signing order.
func Steps(in signing.SignatureInput) []Step {
	fields := []struct {
		label, value, description string
	}{
		{"METHOD", string(in.Method), "HTTP method (GET, POST, etc.)"},
		{"PATH", in.Path, "Request path without domain"},
		{"BODY", in.Body, "Raw request body string (key order matters)"},
		{"TIMESTAMP", strconv.FormatInt(in.Timestamp, 10), "Same value as X-Timestamp header"},
		{"API_KEY", in.APIKey, "Your project API key"},
	}

	steps := make([]Step, 0, len(fields))
	partial := ""
	for i, f := range fields {
		if i > 0 {
			partial += string(signing.Separator)
		}
		partial += f.value
		steps = append(steps, Step{
			Label:       f.label,
			Value:       f.value,
			Description: f.description,
			Partial:     partial,
		})
	}
	return steps
}

// State is how a step is displayed.
type State int

const (
	StatePending State = iota
	StateActive
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	default:
		return "pending"
	}
}
