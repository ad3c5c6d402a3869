package model

import (
	"fmt"
	"strings"
)

// ValidationError reports required fields missing from a submission, or
// present but malformed. It is raised before any request reaches the server.
type ValidationError struct {
	Fields  []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Fields) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Fields, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

// Missing reports whether a required field was empty.
func (e *ValidationError) Missing() bool { return len(e.Fields) > 0 }
