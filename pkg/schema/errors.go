package schema

import (
	"fmt"
	"strings"
)

// Violation is one structural mismatch between a payload and its schema.
type Violation struct {
	Path     string `json:"path"`
	Expected string `json:"expected"`
	Received string `json:"received"`
}

func (v Violation) String() string {
	path := v.Path
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("%s: expected %s, received %s", path, v.Expected, v.Received)
}

// ValidationError reports every violation found in one document.
type ValidationError struct {
	Schema     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("schema %s: %d violation(s): %s", e.Schema, len(e.Violations), strings.Join(parts, "; "))
}
