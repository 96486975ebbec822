package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"DivDash/pkg/logger"
)

// Recorder receives validation outcomes for metrics.
type Recorder interface {
	RecordViolation(schema, path string)
	RecordFallback(schema string)
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// Validator applies the accept/fallback/fail policy and reports what it did.
// The zero value and a nil *Validator are usable and report nothing.
type Validator struct {
	log         *logger.Logger
	rec         Recorder
	diagnostics *DiagnosticLog
}

// NewValidator creates a Validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{log: logger.Nop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l *logger.Logger) ValidatorOption {
	return func(v *Validator) {
		if l != nil {
			v.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) ValidatorOption {
	return func(v *Validator) {
		v.rec = r
	}
}

// WithDiagnostics sets the log that keeps absorbed violations.
func WithDiagnostics(d *DiagnosticLog) ValidatorOption {
	return func(v *Validator) {
		v.diagnostics = d
	}
}

// Decode validates raw against s and decodes it into T.
//
// A conforming document returns (value, nil, nil). A non-conforming document
// with a fallback returns (*fallback, violations, nil) and records a
// diagnostic. Without a fallback it returns a *ValidationError listing every
// violation.
func Decode[T any](v *Validator, s *Schema, raw []byte, fallback *T) (T, []Violation, error) {
	var zero T

	violations := validateDocument(s, raw)
	if len(violations) == 0 {
		var out T
		err := json.Unmarshal(raw, &out)
		if err == nil {
			return out, nil, nil
		}
		violations = []Violation{{Expected: s.Expected(), Received: "undecodable document: " + err.Error()}}
	}

	for _, vi := range violations {
		v.recordViolation(s, vi)
	}
	if fallback != nil {
		v.recordFallback(s, violations)
		return *fallback, violations, nil
	}
	return zero, violations, &ValidationError{Schema: s.Name(), Violations: violations}
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func validateDocument(s *Schema, raw []byte) []Violation {
	doc, err := parseDocument(raw)
	if err != nil {
		return []Violation{{Expected: s.Expected(), Received: "malformed JSON"}}
	}
	return Validate(s, doc)
}

func parseDocument(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode document: trailing data")
	}
	return doc, nil
}

func (v *Validator) recordViolation(s *Schema, vi Violation) {
	if v == nil || v.rec == nil {
		return
	}
	v.rec.RecordViolation(s.Name(), vi.Path)
}

func (v *Validator) recordFallback(s *Schema, violations []Violation) {
	if v == nil {
		return
	}
	if v.rec != nil {
		v.rec.RecordFallback(s.Name())
	}
	if v.diagnostics != nil {
		v.diagnostics.Record(s.Name(), violations)
	}
	if v.log != nil {
		v.log.Warn("schema fallback applied",
			logger.String("schema", s.Name()),
			logger.Int("violations", len(violations)),
			logger.String("first", violations[0].String()),
		)
	}
}
