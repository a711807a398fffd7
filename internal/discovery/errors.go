package discovery

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failure inside a discovery run.
type ErrorKind string

const (
	KindConfig       ErrorKind = "config"
	KindUpstreamHard ErrorKind = "upstream_hard"
	KindUpstreamSoft ErrorKind = "upstream_soft"
	KindParse        ErrorKind = "parse"
	KindTimeout      ErrorKind = "timeout"
	KindInternal     ErrorKind = "internal"
)

// Enrichment step names, used in StepError and metric labels.
const (
	StepSearch  = "search"
	StepDetails = "details"
	StepEmail   = "email"
	StepAddress = "address"
	StepCRM     = "crm"
	StepEnrich  = "enrich"
)

// StepError is the failure of one enrichment step for one place.
type StepError struct {
	Step    string
	Kind    ErrorKind
	PlaceID string
	Err     error
}

func (e *StepError) Error() string {
	if e.PlaceID == "" {
		return fmt.Sprintf("discovery: %s (%s): %v", e.Step, e.Kind, e.Err)
	}
	return fmt.Sprintf("discovery: %s %s (%s): %v", e.Step, e.PlaceID, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Recoverable reports whether the pipeline keeps the place after this error.
func (e *StepError) Recoverable() bool {
	return e.Kind == KindUpstreamSoft || e.Kind == KindParse
}

// ConfigError reports credentials missing at request time.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "discovery: missing configuration: " + strings.Join(e.Missing, ", ")
}

// ValidationError reports an invalid discovery request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("discovery: invalid request: %s %s", e.Field, e.Reason)
}

// KindOf returns the ErrorKind carried by err, or "" if none.
func KindOf(err error) ErrorKind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return KindConfig
	}
	return ""
}
