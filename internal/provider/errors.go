package provider

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by the ingestion pipeline matches exactly
// one of these with errors.Is, except timeouts which match both ErrFetch and ErrTimeout.
var (
	ErrConfiguration  = errors.New("invalid source configuration")
	ErrFetch          = errors.New("fetch failed")
	ErrTimeout        = errors.New("fetch timed out")
	ErrPathNotFound   = errors.New("property path not found")
	ErrParse          = errors.New("response could not be parsed")
	ErrParserNotFound = errors.New("response parser not found")
)

// ConfigurationError reports a schema key that is missing or cannot be resolved
type ConfigurationError struct {
	Key    string
	Reason string
	Cause  error
}

// NewConfigurationError creates a ConfigurationError for the given key
func NewConfigurationError(key, reason string, cause error) *ConfigurationError {
	return &ConfigurationError{Key: key, Reason: reason, Cause: cause}
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("%s: %q %s", ErrConfiguration, e.Key, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// FetchError reports a transport failure or a non-success HTTP status.
// StatusCode is 0 when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Cause      error
}

func (e *FetchError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: %s: %v", ErrTimeout, e.URL, e.Cause)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s returned status %d", ErrFetch, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s: %v", ErrFetch, e.URL, e.Cause)
	}
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch || (e.Timeout && target == ErrTimeout)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// PathNotFoundError reports a property path that does not resolve to an array
type PathNotFoundError struct {
	Path   string
	Reason string
}

func (e *PathNotFoundError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("%s: %s: %s", ErrPathNotFound, path, e.Reason)
}

func (e *PathNotFoundError) Is(target error) bool {
	return target == ErrPathNotFound
}

// ParseError reports a response body that is not valid for the selected parser
type ParseError struct {
	Parser string
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s by %s: %v", ErrParse, e.Parser, e.Cause)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// SchemaError attaches the position of the failing schema within a batch
type SchemaError struct {
	Index int
	Table string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("schema %d (%s): %v", e.Index, e.Table, e.Err)
	}
	return fmt.Sprintf("schema %d: %v", e.Index, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
