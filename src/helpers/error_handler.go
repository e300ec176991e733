package helpers

import (
	"fmt"
	"io"
	"sync"

	"netsim-results/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ResultsError struct {
	Message string
	Cause   error
}

func (e *ResultsError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ResultsError) Unwrap() error {
	return e.Cause
}

// Helper to define distinct error types for type assertions if needed
type ConfigurationError struct{ ResultsError }
type DatabaseError struct{ ResultsError }

// Input checks reported by InputError.Check
const (
	CheckFileExists        = "file_exists"
	CheckReadable          = "readable"
	CheckNotEmpty          = "not_empty"
	CheckSizeLimit         = "size_limit"
	CheckProtocolColumn    = "protocol_column"
	CheckThroughputColumns = "throughput_columns"
)

// InputError is fatal: the input cannot be aggregated at all.
type InputError struct {
	ResultsError
	Path  string
	Check string
}

func (e *InputError) Error() string {
	path := e.Path
	if path == "" {
		path = "<memory>"
	}
	return fmt.Sprintf("input %s failed check %s: %s", path, e.Check, e.ResultsError.Error())
}

// NewInputError builds an InputError for path that failed check.
func NewInputError(path, check, message string, cause error) *InputError {
	return &InputError{
		ResultsError: ResultsError{Message: message, Cause: cause},
		Path:         path,
		Check:        check,
	}
}

func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{ResultsError{Message: message, Cause: cause}}
}

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{ResultsError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Parse Warnings
// -----------------------------------------------------------------------------

// ParseWarning is a non-fatal problem with one cell or column. Row is the
// 1-based data row (0 for header-level warnings).
type ParseWarning struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func (w ParseWarning) String() string {
	if w.Row == 0 {
		return fmt.Sprintf("column %s: %s", w.Column, w.Reason)
	}
	return fmt.Sprintf("row %d column %s value %q: %s", w.Row, w.Column, w.Value, w.Reason)
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

type ErrorHandler struct {
	Logger       *logger.Logger
	ErrorCount   int
	WarningCount int
	mu           sync.Mutex
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLoggerWithWriter(io.Discard, logger.LevelError, "ErrorHandler")
	}
	return &ErrorHandler{Logger: log}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetCounts() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ErrorCount = 0
	e.WarningCount = 0
}

// -----------------------------------------------------------------------------

// Warn logs every warning of a run under the given source.
func (e *ErrorHandler) Warn(source string, warnings []ParseWarning) {
	if len(warnings) == 0 {
		return
	}
	e.mu.Lock()
	e.WarningCount += len(warnings)
	e.mu.Unlock()
	for _, w := range warnings {
		e.Logger.Warning("%s: %s", source, w.String())
	}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) Handle(err error, context string) {
	if err == nil {
		return
	}
	e.mu.Lock()
	e.ErrorCount++
	e.mu.Unlock()
	e.Logger.Error("Error in %s: %v", context, err)
}

// Counts returns the error and warning totals seen so far.
func (e *ErrorHandler) Counts() (errors int, warnings int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ErrorCount, e.WarningCount
}
