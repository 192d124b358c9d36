package termsmap

import (
	"errors"
	"fmt"
)

// Status describes the outcome of a load or build operation.
// The zero value is StatusUnknown so an unset result never reads as success.
type Status uint8

const (
	// StatusUnknown is an unknown or unexpected failure.
	StatusUnknown Status = iota
	// StatusInvalidArguments is returned for illegal arguments, e.g. an empty path.
	StatusInvalidArguments
	// StatusFileNotFound is returned when an input file does not exist.
	StatusFileNotFound
	// StatusXMLRead is returned when the XML reader fails to parse the document.
	StatusXMLRead
	// StatusFileInit is returned when the line reader cannot be initialised.
	StatusFileInit
	// StatusLineRead is returned when a line cannot be read.
	StatusLineRead
	// StatusAllocation is returned when the arena cannot satisfy a request.
	StatusAllocation
	// StatusNoRowData marks a line that produced no columns.
	StatusNoRowData
	// StatusPolicy is returned when a caller-supplied row policy fails.
	StatusPolicy
	// StatusRootMissing is returned when the expected root element is absent.
	StatusRootMissing
	// StatusNodeMissing is returned when an expected descendant element is absent.
	StatusNodeMissing
	// StatusUnknownNodeType is returned when a node type has no field schema.
	StatusUnknownNodeType
	// StatusEmptyNodeData is returned when a required element carries no text.
	StatusEmptyNodeData
	// StatusInvalidDataType is returned when a required field cannot be resolved.
	StatusInvalidDataType
	// StatusSuccessful means no error.
	StatusSuccessful
)

var statusNames = [...]string{
	StatusUnknown:          "UnknownError",
	StatusInvalidArguments: "InvalidArguments",
	StatusFileNotFound:     "FileNotFound",
	StatusXMLRead:          "XmlReadError",
	StatusFileInit:         "FileInitError",
	StatusLineRead:         "LineReadError",
	StatusAllocation:       "AllocationError",
	StatusNoRowData:        "NoRowData",
	StatusPolicy:           "PolicyError",
	StatusRootMissing:      "RootMissing",
	StatusNodeMissing:      "NodeMissing",
	StatusUnknownNodeType:  "UnknownNodeType",
	StatusEmptyNodeData:    "EmptyNodeData",
	StatusInvalidDataType:  "InvalidDataType",
	StatusSuccessful:       "Successful",
}

// String returns the status name.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Text returns the human-readable description of the status.
func (s Status) Text() string {
	switch s {
	case StatusSuccessful:
		return "Success"
	case StatusInvalidArguments:
		return "Bad arguments"
	case StatusFileNotFound:
		return "Failed to load file"
	case StatusXMLRead:
		return "Failed to parse MeSH XML document"
	case StatusFileInit:
		return "Failed to initialise line reader"
	case StatusLineRead:
		return "Failed to read line"
	case StatusAllocation:
		return "Failed to allocate memory"
	case StatusNoRowData:
		return "No data was parsed for this row"
	case StatusPolicy:
		return "Failed to execute policy"
	case StatusRootMissing:
		return "Failed to find expected root node"
	case StatusNodeMissing:
		return "Failed to find expected descendant node"
	case StatusUnknownNodeType:
		return "Failed to resolve node type"
	case StatusInvalidDataType, StatusEmptyNodeData:
		return "Failed to resolve node data"
	default:
		return "Unknown error occurred whilst processing document"
	}
}

// Result is the tagged outcome of an operation: a status plus an optional message.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Success returns a successful Result.
func Success() Result {
	return Result{Status: StatusSuccessful}
}

// Ok reports whether the result is successful.
func (r Result) Ok() bool {
	return r.Status == StatusSuccessful
}

// Description renders the status text, followed by the message when one is attached.
func (r Result) Description() string {
	if r.Message == "" {
		return r.Status.Text()
	}
	return fmt.Sprintf("%s with msg: %s", r.Status.Text(), r.Message)
}

// Err returns the result as an error, or nil when it is successful.
func (r Result) Err() error {
	if r.Ok() {
		return nil
	}
	return &Error{Status: r.Status, Message: r.Message}
}

// Error is the error type returned across package boundaries.
type Error struct {
	Status  Status
	Message string
	// Err is an optional underlying cause.
	Err error
}

// NewError creates an Error with a formatted message.
func NewError(status Status, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Status: status, Message: msg}
}

// WrapError creates an Error carrying cause. The cause's text becomes the message.
func WrapError(status Status, cause error) *Error {
	e := &Error{Status: status, Err: cause}
	if cause != nil {
		e.Message = cause.Error()
	}
	return e
}

func (e *Error) Error() string {
	return e.Result().Description()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Result converts the error back into a Result.
func (e *Error) Result() Result {
	return Result{Status: e.Status, Message: e.Message}
}

// StatusOf maps err to a Status. A nil error is StatusSuccessful; errors that
// are not *Error map to StatusUnknown.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccessful
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return StatusUnknown
}

// ResultOf maps err to a Result.
func ResultOf(err error) Result {
	if err == nil {
		return Success()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Result()
	}
	return Result{Status: StatusUnknown, Message: err.Error()}
}

// IsStatus reports whether err carries the given status.
func IsStatus(err error, status Status) bool {
	return StatusOf(err) == status
}
