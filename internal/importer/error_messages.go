package importer

// error_messages.go maps technical import errors to coded user messages.
//
// When users encounter errors, they can quote the code to support staff for
// faster diagnosis. Codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Split the products across several files
//	          Patterns: "file too large"
//
//	FILE002 - Unsupported type: Only Excel files can be imported
//	          Action: Save the file as .xlsx and upload it again
//	          Patterns: "unsupported file type"
//
//	FILE003 - Unreadable: The spreadsheet could not be read
//	          Action: Re-save the file as .xlsx from Excel or Google Sheets
//	          Patterns: "unreadable spreadsheet"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a spreadsheet to upload
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The spreadsheet has no product rows
//	          Action: Add products below the header row
//	          Patterns: "empty spreadsheet"
//
//	FILE006 - Header conflict: Several columns describe the same field
//	          Action: Keep one column per field
//	          Patterns: "conflicting headers"
//
// # Reference Data Errors (REF001-REF099)
//
//	REF001 - Backend unreachable: The catalog service could not be reached
//	         Action: Please try again in a few moments
//	         Patterns: "connection refused", "no such host"
//
//	REF002 - Backend rejected: The catalog service refused the request
//	         Action: Check the service credentials or contact support
//	         Patterns: "backend returned"
//
//	REF003 - Reference load failed: Categories or products could not be loaded
//	         Action: Please try again
//	         Patterns: "failed to load reference data"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - System busy: Too many imports in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent imports"
//
//	IMP002 - Request cancelled: The import was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	IMP003 - Request timeout: The import took too long
//	         Action: Try a smaller file or try again later
//	         Patterns: "context deadline exceeded", "timeout"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Support staff should check the
// application logs for the original technical error.
//
// Sentinel errors are matched with errors.Is first. Otherwise patterns are
// matched case-insensitively with strings.Contains and the first match wins,
// so specific patterns come before general ones.

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Import errors returned by the pipeline. Callers match them with errors.Is.
var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrNoFile          = errors.New("no file provided")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrUnreadableFile  = errors.New("unreadable spreadsheet")
	ErrEmptyFile       = errors.New("empty spreadsheet")
	ErrHeaderConflict  = errors.New("conflicting headers")
	ErrReferenceFetch  = errors.New("failed to load reference data")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the products across several files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Only Excel files (.xlsx, .xls) can be imported",
			Action:  "Save the file as .xlsx and upload it again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unreadable spreadsheet",
		msg: UserMessage{
			Message: "The spreadsheet could not be read",
			Action:  "Re-save the file as .xlsx from Excel or Google Sheets",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a spreadsheet to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty spreadsheet",
		msg: UserMessage{
			Message: "The spreadsheet has no product rows",
			Action:  "Add products below the header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "conflicting headers",
		msg: UserMessage{
			Message: "Several columns describe the same field",
			Action:  "Keep one column per field and upload again",
			Code:    "FILE006",
		},
	},

	// Import run errors come before reference errors: a busy limiter or a
	// cancelled context can surface while reference data is loading.
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The import was cancelled",
			Action:  "Please try again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The import took too long",
			Action:  "Try a smaller file or try again later",
			Code:    "IMP003",
		},
	},

	// Reference data errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "The catalog service could not be reached",
			Action:  "Please try again in a few moments",
			Code:    "REF001",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "The catalog service could not be reached",
			Action:  "Please try again in a few moments",
			Code:    "REF001",
		},
	},
	{
		pattern: "backend returned",
		msg: UserMessage{
			Message: "The catalog service refused the request",
			Action:  "Check the service credentials or contact support",
			Code:    "REF002",
		},
	},
	{
		pattern: "failed to load reference data",
		msg: UserMessage{
			Message: "Categories or products could not be loaded",
			Action:  "Please try again",
			Code:    "REF003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The import took too long",
			Action:  "Try a smaller file or try again later",
			Code:    "IMP003",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// sentinelCodes is consulted with errors.Is before any text matching. Error
// text can carry user-supplied file and header names, so it only decides the
// code when no sentinel is present.
var sentinelCodes = []struct {
	err  error
	code string
}{
	{context.Canceled, "IMP002"},
	{context.DeadlineExceeded, "IMP003"},
	{ErrTooManyImports, "IMP001"},
	{ErrFileTooLarge, "FILE001"},
	{ErrUnsupportedFile, "FILE002"},
	{ErrUnreadableFile, "FILE003"},
	{ErrNoFile, "FILE004"},
	{ErrEmptyFile, "FILE005"},
	{ErrHeaderConflict, "FILE006"},
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels decide first; otherwise patterns are matched against the
// error text and ERR000 is the fallback.
//
// Example:
//
//	err := fmt.Errorf("%w: %q", ErrUnsupportedFile, "products.csv")
//	msg := MapError(err)
//	// msg.Code == "FILE002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.err) {
			return messageFor(sc.code)
		}
	}
	if errors.Is(err, ErrReferenceFetch) {
		return referenceMessage(err)
	}

	return matchPatterns(strings.ToLower(err.Error()), "")
}

// referenceMessage classifies a failed reference load by transport error
// type, then by the backend client's wording. Unknown causes give REF003.
func referenceMessage(err error) UserMessage {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return messageFor("IMP003")
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return messageFor("REF001")
	}
	if msg := matchPatterns(strings.ToLower(err.Error()), "REF"); msg.Code != defaultMessage.Code {
		return msg
	}
	return messageFor("REF003")
}

// matchPatterns returns the first pattern found in errStr whose code starts
// with prefix.
func matchPatterns(errStr, prefix string) UserMessage {
	for _, ep := range errorPatterns {
		if strings.HasPrefix(ep.msg.Code, prefix) && strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

func messageFor(code string) UserMessage {
	for _, ep := range errorPatterns {
		if ep.msg.Code == code {
			return ep.msg
		}
	}
	return defaultMessage
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
