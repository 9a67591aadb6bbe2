package importer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "unsupported file",
			err:         fmt.Errorf("%w: %q (expected .xlsx or .xls)", ErrUnsupportedFile, "p.csv"),
			wantCode:    "FILE002",
			wantMessage: "Only Excel files (.xlsx, .xls) can be imported",
		},
		{
			name:        "unreadable spreadsheet",
			err:         fmt.Errorf("%w: zip: not a valid zip file", ErrUnreadableFile),
			wantCode:    "FILE003",
			wantMessage: "The spreadsheet could not be read",
		},
		{
			name:        "empty spreadsheet",
			err:         fmt.Errorf("%w: sheet %q has no data rows", ErrEmptyFile, "Sheet1"),
			wantCode:    "FILE005",
			wantMessage: "The spreadsheet has no product rows",
		},
		{
			name:        "header conflict",
			err:         fmt.Errorf("%w: columns \"Name\", \"Title\" all map to name", ErrHeaderConflict),
			wantCode:    "FILE006",
			wantMessage: "Several columns describe the same field",
		},
		{
			name:        "backend unreachable during reference load",
			err:         fmt.Errorf("%w: categories: dial tcp: connection refused", ErrReferenceFetch),
			wantCode:    "REF001",
			wantMessage: "The catalog service could not be reached",
		},
		{
			name:        "backend status error",
			err:         fmt.Errorf("%w: products: backend returned 401: unauthorized", ErrReferenceFetch),
			wantCode:    "REF002",
			wantMessage: "The catalog service refused the request",
		},
		{
			name:        "generic reference failure",
			err:         fmt.Errorf("%w: subcategories: decode response: unexpected EOF", ErrReferenceFetch),
			wantCode:    "REF003",
			wantMessage: "Categories or products could not be loaded",
		},
		{
			name:        "deadline during reference load",
			err:         fmt.Errorf("%w: categories: %w", ErrReferenceFetch, context.DeadlineExceeded),
			wantCode:    "IMP003",
			wantMessage: "The import took too long",
		},
		{
			name:        "limiter saturated",
			err:         ErrTooManyImports,
			wantCode:    "IMP001",
			wantMessage: "System is busy processing other imports",
		},
		{
			name:        "rate limit",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "header names do not override the sentinel",
			err:         fmt.Errorf("%w: columns %q, %q all map to name", ErrHeaderConflict, "file too large", "Name"),
			wantCode:    "FILE006",
			wantMessage: "Several columns describe the same field",
		},
		{
			name:        "file name does not override the sentinel",
			err:         fmt.Errorf("%w: %q (expected .xlsx or .xls)", ErrUnsupportedFile, "file too large.csv"),
			wantCode:    "FILE002",
			wantMessage: "Only Excel files (.xlsx, .xls) can be imported",
		},
		{
			name: "dial error during reference load",
			err: fmt.Errorf("%w: categories: %w", ErrReferenceFetch,
				&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}),
			wantCode:    "REF001",
			wantMessage: "The catalog service could not be reached",
		},
		{
			name: "dns error during reference load",
			err: fmt.Errorf("%w: products: %w", ErrReferenceFetch,
				&net.DNSError{Err: "server misbehaving", Name: "catalog.internal"}),
			wantCode:    "REF001",
			wantMessage: "The catalog service could not be reached",
		},
		{
			name: "network timeout during reference load",
			err: fmt.Errorf("%w: products: %w", ErrReferenceFetch,
				&net.DNSError{Err: "i/o timeout", Name: "catalog.internal", IsTimeout: true}),
			wantCode:    "IMP003",
			wantMessage: "The import took too long",
		},
		{
			name:        "reference failure only matches reference patterns",
			err:         fmt.Errorf("%w: decode response: invalid character in %q", ErrReferenceFetch, "too many concurrent imports"),
			wantCode:    "REF003",
			wantMessage: "Categories or products could not be loaded",
		},
		{
			name:        "cancelled import",
			err:         fmt.Errorf("acquire slot: %w", context.Canceled),
			wantCode:    "IMP002",
			wantMessage: "The import was cancelled",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("FILE TOO LARGE"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum upload size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrEmptyFile, true},
		{ErrFileTooLarge, true},
		{fmt.Errorf("%w: timed out", ErrReferenceFetch), true},
		{errors.New("nil pointer dereference"), false},
	}

	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
