package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JonMunkholm/scentadmin/internal/api"
	"github.com/JonMunkholm/scentadmin/internal/batch"
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
			name:        "nothing to export",
			err:         ErrNothingToExport,
			wantCode:    "EXP001",
			wantMessage: "There is nothing to export",
		},
		{
			name:        "wrapped busy",
			err:         fmt.Errorf("export perfumes: %w", ErrOperationBusy),
			wantCode:    "EXP002",
			wantMessage: "An export or import is already running for this entity",
		},
		{
			name:        "batch out of range",
			err:         fmt.Errorf("%w: batch 9 of 3", batch.ErrBatchOutOfRange),
			wantCode:    "EXP006",
			wantMessage: "A selected batch does not exist",
		},
		{
			name:        "no valid records",
			err:         ErrNoValidRecords,
			wantCode:    "IMP001",
			wantMessage: "No valid records found in file",
		},
		{
			name:        "empty file",
			err:         ErrEmptyFile,
			wantCode:    "IMP002",
			wantMessage: "The uploaded file is empty",
		},
		{
			name:        "unauthorized backend response",
			err:         fmt.Errorf("fetch batch 2: %w", &api.Error{Status: http.StatusUnauthorized, Message: "jwt expired"}),
			wantCode:    "AUTH001",
			wantMessage: "Your session has expired",
		},
		{
			name:        "validation message passes through",
			err:         &api.Error{Status: http.StatusUnprocessableEntity, Message: "Name is required"},
			wantCode:    "API002",
			wantMessage: "Name is required",
		},
		{
			name:        "server error hides details",
			err:         &api.Error{Status: http.StatusInternalServerError, Message: "TypeError: x is undefined"},
			wantCode:    "API004",
			wantMessage: "The backend encountered an error",
		},
		{
			name:        "connection refused",
			err:         errors.New("dial tcp 127.0.0.1:4000: connect: connection refused"),
			wantCode:    "API006",
			wantMessage: "Unable to reach the backend",
		},
		{
			name:        "timeout",
			err:         errors.New("GET /admin/perfumes/export: context deadline exceeded"),
			wantCode:    "API007",
			wantMessage: "The backend took too long to respond",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("RATE LIMIT exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError().Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError().Message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestUserMessage_Notice(t *testing.T) {
	if !MapError(ErrNothingToExport).Notice() {
		t.Error("nothing to export should be a notice")
	}
	if MapError(ErrEmptyFile).Notice() {
		t.Error("empty file should not be a notice")
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrEmptyFile)
	want := "The uploaded file is empty (Code: IMP002). Upload a CSV file exported from this tool"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrOperationBusy, true},
		{&api.Error{Status: http.StatusNotFound, Message: "missing"}, true},
		{errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestNewUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Error("NewUserError(nil) should be nil")
	}

	ue := NewUserError(ErrFileTooLarge)
	if ue.Error() != "The file exceeds the upload size limit" {
		t.Errorf("Error() = %q", ue.Error())
	}
	if !errors.Is(ue, ErrFileTooLarge) {
		t.Error("UserError should unwrap to the technical error")
	}
	if ue.User.Code != "IMP003" {
		t.Errorf("Code = %q, want IMP003", ue.User.Code)
	}
}
