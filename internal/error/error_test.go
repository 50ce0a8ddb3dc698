package error

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppError(t *testing.T) {
	cause := errors.New("unexpected EOF")

	tests := []struct {
		name     string
		appErr   *AppError
		wantCode int
		wantMsg  string
	}{
		{"reason and cause", NewAppError(http.StatusBadRequest, "Bad request body", cause), http.StatusBadRequest, "Bad request body. Details: unexpected EOF"},
		{"cause only", NewAppError(http.StatusBadGateway, "", cause), http.StatusBadGateway, "unexpected EOF"},
		{"zero code", NewAppError(0, "No database", nil), http.StatusInternalServerError, "No database"},
		{"formatted", AppErrorf(http.StatusNotFound, "No call %s", "42"), http.StatusNotFound, "No call 42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.appErr.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", tt.appErr.Code, tt.wantCode)
			}
			if tt.appErr.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", tt.appErr.Error(), tt.wantMsg)
			}
		})
	}

	var err error = NewAppError(http.StatusBadRequest, "Bad request body", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is() does not see the wrapped cause")
	}
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != http.StatusBadRequest {
		t.Errorf("errors.As() = %v", appErr)
	}
}
