package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "clinicbook/pkg/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"conflict", apperrors.Conflict("Doctor not available at that time."), http.StatusConflict, apperrors.CodeConflict},
		{"forbidden", apperrors.Forbidden("Access restricted to: admin"), http.StatusForbidden, apperrors.CodeForbidden},
		{"not found", apperrors.NotFound("doctor"), http.StatusNotFound, apperrors.CodeNotFound},
		{"no status falls back to code", &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: "bad"}, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := WriteError(rec, tt.err); err != nil {
				t.Fatalf("WriteError() error = %v", err)
			}

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Error == "" {
				t.Errorf("error message should be set")
			}
		})
	}
}
