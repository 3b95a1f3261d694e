package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleAppErrorUsesStatusAndCode(t *testing.T) {
	rec := httptest.NewRecorder()
	cause := errors.New("duplicate")
	HandleAppError(rec, fmt.Errorf("wrapped: %w", NewAppError(http.StatusConflict, ErrCodeConflict, "already requested", cause)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != ErrCodeConflict || body.Message != "already requested" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHandleAppErrorFallsBackToInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleAppError(rec, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("root")
	appErr := NewAppError(http.StatusNotFound, ErrCodeNotFound, "missing", cause)
	if !errors.Is(appErr, cause) {
		t.Fatal("expected AppError to unwrap to its cause")
	}
	if appErr.Error() != "root" {
		t.Fatalf("expected Error() to use cause, got %q", appErr.Error())
	}
	if NewAppError(http.StatusNotFound, ErrCodeNotFound, "missing", nil).Error() != "missing" {
		t.Fatal("expected Error() to fall back to message")
	}
}

func TestPtrVal(t *testing.T) {
	p := Ptr(42)
	if Val(p) != 42 {
		t.Fatalf("expected 42, got %d", Val(p))
	}
	var nilPtr *string
	if Val(nilPtr) != "" {
		t.Fatal("expected zero value for nil pointer")
	}
}
