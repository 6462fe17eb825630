package util

import (
	"errors"
	"net/http"
	"testing"
)

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"validation", NewValidationError("bad input", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{"not found", NewNotFound("issue", nil), "NOT_FOUND", http.StatusNotFound},
		{"unauthorized", NewUnauthorized("no token"), "UNAUTHORIZED", http.StatusUnauthorized},
		{"forbidden", NewForbidden("nope"), "FORBIDDEN", http.StatusForbidden},
		{"conflict", NewConflict("duplicate", nil), "CONFLICT", http.StatusConflict},
		{"invalid state", NewInvalidState("not pending", nil), "INVALID_STATE", http.StatusBadRequest},
		{"invalid transition", NewInvalidTransition("pending", "closed"), "INVALID_TRANSITION", http.StatusBadRequest},
		{"already assigned", NewAlreadyAssigned("issue-1"), "ALREADY_ASSIGNED", http.StatusConflict},
		{"quota exceeded", NewQuotaExceeded(3), "QUOTA_EXCEEDED", http.StatusTooManyRequests},
		{"invalid operation", NewInvalidOperation("self delete"), "INVALID_OPERATION", http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var de *DomainError
			if !errors.As(tc.err, &de) {
				t.Fatalf("expected DomainError, got %T", tc.err)
			}
			if de.Code != tc.wantCode {
				t.Errorf("code = %s, want %s", de.Code, tc.wantCode)
			}
			if de.HTTPStatus != tc.wantStatus {
				t.Errorf("status = %d, want %d", de.HTTPStatus, tc.wantStatus)
			}
		})
	}
}

func TestQuotaExceededCarriesSubscriptionHint(t *testing.T) {
	var de *DomainError
	if !errors.As(NewQuotaExceeded(3), &de) {
		t.Fatal("expected DomainError")
	}
	if de.Details["needs_subscription"] != true {
		t.Errorf("details = %v, want needs_subscription=true", de.Details)
	}
	if de.Details["limit"] != 3 {
		t.Errorf("details = %v, want limit=3", de.Details)
	}
}

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")
	de := ToDomainError(cause)
	if de.Code != "INTERNAL_ERROR" || de.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("got %s/%d", de.Code, de.HTTPStatus)
	}
	if !errors.Is(de, cause) && de.Err != cause {
		t.Error("cause not preserved")
	}
}

func TestToDomainErrorPassesThroughDomainErrors(t *testing.T) {
	original := NewForbidden("nope")
	de := ToDomainError(original)
	if de.Code != "FORBIDDEN" {
		t.Fatalf("expected passthrough, got %s", de.Code)
	}
}
