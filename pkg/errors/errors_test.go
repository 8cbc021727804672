package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeValidation, http.StatusBadRequest, false},
		{CodeForbidden, http.StatusForbidden, false},
		{CodeStateConflict, http.StatusUnprocessableEntity, false},
		{CodeEconomic, http.StatusConflict, true},
		{CodeDependency, http.StatusServiceUnavailable, true},
	}
	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.code, meta.HTTPStatus, tc.status)
		}
		if meta.Retryable != tc.retryable {
			t.Fatalf("%s: retryable = %v, want %v", tc.code, meta.Retryable, tc.retryable)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected fallback status %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Wrap(CodeDependency, cause, "pull failed")
	if err.Unwrap() != cause {
		t.Fatal("expected cause to be preserved")
	}
	if !HasCode(err, CodeDependency) {
		t.Fatal("expected dependency code")
	}
	if HasCode(err, CodeEconomic) {
		t.Fatal("unexpected economic code")
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeEconomic, "sold out")
	wrapped := fmt.Errorf("purchase: %w", inner)
	typed := As(wrapped)
	if typed == nil || typed.Code() != CodeEconomic {
		t.Fatalf("expected economic error, got %v", typed)
	}
	if As(fmt.Errorf("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
}
