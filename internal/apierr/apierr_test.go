package apierr

import (
	"errors"
	"fmt"
	"testing"
)

func TestFromExtractsTypedError(t *testing.T) {
	err := NotFound("resolution")
	wrapped := fmt.Errorf("loading plan: %w", err)

	ae := From(wrapped)
	if ae == nil {
		t.Fatal("expected typed error from wrapped chain, got nil")
	}
	if ae.Status != 404 || ae.Code != "not_found" {
		t.Fatalf("unexpected status/code: %d/%s", ae.Status, ae.Code)
	}
}

func TestFromReturnsNilForPlainError(t *testing.T) {
	if ae := From(errors.New("disk full")); ae != nil {
		t.Fatalf("expected nil for untyped error, got %v", ae)
	}
	if ae := From(nil); ae != nil {
		t.Fatalf("expected nil for nil error, got %v", ae)
	}
}

func TestFromNilGuardsNotFoundCheck(t *testing.T) {
	// The repo-miss idiom: treat only a typed 404 as "absent", surface
	// everything else.
	absent := func(err error) bool {
		ae := From(err)
		return ae != nil && ae.Status == 404
	}
	if !absent(NotFound("streak")) {
		t.Fatal("typed 404 should read as absent")
	}
	if absent(Conflict("already graded")) {
		t.Fatal("409 must not read as absent")
	}
	if absent(errors.New("connection refused")) {
		t.Fatal("untyped error must not read as absent")
	}
}
