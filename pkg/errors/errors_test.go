package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/multierr"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodeInvalidTransition, status: http.StatusUnprocessableEntity, publicMsg: "order status transition not allowed", detailsOK: true},
		{code: CodeInvalidMode, status: http.StatusUnprocessableEntity, publicMsg: "operation not supported for order mode", detailsOK: true},
		{code: CodeAlreadyAssigned, status: http.StatusConflict, publicMsg: "order already assigned to a courier"},
		{code: CodeConcurrentModification, status: http.StatusConflict, publicMsg: "order changed concurrently, reload and retry", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestHasCodeWalksWrappedChain(t *testing.T) {
	typed := New(CodeAlreadyAssigned, "order already has a courier")
	wrapped := fmt.Errorf("assign courier: %w", typed)
	if !HasCode(wrapped, CodeAlreadyAssigned) {
		t.Fatalf("expected HasCode to find ALREADY_ASSIGNED in %v", wrapped)
	}
	if HasCode(wrapped, CodeNotFound) {
		t.Fatalf("unexpected NOT_FOUND match")
	}
	if HasCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatalf("untyped errors never match a code")
	}
}

func TestDumpFlattensCombinedAndDatabaseErrors(t *testing.T) {
	combined := Wrap(CodeDependency, multierr.Combine(
		stdErrors.New("whatsapp: timeout"),
		stdErrors.New("customer_in_app: insert failed"),
	), "notify")
	dump := Dump(combined)
	if dump.Code != CodeDependency {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Causes) != 2 {
		t.Fatalf("expected both causes, got %v", dump.Causes)
	}

	lite := Wrap(CodeDependency, fmt.Errorf("insert order: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}), "persist")
	if got := Dump(lite).DBCode; got != fmt.Sprintf("sqlite:%d", int(sqlite3.ErrConstraintUnique)) {
		t.Fatalf("unexpected db code %q", got)
	}

	pg := fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505", ConstraintName: "orders_tenant_number_key"})
	if d := Dump(pg); d.DBCode != "23505" || d.DBConstraint != "orders_tenant_number_key" {
		t.Fatalf("unexpected pg dump %+v", d)
	}
}
