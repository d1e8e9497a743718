package command

import (
	"context"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-quality-hooks/core"
)

func TestFinishAnalysisMessage_ValidateReturnsRichError(t *testing.T) {
	err := (FinishAnalysisMessage{}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.ErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.ErrorBadInput, rich.TextCode)
	}
	if rich.Code != http.StatusBadRequest {
		t.Fatalf("expected %d code, got %d", http.StatusBadRequest, rich.Code)
	}
	validation := rich.AllValidationErrors()
	if len(validation) == 0 || validation[0].Field != "ce_task_id" {
		t.Fatalf("expected ce_task_id validation field, got %#v", validation)
	}
}

func TestPurgeDeliveriesMessage_RejectsNegativeKeep(t *testing.T) {
	if err := (PurgeDeliveriesMessage{Keep: -1}).Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := (PurgeDeliveriesMessage{}).Validate(); err != nil {
		t.Fatalf("expected empty message to be valid, got %v", err)
	}
}

func TestCommands_NilDependencyReturnsRichError(t *testing.T) {
	var cmd *PurgeDeliveriesCommand
	err := cmd.Execute(context.Background(), PurgeDeliveriesMessage{})
	if err == nil {
		t.Fatalf("expected command dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if rich.TextCode != core.ErrorNotConfigured {
		t.Fatalf("expected %q text code, got %q", core.ErrorNotConfigured, rich.TextCode)
	}
}
