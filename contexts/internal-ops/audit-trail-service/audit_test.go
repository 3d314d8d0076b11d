package audittrailservice_test

import (
	"context"
	"errors"
	"testing"

	audittrailservice "groundwork/contexts/internal-ops/audit-trail-service"
	"groundwork/contexts/internal-ops/audit-trail-service/application/commands"
	domainerrors "groundwork/contexts/internal-ops/audit-trail-service/domain/errors"
)

func appendEvent(t *testing.T, module audittrailservice.Module, actorID string, action string, resourceType string, resourceID string) {
	t.Helper()
	_, err := module.Append.Execute(context.Background(), commands.AppendEventCommand{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	})
	if err != nil {
		t.Fatalf("append %s: %v", action, err)
	}
}

func TestAppendEventValidation(t *testing.T) {
	module := audittrailservice.NewInMemoryModule(nil)

	_, err := module.Append.Execute(context.Background(), commands.AppendEventCommand{
		Action:       "escrow.release.approve",
		ResourceType: "escrow_transaction",
		ResourceID:   "txn-1",
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input without actor, got %v", err)
	}
}

func TestListEventsByResource(t *testing.T) {
	module := audittrailservice.NewInMemoryModule(nil)

	appendEvent(t, module, "client-1", "escrow.agreement.create", "escrow_agreement", "agr-1")
	appendEvent(t, module, "client-1", "escrow.agreement.fund", "escrow_agreement", "agr-1")
	appendEvent(t, module, "builder-1", "escrow.release.request", "escrow_transaction", "txn-1")

	scoped, err := module.Handler.ListEventsHandler(context.Background(), "escrow_agreement", "agr-1", 0)
	if err != nil {
		t.Fatalf("list scoped: %v", err)
	}
	if len(scoped.Items) != 2 {
		t.Fatalf("expected 2 agreement events, got %d", len(scoped.Items))
	}
	for _, item := range scoped.Items {
		if item.ResourceID != "agr-1" {
			t.Fatalf("unexpected resource in scoped list: %+v", item)
		}
	}

	recent, err := module.Handler.ListEventsHandler(context.Background(), "", "", 0)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent.Items) != 3 {
		t.Fatalf("expected all 3 events, got %d", len(recent.Items))
	}

	limited, err := module.Handler.ListEventsHandler(context.Background(), "", "", 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited.Items) != 2 {
		t.Fatalf("expected limit applied, got %d", len(limited.Items))
	}
}
