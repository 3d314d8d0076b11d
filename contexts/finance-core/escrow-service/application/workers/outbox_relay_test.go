package workers_test

import (
	"context"
	"testing"

	escrowservice "groundwork/contexts/finance-core/escrow-service"
	"groundwork/contexts/finance-core/escrow-service/application/workers"
	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	"groundwork/contexts/finance-core/escrow-service/ports"
	httptransport "groundwork/contexts/finance-core/escrow-service/transport/http"
)

type capturingPublisher struct {
	topics []string
	events []ports.EventEnvelope
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func TestOutboxRelayDrainsPendingMessages(t *testing.T) {
	price := 3000.0
	module := escrowservice.NewInMemoryModule([]entities.Milestone{
		{
			MilestoneID: "ms-1",
			ContractID:  "contract-1",
			Title:       "Foundation",
			Amount:      &price,
			Status:      entities.MilestoneStatusCompleted,
		},
	}, nil)

	created, err := module.Handler.CreateAgreementHandler(context.Background(), "client-1", httptransport.CreateAgreementRequest{
		ProjectID:   "proj-1",
		ContractID:  "contract-1",
		PayerID:     "client-1",
		PayeeID:     "builder-1",
		TotalAmount: 10000,
	})
	if err != nil {
		t.Fatalf("create agreement: %v", err)
	}
	if _, err := module.Handler.FundAgreementHandler(context.Background(), "client-1", created.Item.AgreementID); err != nil {
		t.Fatalf("fund agreement: %v", err)
	}
	if _, err := module.Handler.RequestReleaseHandler(context.Background(), "builder-1", created.Item.AgreementID, httptransport.RequestReleaseRequest{
		MilestoneID: "ms-1",
	}); err != nil {
		t.Fatalf("request release: %v", err)
	}

	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{
		Outbox:    module.Store,
		Publisher: publisher,
		Clock:     module.Store,
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run: %v", err)
	}
	// agreement created, agreement funded, release requested
	if len(publisher.events) != 3 {
		t.Fatalf("expected 3 published events, got %d", len(publisher.events))
	}
	for _, topic := range publisher.topics {
		if topic != "escrow.events" {
			t.Fatalf("expected escrow.events topic, got %s", topic)
		}
	}
	seen := map[string]bool{}
	for _, event := range publisher.events {
		seen[event.EventType] = true
	}
	if !seen["escrow.agreement.created"] || !seen["escrow.agreement.funded"] || !seen["escrow.release.requested"] {
		t.Fatalf("unexpected event types: %v", seen)
	}

	publisher.events = nil
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second relay run: %v", err)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("sent messages must not be republished, got %d", len(publisher.events))
	}
}
