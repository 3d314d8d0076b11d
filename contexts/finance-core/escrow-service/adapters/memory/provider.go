package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	domainerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
	"groundwork/contexts/finance-core/escrow-service/ports"
)

// Provider is an in-memory payment provider. It honors idempotency keys the
// way a real rail does: a repeated key returns the original transfer instead
// of moving money twice. Failures and hangs are scriptable per call.
type Provider struct {
	mu sync.Mutex

	accounts    map[string]ports.PayoutAccount
	transfers   map[string]ports.Transfer
	calls       int
	failNext    error
	hangNext    bool
	nextOrdinal int
}

func NewProvider() *Provider {
	return &Provider{
		accounts:  make(map[string]ports.PayoutAccount),
		transfers: make(map[string]ports.Transfer),
	}
}

// SeedAccount registers a payout account for a user.
func (p *Provider) SeedAccount(userID string, account ports.PayoutAccount) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[strings.TrimSpace(userID)] = account
}

// FailNextTransfer makes the next CreateTransfer call return err once.
func (p *Provider) FailNextTransfer(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = err
}

// HangNextTransfer makes the next CreateTransfer call block until the caller's
// context expires, then complete the transfer anyway. This models the
// unknown-outcome window where money may have moved but the response was lost.
func (p *Provider) HangNextTransfer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hangNext = true
}

// TransferCalls reports how many CreateTransfer calls actually executed a new
// transfer, as opposed to replaying one by idempotency key.
func (p *Provider) TransferCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *Provider) CreateTransfer(ctx context.Context, req ports.TransferRequest) (ports.Transfer, error) {
	p.mu.Lock()
	if p.failNext != nil {
		err := p.failNext
		p.failNext = nil
		p.mu.Unlock()
		return ports.Transfer{}, err
	}
	hang := p.hangNext
	p.hangNext = false

	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		p.mu.Unlock()
		return ports.Transfer{}, domainerrors.ErrInvalidInput
	}
	if existing, ok := p.transfers[key]; ok {
		p.mu.Unlock()
		return existing, nil
	}

	p.nextOrdinal++
	transfer := ports.Transfer{TransferID: fmt.Sprintf("tr_%06d", p.nextOrdinal)}
	p.transfers[key] = transfer
	p.calls++
	p.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ports.Transfer{}, ctx.Err()
	}
	return transfer, nil
}

func (p *Provider) GetPayoutAccount(_ context.Context, userID string) (ports.PayoutAccount, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[strings.TrimSpace(userID)]
	if !ok {
		return ports.PayoutAccount{}, domainerrors.ErrPayoutAccountUnavailable
	}
	return account, nil
}
