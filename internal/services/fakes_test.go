package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/helpermatch/credits-backend/internal/gateway"
	"github.com/helpermatch/credits-backend/internal/models"
	repo "github.com/helpermatch/credits-backend/internal/repository"
)

// memStore implements the repository interfaces with the same atomicity
// the Postgres procedures provide: every operation holds one lock, so a
// check-and-act can never interleave with another writer.
type memStore struct {
	mu       sync.Mutex
	records  map[string]models.PaymentRecord
	accounts map[string]models.CreditAccount
	ledger   []models.CreditTransaction
	contacts map[string]models.ContactCharge
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{
		records:  map[string]models.PaymentRecord{},
		accounts: map[string]models.CreditAccount{},
		contacts: map[string]models.ContactCharge{},
	}
}

func (m *memStore) seedAccount(actorID string, credits int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[actorID] = models.CreditAccount{
		ActorID:               actorID,
		CreditsAvailable:      credits,
		CreditsTotalPurchased: credits,
	}
	if credits != 0 {
		m.ledger = append(m.ledger, models.CreditTransaction{
			ID: "seed", ActorID: actorID, Kind: models.KindPurchase, CreditsDelta: credits,
		})
	}
}

func (m *memStore) ledgerSum(actorID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, t := range m.ledger {
		if t.ActorID == actorID {
			sum += t.CreditsDelta
		}
	}
	return sum
}

func (m *memStore) debitCount(actorID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.ledger {
		if t.ActorID == actorID && t.Kind == models.KindDebit {
			n++
		}
	}
	return n
}

// --- repo.Idempotency ---

func (m *memStore) Ensure(_ context.Context, key, actorID string, op models.OperationType, amount int64, currency string, meta models.PaymentMetadata, expiresAt time.Time) (models.PaymentRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[key]; ok {
		return rec, true, nil
	}
	rec := models.PaymentRecord{
		Key: key, ActorID: actorID, OperationType: op, Amount: amount,
		Currency: currency, Metadata: meta, Status: models.PaymentPending,
		CreatedAt: time.Now(), ExpiresAt: expiresAt,
	}
	m.records[key] = rec
	return rec, false, nil
}

func (m *memStore) UpdateStatus(_ context.Context, key string, status models.PaymentStatus, paymentRef, chargeRef *string) (models.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return models.PaymentRecord{}, repo.ErrNotFound
	}
	if !rec.Status.CanTransition(status) {
		return models.PaymentRecord{}, repo.ErrIllegalTransition
	}
	rec.Status = status
	if paymentRef != nil {
		rec.GatewayPaymentRef = paymentRef
	}
	if chargeRef != nil {
		rec.GatewayChargeRef = chargeRef
	}
	m.records[key] = rec
	return rec, nil
}

func (m *memStore) GetByKey(_ context.Context, key string) (models.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return models.PaymentRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

func (m *memStore) DeleteExpired(_ context.Context, now time.Time, grace time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, rec := range m.records {
		if !rec.ExpiresAt.Before(now) {
			continue
		}
		if rec.Status == models.PaymentProcessing && !rec.ExpiresAt.Before(now.Add(-grace)) {
			continue
		}
		delete(m.records, k)
		n++
	}
	return n, nil
}

// --- repo.CreditAccounts ---

func (m *memStore) Get(_ context.Context, actorID string) (models.CreditAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[actorID]
	if !ok {
		return models.CreditAccount{}, repo.ErrNotFound
	}
	return a, nil
}

func (m *memStore) GetOrCreate(_ context.Context, actorID string) (models.CreditAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[actorID]; ok {
		return a, nil
	}
	a := models.CreditAccount{ActorID: actorID}
	m.accounts[actorID] = a
	return a, nil
}

// --- repo.Payments ---

func (m *memStore) CompletePurchase(_ context.Context, key, gatewayPaymentRef string) (models.PurchaseCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return models.PurchaseCompletion{}, repo.ErrNotFound
	}
	if rec.Status == models.PaymentSucceeded {
		return models.PurchaseCompletion{
			AlreadyCompleted: true,
			CreditsBalance:   m.accounts[rec.ActorID].CreditsAvailable,
		}, nil
	}
	if rec.Status == models.PaymentFailed {
		return models.PurchaseCompletion{}, repo.ErrIllegalTransition
	}

	m.nextID++
	txID := fmt.Sprintf("tx-%d", m.nextID)
	m.ledger = append(m.ledger, models.CreditTransaction{
		ID: txID, ActorID: rec.ActorID, Kind: models.KindPurchase,
		CreditsDelta: rec.Metadata.CreditsAmount, IdempotencyKey: key,
	})
	a := m.accounts[rec.ActorID]
	a.ActorID = rec.ActorID
	a.CreditsAvailable += rec.Metadata.CreditsAmount
	a.CreditsTotalPurchased += rec.Metadata.CreditsAmount
	now := time.Now()
	a.LastPurchaseAt = &now
	m.accounts[rec.ActorID] = a

	rec.Status = models.PaymentSucceeded
	rec.GatewayPaymentRef = &gatewayPaymentRef
	m.records[key] = rec

	return models.PurchaseCompletion{CreditsBalance: a.CreditsAvailable, TransactionID: txID}, nil
}

func (m *memStore) ChargeContactFee(_ context.Context, sponsorID, targetID string, credits int64, message, key string) (models.ContactChargeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pair := sponsorID + "|" + targetID
	if _, ok := m.contacts[pair]; ok {
		return models.ContactChargeResult{
			AlreadyContacted: true,
			CreditsRemaining: m.accounts[sponsorID].CreditsAvailable,
		}, nil
	}
	a := m.accounts[sponsorID]
	if a.CreditsAvailable < credits {
		return models.ContactChargeResult{
			InsufficientCredits: true,
			CreditsRemaining:    a.CreditsAvailable,
		}, nil
	}
	m.contacts[pair] = models.ContactCharge{
		SponsorID: sponsorID, TargetID: targetID, CreditsCharged: credits, Message: message,
	}
	a.CreditsAvailable -= credits
	m.accounts[sponsorID] = a
	m.ledger = append(m.ledger, models.CreditTransaction{
		ID: "tx-" + key, ActorID: sponsorID, Kind: models.KindDebit,
		CreditsDelta: -credits, CounterpartyID: &targetID, IdempotencyKey: key,
	})
	return models.ContactChargeResult{Success: true, CreditsRemaining: a.CreditsAvailable}, nil
}

// --- repo.CreditTransactions ---

func (m *memStore) ListByActor(_ context.Context, actorID string, limit, offset int) ([]models.CreditTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CreditTransaction
	for _, t := range m.ledger {
		if t.ActorID == actorID {
			out = append(out, t)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeGateway counts intent creations so tests can assert the gateway is
// called at most once per key.
type fakeGateway struct {
	mu            sync.Mutex
	createCalls   int
	failCreate    bool
	confirmStatus string
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, amount int64, currency string, _ models.PaymentMetadata, key string) (gateway.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	if g.failCreate {
		return gateway.PaymentIntent{}, errors.New("gateway unavailable")
	}
	return gateway.PaymentIntent{ID: "pi_" + key, ClientSecret: "cs_" + key}, nil
}

func (g *fakeGateway) ConfirmPayment(_ context.Context, clientSecret, _ string) (gateway.Confirmation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	status := g.confirmStatus
	if status == "" {
		status = "succeeded"
	}
	return gateway.Confirmation{Status: status, PaymentIntentID: "pi_from_" + clientSecret}, nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createCalls
}
