package services

import (
	"context"
	"errors"
	"time"

	"github.com/helpermatch/credits-backend/internal/gateway"
	"github.com/helpermatch/credits-backend/internal/idemkey"
	"github.com/helpermatch/credits-backend/internal/metrics"
	"github.com/helpermatch/credits-backend/internal/models"
	repo "github.com/helpermatch/credits-backend/internal/repository"
	"github.com/helpermatch/credits-backend/internal/worker"
)

// ErrNotConfirmed: the gateway reported the payment as anything other
// than succeeded during server-side confirmation.
var ErrNotConfirmed = errors.New("payment not confirmed by gateway")

// PurchaseService drives a credit purchase through its state machine:
// pending -> processing -> succeeded|failed. Every step leans on the
// idempotency record; the gateway is only ever called by the one writer
// that created it.
type PurchaseService struct {
	idem      repo.Idempotency
	accounts  repo.CreditAccounts
	payments  repo.Payments
	events    repo.LedgerEvents
	gw        gateway.Client
	wp        *worker.Pool
	retention time.Duration
	now       func() time.Time
}

func NewPurchaseService(idem repo.Idempotency, accounts repo.CreditAccounts, payments repo.Payments, events repo.LedgerEvents, gw gateway.Client, wp *worker.Pool, retention time.Duration, now func() time.Time) *PurchaseService {
	if now == nil {
		now = time.Now
	}
	return &PurchaseService{
		idem: idem, accounts: accounts, payments: payments, events: events,
		gw: gw, wp: wp, retention: retention, now: now,
	}
}

// Purchase initiates a credit purchase. attemptCtx must be minted once
// per user action and reused across retries of that action, so a retry
// lands on the same key and a new click gets a fresh one.
func (s *PurchaseService) Purchase(ctx context.Context, actorID string, creditsAmount, costMinorUnits int64, attemptCtx string) (models.PurchaseStart, error) {
	key := idemkey.Derive(actorID, models.OpCreditPurchase, attemptCtx)
	meta := models.PaymentMetadata{CreditsAmount: creditsAmount}

	rec, dup, err := s.idem.Ensure(ctx, key, actorID, models.OpCreditPurchase,
		costMinorUnits, "USD", meta, s.now().Add(s.retention))
	if err != nil {
		return models.PurchaseStart{}, err
	}

	if dup {
		metrics.DuplicateHits.WithLabelValues(string(models.OpCreditPurchase)).Inc()
		return s.duplicateResult(ctx, key, rec)
	}

	if _, err := s.idem.UpdateStatus(ctx, key, models.PaymentProcessing, nil, nil); err != nil {
		return models.PurchaseStart{}, err
	}

	intent, err := s.gw.CreatePaymentIntent(ctx, costMinorUnits, "USD", meta, key)
	if err != nil {
		// no balance change; caller retries with a fresh attempt
		if _, ferr := s.idem.UpdateStatus(ctx, key, models.PaymentFailed, nil, nil); ferr != nil {
			s.audit(key, "status_update_failed", ferr.Error())
		}
		metrics.PaymentsTotal.WithLabelValues(string(models.OpCreditPurchase), "gateway_error").Inc()
		s.audit(key, "gateway_rejected", err.Error())
		return models.PurchaseStart{Outcome: models.PurchaseGatewayError, Key: key}, nil
	}

	// intent created, not yet confirmed: record the reference, stay processing
	if _, err := s.idem.UpdateStatus(ctx, key, models.PaymentProcessing, &intent.ID, nil); err != nil {
		return models.PurchaseStart{}, err
	}
	metrics.PaymentsTotal.WithLabelValues(string(models.OpCreditPurchase), "started").Inc()
	s.audit(key, "intent_created", intent.ID)

	return models.PurchaseStart{
		Outcome:           models.PurchaseStarted,
		Key:               key,
		GatewayPaymentRef: intent.ID,
		ClientSecret:      intent.ClientSecret,
	}, nil
}

func (s *PurchaseService) duplicateResult(ctx context.Context, key string, rec models.PaymentRecord) (models.PurchaseStart, error) {
	out := models.PurchaseStart{Key: key, Duplicate: true}
	switch rec.Status {
	case models.PaymentSucceeded:
		acct, err := s.accounts.GetOrCreate(ctx, rec.ActorID)
		if err != nil {
			return models.PurchaseStart{}, err
		}
		out.Outcome = models.PurchaseAlreadyCredited
		out.CreditsBalance = acct.CreditsAvailable
	case models.PaymentFailed:
		out.Outcome = models.PurchasePreviouslyFailed
	default:
		// pending or processing: someone else owns the attempt
		out.Outcome = models.PurchaseInFlight
	}
	return out, nil
}

// Complete closes out a confirmed purchase. Safe to call repeatedly with
// the same key: the ledger insert, balance increment and succeeded
// transition commit atomically, and a record already succeeded performs
// no mutation at all.
func (s *PurchaseService) Complete(ctx context.Context, key, gatewayPaymentRef string) (models.PurchaseCompletion, error) {
	out, err := s.payments.CompletePurchase(ctx, key, gatewayPaymentRef)
	if err != nil {
		return models.PurchaseCompletion{}, err
	}
	if !out.AlreadyCompleted {
		metrics.PaymentsTotal.WithLabelValues(string(models.OpCreditPurchase), "succeeded").Inc()
		s.audit(key, "purchase_completed", gatewayPaymentRef)
	}
	return out, nil
}

// ConfirmAndComplete confirms the payment server-side and, when the
// gateway reports success, credits the account. A declined confirmation
// moves the record to failed and returns ErrNotConfirmed.
func (s *PurchaseService) ConfirmAndComplete(ctx context.Context, key, clientSecret, paymentMethod string) (models.PurchaseCompletion, error) {
	conf, err := s.gw.ConfirmPayment(ctx, clientSecret, paymentMethod)
	if err != nil {
		return models.PurchaseCompletion{}, err
	}
	if conf.Status != "succeeded" {
		if _, ferr := s.idem.UpdateStatus(ctx, key, models.PaymentFailed, nil, nil); ferr != nil && !errors.Is(ferr, repo.ErrIllegalTransition) {
			return models.PurchaseCompletion{}, ferr
		}
		metrics.PaymentsTotal.WithLabelValues(string(models.OpCreditPurchase), "declined").Inc()
		return models.PurchaseCompletion{}, ErrNotConfirmed
	}
	return s.Complete(ctx, key, conf.PaymentIntentID)
}

func (s *PurchaseService) audit(key, action, detail string) {
	if s.events == nil || s.wp == nil {
		return
	}
	k := key
	s.wp.Submit(func() {
		_ = s.events.Create(context.Background(), models.LedgerEvent{
			EntityType: "payment",
			EntityID:   &k,
			Action:     action,
			Details:    map[string]any{"message": detail},
		})
	})
}
