package services

import (
	"context"
	"time"

	"github.com/helpermatch/credits-backend/internal/idemkey"
	"github.com/helpermatch/credits-backend/internal/metrics"
	"github.com/helpermatch/credits-backend/internal/models"
	repo "github.com/helpermatch/credits-backend/internal/repository"
	"github.com/helpermatch/credits-backend/internal/worker"
)

// ContactService charges the one-time fee for contacting another actor.
// Two guards stack: the idempotency key catches retries of the same
// message, and the (sponsor, target) row catches any second charge for
// the pair regardless of key.
type ContactService struct {
	idem      repo.Idempotency
	accounts  repo.CreditAccounts
	payments  repo.Payments
	events    repo.LedgerEvents
	wp        *worker.Pool
	retention time.Duration
	now       func() time.Time
}

func NewContactService(idem repo.Idempotency, accounts repo.CreditAccounts, payments repo.Payments, events repo.LedgerEvents, wp *worker.Pool, retention time.Duration, now func() time.Time) *ContactService {
	if now == nil {
		now = time.Now
	}
	return &ContactService{
		idem: idem, accounts: accounts, payments: payments, events: events,
		wp: wp, retention: retention, now: now,
	}
}

// Charge debits credits for contacting targetID. attemptCtx is optional:
// when the client mints an attempt ID it is folded into the key so a
// failed attempt can be retried after a top-up; with it empty the key is
// fully derived from the target and message.
func (s *ContactService) Charge(ctx context.Context, sponsorID, targetID string, credits int64, message, attemptCtx string) (models.ContactChargeResult, error) {
	kctx := idemkey.ContactContext(targetID, message)
	if attemptCtx != "" {
		kctx += "-" + attemptCtx
	}
	key := idemkey.Derive(sponsorID, models.OpContactFee, kctx)
	meta := models.PaymentMetadata{
		CreditsAmount: credits,
		TargetID:      targetID,
		MessageHash:   idemkey.Fingerprint(message),
	}

	rec, dup, err := s.idem.Ensure(ctx, key, sponsorID, models.OpContactFee,
		credits, "CREDITS", meta, s.now().Add(s.retention))
	if err != nil {
		return models.ContactChargeResult{}, err
	}

	if dup {
		metrics.DuplicateHits.WithLabelValues(string(models.OpContactFee)).Inc()
		return s.duplicateResult(ctx, sponsorID, rec)
	}

	if _, err := s.idem.UpdateStatus(ctx, key, models.PaymentProcessing, nil, nil); err != nil {
		return models.ContactChargeResult{}, err
	}

	res, err := s.payments.ChargeContactFee(ctx, sponsorID, targetID, credits, message, key)
	if err != nil {
		if _, ferr := s.idem.UpdateStatus(ctx, key, models.PaymentFailed, nil, nil); ferr != nil {
			s.audit(key, "status_update_failed", ferr.Error())
		}
		return models.ContactChargeResult{}, err
	}

	final := models.PaymentFailed
	outcome := "failed"
	switch {
	case res.Success:
		final, outcome = models.PaymentSucceeded, "succeeded"
		s.audit(key, "contact_fee_charged", targetID)
	case res.AlreadyContacted:
		outcome = "already_contacted"
	case res.InsufficientCredits:
		outcome = "insufficient_credits"
	}
	if _, err := s.idem.UpdateStatus(ctx, key, final, nil, nil); err != nil {
		s.audit(key, "status_update_failed", err.Error())
	}
	metrics.PaymentsTotal.WithLabelValues(string(models.OpContactFee), outcome).Inc()
	return res, nil
}

// duplicateResult echoes the already-decided outcome for a reused key.
func (s *ContactService) duplicateResult(ctx context.Context, sponsorID string, rec models.PaymentRecord) (models.ContactChargeResult, error) {
	out := models.ContactChargeResult{}
	acct, err := s.accounts.GetOrCreate(ctx, sponsorID)
	if err != nil {
		return models.ContactChargeResult{}, err
	}
	out.CreditsRemaining = acct.CreditsAvailable

	switch rec.Status {
	case models.PaymentSucceeded:
		// original success echo: the fee was charged exactly once
		out.Success = true
	case models.PaymentFailed:
		// previous attempt failed; a new attempt context is required
	default:
		// pending/processing: another request is mid-flight, no re-execute
	}
	return out, nil
}

func (s *ContactService) audit(key, action, detail string) {
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
