package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/helpermatch/credits-backend/internal/models"
	"github.com/helpermatch/credits-backend/internal/services"
)

func TestSweepRetentionBoundary(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return base }
	grace := 24 * time.Hour

	seed := func(key string, status models.PaymentStatus, expiresAt time.Time) {
		if _, _, err := store.Ensure(ctx, key, "actor-1", models.OpCreditPurchase, 500, "USD", models.PaymentMetadata{}, expiresAt); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
		if status != models.PaymentPending {
			if _, err := store.UpdateStatus(ctx, key, status, nil, nil); err != nil {
				t.Fatalf("seed status %s: %v", key, err)
			}
		}
	}

	seed("young-pending", models.PaymentPending, base.Add(time.Hour))
	seed("old-pending", models.PaymentPending, base.Add(-time.Hour))
	seed("old-processing-in-grace", models.PaymentProcessing, base.Add(-time.Hour))
	seed("old-processing-past-grace", models.PaymentProcessing, base.Add(-grace-time.Hour))
	seed("old-failed", models.PaymentProcessing, base.Add(-time.Hour))
	if _, err := store.UpdateStatus(ctx, "old-failed", models.PaymentFailed, nil, nil); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	r := services.NewReaper(store, time.Hour, grace, now, nil)
	deleted, err := r.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("deleted %d records, want 3", deleted)
	}

	for _, key := range []string{"young-pending", "old-processing-in-grace"} {
		if _, err := store.GetByKey(ctx, key); err != nil {
			t.Errorf("%s should have survived the sweep: %v", key, err)
		}
	}
	for _, key := range []string{"old-pending", "old-processing-past-grace", "old-failed"} {
		if _, err := store.GetByKey(ctx, key); err == nil {
			t.Errorf("%s should have been reaped", key)
		}
	}

	// re-entrant: a second sweep finds nothing more to delete
	deleted, err = r.Sweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("second sweep deleted %d records, want 0", deleted)
	}
}
