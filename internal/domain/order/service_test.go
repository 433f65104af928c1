package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spiralshops/spiral-api/internal/domain/ledger"
	"github.com/spiralshops/spiral-api/internal/domain/loyalty"
	"github.com/spiralshops/spiral-api/internal/domain/order"
	"github.com/spiralshops/spiral-api/internal/domain/promotion"
)

// fakeStore is an in-memory ledger with the same commit discipline as the
// SQL repository: appends made inside InTx become visible only when the
// callback returns nil, and commits for one shopper are serialized.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	entries map[uuid.UUID][]ledger.Entry
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[uuid.UUID][]ledger.Entry)}
}

func (f *fakeStore) seed(shopperID uuid.UUID, delta int64, reason ledger.Reason, ref *string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.entries[shopperID] = append(f.entries[shopperID], ledger.Entry{
		ID:             f.nextID,
		ShopperID:      shopperID,
		DeltaPoints:    delta,
		Reason:         reason,
		OrderReference: ref,
		CreatedAt:      time.Now(),
	})
}

func (f *fakeStore) InTx(ctx context.Context, shopperID uuid.UUID, fn func(tx order.LedgerTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx := &fakeTx{store: f, shopperID: shopperID}
	if err := fn(tx); err != nil {
		return err
	}
	f.entries[shopperID] = append(f.entries[shopperID], tx.pending...)
	return nil
}

func (f *fakeStore) InvalidateBalance(ctx context.Context, shopperID uuid.UUID) {}

func (f *fakeStore) balance(shopperID uuid.UUID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, e := range f.entries[shopperID] {
		sum += e.DeltaPoints
	}
	return sum
}

func (f *fakeStore) count(shopperID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries[shopperID])
}

type fakeTx struct {
	store     *fakeStore
	shopperID uuid.UUID
	pending   []ledger.Entry
}

func (t *fakeTx) Balance(ctx context.Context) (int64, error) {
	var sum int64
	for _, e := range t.store.entries[t.shopperID] {
		sum += e.DeltaPoints
	}
	for _, e := range t.pending {
		sum += e.DeltaPoints
	}
	return sum, nil
}

func (t *fakeTx) Append(ctx context.Context, delta int64, reason ledger.Reason, orderReference *string) (*ledger.Entry, error) {
	t.store.nextID++
	e := ledger.Entry{
		ID:             t.store.nextID,
		ShopperID:      t.shopperID,
		DeltaPoints:    delta,
		Reason:         reason,
		OrderReference: orderReference,
		CreatedAt:      time.Now(),
	}
	t.pending = append(t.pending, e)
	return &e, nil
}

func (t *fakeTx) EntriesByReference(ctx context.Context, orderReference string) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range t.store.entries[t.shopperID] {
		if e.OrderReference != nil && *e.OrderReference == orderReference {
			out = append(out, e)
		}
	}
	for _, e := range t.pending {
		if e.OrderReference != nil && *e.OrderReference == orderReference {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubPromos struct {
	promos []promotion.Promotion
	err    error
}

func (s stubPromos) ListActive(ctx context.Context, now time.Time, mallID, retailerID string) ([]promotion.Promotion, error) {
	return s.promos, s.err
}

func newService(store *fakeStore, promos stubPromos) *order.Service {
	return order.NewService(store, promos, loyalty.NewResolver(2, 3), loyalty.NewCalculator("1"))
}

func seasonalPromo(multiplier string) promotion.Promotion {
	m, _ := decimal.NewFromString(multiplier)
	return promotion.Promotion{
		ID:         uuid.New(),
		Kind:       promotion.KindSeasonal,
		Multiplier: m,
		Scope:      promotion.ScopeGlobal,
		Active:     true,
		Status:     promotion.StatusApproved,
	}
}

func TestCheckoutRejectsInsufficientBalance(t *testing.T) {
	store := newFakeStore()
	shopperID := uuid.New()
	store.seed(shopperID, 300, ledger.ReasonSignupBonus, nil)
	svc := newService(store, stubPromos{})

	_, err := svc.Checkout(context.Background(), order.Order{
		ShopperID:             shopperID,
		SubtotalCents:         100_00,
		RequestedRedeemPoints: 500,
		OrderReference:        "order-1",
	})
	if !errors.Is(err, order.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := store.count(shopperID); got != 1 {
		t.Fatalf("expected no ledger writes on rejection, found %d entries", got)
	}
	if got := store.balance(shopperID); got != 300 {
		t.Fatalf("expected balance unchanged at 300, got %d", got)
	}
}

func TestCheckoutClampsBySubtotal(t *testing.T) {
	store := newFakeStore()
	shopperID := uuid.New()
	store.seed(shopperID, 10_000, ledger.ReasonSignupBonus, nil)
	svc := newService(store, stubPromos{})

	receipt, err := svc.Checkout(context.Background(), order.Order{
		ShopperID:             shopperID,
		SubtotalCents:         500,
		RequestedRedeemPoints: 2000,
		OrderReference:        "order-2",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if receipt.AppliedRedeem != 500 {
		t.Fatalf("expected applied redeem clamped to 500, got %d", receipt.AppliedRedeem)
	}
	if receipt.TotalCents != 0 {
		t.Fatalf("expected total of 0 cents, got %d", receipt.TotalCents)
	}
	if receipt.EarnedPoints != 5 {
		t.Fatalf("expected 5 earned points on a $5 order, got %d", receipt.EarnedPoints)
	}
	if got := store.balance(shopperID); got != 10_000-500+5 {
		t.Fatalf("unexpected balance %d", got)
	}
}

func TestCheckoutRedeemsInBlocksOf100(t *testing.T) {
	store := newFakeStore()
	shopperID := uuid.New()
	store.seed(shopperID, 1000, ledger.ReasonSignupBonus, nil)
	svc := newService(store, stubPromos{})

	receipt, err := svc.Checkout(context.Background(), order.Order{
		ShopperID:             shopperID,
		SubtotalCents:         10_00,
		RequestedRedeemPoints: 250,
		OrderReference:        "order-3",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if receipt.AppliedRedeem != 200 {
		t.Fatalf("expected 250 requested points to floor to a 200 block, got %d", receipt.AppliedRedeem)
	}
	if receipt.TotalCents != 800 {
		t.Fatalf("expected total 800 cents, got %d", receipt.TotalCents)
	}
}

func TestCheckoutEarnOnly(t *testing.T) {
	store := newFakeStore()
	shopperID := uuid.New()
	svc := newService(store, stubPromos{})

	receipt, err := svc.Checkout(context.Background(), order.Order{
		ShopperID:      shopperID,
		SubtotalCents:  999,
		OrderReference: "order-4",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if receipt.AppliedRedeem != 0 || receipt.TotalCents != 999 {
		t.Fatalf("expected full charge with no redemption, got applied=%d total=%d", receipt.AppliedRedeem, receipt.TotalCents)
	}
	if receipt.EarnedPoints != 9 {
		t.Fatalf("expected 9 earned points on $9.99, got %d", receipt.EarnedPoints)
	}
}

func TestCheckoutStacksMultipliers(t *testing.T) {
	store := newFakeStore()
	shopperID := uuid.New()
	svc := newService(store, stubPromos{promos: []promotion.Promotion{seasonalPromo("2")}})

	receipt, err := svc.Checkout(context.Background(), order.Order{
		ShopperID:      shopperID,
		SubtotalCents:  10_00,
		Pickup:         true,
		Invite:         true,
		OrderReference: "order-5",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	// pickup x2, invite x3, seasonal x2 compose to 12x.
	if receipt.EarnedPoints != 120 {
		t.Fatalf("expected 120 points at 12x on $10, got %d", receipt.EarnedPoints)
	}
}

func TestCheckoutSurvivesPromotionFeedOutage(t *testing.T) {
	store := newFakeStore()
	shopperID := uuid.New()
	svc := newService(store, stubPromos{err: errors.New("promotions store down")})

	receipt, err := svc.Checkout(context.Background(), order.Order{
		ShopperID:      shopperID,
		SubtotalCents:  10_00,
		OrderReference: "order-6",
	})
	if err != nil {
		t.Fatalf("checkout should not fail on promotion feed outage: %v", err)
	}
	if receipt.EarnedPoints != 10 {
		t.Fatalf("expected base-rate earn of 10, got %d", receipt.EarnedPoints)
	}
}

func TestCheckoutReplayIsIdempotent(t *testing.T) {
	store := newFakeStore()
	shopperID := uuid.New()
	store.seed(shopperID, 1000, ledger.ReasonSignupBonus, nil)
	svc := newService(store, stubPromos{})

	in := order.Order{
		ShopperID:             shopperID,
		SubtotalCents:         500,
		RequestedRedeemPoints: 500,
		OrderReference:        "order-7",
	}

	first, err := svc.Checkout(context.Background(), in)
	if err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}
	entriesAfterFirst := store.count(shopperID)

	second, err := svc.Checkout(context.Background(), in)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replay to be flagged")
	}
	if second.AppliedRedeem != first.AppliedRedeem || second.TotalCents != first.TotalCents || second.EarnedPoints != first.EarnedPoints {
		t.Fatalf("replay outcome diverged: first=%+v second=%+v", first, second)
	}
	if got := store.count(shopperID); got != entriesAfterFirst {
		t.Fatalf("replay wrote %d extra entries", got-entriesAfterFirst)
	}
}

func TestCheckoutCompletesMissingCredit(t *testing.T) {
	store := newFakeStore()
	shopperID := uuid.New()
	ref := "order-8"
	store.seed(shopperID, 1000, ledger.ReasonSignupBonus, nil)
	// Simulate a run that crashed after the debit write.
	store.seed(shopperID, -500, ledger.ReasonRedeemPurchase, &ref)
	svc := newService(store, stubPromos{})

	receipt, err := svc.Checkout(context.Background(), order.Order{
		ShopperID:             shopperID,
		SubtotalCents:         500,
		RequestedRedeemPoints: 500,
		OrderReference:        ref,
	})
	if err != nil {
		t.Fatalf("recovery checkout failed: %v", err)
	}
	if receipt.AppliedRedeem != 500 {
		t.Fatalf("expected stored debit of 500, got %d", receipt.AppliedRedeem)
	}
	if receipt.EarnedPoints != 5 {
		t.Fatalf("expected missing credit of 5 to be completed, got %d", receipt.EarnedPoints)
	}
	if got := store.balance(shopperID); got != 1000-500+5 {
		t.Fatalf("expected balance 505 after recovery, got %d", got)
	}

	// A second retry must not credit again.
	if _, err := svc.Checkout(context.Background(), order.Order{
		ShopperID:             shopperID,
		SubtotalCents:         500,
		RequestedRedeemPoints: 500,
		OrderReference:        ref,
	}); err != nil {
		t.Fatalf("second retry failed: %v", err)
	}
	if got := store.balance(shopperID); got != 505 {
		t.Fatalf("second retry changed balance to %d", got)
	}
}

func TestCheckoutInvalidInput(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, stubPromos{})
	shopperID := uuid.New()

	cases := []struct {
		name string
		in   order.Order
	}{
		{"negative subtotal", order.Order{ShopperID: shopperID, SubtotalCents: -1, OrderReference: "r"}},
		{"negative redeem", order.Order{ShopperID: shopperID, RequestedRedeemPoints: -1, OrderReference: "r"}},
		{"missing reference", order.Order{ShopperID: shopperID, SubtotalCents: 100}},
		{"missing shopper", order.Order{SubtotalCents: 100, OrderReference: "r"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Checkout(context.Background(), tc.in); !errors.Is(err, order.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
	if got := store.count(shopperID); got != 0 {
		t.Fatalf("invalid input must not write entries, found %d", got)
	}
}

func TestConcurrentRedemptionSingleWinner(t *testing.T) {
	store := newFakeStore()
	shopperID := uuid.New()
	store.seed(shopperID, 500, ledger.ReasonSignupBonus, nil)
	svc := newService(store, stubPromos{})

	const workers = 2
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), order.Order{
				ShopperID:             shopperID,
				SubtotalCents:         500,
				RequestedRedeemPoints: 500,
				OrderReference:        "race-" + string(rune('a'+i)),
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, order.ErrInsufficientBalance):
			rejections++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 || rejections != 1 {
		t.Fatalf("expected exactly one success and one rejection, got %d/%d", successes, rejections)
	}
}
