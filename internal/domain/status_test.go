package domain_test

import (
	"testing"
	"time"

	"vendora/internal/domain"
)

func TestOrderTransitionsAreStrictlyLinear(t *testing.T) {
	all := []domain.OrderStatus{
		domain.OrderPlaced, domain.OrderProcessing, domain.OrderShipped, domain.OrderDelivered,
	}
	for i, from := range all {
		for j, to := range all {
			want := j == i+1
			if got := domain.CanTransitionOrder(from, to); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
	if domain.ValidOrderStatus("CANCELLED") {
		t.Error("CANCELLED is not an order status")
	}
}

func TestReturnTransitionsAllowSkipsButNotReversals(t *testing.T) {
	ok := [][2]domain.ReturnStatus{
		{domain.ReturnRequested, domain.ReturnApproved},
		{domain.ReturnRequested, domain.ReturnRefunded}, // skip straight to the end
		{domain.ReturnRequested, domain.ReturnRejected},
		{domain.ReturnApproved, domain.ReturnRejected},
		{domain.ReturnApproved, domain.ReturnApproved}, // same-status no-op
		{domain.ReturnPickedUp, domain.ReturnRefunded},
	}
	for _, p := range ok {
		if !domain.CanTransitionReturn(p[0], p[1]) {
			t.Errorf("%s -> %s should be allowed", p[0], p[1])
		}
	}
	bad := [][2]domain.ReturnStatus{
		{domain.ReturnPickedUp, domain.ReturnRejected}, // too late to reject
		{domain.ReturnRefunded, domain.ReturnRequested},
		{domain.ReturnRejected, domain.ReturnApproved},
		{domain.ReturnApproved, domain.ReturnRequested},
	}
	for _, p := range bad {
		if domain.CanTransitionReturn(p[0], p[1]) {
			t.Errorf("%s -> %s should be blocked", p[0], p[1])
		}
	}
}

func TestTimelineAppendAndLookup(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	raw := domain.NewTimeline(domain.OrderPlaced.String(), t0)
	raw = domain.AppendTimeline(raw, domain.OrderProcessing.String(), t0.Add(time.Hour))
	raw = domain.AppendTimeline(raw, domain.OrderShipped.String(), t0.Add(2*time.Hour))

	entries := domain.ParseTimeline(raw)
	if len(entries) != 3 {
		t.Fatalf("want 3 entries, got %d", len(entries))
	}
	if entries[0].Status != "ORDER_PLACED" || entries[2].Status != "SHIPPED" {
		t.Fatalf("entries out of order: %+v", entries)
	}

	at, ok := domain.TimelineAt(raw, domain.OrderProcessing.String())
	if !ok || !at.Equal(t0.Add(time.Hour)) {
		t.Fatalf("lookup PROCESSING: ok=%v at=%v", ok, at)
	}
	if _, ok := domain.TimelineAt(raw, domain.OrderDelivered.String()); ok {
		t.Fatal("DELIVERED should not be found")
	}
	if domain.ParseTimeline("not json") != nil {
		t.Fatal("garbage timeline should parse to nil")
	}
}

func TestVariantKeyMergesIdenticalLines(t *testing.T) {
	a := domain.VariantKey("prod-1", "M", "black")
	b := domain.VariantKey("prod-1", "M", "black")
	c := domain.VariantKey("prod-1", "L", "black")
	if a != b {
		t.Fatal("identical variants must share a key")
	}
	if a == c {
		t.Fatal("different sizes must not collide")
	}
	if len(a) != 16 {
		t.Fatalf("key should be a fixed-width hex string, got %q", a)
	}
}
