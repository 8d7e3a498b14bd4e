package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled},
		OrderStatusProcessing: {OrderStatusShipped},
		OrderStatusShipped:    {OrderStatusDelivered},
	}
	for _, from := range validOrderStatuses {
		for _, to := range validOrderStatuses {
			want := false
			for _, candidate := range allowed[from] {
				if candidate == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Fatalf("%s -> %s: expected %v got %v", from, to, want, got)
			}
		}
	}
}

func TestOrderStatusCancellable(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusProcessing} {
		if status.Cancellable() {
			t.Fatalf("%s should not be cancellable", status)
		}
	}
	if !OrderStatusPending.Cancellable() || !OrderStatusConfirmed.Cancellable() {
		t.Fatal("pending and confirmed orders should be cancellable")
	}
}

func TestParseHelpers(t *testing.T) {
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatal("expected invalid order status error")
	}
	if got, _ := ParseWishlistPriority(""); got != PriorityMedium {
		t.Fatalf("expected default medium priority, got %s", got)
	}
	if got, _ := ParseCurrency(""); got != CurrencyINR {
		t.Fatalf("expected INR default, got %s", got)
	}
	if ParseProductSort("bogus") != ProductSortNewest {
		t.Fatal("unknown sort should default to newest")
	}
	if _, err := ParsePaymentGateway("venmo"); err == nil {
		t.Fatal("expected unknown gateway error")
	}
	if !GatewayPaytm.IsValid() {
		t.Fatal("paytm should be a recognised gateway")
	}
}

func TestTierForPoints(t *testing.T) {
	cases := map[int]LoyaltyTier{0: TierSilver, 999: TierSilver, 1000: TierGold, 2499: TierGold, 2500: TierPlatinum}
	for points, want := range cases {
		if got := TierForPoints(points); got != want {
			t.Fatalf("points %d: expected %s got %s", points, want, got)
		}
	}
}
