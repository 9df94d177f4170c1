package domain

import "testing"

func TestOrderStatusTerminal(t *testing.T) {
	terminal := []OrderStatus{
		OrderStatusCompleted,
		OrderStatusCanceled,
		OrderStatusMarginRejected,
		OrderStatusRejected,
	}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %q to be terminal", s)
		}
	}

	nonTerminal := []OrderStatus{OrderStatusSubmitted, OrderStatusAccepted}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Errorf("expected %q to be non-terminal", s)
		}
	}
}

func TestOrderStatusFailed(t *testing.T) {
	failed := []OrderStatus{OrderStatusCanceled, OrderStatusMarginRejected, OrderStatusRejected}
	for _, s := range failed {
		if !s.Failed() {
			t.Errorf("expected %q to be a failure status", s)
		}
	}

	if OrderStatusCompleted.Failed() {
		t.Error("completed is terminal but not a failure")
	}
	if OrderStatusSubmitted.Failed() {
		t.Error("submitted is neither terminal nor a failure")
	}
}
