package mailer

import (
	"strings"
	"testing"
	"time"
)

func TestPurchaseConfirmationGreetsByLocalPart(t *testing.T) {
	email := PurchaseConfirmation("buyer@example.com", "Night Drive", "https://dl.example.com/t/abc", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))

	if !strings.Contains(email.HTML, "Thanks for your purchase, buyer!") {
		t.Fatalf("expected greeting with local part, got %q", email.HTML)
	}
	if strings.Contains(email.HTML, "buyer@example.com") {
		t.Fatalf("expected the full address to stay out of the greeting, got %q", email.HTML)
	}
	if !strings.Contains(email.HTML, "October 1, 2026") {
		t.Fatalf("expected formatted expiry date, got %q", email.HTML)
	}
	if email.Subject != "Your beat purchase: Night Drive" {
		t.Fatalf("unexpected subject %q", email.Subject)
	}
}

func TestPurchaseConfirmationHandlesBareName(t *testing.T) {
	email := PurchaseConfirmation("buyer", "Night Drive", "https://dl.example.com/t/abc", time.Now())
	if !strings.Contains(email.HTML, "Thanks for your purchase, buyer!") {
		t.Fatalf("expected greeting to fall back to the raw value, got %q", email.HTML)
	}
}
