package main

import (
	"strings"
	"testing"
	"time"

	"github.com/dshills/chargewatch/internal/risk"
)

const disputeJSON = `{
	"id": "dp_1",
	"amount": 100000,
	"currency": "USD",
	"reason": "fraudulent",
	"status": "needs_response",
	"created": "2026-03-18T02:00:00Z",
	"charge": {
		"id": "ch_1",
		"created": "2026-03-18T00:00:00Z",
		"brand": "visa",
		"funding": "credit",
		"country": "US",
		"billing_email": "jo@example.com",
		"customer_ref": "cus_1"
	}
}`

func TestParseDispute(t *testing.T) {
	d, err := parseDispute([]byte(disputeJSON))
	if err != nil {
		t.Fatalf("parseDispute: %v", err)
	}
	if d.ID != "dp_1" || d.Amount != 100000 {
		t.Errorf("unexpected dispute %+v", d)
	}
	if d.Currency != "usd" {
		t.Errorf("currency = %q, want lowercased usd", d.Currency)
	}
	if d.Charge == nil || d.Charge.PaymentMethod.Brand != "visa" {
		t.Errorf("unexpected charge %+v", d.Charge)
	}
}

func TestParseDisputeWithoutCharge(t *testing.T) {
	d, err := parseDispute([]byte(`{"id": "dp_2", "amount": 100, "currency": "usd"}`))
	if err != nil {
		t.Fatalf("parseDispute: %v", err)
	}
	if d.Charge != nil {
		t.Errorf("expected nil charge, got %+v", d.Charge)
	}
}

func TestParseDisputeErrors(t *testing.T) {
	if _, err := parseDispute([]byte("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := parseDispute([]byte(`{"amount": 5}`)); err == nil {
		t.Error("expected error for missing id")
	}
}

func TestFormatAssessment(t *testing.T) {
	d, err := parseDispute([]byte(disputeJSON))
	if err != nil {
		t.Fatalf("parseDispute: %v", err)
	}
	now := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)
	out := formatAssessment(d, risk.Assess(d, now))

	if !strings.HasPrefix(out, "dp_1: 85 CRITICAL\n") {
		t.Errorf("unexpected header line:\n%s", out)
	}
	if strings.Count(out, "  - ") != 5 {
		t.Errorf("expected 5 factor lines:\n%s", out)
	}
	if !strings.Contains(out, "█") {
		t.Errorf("expected meter bar in output:\n%s", out)
	}
}
