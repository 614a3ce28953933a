package risk

import (
	"strings"
	"testing"
	"time"

	"github.com/dshills/chargewatch/internal/dispute"
)

var testNow = time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)

// sampleDispute builds a fully-populated dispute for scoring tests.
func sampleDispute() dispute.Dispute {
	chargeCreated := testNow.Add(-12 * time.Hour)
	return dispute.Dispute{
		ID:       "dp_1",
		Amount:   100000,
		Currency: "usd",
		Reason:   dispute.ReasonFraudulent,
		Status:   "needs_response",
		Created:  chargeCreated.Add(2 * time.Hour),
		Charge: &dispute.Charge{
			ID:      "ch_1",
			Created: chargeCreated,
		},
	}
}

func TestAssessScoreRange(t *testing.T) {
	reasons := []dispute.Reason{
		dispute.ReasonFraudulent, dispute.ReasonGeneral, "mystery", "",
	}
	amounts := []int64{0, 49, 10000, 100000, 100000000}
	ages := []time.Duration{0, 12 * time.Hour, 40 * 24 * time.Hour, 400 * 24 * time.Hour}
	methods := []dispute.PaymentMethod{
		{},
		{Brand: "jcb", Funding: "prepaid", Country: "BR"},
		{Brand: "visa", Funding: "credit", Country: "US"},
	}

	for _, reason := range reasons {
		for _, amount := range amounts {
			for _, age := range ages {
				for _, pm := range methods {
					d := sampleDispute()
					d.Reason = reason
					d.Amount = amount
					d.Charge.Created = testNow.Add(-age)
					d.Created = d.Charge.Created.Add(age / 2)
					d.Charge.PaymentMethod = pm

					a := Assess(d, testNow)
					if a.Score < 0 || a.Score > 100 {
						t.Errorf("score %d out of range for reason=%q amount=%d age=%s", a.Score, reason, amount, age)
					}
					if len(a.Factors) != 5 {
						t.Errorf("expected 5 factors, got %d", len(a.Factors))
					}
					if a.Level != LevelOf(a.Score) {
						t.Errorf("level %s inconsistent with score %d", a.Level, a.Score)
					}
				}
			}
		}
	}
}

func TestAssessKnownScenario(t *testing.T) {
	// fraudulent (30) + 1000.00 usd (20) + charge 0 days old (20) +
	// disputed same day (15) + no payment markers (0) = 85.
	a := Assess(sampleDispute(), testNow)
	if a.Score != 85 {
		t.Fatalf("score = %d, want 85; factors: %v", a.Score, a.Factors)
	}
	if a.Level != LevelCritical {
		t.Errorf("level = %s, want CRITICAL", a.Level)
	}
}

func TestAssessFactorOrder(t *testing.T) {
	a := Assess(sampleDispute(), testNow)
	prefixes := []string{"reason", "amount", "charge is", "disputed", "payment method"}
	for i, p := range prefixes {
		if !strings.HasPrefix(a.Factors[i], p) {
			t.Errorf("factor %d = %q, want prefix %q", i, a.Factors[i], p)
		}
	}
}

func TestAssessMissingCharge(t *testing.T) {
	d := sampleDispute()
	d.Charge = nil

	a := Assess(d, testNow)
	if a.Score != 50 {
		t.Errorf("fallback score = %d, want 50", a.Score)
	}
	if len(a.Factors) != 1 {
		t.Errorf("fallback factors = %d, want 1", len(a.Factors))
	}
	if a.Level != LevelMedium {
		t.Errorf("fallback level = %s, want MEDIUM", a.Level)
	}
}

func TestReasonScoreUnknownDefaultsToFive(t *testing.T) {
	for _, r := range []dispute.Reason{"", "mystery", "FRAUDULENT"} {
		pts, _ := reasonScore(r)
		if pts != 5 {
			t.Errorf("reasonScore(%q) = %d, want 5", r, pts)
		}
	}
	pts, _ := reasonScore(dispute.ReasonFraudulent)
	if pts != 30 {
		t.Errorf("reasonScore(fraudulent) = %d, want 30", pts)
	}
}

func TestAmountScoreZeroDecimal(t *testing.T) {
	// 150000 JPY stays 150000 major units: second band (>=100000) = 20.
	pts, _ := amountScore(150000, "jpy")
	if pts != 20 {
		t.Errorf("amountScore(150000 jpy) = %d, want 20", pts)
	}
	// 100000 minor USD units is 1000.00 major: second band (>=1000) = 20.
	pts, _ = amountScore(100000, "usd")
	if pts != 20 {
		t.Errorf("amountScore(100000 usd) = %d, want 20", pts)
	}
	// Were JPY wrongly divided, 150000 would land at 1500 and miss the top
	// JPY band entirely; it must not reach 25 either way.
	pts, _ = amountScore(50000000, "jpy")
	if pts != 25 {
		t.Errorf("amountScore(50000000 jpy) = %d, want 25", pts)
	}
}

func TestAmountScoreBands(t *testing.T) {
	tests := []struct {
		amount   int64
		currency string
		want     int
	}{
		{500000, "usd", 25},
		{100000, "usd", 20},
		{50000, "usd", 15},
		{10000, "usd", 10},
		{5000, "usd", 5},
		{4999, "usd", 2},
		{0, "usd", 2},
		{100000, "eur", 20},
		{100000, "gbp", 20},
		{100000, "aud", 20}, // unknown currency falls back to USD bands
		{600000, "krw", 25},
		{150000, "krw", 20},
	}
	for _, tt := range tests {
		pts, _ := amountScore(tt.amount, tt.currency)
		if pts != tt.want {
			t.Errorf("amountScore(%d, %s) = %d, want %d", tt.amount, tt.currency, pts, tt.want)
		}
	}
}

func TestCustomerAgeScoreBands(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want int
	}{
		{12 * time.Hour, 20},
		{3 * 24 * time.Hour, 15},
		{10 * 24 * time.Hour, 10},
		{45 * 24 * time.Hour, 5},
		{120 * 24 * time.Hour, 2},
	}
	for _, tt := range tests {
		pts, _ := customerAgeScore(testNow.Add(-tt.age), testNow)
		if pts != tt.want {
			t.Errorf("customerAgeScore(age=%s) = %d, want %d", tt.age, pts, tt.want)
		}
	}
}

func TestTimingScoreBands(t *testing.T) {
	charge := testNow.Add(-30 * 24 * time.Hour)
	tests := []struct {
		gap  time.Duration
		want int
	}{
		{2 * time.Hour, 15},
		{2 * 24 * time.Hour, 12},
		{5 * 24 * time.Hour, 8},
		{13 * 24 * time.Hour, 5},
		{20 * 24 * time.Hour, 2},
	}
	for _, tt := range tests {
		pts, _ := timingScore(charge, charge.Add(tt.gap))
		if pts != tt.want {
			t.Errorf("timingScore(gap=%s) = %d, want %d", tt.gap, pts, tt.want)
		}
	}
}

func TestPaymentMethodScore(t *testing.T) {
	tests := []struct {
		name string
		pm   dispute.PaymentMethod
		want int
	}{
		{"empty", dispute.PaymentMethod{}, 0},
		{"prepaid", dispute.PaymentMethod{Funding: "prepaid"}, 5},
		{"foreign", dispute.PaymentMethod{Country: "BR"}, 3},
		{"low-risk country", dispute.PaymentMethod{Country: "US"}, 0},
		{"risky brand", dispute.PaymentMethod{Brand: "jcb"}, 2},
		{"all markers", dispute.PaymentMethod{Brand: "discover", Funding: "prepaid", Country: "BR"}, 10},
		{"domestic prepaid discover", dispute.PaymentMethod{Brand: "discover", Funding: "prepaid", Country: "CA"}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts, _ := paymentMethodScore(tt.pm)
			if pts != tt.want {
				t.Errorf("paymentMethodScore() = %d, want %d", pts, tt.want)
			}
		})
	}
}

func TestDaysBetweenNeverNegative(t *testing.T) {
	if d := daysBetween(testNow, testNow.Add(-time.Hour)); d != 0 {
		t.Errorf("daysBetween with skewed clocks = %d, want 0", d)
	}
}

func TestAssessDeterministic(t *testing.T) {
	d := sampleDispute()
	a := Assess(d, testNow)
	b := Assess(d, testNow)
	if a.Score != b.Score || a.Meter != b.Meter || len(a.Factors) != len(b.Factors) {
		t.Error("Assess is not deterministic for identical input")
	}
	for i := range a.Factors {
		if a.Factors[i] != b.Factors[i] {
			t.Errorf("factor %d differs between identical calls", i)
		}
	}
}
