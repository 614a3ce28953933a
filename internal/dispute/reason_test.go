package dispute

import "testing"

func TestReasonValid(t *testing.T) {
	valid := []Reason{
		ReasonFraudulent, ReasonUnrecognized, ReasonDuplicate,
		ReasonSubscriptionCanceled, ReasonProductUnacceptable,
		ReasonProductNotReceived, ReasonCreditNotProcessed, ReasonGeneral,
	}
	for _, r := range valid {
		if !r.Valid() {
			t.Errorf("expected %q to be valid", r)
		}
	}
	for _, r := range []Reason{"", "chargeback", "FRAUDULENT"} {
		if r.Valid() {
			t.Errorf("expected %q to be invalid", r)
		}
	}
}

func TestPaymentMethodDescribe(t *testing.T) {
	tests := []struct {
		name string
		pm   PaymentMethod
		want string
	}{
		{"full", PaymentMethod{Brand: "visa", Funding: "credit"}, "visa/credit"},
		{"brand only", PaymentMethod{Brand: "amex"}, "amex"},
		{"funding only", PaymentMethod{Funding: "prepaid"}, "prepaid"},
		{"empty", PaymentMethod{}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pm.Describe(); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}
