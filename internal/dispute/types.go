// Package dispute defines the domain model for payment disputes.
package dispute

import "time"

// Dispute is a cardholder-initiated contest of a completed payment, as
// returned by the billing provider. Amount is in minor currency units,
// except for zero-decimal currencies where it is already in major units.
type Dispute struct {
	ID       string
	Amount   int64
	Currency string
	Reason   Reason
	Status   string
	Created  time.Time
	Charge   *Charge
}

// Charge is the original payment transaction being disputed. It is nil on
// a Dispute when the provider response was not expanded.
type Charge struct {
	ID            string
	Created       time.Time
	PaymentMethod PaymentMethod
	BillingEmail  string
	CustomerRef   string
}

// PaymentMethod describes the card used for the charge. Any field may be
// empty when the provider did not report it.
type PaymentMethod struct {
	Brand   string
	Funding string
	Country string
}

// Describe returns a short brand/funding label for report output.
func (m PaymentMethod) Describe() string {
	switch {
	case m.Brand == "" && m.Funding == "":
		return "unknown"
	case m.Funding == "":
		return m.Brand
	case m.Brand == "":
		return m.Funding
	}
	return m.Brand + "/" + m.Funding
}
