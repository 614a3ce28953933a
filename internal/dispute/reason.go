package dispute

// Reason is the provider's categorical tag for why the dispute was opened.
type Reason string

const (
	ReasonFraudulent           Reason = "fraudulent"
	ReasonUnrecognized         Reason = "unrecognized"
	ReasonDuplicate            Reason = "duplicate"
	ReasonSubscriptionCanceled Reason = "subscription_canceled"
	ReasonProductUnacceptable  Reason = "product_unacceptable"
	ReasonProductNotReceived   Reason = "product_not_received"
	ReasonCreditNotProcessed   Reason = "credit_not_processed"
	ReasonGeneral              Reason = "general"
)

// Valid reports whether r is one of the known dispute reasons. Providers may
// still send values outside this set; callers treat those as unknown rather
// than rejecting the record.
func (r Reason) Valid() bool {
	switch r {
	case ReasonFraudulent, ReasonUnrecognized, ReasonDuplicate,
		ReasonSubscriptionCanceled, ReasonProductUnacceptable,
		ReasonProductNotReceived, ReasonCreditNotProcessed, ReasonGeneral:
		return true
	}
	return false
}
