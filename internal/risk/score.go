// Package risk scores payment disputes for chargeback and fraud risk.
//
// Assess is a total, pure function: given the same dispute and the same
// evaluation instant it always produces the same assessment, and it never
// fails. The evaluation instant is captured once per report run by the
// caller so that every dispute in a batch is scored against the same clock.
package risk

import (
	"fmt"
	"time"

	"github.com/dshills/chargewatch/internal/dispute"
	"github.com/shopspring/decimal"
)

// Assessment is the scorer's verdict on a single dispute.
type Assessment struct {
	Score   int
	Level   Level
	Factors []string
	Meter   string
}

// fallbackScore is used when the dispute carries no expanded charge. A
// conservative mid-range score keeps the report flowing instead of failing
// the whole run over one thin record.
const fallbackScore = 50

// reasonPoints maps each known dispute reason to its contribution, capped at
// 30. An unknown or absent reason is worth 5: the provider not knowing why a
// cardholder disputed is weakly suspicious, not neutral.
var reasonPoints = map[dispute.Reason]int{
	dispute.ReasonFraudulent:           30,
	dispute.ReasonUnrecognized:         25,
	dispute.ReasonDuplicate:            20,
	dispute.ReasonProductNotReceived:   15,
	dispute.ReasonProductUnacceptable:  12,
	dispute.ReasonCreditNotProcessed:   10,
	dispute.ReasonSubscriptionCanceled: 8,
	dispute.ReasonGeneral:              5,
}

const unknownReasonPoints = 5

// zeroDecimal holds the currencies whose smallest stored unit is already the
// major unit, so amounts must not be divided by 100.
var zeroDecimal = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {},
	"kmf": {}, "krw": {}, "mga": {}, "pyg": {}, "rwf": {},
	"ugx": {}, "vnd": {}, "vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

// amountBands holds descending major-unit thresholds per currency. The bands
// are a rough cross-currency equivalence, not an FX conversion: JPY and KRW
// sit two to three orders of magnitude above USD, EUR and GBP at parity.
// Currencies without an entry fall back to the USD bands.
var amountBands = map[string][5]int64{
	"usd": {5000, 1000, 500, 100, 50},
	"eur": {5000, 1000, 500, 100, 50},
	"gbp": {5000, 1000, 500, 100, 50},
	"jpy": {500000, 100000, 50000, 10000, 5000},
	"krw": {500000, 100000, 50000, 10000, 5000},
}

// amountBandPoints pairs with amountBands positionally; below every band the
// amount is still worth 2, never zero.
var amountBandPoints = [5]int{25, 20, 15, 10, 5}

// IsZeroDecimal reports whether the currency stores amounts in major units.
func IsZeroDecimal(currency string) bool {
	_, ok := zeroDecimal[currency]
	return ok
}

// NormalizeAmount converts a stored amount to major currency units.
func NormalizeAmount(amount int64, currency string) decimal.Decimal {
	d := decimal.NewFromInt(amount)
	if IsZeroDecimal(currency) {
		return d
	}
	return d.Shift(-2)
}

// FormatAmount renders a stored amount in major units for human output,
// with two decimal places except for zero-decimal currencies.
func FormatAmount(amount int64, currency string) string {
	n := NormalizeAmount(amount, currency)
	if IsZeroDecimal(currency) {
		return n.StringFixed(0)
	}
	return n.StringFixed(2)
}

// Assess scores one dispute against the evaluation instant now. It never
// fails: a dispute without an expanded charge receives the fixed fallback
// assessment.
func Assess(d dispute.Dispute, now time.Time) Assessment {
	if d.Charge == nil {
		return Assessment{
			Score:   fallbackScore,
			Level:   LevelOf(fallbackScore),
			Factors: []string{fmt.Sprintf("charge data unavailable, defaulting to score %d", fallbackScore)},
			Meter:   Meter(fallbackScore),
		}
	}

	// Factor order is fixed and preserved in the output.
	factors := make([]string, 0, 5)
	total := 0

	pts, factor := reasonScore(d.Reason)
	total += pts
	factors = append(factors, factor)

	pts, factor = amountScore(d.Amount, d.Currency)
	total += pts
	factors = append(factors, factor)

	pts, factor = customerAgeScore(d.Charge.Created, now)
	total += pts
	factors = append(factors, factor)

	pts, factor = timingScore(d.Charge.Created, d.Created)
	total += pts
	factors = append(factors, factor)

	pts, factor = paymentMethodScore(d.Charge.PaymentMethod)
	total += pts
	factors = append(factors, factor)

	score := clamp(total, 0, 100)
	return Assessment{
		Score:   score,
		Level:   LevelOf(score),
		Factors: factors,
		Meter:   Meter(score),
	}
}

// reasonScore awards up to 30 points from the reason lookup table.
func reasonScore(r dispute.Reason) (int, string) {
	if pts, ok := reasonPoints[r]; ok {
		return pts, fmt.Sprintf("reason %q (+%d)", string(r), pts)
	}
	label := string(r)
	if label == "" {
		label = "unknown"
	}
	return unknownReasonPoints, fmt.Sprintf("reason %q not recognized (+%d)", label, unknownReasonPoints)
}

// amountScore awards up to 25 points by bucketing the major-unit amount
// against the currency's bands.
func amountScore(amount int64, currency string) (int, string) {
	bands, ok := amountBands[currency]
	if !ok {
		bands = amountBands["usd"]
	}
	major := NormalizeAmount(amount, currency)

	pts := 2
	for i, threshold := range bands {
		if major.GreaterThanOrEqual(decimal.NewFromInt(threshold)) {
			pts = amountBandPoints[i]
			break
		}
	}
	return pts, fmt.Sprintf("amount %s %s (+%d)", FormatAmount(amount, currency), currency, pts)
}

// customerAgeScore awards up to 20 points. The age of the charge stands in
// for account maturity: a charge created shortly before evaluation points at
// a fresh, higher-risk customer.
func customerAgeScore(chargeCreated, now time.Time) (int, string) {
	days := daysBetween(chargeCreated, now)
	var pts int
	switch {
	case days < 1:
		pts = 20
	case days < 7:
		pts = 15
	case days < 30:
		pts = 10
	case days < 90:
		pts = 5
	default:
		pts = 2
	}
	return pts, fmt.Sprintf("charge is %d day(s) old (+%d)", days, pts)
}

// timingScore awards up to 15 points for the gap between charge and dispute.
// A near-instant dispute is more suspicious than a delayed one.
func timingScore(chargeCreated, disputeCreated time.Time) (int, string) {
	days := daysBetween(chargeCreated, disputeCreated)
	var pts int
	switch {
	case days < 1:
		pts = 15
	case days < 3:
		pts = 12
	case days < 7:
		pts = 8
	case days < 14:
		pts = 5
	default:
		pts = 2
	}
	return pts, fmt.Sprintf("disputed %d day(s) after charge (+%d)", days, pts)
}

// lowRiskCountries are card-issuing countries that do not add points.
var lowRiskCountries = map[string]struct{}{
	"US": {}, "CA": {}, "GB": {},
}

// higherRiskBrands add a small bump; chargeback rates run higher on these
// networks than the majors.
var higherRiskBrands = map[string]struct{}{
	"discover": {}, "diners": {}, "jcb": {},
}

// paymentMethodScore awards up to 10 points from additive sub-rules. Missing
// card details simply fail to match; they never error and never add points,
// except that an unknown country is not granted low-risk standing.
func paymentMethodScore(pm dispute.PaymentMethod) (int, string) {
	pts := 0
	notes := make([]string, 0, 3)

	if pm.Funding == "prepaid" {
		pts += 5
		notes = append(notes, "prepaid card")
	}
	if pm.Country != "" {
		if _, ok := lowRiskCountries[pm.Country]; !ok {
			pts += 3
			notes = append(notes, "issued in "+pm.Country)
		}
	}
	if _, ok := higherRiskBrands[pm.Brand]; ok {
		pts += 2
		notes = append(notes, pm.Brand+" network")
	}
	if pts > 10 {
		pts = 10
	}

	if len(notes) == 0 {
		return pts, fmt.Sprintf("payment method %s, no risk markers (+%d)", pm.Describe(), pts)
	}
	label := notes[0]
	for _, n := range notes[1:] {
		label += ", " + n
	}
	return pts, fmt.Sprintf("payment method %s: %s (+%d)", pm.Describe(), label, pts)
}

// daysBetween returns whole days from a to b, floored at zero so clock skew
// between provider timestamps cannot produce negative ages.
func daysBetween(a, b time.Time) int {
	d := int(b.Sub(a).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
