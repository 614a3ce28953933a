package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/chargewatch/internal/dispute"
	"github.com/dshills/chargewatch/internal/risk"
)

// ScoredDispute pairs a fetched dispute with its assessment for rendering.
type ScoredDispute struct {
	Dispute    dispute.Dispute
	Assessment risk.Assessment
}

// winLikelihoodPlaceholder fills the reserved win-likelihood column. No
// value is computed for it; the column exists so downstream sheets keep a
// stable shape when a real estimate lands.
const winLikelihoodPlaceholder = "N/A"

var csvHeader = []string{
	"Dispute ID",
	"Created",
	"Amount",
	"Currency",
	"Charge ID",
	"Customer Email",
	"Customer Ref",
	"Reason",
	"Status",
	"Win Likelihood",
	"Payment Method",
	"Risk Score",
	"Risk Level",
	"Risk Meter",
	"Risk Factors",
}

// WriteCSV renders the scored disputes, already sorted by the caller, as a
// UTF-8 CSV with a header row.
func WriteCSV(w io.Writer, rows []ScoredDispute) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("report: write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(csvRow(row)); err != nil {
			return fmt.Errorf("report: write csv row %s: %w", row.Dispute.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: flush csv: %w", err)
	}
	return nil
}

func csvRow(row ScoredDispute) []string {
	d := row.Dispute
	a := row.Assessment

	chargeID, email, customer := "", "", ""
	method := "unknown"
	if d.Charge != nil {
		chargeID = d.Charge.ID
		email = d.Charge.BillingEmail
		customer = d.Charge.CustomerRef
		method = d.Charge.PaymentMethod.Describe()
	}

	return []string{
		d.ID,
		d.Created.Format("2006-01-02 15:04"),
		risk.FormatAmount(d.Amount, d.Currency),
		d.Currency,
		chargeID,
		email,
		customer,
		string(d.Reason),
		d.Status,
		winLikelihoodPlaceholder,
		method,
		strconv.Itoa(a.Score),
		string(a.Level),
		a.Meter,
		strings.Join(a.Factors, "; "),
	}
}

// FileName builds the report file name from the window boundaries and the
// account label, e.g. disputes_2026-03-09_2026-03-15_acme.csv.
func FileName(start, end time.Time, account string) string {
	return fmt.Sprintf("disputes_%s_%s_%s.csv",
		start.Format("2006-01-02"), end.Format("2006-01-02"), account)
}
