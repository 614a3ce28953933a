package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/chargewatch/internal/dispute"
	"github.com/dshills/chargewatch/internal/risk"
)

type scoreFlags struct {
	now string
}

func newScoreCmd() *cobra.Command {
	f := &scoreFlags{}

	cmd := &cobra.Command{
		Use:   "score [dispute-file]",
		Short: "Score a single dispute from JSON and print the assessment",
		Long: `Score reads one dispute as JSON from a file (or stdin when no file is
given) and prints its risk assessment. Useful for auditing the factor
tables against a known record.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runScore(path, f)
		},
	}

	cmd.Flags().StringVar(&f.now, "now", "", "Evaluation instant, RFC 3339 (default: current time)")

	return cmd
}

func runScore(path string, f *scoreFlags) error {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return exitError(3, "read dispute: %v", err)
	}

	d, err := parseDispute(data)
	if err != nil {
		return exitError(3, "%v", err)
	}

	now := time.Now().UTC()
	if f.now != "" {
		now, err = time.Parse(time.RFC3339, f.now)
		if err != nil {
			return exitError(3, "invalid --now value %q: %v", f.now, err)
		}
	}

	fmt.Print(formatAssessment(d, risk.Assess(d, now)))
	return nil
}

// disputeInput is the ad-hoc JSON shape accepted by the score command.
type disputeInput struct {
	ID       string    `json:"id"`
	Amount   int64     `json:"amount"`
	Currency string    `json:"currency"`
	Reason   string    `json:"reason"`
	Status   string    `json:"status"`
	Created  time.Time `json:"created"`
	Charge   *struct {
		ID           string    `json:"id"`
		Created      time.Time `json:"created"`
		Brand        string    `json:"brand"`
		Funding      string    `json:"funding"`
		Country      string    `json:"country"`
		BillingEmail string    `json:"billing_email"`
		CustomerRef  string    `json:"customer_ref"`
	} `json:"charge"`
}

func parseDispute(data []byte) (dispute.Dispute, error) {
	var in disputeInput
	if err := json.Unmarshal(data, &in); err != nil {
		return dispute.Dispute{}, fmt.Errorf("parse dispute JSON: %w", err)
	}
	if in.ID == "" {
		return dispute.Dispute{}, fmt.Errorf("dispute JSON missing id")
	}

	d := dispute.Dispute{
		ID:       in.ID,
		Amount:   in.Amount,
		Currency: strings.ToLower(in.Currency),
		Reason:   dispute.Reason(in.Reason),
		Status:   in.Status,
		Created:  in.Created,
	}
	if in.Charge != nil {
		d.Charge = &dispute.Charge{
			ID:      in.Charge.ID,
			Created: in.Charge.Created,
			PaymentMethod: dispute.PaymentMethod{
				Brand:   in.Charge.Brand,
				Funding: in.Charge.Funding,
				Country: in.Charge.Country,
			},
			BillingEmail: in.Charge.BillingEmail,
			CustomerRef:  in.Charge.CustomerRef,
		}
	}
	return d, nil
}

func formatAssessment(d dispute.Dispute, a risk.Assessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d %s\n", d.ID, a.Score, a.Level)
	fmt.Fprintf(&b, "%s\n", a.Meter)
	for _, factor := range a.Factors {
		fmt.Fprintf(&b, "  - %s\n", factor)
	}
	return b.String()
}
