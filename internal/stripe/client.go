// Package stripe implements the billing-provider client used to list
// payment disputes.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dshills/chargewatch/internal/dispute"
)

const (
	defaultBaseURL   = "https://api.stripe.com/v1"
	defaultPageLimit = 100

	// maxPages bounds the pagination loop so a provider bug returning
	// has_more forever cannot hang a run.
	maxPages = 50
)

// Client lists disputes from the Stripe API.
type Client struct {
	apiKey    string
	baseURL   string
	pageLimit int
	client    *http.Client
}

// Config carries the client settings; only APIKey is required.
type Config struct {
	APIKey    string
	BaseURL   string
	PageLimit int
	Timeout   time.Duration
}

// New creates a dispute client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("stripe: API key not set")
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	limit := cfg.PageLimit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:    cfg.APIKey,
		baseURL:   base,
		pageLimit: limit,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// ListDisputes fetches every dispute created inside [createdAfter,
// createdBefore], with the charge and its customer expanded. It follows the
// provider's cursor until the listing is exhausted.
func (c *Client) ListDisputes(ctx context.Context, createdAfter, createdBefore time.Time) ([]dispute.Dispute, error) {
	var out []dispute.Dispute
	startingAfter := ""

	for page := 0; page < maxPages; page++ {
		resp, err := c.listPage(ctx, createdAfter, createdBefore, startingAfter)
		if err != nil {
			return nil, err
		}
		for _, obj := range resp.Data {
			out = append(out, obj.toDomain())
		}
		if !resp.HasMore || len(resp.Data) == 0 {
			return out, nil
		}
		startingAfter = resp.Data[len(resp.Data)-1].ID
	}
	return nil, fmt.Errorf("stripe: dispute listing did not terminate after %d pages", maxPages)
}

func (c *Client) listPage(ctx context.Context, createdAfter, createdBefore time.Time, startingAfter string) (*listResponse, error) {
	params := url.Values{}
	params.Set("created[gte]", strconv.FormatInt(createdAfter.Unix(), 10))
	params.Set("created[lte]", strconv.FormatInt(createdBefore.Unix(), 10))
	params.Set("limit", strconv.Itoa(c.pageLimit))
	params.Add("expand[]", "data.charge")
	params.Add("expand[]", "data.charge.customer")
	if startingAfter != "" {
		params.Set("starting_after", startingAfter)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/disputes?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("stripe: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stripe: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stripe: API returned %d: %s", resp.StatusCode, string(body))
	}

	var result listResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("stripe: parse response: %w", err)
	}
	return &result, nil
}

type listResponse struct {
	Data    []disputeObject `json:"data"`
	HasMore bool            `json:"has_more"`
}

type disputeObject struct {
	ID       string          `json:"id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Reason   string          `json:"reason"`
	Status   string          `json:"status"`
	Created  int64           `json:"created"`
	Charge   json.RawMessage `json:"charge"`
}

type chargeObject struct {
	ID             string          `json:"id"`
	Created        int64           `json:"created"`
	Customer       json.RawMessage `json:"customer"`
	BillingDetails struct {
		Email string `json:"email"`
	} `json:"billing_details"`
	PaymentMethodDetails struct {
		Card struct {
			Brand   string `json:"brand"`
			Funding string `json:"funding"`
			Country string `json:"country"`
		} `json:"card"`
	} `json:"payment_method_details"`
}

// toDomain converts the wire object. Provider timestamps are Unix seconds.
// A charge that came back as a bare ID string (unexpanded) maps to a nil
// Charge; the scorer handles that with its fallback assessment.
func (d disputeObject) toDomain() dispute.Dispute {
	out := dispute.Dispute{
		ID:       d.ID,
		Amount:   d.Amount,
		Currency: d.Currency,
		Reason:   dispute.Reason(d.Reason),
		Status:   d.Status,
		Created:  time.Unix(d.Created, 0).UTC(),
	}

	var ch chargeObject
	if len(d.Charge) == 0 || json.Unmarshal(d.Charge, &ch) != nil || ch.ID == "" {
		return out
	}
	out.Charge = &dispute.Charge{
		ID:      ch.ID,
		Created: time.Unix(ch.Created, 0).UTC(),
		PaymentMethod: dispute.PaymentMethod{
			Brand:   ch.PaymentMethodDetails.Card.Brand,
			Funding: ch.PaymentMethodDetails.Card.Funding,
			Country: ch.PaymentMethodDetails.Card.Country,
		},
		BillingEmail: ch.BillingDetails.Email,
		CustomerRef:  customerRef(ch.Customer),
	}
	return out
}

// customerRef accepts either a bare customer ID string or an expanded
// customer object.
func customerRef(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}
