package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CheckoutSession is the processor-side view of a checkout. PaymentIntent is
// the processor-issued transaction id stored locally as the idempotency key.
type CheckoutSession struct {
	ID            string
	URL           string
	PaymentIntent string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
	CustomerName  string
	Metadata      map[string]string
}

// Paid reports whether the session completed with a captured payment.
func (s *CheckoutSession) Paid() bool {
	return s != nil && s.PaymentIntent != "" && s.PaymentStatus == "paid"
}

// SessionParams describes a checkout session to create.
type SessionParams struct {
	Amount        int64
	Currency      string
	ProductName   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// CheckoutProvider is the external payment processor boundary. Services talk
// to this interface only; the HTTP implementation below is the single place
// that knows the processor's wire format.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, params SessionParams) (*CheckoutSession, error)
	GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

// Client talks to the processor's checkout API.
type Client struct {
	apiBase   string
	secretKey string
	http      *http.Client
}

// NewClient constructs the processor client.
func NewClient(apiBase, secretKey string) *Client {
	return &Client{
		apiBase:   strings.TrimRight(apiBase, "/"),
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateSession opens a hosted checkout session.
func (c *Client) CreateSession(ctx context.Context, params SessionParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("customer_email", params.CustomerEmail)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", params.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.Amount, 10))
	form.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	for key, val := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), val)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// GetSession retrieves a session by its processor id.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

type sessionResponse struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	PaymentIntent   string            `json:"payment_intent"`
	PaymentStatus   string            `json:"payment_status"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	CustomerEmail   string            `json:"customer_email"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer_details"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(req *http.Request) (*CheckoutSession, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var parsed sessionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode processor response: %w", err)
	}
	if resp.StatusCode >= 400 {
		msg := parsed.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("processor request failed: %s", msg)
	}

	session := &CheckoutSession{
		ID:            parsed.ID,
		URL:           parsed.URL,
		PaymentIntent: parsed.PaymentIntent,
		PaymentStatus: parsed.PaymentStatus,
		AmountTotal:   parsed.AmountTotal,
		Currency:      parsed.Currency,
		CustomerEmail: parsed.CustomerEmail,
		CustomerName:  parsed.CustomerDetails.Name,
		Metadata:      parsed.Metadata,
	}
	if session.CustomerEmail == "" {
		session.CustomerEmail = parsed.CustomerDetails.Email
	}
	return session, nil
}
