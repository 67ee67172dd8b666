// Package accounts is the HTTP adapter for the account directory.
package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Zhima-Mochi/minishop-catalog/internal/domain/account"
	"github.com/Zhima-Mochi/minishop-catalog/internal/observability"
	"github.com/Zhima-Mochi/minishop-catalog/internal/observability/logctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	peerAccounts     = "accounts"
	endpointGet      = "accounts.get"
	endpointCredit   = "accounts.credit"
	componentAccount = "accounts_client"
)

// Client calls the account directory over HTTP. Each call is attempted once.
type Client struct {
	baseURL string
	http    *http.Client

	log          observability.Logger
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

var _ account.Directory = (*Client)(nil)

// NewClient builds a client for baseURL. A zero timeout leaves calls bounded
// only by the caller's context.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client, tel observability.Observability) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger, _, metrics := observability.Resolve(tel)
	return &Client{
		baseURL:      baseURL,
		http:         httpClient,
		log:          logger.With(observability.F("component", componentAccount)),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

type accountEnvelope struct {
	Account *account.Account `json:"account"`
}

// Get fetches the account record. The directory may wrap it as {"account": ...}
// or return it bare.
func (c *Client) Get(ctx context.Context, accountID string) (*account.Account, error) {
	body, err := c.do(ctx, endpointGet, http.MethodGet, "/accounts/"+url.PathEscape(accountID), nil)
	if err != nil {
		var up *account.UpstreamError
		if errors.As(err, &up) && up.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", account.ErrNotFound, accountID)
		}
		return nil, err
	}

	var env accountEnvelope
	if err := decodeBody(body, &env); err != nil {
		return nil, &account.TransportError{Op: "decode account", Err: err}
	}
	if env.Account != nil {
		return env.Account, nil
	}
	var bare account.Account
	if err := decodeBody(body, &bare); err != nil {
		return nil, &account.TransportError{Op: "decode account", Err: err}
	}
	if bare.ID == "" {
		bare.ID = accountID
	}
	return &bare, nil
}

type creditRequest struct {
	Amount float64 `json:"amount"`
}

// ApplyCredit adds amount (negative to debit) to the account balance.
func (c *Client) ApplyCredit(ctx context.Context, accountID string, amount float64) (*account.Credit, error) {
	body, err := c.do(ctx, endpointCredit, http.MethodPost,
		"/accounts/"+url.PathEscape(accountID)+"/credit", creditRequest{Amount: amount})
	if err != nil {
		return nil, err
	}

	var credit account.Credit
	if err := decodeBody(body, &credit); err != nil {
		return nil, &account.TransportError{Op: "decode credit", Err: err}
	}
	if credit.AccountID == "" {
		credit.AccountID = accountID
	}
	return &credit, nil
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, payload any) (_ []byte, err error) {
	start := time.Now()
	outcome := "success"
	defer func() {
		c.extCounter.Add(1,
			observability.L("peer", peerAccounts),
			observability.L("endpoint", endpoint),
			observability.L("outcome", outcome),
		)
		c.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", peerAccounts),
			observability.L("endpoint", endpoint),
		)
		if err != nil {
			logctx.FromOr(ctx, c.log).Warn("account_directory_call_failed",
				observability.F("endpoint", endpoint),
				observability.F("outcome", outcome),
				observability.F("error", err.Error()),
			)
		}
	}()

	var reader io.Reader
	if payload != nil {
		data, mErr := json.Marshal(payload)
		if mErr != nil {
			outcome = "error"
			return nil, &account.TransportError{Op: "encode request", Err: mErr}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		outcome = "error"
		return nil, &account.TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = "error"
		if ctx.Err() != nil {
			outcome = "canceled"
		}
		return nil, &account.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "error"
		return nil, &account.TransportError{Op: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "upstream_error"
		msg := http.StatusText(resp.StatusCode)
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		return nil, &account.UpstreamError{Status: resp.StatusCode, Message: msg}
	}
	return body, nil
}

// decodeBody treats an empty body as an empty JSON object.
func decodeBody(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, dst)
}
