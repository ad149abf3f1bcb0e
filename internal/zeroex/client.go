// Package zeroex provides an indicative swap-pricing client for the
// 0x Swap API v2 (allowance-holder /price endpoint).
package zeroex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dex-liquidity-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.0x.org/swap/allowance-holder/price"
	DefaultChainID = 8453 // Base
	DefaultTimeout = 20 * time.Second
)

// Client queries the 0x price endpoint. It performs no retries: a
// non-success response is a hard failure for that call and the caller
// decides what a failed quote means.
type Client struct {
	apiKey  string
	baseURL string
	chainID int64
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithBaseURL sets a custom price endpoint URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithChainID sets the chain the quotes are requested for.
func WithChainID(id int64) ClientOption {
	return func(c *Client) {
		c.chainID = id
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new 0x price client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		chainID: DefaultChainID,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PriceRequest describes one indicative quote: sell SellAmount raw units of
// SellToken for BuyToken. Decimals are needed to derive human-readable
// amounts and the unit price from the raw response.
type PriceRequest struct {
	SellToken    string
	BuyToken     string
	SellAmount   string // raw integer units
	SellDecimals int
	BuyDecimals  int
}

// Price requests an indicative quote and parses it into a domain.Quote.
func (c *Client) Price(ctx context.Context, req PriceRequest) (*domain.Quote, error) {
	params := url.Values{}
	params.Set("chainId", strconv.FormatInt(c.chainID, 10))
	params.Set("sellToken", req.SellToken)
	params.Set("buyToken", req.BuyToken)
	params.Set("sellAmount", req.SellAmount)
	// No extra slippage buffer; raw route pricing.
	params.Set("slippageBps", "0")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("accept", "application/json")
	httpReq.Header.Set("0x-api-key", c.apiKey)
	httpReq.Header.Set("0x-version", "v2")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request price: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("0x price error [%d]: %s", resp.StatusCode, string(body))
	}

	quote, err := parsePriceResponse(body, req.SellDecimals, req.BuyDecimals)
	if err != nil {
		return nil, fmt.Errorf("parse price response: %w", err)
	}
	return quote, nil
}
