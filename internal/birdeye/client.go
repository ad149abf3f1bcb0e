// Package birdeye provides a client for the Birdeye public API: token
// overview (USD price lookup) and per-token market listing.
package birdeye

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Endpoint paths.
const (
	DefaultBaseURL = "https://public-api.birdeye.so"
	overviewPath   = "/defi/token_overview"
	marketsPath    = "/defi/v2/markets"

	DefaultTimeout = 20 * time.Second
)

// ChainFromID maps an EVM chain id to Birdeye's chain name.
func ChainFromID(chainID int64) (string, error) {
	switch chainID {
	case 8453:
		return "base", nil
	case 1:
		return "ethereum", nil
	case 56:
		return "bsc", nil
	default:
		return "", fmt.Errorf("unsupported chain id for birdeye: %d", chainID)
	}
}

// Client queries the Birdeye API for one chain.
type Client struct {
	apiKey  string
	chain   string
	baseURL string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new Birdeye client for the given chain name.
func NewClient(apiKey, chain string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		chain:   chain,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Overview is the subset of a token overview this system consumes.
type Overview struct {
	Symbol   string
	PriceUSD float64
}

// overviewResponse tolerates the price key variants Birdeye has used
// across chains.
type overviewResponse struct {
	Data struct {
		Symbol      string   `json:"symbol"`
		TokenSymbol string   `json:"tokenSymbol"`
		Price       *float64 `json:"price"`
		PriceUSD    *float64 `json:"priceUsd"`
		Market      struct {
			Price    *float64 `json:"price"`
			PriceUSD *float64 `json:"priceUsd"`
		} `json:"market"`
	} `json:"data"`
}

// TokenOverview fetches symbol and USD price for one token.
func (c *Client) TokenOverview(ctx context.Context, address string) (*Overview, error) {
	body, err := c.get(ctx, overviewPath, url.Values{"address": {address}})
	if err != nil {
		return nil, err
	}

	var resp overviewResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal token overview: %w", err)
	}

	symbol := resp.Data.Symbol
	if symbol == "" {
		symbol = resp.Data.TokenSymbol
	}
	price := firstPrice(resp.Data.Price, resp.Data.PriceUSD, resp.Data.Market.Price, resp.Data.Market.PriceUSD)
	if symbol == "" || price == nil {
		return nil, fmt.Errorf("token overview missing symbol/price for %s", address)
	}

	return &Overview{Symbol: symbol, PriceUSD: *price}, nil
}

// MarketSide is one side of a listed market.
type MarketSide struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals *int   `json:"decimals"`
}

// Market is one pool/market listing for a token.
type Market struct {
	Address   string     `json:"address"`
	Liquidity float64    `json:"liquidity"`
	Base      MarketSide `json:"base"`
	Quote     MarketSide `json:"quote"`
}

// marketsResponse tolerates the list shapes Birdeye has returned.
type marketsResponse struct {
	Data json.RawMessage `json:"data"`
}

// Markets lists markets for one token.
func (c *Client) Markets(ctx context.Context, address string) ([]Market, error) {
	body, err := c.get(ctx, marketsPath, url.Values{"address": {address}})
	if err != nil {
		return nil, err
	}

	var resp marketsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal markets: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	// data is either a bare list or an object with an items list.
	var markets []Market
	if err := json.Unmarshal(resp.Data, &markets); err == nil {
		return markets, nil
	}

	var wrapped struct {
		Items []Market `json:"items"`
	}
	if err := json.Unmarshal(resp.Data, &wrapped); err != nil {
		return nil, fmt.Errorf("unmarshal markets list: %w", err)
	}
	return wrapped.Items, nil
}

// get performs one API request and returns the response body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("x-chain", c.chain)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("birdeye error [%d]: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func firstPrice(candidates ...*float64) *float64 {
	for _, p := range candidates {
		if p != nil {
			return p
		}
	}
	return nil
}
