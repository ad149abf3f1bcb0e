package domain

// TokenPair identifies a measurable market.
// Corresponds to token_pairs table; (base_address, pair_address) is the
// unique key. Symbols and decimals may be refreshed via upsert.
type TokenPair struct {
	BaseAddress   string  // asset being priced (main identifier)
	BaseSymbol    *string // nullable
	BaseDecimals  int
	PairAddress   string  // LP/pool contract, informational for the oracle
	QuoteAddress  string  // pricing asset
	QuoteSymbol   *string // nullable
	QuoteDecimals int
}

// TokenPrice is a cached live USD price for one token.
// Corresponds to token_prices_live table.
type TokenPrice struct {
	Address   string  // token contract address (PK)
	Symbol    *string // nullable
	PriceUSD  float64 // USD per 1 token
	UpdatedAt int64   // Unix timestamp in seconds
}
