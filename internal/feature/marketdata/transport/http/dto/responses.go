// Package dto holds the JSON response shapes of the marketdata routes.
package dto

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidateResponse reports that a ticker exists.
type ValidateResponse struct {
	Symbol string `json:"symbol"`
	Valid  bool   `json:"valid"`
}

// CandleResponse is one daily bar.
type CandleResponse struct {
	Time     string   `json:"time"` // exchange-local date, 2006-01-02
	Open     float64  `json:"open"`
	High     float64  `json:"high"`
	Low      float64  `json:"low"`
	Close    float64  `json:"close"`
	Volume   int64    `json:"volume"`
	AdjClose *float64 `json:"adjClose,omitempty"`
}

// HistoryResponse is a single-ticker series. Empty is true when no data is available.
type HistoryResponse struct {
	Symbol   string           `json:"symbol"`
	Period   string           `json:"period"`
	Adjusted bool             `json:"adjusted"`
	Empty    bool             `json:"empty"`
	Data     []CandleResponse `json:"data"`
}

// BulkHistoryResponse is a multi-ticker table: Data[ticker][field] is aligned with Index.
// Gaps are null.
type BulkHistoryResponse struct {
	Period  string                           `json:"period"`
	Empty   bool                             `json:"empty"`
	Tickers []string                         `json:"tickers"`
	Index   []string                         `json:"index"`
	Data    map[string]map[string][]*float64 `json:"data"`
}

// SearchResultResponse is one search hit.
type SearchResultResponse struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Type     string `json:"type"`
}

// SearchResponse lists search hits for a query.
type SearchResponse struct {
	Query   string                 `json:"query"`
	Count   int                    `json:"count"`
	Results []SearchResultResponse `json:"results"`
}

// PriceResponse carries a current price; Price is null when unavailable.
type PriceResponse struct {
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"price"`
}

// BulkPriceResponse maps each requested symbol to its price or null.
type BulkPriceResponse struct {
	Prices map[string]*float64 `json:"prices"`
}
