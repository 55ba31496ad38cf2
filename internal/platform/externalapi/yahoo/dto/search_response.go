package dto

// SearchResponse is the body of /v1/finance/search.
type SearchResponse struct {
	Quotes []SearchQuote `json:"quotes"`
}

// SearchQuote is one instrument in a search response. News hits have no symbol.
type SearchQuote struct {
	Symbol    string  `json:"symbol"`
	ShortName string  `json:"shortname"`
	LongName  string  `json:"longname"`
	Exchange  string  `json:"exchange"`
	QuoteType string  `json:"quoteType"`
	TypeDisp  string  `json:"typeDisp"`
	ExchDisp  string  `json:"exchDisp"`
	Score     float64 `json:"score"`
}
