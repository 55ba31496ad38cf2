package entity

// SearchResult is one instrument matched by a free-text query.
type SearchResult struct {
	Symbol    string  `json:"symbol" msgpack:"symbol"`
	ShortName string  `json:"shortname,omitempty" msgpack:"shortname,omitempty"`
	LongName  string  `json:"longname,omitempty" msgpack:"longname,omitempty"`
	Exchange  string  `json:"exchange,omitempty" msgpack:"exchange,omitempty"`
	QuoteType string  `json:"quoteType,omitempty" msgpack:"quoteType,omitempty"`
	TypeDisp  string  `json:"typeDisp,omitempty" msgpack:"typeDisp,omitempty"`
	ExchDisp  string  `json:"exchDisp,omitempty" msgpack:"exchDisp,omitempty"`
	Score     float64 `json:"score,omitempty" msgpack:"score,omitempty"`
}

// Name returns the best display name available.
func (r SearchResult) Name() string {
	if r.LongName != "" {
		return r.LongName
	}
	return r.ShortName
}
