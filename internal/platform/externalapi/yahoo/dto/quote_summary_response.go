package dto

import "encoding/json"

// QuoteSummaryResponse is the body of /v10/finance/quoteSummary/{symbol}.
// Each result maps a module name to that module's fields.
type QuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *APIError                    `json:"error"`
	} `json:"quoteSummary"`
}
