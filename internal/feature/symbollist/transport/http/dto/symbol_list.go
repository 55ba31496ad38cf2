// Package dto defines data transfer objects for the symbollist HTTP API.
package dto

// SymbolItem is a tracked symbol as returned to clients.
type SymbolItem struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"`
}

// CreateSymbolRequest is the body of POST /symbols.
type CreateSymbolRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	SortKey  int    `json:"sortKey"`
}
