package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mddomain "market_gateway/internal/feature/marketdata/domain"
	"market_gateway/internal/feature/symbollist/domain"
	"market_gateway/internal/feature/symbollist/domain/entity"
	"market_gateway/internal/feature/symbollist/transport/http/dto"
	"market_gateway/internal/feature/symbollist/usecase"
)

// SymbolUsecase is the registry as seen by the HTTP layer.
type SymbolUsecase interface {
	ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error)
	AddSymbol(ctx context.Context, in usecase.AddSymbolInput) (*entity.Symbol, error)
}

// SymbolHandler serves /symbols.
type SymbolHandler struct {
	uc SymbolUsecase
}

// NewSymbolHandler creates a SymbolHandler.
func NewSymbolHandler(uc SymbolUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List handles GET /symbols.
func (h *SymbolHandler) List(c *gin.Context) {
	symbols, err := h.uc.ListActiveSymbols(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list symbols"})
		return
	}
	out := make([]dto.SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, toItem(s))
	}
	c.JSON(http.StatusOK, out)
}

// Create handles POST /symbols.
func (h *SymbolHandler) Create(c *gin.Context) {
	var req dto.CreateSymbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	s, err := h.uc.AddSymbol(c.Request.Context(), usecase.AddSymbolInput{
		Code:     req.Code,
		Name:     req.Name,
		Exchange: req.Exchange,
		SortKey:  req.SortKey,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, toItem(*s))
	case errors.Is(err, mddomain.ErrInvalidInput), errors.Is(err, domain.ErrUnknownSymbol):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateSymbol):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, mddomain.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market data provider unavailable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add symbol"})
	}
}

func toItem(s entity.Symbol) dto.SymbolItem {
	return dto.SymbolItem{Code: s.Code, Name: s.Name, Exchange: s.Exchange}
}
