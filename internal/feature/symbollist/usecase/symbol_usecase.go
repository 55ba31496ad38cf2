// Package usecase implements the tracked symbol registry.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mddomain "market_gateway/internal/feature/marketdata/domain"
	"market_gateway/internal/feature/symbollist/domain"
	"market_gateway/internal/feature/symbollist/domain/entity"
)

// SymbolRepository abstracts symbol persistence.
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	Create(ctx context.Context, s *entity.Symbol) error
}

// TickerValidator confirms a ticker exists upstream before it is tracked.
type TickerValidator interface {
	ValidateTickerExists(ctx context.Context, symbol string) error
}

// AddSymbolInput is the data needed to track a new symbol.
type AddSymbolInput struct {
	Code     string
	Name     string
	Exchange string
	SortKey  int
}

// SymbolUsecase lists and registers tracked symbols.
type SymbolUsecase struct {
	repo      SymbolRepository
	validator TickerValidator
}

// NewSymbolUsecase creates a SymbolUsecase. validator may be nil, in which
// case only the symbol format is checked.
func NewSymbolUsecase(r SymbolRepository, v TickerValidator) *SymbolUsecase {
	return &SymbolUsecase{repo: r, validator: v}
}

// ListActiveSymbols returns the active symbols in display order.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx)
}

// ActiveCodes returns the codes of the active symbols.
func (u *SymbolUsecase) ActiveCodes(ctx context.Context) ([]string, error) {
	return u.repo.ListActiveCodes(ctx)
}

// AddSymbol validates and stores a new active symbol.
func (u *SymbolUsecase) AddSymbol(ctx context.Context, in AddSymbolInput) (*entity.Symbol, error) {
	code, err := mddomain.NormalizeSymbol(in.Code)
	if err != nil {
		return nil, err
	}

	if u.validator != nil {
		if err := u.validator.ValidateTickerExists(ctx, code); err != nil {
			if errors.Is(err, mddomain.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, code)
			}
			return nil, err
		}
	}

	s := &entity.Symbol{
		Code:     code,
		Name:     strings.TrimSpace(in.Name),
		Exchange: strings.TrimSpace(in.Exchange),
		IsActive: true,
		SortKey:  in.SortKey,
	}
	if err := u.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}
