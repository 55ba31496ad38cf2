// Package adapters provides the gorm-backed symbol registry.
package adapters

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"market_gateway/internal/feature/symbollist/domain"
	"market_gateway/internal/feature/symbollist/domain/entity"
	"market_gateway/internal/feature/symbollist/usecase"
)

// symbolGorm implements usecase.SymbolRepository on any gorm dialect.
type symbolGorm struct {
	db *gorm.DB
}

var _ usecase.SymbolRepository = (*symbolGorm)(nil)

// NewSymbolRepository returns a repository over db.
func NewSymbolRepository(db *gorm.DB) *symbolGorm {
	return &symbolGorm{db: db}
}

// ListActive returns active symbols ordered by sort_key, then code.
func (r *symbolGorm) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	var symbols []entity.Symbol
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_key ASC").Order("code ASC").
		Find(&symbols).Error; err != nil {
		return nil, err
	}
	return symbols, nil
}

// ListActiveCodes returns only the codes of ListActive.
func (r *symbolGorm) ListActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&entity.Symbol{}).
		Where("is_active = ?", true).
		Order("sort_key ASC").Order("code ASC").
		Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// Create inserts s. A code that is already stored yields domain.ErrDuplicateSymbol.
func (r *symbolGorm) Create(ctx context.Context, s *entity.Symbol) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&entity.Symbol{}).Where("code = ?", s.Code).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrDuplicateSymbol
		}
		return tx.Create(s).Error
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrDuplicateSymbol), errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSymbol, s.Code)
	default:
		return err
	}
}
