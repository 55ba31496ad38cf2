package di

import (
	"github.com/rs/zerolog"

	symboladapters "market_gateway/internal/feature/symbollist/adapters"
	"market_gateway/internal/feature/symbollist/domain/entity"
	symbolusecase "market_gateway/internal/feature/symbollist/usecase"
	"market_gateway/internal/platform/config"
	"market_gateway/internal/platform/db"
)

// NewSymbolRegistry opens the symbol database, migrates it and returns the
// registry usecase. validator may be nil.
func NewSymbolRegistry(cfg *config.Config, validator symbolusecase.TickerValidator, log zerolog.Logger) (*symbolusecase.SymbolUsecase, error) {
	gdb, err := db.Open(cfg.DB, log, &entity.Symbol{})
	if err != nil {
		return nil, err
	}
	return symbolusecase.NewSymbolUsecase(symboladapters.NewSymbolRepository(gdb), validator), nil
}
