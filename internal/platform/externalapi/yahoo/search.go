package yahoo

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"market_gateway/internal/feature/marketdata/domain/entity"
	"market_gateway/internal/platform/externalapi/yahoo/dto"
)

const searchQuotesCount = 25

// Search returns instruments matching query. Entries are passed through as
// returned, including ones without a symbol.
func (c *Client) Search(ctx context.Context, query string) ([]entity.SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("quotesCount", strconv.Itoa(searchQuotesCount))
	q.Set("newsCount", "0")
	q.Set("listsCount", "0")
	q.Set("enableFuzzyQuery", "false")

	var body dto.SearchResponse
	err := c.get(ctx, "/v1/finance/search", q, false, &body)
	if errors.Is(err, errNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]entity.SearchResult, 0, len(body.Quotes))
	for _, r := range body.Quotes {
		out = append(out, entity.SearchResult{
			Symbol:    r.Symbol,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Exchange:  r.Exchange,
			QuoteType: r.QuoteType,
			TypeDisp:  r.TypeDisp,
			ExchDisp:  r.ExchDisp,
			Score:     r.Score,
		})
	}
	return out, nil
}
