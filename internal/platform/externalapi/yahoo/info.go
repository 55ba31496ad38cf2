package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"market_gateway/internal/feature/marketdata/domain/entity"
	"market_gateway/internal/platform/externalapi/yahoo/dto"
)

// infoModules are merged into one flat TickerInfo. Earlier modules win on key clashes.
var infoModules = []string{"price", "summaryDetail", "financialData", "defaultKeyStatistics", "assetProfile"}

// FetchInfo returns the flattened quote summary of symbol, or nil when Yahoo does not know it.
func (c *Client) FetchInfo(ctx context.Context, symbol string) (entity.TickerInfo, error) {
	q := url.Values{}
	q.Set("modules", strings.Join(infoModules, ","))
	q.Set("formatted", "false")

	var body dto.QuoteSummaryResponse
	err := c.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol), q, true, &body)
	if errors.Is(err, errNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if e := body.QuoteSummary.Error; e != nil {
		if isNotFound(e) {
			return nil, nil
		}
		return nil, fmt.Errorf("yahoo api error: %s", e.Description)
	}
	if len(body.QuoteSummary.Result) == 0 {
		return nil, nil
	}

	info := entity.TickerInfo{}
	result := body.QuoteSummary.Result[0]
	for _, module := range infoModules {
		raw, ok := result[module]
		if !ok {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("yahoo decode module %s: %w", module, err)
		}
		for k, v := range fields {
			if k == "maxAge" {
				continue
			}
			if _, seen := info[k]; seen {
				continue
			}
			if v, keep := unwrap(v); keep {
				info[k] = v
			}
		}
	}
	if len(info) == 0 {
		return nil, nil
	}
	if !info.Has("symbol") {
		info["symbol"] = symbol
	}
	return info, nil
}

// unwrap turns {"raw": x, "fmt": "..."} into x and drops empty objects and nulls.
func unwrap(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		if raw, ok := t["raw"]; ok {
			return raw, raw != nil
		}
		if len(t) == 0 {
			return nil, false
		}
	}
	return v, true
}

func isNotFound(e *dto.APIError) bool {
	return strings.EqualFold(e.Code, "Not Found")
}
