package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"stockmarket-service/internal/application"
	"stockmarket-service/internal/domain"
	infraconfig "stockmarket-service/internal/infrastructure/config"
	"stockmarket-service/internal/infrastructure/httpx"
)

// TwelveDataProvider fetches daily time series bars, one HTTP GET per symbol.
type TwelveDataProvider struct {
	BaseURL    string
	APIKey     string
	OutputSize int
	Client     *httpx.Client
}

var _ application.MarketDataProvider = (*TwelveDataProvider)(nil)

type timeSeriesResp struct {
	Status  string                    `json:"status"`
	Code    int                       `json:"code"`
	Message string                    `json:"message"`
	Values  []application.ProviderRow `json:"values"`
}

func (p *TwelveDataProvider) Fetch(ctx context.Context, symbol, interval, startDate string) ([]domain.PriceRecord, error) {
	if p.BaseURL == "" || p.APIKey == "" {
		return nil, errors.New("twelvedata: missing configuration")
	}
	outputSize := p.OutputSize
	if outputSize <= 0 {
		outputSize = infraconfig.DefaultProviderOutputSize
	}

	buildReq := func() (*http.Request, error) {
		u, err := url.Parse(p.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("twelvedata: invalid base url: %w", err)
		}
		q := u.Query()
		q.Set("symbol", symbol)
		q.Set("interval", interval)
		q.Set("outputsize", strconv.Itoa(outputSize))
		q.Set("apikey", p.APIKey)
		q.Set("format", "JSON")
		q.Set("start_date", startDate)
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	}

	client := p.Client
	if client == nil {
		client = &httpx.Client{HTTP: &http.Client{Timeout: infraconfig.DefaultProviderTimeout}}
	}
	var body timeSeriesResp
	if err := client.DoJSON(ctx, buildReq, &body); err != nil {
		return nil, fmt.Errorf("twelvedata: %w", err)
	}
	if body.Status == "error" {
		return nil, fmt.Errorf("twelvedata: %d %s", body.Code, body.Message)
	}

	recs := make([]domain.PriceRecord, 0, len(body.Values))
	for _, row := range body.Values {
		rec, err := application.NormalizeProviderRow(symbol, row)
		if err != nil {
			return nil, fmt.Errorf("twelvedata: %s: %w", symbol, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
