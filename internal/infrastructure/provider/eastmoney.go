package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"
	"stockquote-service/internal/infrastructure/httpx"
)

const (
	EastmoneyName        = "eastmoney"
	DefaultEastmoneyBase = "http://push2.eastmoney.com"
	eastmoneyReferer     = "http://quote.eastmoney.com/"
	hundredMillion       = 1e8
)

// Eastmoney looks up total and circulating market capitalisation.
type Eastmoney struct {
	BaseURL string
	Client  *httpx.Client
}

var _ application.CapProvider = (*Eastmoney)(nil)

func NewEastmoney(baseURL string, client *httpx.Client) *Eastmoney {
	if baseURL == "" {
		baseURL = DefaultEastmoneyBase
	}
	return &Eastmoney{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

// emNumber accepts numbers and the "-" placeholder used for missing values.
type emNumber float64

var _ json.Unmarshaler = (*emNumber)(nil)

func (n *emNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "-" || s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = emNumber(v)
	return nil
}

type eastmoneyResp struct {
	Data *struct {
		TotalCap       emNumber `json:"f116"`
		CirculationCap emNumber `json:"f117"`
	} `json:"data"`
}

func (p *Eastmoney) MarketCap(ctx context.Context, symbol string) (float64, float64, error) {
	q := url.Values{}
	q.Set("secid", domain.EastmoneySecID(symbol))
	q.Set("fields", "f116,f117")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/api/qt/stock/get?"+q.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("eastmoney: create request: %w", err)
	}
	req.Header.Set("Referer", eastmoneyReferer)

	var body eastmoneyResp
	if err := p.Client.DoJSON(ctx, req, &body); err != nil {
		return 0, 0, fmt.Errorf("eastmoney: %w", err)
	}
	if body.Data == nil {
		return 0, 0, errors.New("eastmoney: empty data")
	}
	return float64(body.Data.TotalCap) / hundredMillion, float64(body.Data.CirculationCap) / hundredMillion, nil
}
