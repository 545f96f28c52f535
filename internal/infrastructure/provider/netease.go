package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"
	"stockquote-service/internal/infrastructure/httpx"
)

const (
	NeteaseName        = "netease"
	DefaultNeteaseBase = "http://api.money.126.net"
)

// Netease reads the JSONP feed of api.money.126.net.
type Netease struct {
	BaseURL string
	Client  *httpx.Client
}

var _ application.Provider = (*Netease)(nil)

func NewNetease(baseURL string, client *httpx.Client) *Netease {
	if baseURL == "" {
		baseURL = DefaultNeteaseBase
	}
	return &Netease{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

type neteaseQuote struct {
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	YestClose *float64 `json:"yestclose"`
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Volume    float64  `json:"volume"`
	Turnover  float64  `json:"turnover"`
}

func (p *Netease) Name() string { return NeteaseName }

func (p *Netease) Get(ctx context.Context, symbol string) (domain.Quote, error) {
	id, ok := domain.NeteaseSymbol(symbol)
	if !ok {
		return domain.Quote{}, domain.ValidationError(NeteaseName, fmt.Errorf("%w: no netease feed for %s", domain.ErrInvalidSymbol, symbol))
	}
	url := fmt.Sprintf("%s/data/feed/%s,money.api", p.BaseURL, id)
	text, err := p.Client.GetText(ctx, url, nil, nil)
	if err != nil {
		return domain.Quote{}, domain.TransportError(NeteaseName, err)
	}
	return parseNetease(symbol, text)
}

// stripJSONP removes a `callback(...);` wrapper when present.
func stripJSONP(text string) string {
	open := strings.Index(text, "(")
	end := strings.LastIndex(text, ")")
	if open < 0 || end <= open {
		return strings.TrimSpace(text)
	}
	return text[open+1 : end]
}

func parseNetease(symbol, text string) (domain.Quote, error) {
	body := stripJSONP(text)
	if body == "" || body == "null" {
		return domain.Quote{}, domain.ParseError(NeteaseName, errors.New("empty response"))
	}
	var payload map[string]neteaseQuote
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return domain.Quote{}, domain.ParseError(NeteaseName, err)
	}
	id, _ := domain.NeteaseSymbol(symbol)
	nq, ok := payload[id]
	if !ok {
		return domain.Quote{}, domain.ParseError(NeteaseName, fmt.Errorf("symbol %s missing", symbol))
	}
	if nq.Price == nil || nq.YestClose == nil {
		return domain.Quote{}, domain.ParseError(NeteaseName, errors.New("price fields missing"))
	}
	q := domain.Quote{
		Code:     symbol,
		Name:     nq.Name,
		Price:    *nq.Price,
		PreClose: *nq.YestClose,
		Open:     nq.Open,
		High:     nq.High,
		Low:      nq.Low,
		Volume:   int64(nq.Volume),
		Amount:   nq.Turnover,
	}
	q.Derive()
	return q, nil
}
