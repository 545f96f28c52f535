package provider

import (
	"context"
	"fmt"
	"strings"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"
	"stockquote-service/internal/infrastructure/httpx"

	"golang.org/x/text/encoding/simplifiedchinese"
)

const (
	TencentName        = "tencent"
	DefaultTencentBase = "http://qt.gtimg.cn"
	tencentMinFields   = 48
)

// Tencent reads the '~' separated qt.gtimg.cn feed. Volume is reported in
// lots of 100 shares and amount in units of 10k CNY.
type Tencent struct {
	BaseURL string
	Client  *httpx.Client
}

var _ application.Provider = (*Tencent)(nil)

func NewTencent(baseURL string, client *httpx.Client) *Tencent {
	if baseURL == "" {
		baseURL = DefaultTencentBase
	}
	return &Tencent{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

func (p *Tencent) Name() string { return TencentName }

func (p *Tencent) Get(ctx context.Context, symbol string) (domain.Quote, error) {
	url := fmt.Sprintf("%s/q=%s", p.BaseURL, domain.SinaSymbol(symbol))
	text, err := p.Client.GetText(ctx, url, simplifiedchinese.GBK, nil)
	if err != nil {
		return domain.Quote{}, domain.TransportError(TencentName, err)
	}
	return parseTencent(symbol, text)
}

func parseTencent(symbol, text string) (domain.Quote, error) {
	payload, err := quotedPayload(text, "v_")
	if err != nil {
		return domain.Quote{}, domain.ParseError(TencentName, err)
	}
	f := &fields{vals: strings.Split(payload, "~")}
	if len(f.vals) < tencentMinFields {
		return domain.Quote{}, domain.ParseError(TencentName, fmt.Errorf("want %d fields, got %d", tencentMinFields, len(f.vals)))
	}
	q := domain.Quote{
		Code:     symbol,
		Name:     f.str(1),
		Price:    f.float(3),
		PreClose: f.float(4),
		Open:     f.float(5),
		Volume:   f.int(6) * 100,
		High:     f.float(33),
		Low:      f.float(34),
		Amount:   f.float(37) * 10000,
	}
	if f.err != nil {
		return domain.Quote{}, domain.ParseError(TencentName, f.err)
	}
	q.Derive()
	return q, nil
}
