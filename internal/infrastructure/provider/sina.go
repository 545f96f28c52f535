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
	SinaName        = "sina"
	DefaultSinaBase = "http://hq.sinajs.cn"
	sinaReferer     = "https://finance.sina.com.cn"
	sinaMinFields   = 32
)

// Sina reads the comma separated hq_str feed.
type Sina struct {
	BaseURL string
	Client  *httpx.Client
}

var _ application.Provider = (*Sina)(nil)

func NewSina(baseURL string, client *httpx.Client) *Sina {
	if baseURL == "" {
		baseURL = DefaultSinaBase
	}
	return &Sina{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

func (p *Sina) Name() string { return SinaName }

func (p *Sina) Get(ctx context.Context, symbol string) (domain.Quote, error) {
	url := fmt.Sprintf("%s/list=%s", p.BaseURL, domain.SinaSymbol(symbol))
	text, err := p.Client.GetText(ctx, url, simplifiedchinese.GBK, map[string]string{"Referer": sinaReferer})
	if err != nil {
		return domain.Quote{}, domain.TransportError(SinaName, err)
	}
	return parseSina(symbol, text)
}

func parseSina(symbol, text string) (domain.Quote, error) {
	payload, err := quotedPayload(text, "var hq_str_")
	if err != nil {
		return domain.Quote{}, domain.ParseError(SinaName, err)
	}
	f := &fields{vals: strings.Split(payload, ",")}
	if len(f.vals) < sinaMinFields {
		return domain.Quote{}, domain.ParseError(SinaName, fmt.Errorf("want %d fields, got %d", sinaMinFields, len(f.vals)))
	}
	q := domain.Quote{
		Code:     symbol,
		Name:     f.str(0),
		Open:     f.float(1),
		PreClose: f.float(2),
		Price:    f.float(3),
		High:     f.float(4),
		Low:      f.float(5),
		Volume:   f.int(8),
		Amount:   f.float(9),
	}
	if f.err != nil {
		return domain.Quote{}, domain.ParseError(SinaName, f.err)
	}
	q.Derive()
	return q, nil
}
