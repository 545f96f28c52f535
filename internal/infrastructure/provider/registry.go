package provider

import (
	"fmt"

	"stockquote-service/internal/application"
	"stockquote-service/internal/infrastructure/httpx"
)

// Endpoints overrides provider base URLs; empty values use the defaults.
type Endpoints struct {
	Sina      string
	Netease   string
	Tencent   string
	Eastmoney string
}

// Chain builds the providers named in order.
func Chain(names []string, ep Endpoints, client *httpx.Client) ([]application.Provider, error) {
	out := make([]application.Provider, 0, len(names))
	for _, n := range names {
		switch n {
		case SinaName:
			out = append(out, NewSina(ep.Sina, client))
		case NeteaseName:
			out = append(out, NewNetease(ep.Netease, client))
		case TencentName:
			out = append(out, NewTencent(ep.Tencent, client))
		case FakeName:
			out = append(out, NewFake(10))
		default:
			return nil, fmt.Errorf("unknown provider %q", n)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	return out, nil
}
