package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockquote-service/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2025, 3, 3, 2, 0, 0, 0, time.UTC)

func TestFailover_FirstValidWins(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	p1 := NewMockProvider(ctrl)
	p1.EXPECT().Name().Return("sina").AnyTimes()
	p1.EXPECT().Get(gomock.Any(), "600000").Return(domain.Quote{}, domain.ParseError("sina", errors.New("bad payload")))

	good := validQuote(10.5)
	good.Name = "from-netease"
	p2 := NewMockProvider(ctrl)
	p2.EXPECT().Name().Return("netease").AnyTimes()
	p2.EXPECT().Get(gomock.Any(), "600000").Return(good, nil)

	p3 := NewMockProvider(ctrl)
	p3.EXPECT().Name().Return("tencent").AnyTimes()

	src := NewFailoverSource([]Provider{p1, p2, p3}, WithFailoverClock(fakeClock{t: fixedNow}))
	q := src.Fetch(context.Background(), "600000")

	require.False(t, q.IsError())
	require.Equal(t, "netease", q.Source)
	require.Equal(t, "from-netease", q.Name)
	require.Equal(t, 10.5, q.Price)
	require.Equal(t, "600000", q.Code)
	require.Equal(t, fixedNow, q.FetchedAt)
}

func TestFailover_InvalidQuoteAdvances(t *testing.T) {
	t.Parallel()
	zero := &fakeProvider{name: "p1", quote: domain.Quote{Name: "zero", Price: 0}}
	ok := &fakeProvider{name: "p2", quote: validQuote(3)}

	q := NewFailoverSource([]Provider{zero, ok}).Fetch(context.Background(), "000001")
	require.Equal(t, "p2", q.Source)
	require.Len(t, zero.Calls(), 1)
}

func TestFailover_AllFailReturnsSentinel(t *testing.T) {
	t.Parallel()
	ps := []Provider{
		&fakeProvider{name: "p1", err: domain.TransportError("p1", context.DeadlineExceeded)},
		&fakeProvider{name: "p2", err: domain.ParseError("p2", errors.New("short"))},
		&fakeProvider{name: "p3", quote: domain.Quote{Price: -1}},
	}
	q := NewFailoverSource(ps, WithFailoverClock(fakeClock{t: fixedNow})).Fetch(context.Background(), "999999")

	require.Equal(t, domain.KindAllSourcesFailed, q.ErrorKind)
	require.Equal(t, domain.ErrorLabel, q.Name)
	require.Zero(t, q.Price)
	require.Equal(t, "999999", q.Code)
	require.Contains(t, q.ErrorDetail, "p1")
	require.Contains(t, q.ErrorDetail, "p3")
}

func TestFailover_TimeoutAdvances(t *testing.T) {
	t.Parallel()
	slow := &fakeProvider{name: "slow", delay: time.Second, quote: validQuote(1)}
	fast := &fakeProvider{name: "fast", quote: validQuote(2)}

	src := NewFailoverSource([]Provider{slow, fast}, WithProviderTimeout(20*time.Millisecond))
	q := src.Fetch(context.Background(), "600000")
	require.Equal(t, "fast", q.Source)
}

type panicProvider struct{}

func (panicProvider) Name() string { return "panic" }
func (panicProvider) Get(context.Context, string) (domain.Quote, error) {
	panic("unexpected shape")
}

func TestFailover_ProviderPanicIsRecovered(t *testing.T) {
	t.Parallel()
	src := NewFailoverSource([]Provider{panicProvider{}, &fakeProvider{name: "ok", quote: validQuote(1)}})
	var q domain.Quote
	require.NotPanics(t, func() { q = src.Fetch(context.Background(), "600000") })
	require.Equal(t, "ok", q.Source)
}

func TestFailover_InvalidSymbolSkipsProviders(t *testing.T) {
	t.Parallel()
	p := &fakeProvider{name: "p1", quote: validQuote(1)}
	q := NewFailoverSource([]Provider{p}).Fetch(context.Background(), "abc")
	require.Equal(t, domain.KindValidation, q.ErrorKind)
	require.Empty(t, p.Calls())
}

func TestFailover_MarketCapEnrichment(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	caps := NewMockCapProvider(ctrl)
	caps.EXPECT().MarketCap(gomock.Any(), "600000").Return(2500.5, 2000.25, nil)

	src := NewFailoverSource([]Provider{&fakeProvider{name: "p1", quote: validQuote(1)}}, WithCapProvider(caps))
	q := src.Fetch(context.Background(), "600000")
	require.Equal(t, 2500.5, q.MarketCap)
	require.Equal(t, 2000.25, q.CirculationCap)
}

func TestFailover_MarketCapFailureIsBestEffort(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	caps := NewMockCapProvider(ctrl)
	caps.EXPECT().MarketCap(gomock.Any(), "600000").Return(0.0, 0.0, errors.New("eastmoney down"))

	src := NewFailoverSource([]Provider{&fakeProvider{name: "p1", quote: validQuote(1)}}, WithCapProvider(caps))
	q := src.Fetch(context.Background(), "600000")
	require.False(t, q.IsError())
	require.Zero(t, q.MarketCap)
	require.Zero(t, q.CirculationCap)
}

func TestFailover_MarketCapPanicIsBestEffort(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	caps := NewMockCapProvider(ctrl)
	caps.EXPECT().MarketCap(gomock.Any(), "600000").DoAndReturn(
		func(context.Context, string) (float64, float64, error) {
			var fields map[string]float64
			fields["f116"] = 1
			return 0, 0, nil
		})

	src := NewFailoverSource([]Provider{&fakeProvider{name: "provider1", quote: validQuote(1)}}, WithCapProvider(caps))
	q := src.Fetch(context.Background(), "600000")
	require.False(t, q.IsError())
	require.Equal(t, "provider1", q.Source)
	require.Greater(t, q.Price, 0.0)
	require.Zero(t, q.MarketCap)
	require.Zero(t, q.CirculationCap)
}

func TestFailover_Providers(t *testing.T) {
	t.Parallel()
	src := NewFailoverSource([]Provider{&fakeProvider{name: "a"}, &fakeProvider{name: "b"}})
	require.Equal(t, []string{"a", "b"}, src.Providers())
}
