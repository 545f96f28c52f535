package application

import (
	"errors"
	"fmt"

	"stockquote-service/internal/domain"

	"go.uber.org/zap"
)

var (
	DefaultMAPeriods  = []int{5, 10, 20, 30, 60}
	DefaultEMAPeriods = []int{12, 26}
)

const DefaultRSIPeriod = 14

var errPeriod = errors.New("period must be positive")

// SMA returns the simple moving average series of prices. The result has
// len(prices)-period+1 values; the last one belongs to the newest price.
func SMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errPeriod
	}
	if len(prices) < period {
		return nil, fmt.Errorf("need %d prices for SMA, have %d", period, len(prices))
	}
	out := make([]float64, 0, len(prices)-period+1)
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out, nil
}

// EMA seeds with the SMA of the first period prices.
func EMA(prices []float64, period int) ([]float64, error) {
	seed, err := SMA(prices[:min(period, len(prices))], period)
	if err != nil {
		return nil, err
	}
	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(prices)-period+1)
	prev := seed[0]
	out = append(out, prev)
	for _, p := range prices[period:] {
		prev = p*k + prev*(1-k)
		out = append(out, prev)
	}
	return out, nil
}

// RSI is the Wilder-smoothed relative strength index. It needs period+1 prices.
func RSI(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errPeriod
	}
	if len(prices) < period+1 {
		return nil, fmt.Errorf("need %d prices for RSI, have %d", period+1, len(prices))
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		ch := prices[i] - prices[i-1]
		if ch > 0 {
			avgGain += ch
		} else {
			avgLoss -= ch
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	rsi := func() float64 {
		if avgLoss == 0 {
			return 100
		}
		return 100 - 100/(1+avgGain/avgLoss)
	}
	out := []float64{rsi()}
	for i := period + 1; i < len(prices); i++ {
		ch := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if ch > 0 {
			gain = ch
		} else {
			loss = -ch
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, rsi())
	}
	return out, nil
}

func closes(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// IndicatorEngine recomputes indicators whenever daily bars change.
type IndicatorEngine struct {
	center *DataCenter
	clock  Clock
	log    *zap.Logger
}

func NewIndicatorEngine(center *DataCenter, clock Clock, log *zap.Logger) *IndicatorEngine {
	if clock == nil {
		clock = realClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &IndicatorEngine{center: center, clock: clock, log: log}
}

func (e *IndicatorEngine) HandleEvent(ev Event) {
	p, ok := ev.Payload.(KlineUpdated)
	if !ok || p.Period != domain.PeriodDaily {
		return
	}
	e.Compute(p.Symbol, p.Bars)
}

// Compute stores every indicator that has enough history and returns
// how many were written.
func (e *IndicatorEngine) Compute(symbol string, bars []domain.Bar) int {
	cs := closes(bars)
	now := e.clock.Now()
	n := 0
	store := func(name string, values []float64, err error) {
		if err != nil {
			e.log.Debug("indicator.skipped", zap.String("symbol", symbol), zap.String("name", name), zap.Error(err))
			return
		}
		e.center.UpdateIndicator(symbol, domain.Indicator{Name: name, Values: values, UpdatedAt: now})
		n++
	}
	for _, p := range DefaultMAPeriods {
		v, err := SMA(cs, p)
		store(fmt.Sprintf("ma%d", p), v, err)
	}
	for _, p := range DefaultEMAPeriods {
		v, err := EMA(cs, p)
		store(fmt.Sprintf("ema%d", p), v, err)
	}
	v, err := RSI(cs, DefaultRSIPeriod)
	store(fmt.Sprintf("rsi%d", DefaultRSIPeriod), v, err)
	return n
}
