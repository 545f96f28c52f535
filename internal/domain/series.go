package domain

import (
	"fmt"
	"time"
)

type Period string

const (
	Period1m      Period = "1m"
	Period5m      Period = "5m"
	Period15m     Period = "15m"
	Period30m     Period = "30m"
	Period60m     Period = "60m"
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Period1m, Period5m, Period15m, Period30m, Period60m, PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	case "":
		return PeriodDaily, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Bar is one K-line candle.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Indicator is a named series derived from K-line closes.
type Indicator struct {
	Name      string    `json:"name"`
	Values    []float64 `json:"values"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Last returns the most recent value, or false when the series is empty.
func (i Indicator) Last() (float64, bool) {
	if len(i.Values) == 0 {
		return 0, false
	}
	return i.Values[len(i.Values)-1], true
}

type Fundamental struct {
	Code           string    `json:"code"`
	MarketCap      float64   `json:"market_cap"`
	CirculationCap float64   `json:"circulation_cap"`
	UpdatedAt      time.Time `json:"updated_at"`
}
