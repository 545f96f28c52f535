package domain

import (
	"fmt"
	"math"
	"time"
)

// ErrorLabel is the display name carried by error quotes.
const ErrorLabel = "fetch-failed"

// Quote is one symbol's latest market snapshot.
//
// A Quote is either valid (ErrorKind empty, numbers from a single provider
// response) or an error sentinel (ErrorKind set, all numbers zero).
type Quote struct {
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Price          float64   `json:"price"`
	Change         float64   `json:"change"`
	ChangePct      float64   `json:"change_pct"`
	Open           float64   `json:"open"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	PreClose       float64   `json:"pre_close"`
	Volume         int64     `json:"volume"`
	Amount         float64   `json:"amount"`
	MarketCap      float64   `json:"market_cap"`
	CirculationCap float64   `json:"circulation_cap"`
	Amplitude      float64   `json:"amplitude"`
	Source         string    `json:"source"`
	FetchedAt      time.Time `json:"fetched_at"`
	ErrorKind      ErrorKind `json:"error_kind,omitempty"`
	ErrorDetail    string    `json:"error_detail,omitempty"`
}

// NewErrorQuote builds the sentinel returned when no provider produced data.
func NewErrorQuote(code string, kind ErrorKind, detail string, at time.Time) Quote {
	return Quote{
		Code:        code,
		Name:        ErrorLabel,
		FetchedAt:   at,
		ErrorKind:   kind,
		ErrorDetail: detail,
	}
}

func (q Quote) IsError() bool { return q.ErrorKind != "" }

// Validate performs the minimal sanity checks applied to every provider
// response before it is trusted.
func (q Quote) Validate() error {
	if q.IsError() {
		return fmt.Errorf("error quote: %s", q.ErrorKind)
	}
	for _, v := range []float64{q.Price, q.Open, q.High, q.Low, q.PreClose, q.Amount} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("invalid numeric field %v", v)
		}
	}
	if q.Price <= 0 {
		return fmt.Errorf("non-positive price %v", q.Price)
	}
	if q.Volume < 0 {
		return fmt.Errorf("negative volume %d", q.Volume)
	}
	if q.High > 0 && q.Low > 0 && q.High < q.Low {
		return fmt.Errorf("high %v below low %v", q.High, q.Low)
	}
	return nil
}

// Derive fills Change, ChangePct and Amplitude from the raw price fields.
func (q *Quote) Derive() {
	q.Change = q.Price - q.PreClose
	q.ChangePct = 0
	q.Amplitude = 0
	if q.PreClose > 0 {
		q.ChangePct = q.Change / q.PreClose * 100
		if q.High > 0 && q.Low > 0 {
			q.Amplitude = (q.High - q.Low) / q.PreClose * 100
		}
	}
}
