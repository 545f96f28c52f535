package domain

import "time"

// QuoteHistory is one persisted tick.
type QuoteHistory struct {
	ID         int64
	Code       string
	Price      float64
	ChangePct  float64
	Volume     int64
	Amount     float64
	Source     string
	QuotedAt   time.Time
	InsertedAt time.Time
}

func HistoryFromQuote(q Quote) QuoteHistory {
	return QuoteHistory{
		Code:      q.Code,
		Price:     q.Price,
		ChangePct: q.ChangePct,
		Volume:    q.Volume,
		Amount:    q.Amount,
		Source:    q.Source,
		QuotedAt:  q.FetchedAt,
	}
}
